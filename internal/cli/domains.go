package cli

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tracelight-dev/tracelight/internal/store"
)

// DomainsOptions holds options for the domains command.
type DomainsOptions struct {
	Build        string
	OutputFormat string
}

// NewDomainsCommand creates the domains command.
func NewDomainsCommand() *cobra.Command {
	opts := &DomainsOptions{}

	cmd := &cobra.Command{
		Use:   "domains",
		Short: "List the domains of a build",
		Long:  `List the business domains recorded for a build (latest by default).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			b, err := resolveBuild(st, opts.Build)
			if err != nil {
				return err
			}

			domains, err := st.ListDomains(b.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.OutputFormat == "json" {
				return json.NewEncoder(out).Encode(map[string]any{
					"build":   b.ID,
					"domains": domains,
				})
			}

			_, _ = fmt.Fprintf(out, "Build %s (%d domains)\n", b.ID, len(domains))
			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"DOMAIN"})
			for _, domain := range domains {
				t.AppendRow(table.Row{domain})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Build, "build", "", "Build ID (default: latest)")
	cmd.Flags().StringVarP(&opts.OutputFormat, "output", "o", "text", "Output format (text|json)")

	return cmd
}

// resolveBuild resolves a build ID, defaulting to the latest build.
func resolveBuild(st *store.SQLiteStore, id string) (*store.Build, error) {
	if id != "" {
		return st.GetBuild(id)
	}
	b, err := st.LatestBuild()
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("no builds recorded, run 'tracelight build' first")
	}
	return b, nil
}
