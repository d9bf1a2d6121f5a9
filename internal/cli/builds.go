package cli

import (
	"encoding/json"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewBuildsCommand creates the builds command.
func NewBuildsCommand() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "builds",
		Short: "List recorded builds",
		Long:  `List all builds recorded in the state database, most recent first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			builds, err := st.ListBuilds()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputFormat == "json" {
				return json.NewEncoder(out).Encode(builds)
			}

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"BUILD", "QUERIES", "TABLES", "CREATED"})
			for _, b := range builds {
				t.AppendRow(table.Row{
					b.ID,
					b.QueryCount,
					b.TableCount,
					b.CreatedAt.Format(time.RFC3339),
				})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format (text|json)")

	return cmd
}
