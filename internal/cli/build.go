package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracelight-dev/tracelight/internal/server"
)

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build lineage documents from manifests",
		Long: `Load the lineage manifests, assemble the full and physical-only graph
documents, and record them as a new build in the state database.`,
		Example: `  # Build from the configured lineage directory
  tracelight build

  # Build from a specific directory
  tracelight build --lineage-dir ./manifests`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())
			logger := GetLogger(cmd.Context())

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			logger.Debug("building lineage", "dir", cfg.LineageDir)
			b, err := server.Rebuild(st, cfg.LineageDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Build %s recorded\n", b.ID)
			_, _ = fmt.Fprintf(out, "  %d queries, %d tables\n", b.QueryCount, b.TableCount)
			return nil
		},
	}
}
