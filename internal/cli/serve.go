package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tracelight-dev/tracelight/internal/server"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port    int
	Watch   bool
	NoBuild bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the lineage API server",
		Long: `Start a local HTTP server exposing the lineage graph as a JSON API.

Unless --no-build is given, the manifests are built once on startup so
the server always has a current graph to serve. With --watch, manifest
changes trigger an automatic rebuild.`,
		Example: `  # Serve on the configured port
  tracelight serve

  # Serve on a custom port with watch enabled
  tracelight serve --port 3000 --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())
			logger := GetLogger(cmd.Context())

			port := cfg.Port
			if cmd.Flags().Changed("port") {
				port = opts.Port
			}
			watch := cfg.Watch
			if cmd.Flags().Changed("watch") {
				watch = opts.Watch
			}

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			if !opts.NoBuild {
				if _, err := os.Stat(cfg.LineageDir); os.IsNotExist(err) {
					return fmt.Errorf("lineage directory does not exist: %s", cfg.LineageDir)
				}
				b, err := server.Rebuild(st, cfg.LineageDir)
				if err != nil {
					return err
				}
				logger.Info("built lineage", "build", b.ID, "queries", b.QueryCount, "tables", b.TableCount)
			}

			srv := server.NewServer(server.Config{
				Store:      st,
				Port:       port,
				Watch:      watch,
				LineageDir: cfg.LineageDir,
				Logger:     logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.Serve(ctx)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Rebuild when manifests change")
	cmd.Flags().BoolVar(&opts.NoBuild, "no-build", false, "Skip the initial build on startup")

	return cmd
}
