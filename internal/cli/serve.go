package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/veritas/internal/pipeline"
	"github.com/ppiankov/veritas/internal/server"
	"github.com/ppiankov/veritas/internal/store"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the verification HTTP service",
	Long: `Serve exposes the verification pipeline over HTTP:

  GET  /               service status
  POST /verify         {"text": "..."} -> trust report
  POST /verify/stream  same, streamed as Server-Sent Events
  GET  /reports        recent reports (when a store is configured)

Example:
  veritas serve --addr :8000
  veritas serve --store ~/.veritas/history.db --search duckduckgo`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8000)")
	serveCmd.Flags().String("store", "", "SQLite path for report history")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.store_path", serveCmd.Flags().Lookup("store"))

	bindPipelineFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	p, err := pipeline.Build(cfg, logger)
	if err != nil {
		return err
	}

	var opts []server.Option
	if cfg.Server.StorePath != "" {
		st, err := store.Open(cfg.Server.StorePath)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()
		opts = append(opts, server.WithStore(st))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Veritas listening on %s\n", cfg.Server.Addr)
	return server.New(p, cfg.Server, logger, opts...).ListenAndServe(ctx)
}
