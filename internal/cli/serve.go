package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/EunoiaC/Verify/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the claim checker over HTTP",
	Long: `Serve starts the HTTP front end:

  POST /receive   {"id","title","body"} -> {"post_id","analysis"}
  GET  /health    {"status":"ok"}

Example:
  verify serve
  verify serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := appConfig.Server
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	p, err := buildPipeline(ctx, appConfig)
	if err != nil {
		return err
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	fmt.Fprintf(os.Stderr, "✓ Listening on %s\n", cfg.Addr)
	return server.New(cfg, p).Run(ctx)
}
