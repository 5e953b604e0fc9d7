package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ginjaninja78/ifrs-report/internal/converter"
	"github.com/ginjaninja78/ifrs-report/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the upload page and report API",
	Long: `The serve command starts an HTTP server with an upload page at / and a JSON
and xlsx API under /api. The server stops gracefully on SIGINT or SIGTERM.`,

	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		settings := converter.DefaultSettings()
		settings.Input = appConfig.Input

		handler := server.NewHandler(logger, converter.New(settings, logger), server.Options{
			MaxUploadSize: appConfig.Server.UploadSizeBytes(),
			Version:       Version,
		})

		logger.Info("starting server",
			zap.String("op", "cmd.serve"),
			zap.String("address", appConfig.Server.Address),
			zap.Int64("max_upload_size", appConfig.Server.UploadSizeBytes()))

		return server.ListenAndServe(ctx, appConfig.Server.Address, handler, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address, e.g. :8080")
	bindFlag(serveCmd, "server.address", "addr")
}
