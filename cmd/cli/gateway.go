package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mediagrab/media-relay/api"
	"github.com/mediagrab/media-relay/pkg/logger"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Serve the analyze/download API locally, forwarding to the relay",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		listen, _ := cmd.Flags().GetString("listen")
		if listen == "" {
			listen = fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port)
		}

		gwLog, err := logger.New(logger.Config{
			Level:      cfg.Logging.Level,
			Format:     cfg.Logging.Format,
			OutputPath: cfg.Logging.OutputPath,
		})
		if err != nil {
			return err
		}
		defer gwLog.Sync()

		logAdapter, err := logger.Setup(gwLog, cfg.Logging.Level, cfg.Logging.LogsDir)
		if err != nil {
			return err
		}
		defer logAdapter.Close()

		c := newClient()
		ensureServer(c)

		server := &http.Server{
			Addr:              listen,
			Handler:           api.SetupGatewayRouter(c, logAdapter),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, cancel := signalContext()
		defer cancel()

		serverErr := make(chan error, 1)
		go func() {
			gwLog.Info("Gateway listening",
				zap.String("addr", listen),
				zap.String("backend", c.BaseURL()))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				serverErr <- err
			}
		}()

		select {
		case <-ctx.Done():
			gwLog.Info("Shutting down gateway...")
		case err := <-serverErr:
			return fmt.Errorf("failed to start gateway: %w", err)
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	gatewayCmd.Flags().StringP("listen", "l", "", "Listen address (default from config gateway.host:gateway.port)")
}
