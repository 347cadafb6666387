package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tornado/internal/docstore"
	"tornado/internal/logging"
	"tornado/internal/server"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the document store and image assets over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Store.Backend == "remote" {
				return errors.New("serve needs a local store backend, not remote")
			}
			logger, err := logging.NewConsole(cfg.Log.Level)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := docstore.Open(ctx, cfg.Store, logger)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			if addr == "" {
				addr = cfg.Server.Addr
			}
			srv := server.New(store, cfg.Assets.Dir, logger, server.Options{
				PublicURL: cfg.Server.PublicURL,
				MaxUpload: int64(cfg.Server.MaxUploadMB) << 20,
				Metrics:   server.NewMetrics("tornado"),
			})
			logger.Info("serving",
				zap.String("backend", cfg.Store.Backend),
				zap.String("assets", cfg.Assets.Dir),
			)
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
