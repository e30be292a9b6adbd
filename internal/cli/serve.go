package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tribe-fitness/internal/app"
	"tribe-fitness/internal/logging"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server, the Telegram bot and the scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log.Level)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			if err := application.Start(); err != nil {
				application.Stop()
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			failed := make(chan error, 1)
			go func() { failed <- application.Wait() }()

			var runErr error
			select {
			case <-ctx.Done():
				logger.Info("shutdown requested")
			case runErr = <-failed:
				if runErr != nil {
					logger.Error("application failed", zap.Error(runErr))
				}
			}

			if err := application.Stop(); err != nil && runErr == nil {
				runErr = err
			}
			return runErr
		},
	}
}
