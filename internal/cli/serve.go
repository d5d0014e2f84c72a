package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tickbook/tickbook/internal/logger"
	"github.com/tickbook/tickbook/internal/notify"
	"github.com/tickbook/tickbook/internal/track"
	"github.com/tickbook/tickbook/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.With("serve")

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		clock := track.SystemClock{}
		srv := server.New(st, clock)

		schedulerDone := make(chan struct{})
		if cfg.Notify.Enabled {
			checker := notify.NewChecker(st, clock, notify.NewSMTPMailer(cfg.SMTP), cfg.Notify.ThresholdHours)
			interval := time.Duration(cfg.Notify.CheckIntervalMinutes) * time.Minute
			sched := notify.NewScheduler(checker, interval)
			go func() {
				defer close(schedulerDone)
				sched.Run(ctx)
			}()
		} else {
			close(schedulerDone)
			log.Info().Msg("daily notification job disabled")
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start(cfg.Server.Addr)
		}()
		log.Info().Str("addr", cfg.Server.Addr).Str("driver", st.Driver()).Msg("server listening")

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
		<-schedulerDone
		return nil
	},
}
