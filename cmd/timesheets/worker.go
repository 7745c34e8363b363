package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amirhosseinghanipour/timesheets/internal/clock"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background task worker and scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer s.close()
		redisClient, redisOpt, err := connectRedis(ctx, cfg)
		if err != nil {
			return err
		}
		if redisClient == nil {
			return errors.New("worker needs a reachable REDIS_URL")
		}
		defer redisClient.Close()

		worker, scheduler, err := newWorker(cfg, s, redisOpt, clock.Real())
		if err != nil {
			return err
		}
		if err := scheduler.Start(); err != nil {
			return err
		}
		defer scheduler.Shutdown()
		if err := worker.Start(); err != nil {
			return err
		}
		log.Info().Int("concurrency", cfg.Worker.Concurrency).Msg("worker started")
		<-ctx.Done()
		worker.Shutdown()
		log.Info().Msg("worker stopped")
		return nil
	},
}
