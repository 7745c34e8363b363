package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amirhosseinghanipour/timesheets/internal/app"
	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/clock"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/queue"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/security"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply migrations before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	clk := clock.Real()

	s, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close()
	if serveMigrate {
		if err := s.migrate(ctx); err != nil {
			return err
		}
	}

	redisClient, redisOpt, err := connectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var events ports.TaskEnqueuer = queue.NewNoopEnqueuer(log)
	var worker *queue.Worker
	if redisClient != nil {
		enq := queue.NewAsynqEnqueuer(redisOpt, log)
		defer enq.Close()
		events = enq
		if cfg.Worker.Embedded {
			w, scheduler, err := newWorker(cfg, s, redisOpt, clk)
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				return err
			}
			worker = w
			if err := scheduler.Start(); err != nil {
				log.Warn().Err(err).Msg("scheduler not started")
			} else {
				defer scheduler.Shutdown()
			}
		}
	}

	issuer, err := newTokenIssuer(cfg, clk)
	if err != nil {
		return err
	}
	application, err := app.New(app.Options{
		Repos:         s.repos,
		Issuer:        issuer,
		Hasher:        security.NewPBKDF2Hasher(security.DefaultPBKDF2Params()),
		Lockout:       newLockout(cfg, redisClient, clk),
		Events:        events,
		Clock:         clk,
		Log:           log,
		DB:            s.ping,
		Redis:         redisClient,
		AccessExpiry:  time.Duration(cfg.JWT.AccessExpiry) * time.Second,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiry) * time.Second,
		RatePerIP:     cfg.RateLimit.RatePerIP,
		RatePerUser:   cfg.RateLimit.RatePerUser,
		CORSOrigins:   cfg.CORS.AllowedOrigins,
		IsDevelopment: cfg.Secure.IsDevelopment,
		Metrics:       true,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      application.Router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("driver", cfg.Database.Driver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if worker != nil {
		worker.Shutdown()
	}
	log.Info().Msg("server stopped")
	return nil
}
