package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/application/retention"
	"github.com/amirhosseinghanipour/timesheets/internal/clock"
	"github.com/amirhosseinghanipour/timesheets/internal/config"
	infraauth "github.com/amirhosseinghanipour/timesheets/internal/infrastructure/auth"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/http/handlers"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/lockout"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/persistence"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/persistence/postgres"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/persistence/sqlite"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/queue"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/webhook"
)

// store is an open database with its repositories.
type store struct {
	repos persistence.Repositories
	ping  handlers.Pinger
	pool  *pgxpool.Pool // nil for sqlite
	close func()
}

func openStore(ctx context.Context, c *config.Config) (*store, error) {
	switch c.Database.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(c.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &store{
			repos: sqlite.NewRepositories(db),
			ping:  handlers.PingerFunc(db.PingContext),
			close: func() { _ = db.Close() },
		}, nil
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
			URL:      c.Database.URL,
			MaxConns: c.Database.MaxConns,
			MinConns: c.Database.MinConns,
		})
		if err != nil {
			return nil, err
		}
		return &store{
			repos: postgres.NewRepositories(pool),
			ping:  pool,
			pool:  pool,
			close: pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", c.Database.Driver)
}

// migrate applies the embedded postgres migrations. The sqlite store
// migrates itself when opened.
func (s *store) migrate(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	n, err := postgres.Migrate(ctx, s.pool, log)
	if err != nil {
		return err
	}
	log.Info().Int("applied", n).Msg("migrations complete")
	return nil
}

// connectRedis returns nil when REDIS_URL is unset or unreachable.
func connectRedis(ctx context.Context, c *config.Config) (*redis.Client, asynq.RedisConnOpt, error) {
	if c.Redis.URL == "" {
		return nil, nil, nil
	}
	opt, err := redis.ParseURL(c.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis ping failed; continuing without redis")
		_ = client.Close()
		return nil, nil, nil
	}
	return client, asynqRedisOpt(opt), nil
}

// asynqRedisOpt carries the parsed REDIS_URL over to asynq so the queue
// connects with the same ACL user and TLS settings as the go-redis client.
func asynqRedisOpt(opt *redis.Options) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Network:   opt.Network,
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}
}

func newTokenIssuer(c *config.Config, clk clock.Clock) (ports.TokenIssuer, error) {
	if c.JWT.PrivateKeyPath != "" {
		pemBytes, err := c.LoadJWTPrivateKey()
		if err != nil {
			return nil, fmt.Errorf("load JWT private key: %w", err)
		}
		return infraauth.NewRSATokenIssuerFromPEM(pemBytes, c.JWT.Issuer, c.JWT.Audience, clk)
	}
	return infraauth.NewHMACTokenIssuer([]byte(c.JWT.Secret), c.JWT.Issuer, c.JWT.Audience, clk), nil
}

func newLockout(c *config.Config, rdb *redis.Client, clk clock.Clock) ports.LoginLockoutStore {
	if rdb != nil {
		return lockout.NewRedisStore(rdb, c.Lockout.MaxAttempts, c.Lockout.CooldownSecs, log)
	}
	return lockout.NewMemoryStore(c.Lockout.MaxAttempts, c.Lockout.CooldownSecs, clk)
}

func newWebhookEmitter(c *config.Config) ports.WebhookEmitter {
	if c.Webhook.URL == "" {
		return webhook.NewNoopEmitter()
	}
	var opts []webhook.HTTPEmitterOption
	if c.Webhook.AuthHeader != "" {
		opts = append(opts, webhook.WithHeader("Authorization", c.Webhook.AuthHeader))
	}
	return webhook.NewHTTPEmitter(c.Webhook.URL, opts...)
}

// newWorker builds the asynq server and its periodic scheduler.
func newWorker(c *config.Config, s *store, redisOpt asynq.RedisConnOpt, clk clock.Clock) (*queue.Worker, *asynq.Scheduler, error) {
	prune := func(ctx context.Context) (int64, error) {
		return retention.RunPruneRefreshTokens(ctx, s.repos.Tx, s.repos.Tokens, clk, c.Retention.RefreshTokenDays)
	}
	h := queue.NewHandlers(newWebhookEmitter(c), prune, log)
	worker := queue.NewWorker(redisOpt, c.Worker.Concurrency, h, log)
	scheduler, err := queue.NewScheduler(redisOpt, log)
	if err != nil {
		return nil, nil, fmt.Errorf("create scheduler: %w", err)
	}
	return worker, scheduler, nil
}

const shutdownTimeout = 10 * time.Second
