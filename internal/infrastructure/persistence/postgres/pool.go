package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/persistence"
)

// PoolConfig sizes the connection pool.
type PoolConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// NewPool opens and pings a pgx pool.
func NewPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewRepositories wires every postgres repository to pool.
func NewRepositories(pool *pgxpool.Pool) persistence.Repositories {
	return persistence.Repositories{
		Tx:          NewTxManager(pool),
		Accounts:    NewAccountRepository(pool),
		Projects:    NewProjectRepository(pool),
		Memberships: NewMembershipRepository(pool),
		Users:       NewUserRepository(pool),
		Profiles:    NewProfileRepository(pool),
		Tokens:      NewTokenStore(pool),
		Timesheets:  NewTimesheetRepository(pool),
		Items:       NewTimesheetItemRepository(pool),
		Reports:     NewReportRepository(pool),
	}
}
