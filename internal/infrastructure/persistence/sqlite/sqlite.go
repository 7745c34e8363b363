// Package sqlite is the single-file store used for development and tests.
// All access goes through one connection, which serializes writers and makes
// the owner and header locks no-ops.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/persistence"
)

const currentVersion = 1

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// NewMemory opens a migrated in-memory database for tests.
func NewMemory() (*sql.DB, error) {
	return Open(":memory:")
}

func migrate(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= currentVersion {
		return nil
	}
	if version < 1 {
		if _, err := db.ExecContext(ctx, schemaV1); err != nil {
			return fmt.Errorf("migrate v1: %w", err)
		}
	}
	_, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

// Dates are TEXT "2006-01-02" and timestamps fixed-width TEXT in UTC, so
// string comparison orders them.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS accounts (
	id          TEXT PRIMARY KEY,
	code        TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	type        TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	code          TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	role          TEXT NOT NULL CHECK (role IN ('admin', 'user')),
	status        TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive')),
	password_hash TEXT NOT NULL,
	account_id    TEXT REFERENCES accounts(id) ON DELETE SET NULL,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	user_id     TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	first_name  TEXT NOT NULL DEFAULT '',
	last_name   TEXT NOT NULL DEFAULT '',
	phone       TEXT NOT NULL DEFAULT '',
	country     TEXT NOT NULL DEFAULT '',
	time_zone   TEXT NOT NULL DEFAULT '',
	avatar_url  TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id           TEXT PRIMARY KEY,
	code         TEXT NOT NULL UNIQUE,
	name         TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	client_name  TEXT NOT NULL DEFAULT '',
	is_active    INTEGER NOT NULL DEFAULT 1,
	account_id   TEXT REFERENCES accounts(id) ON DELETE RESTRICT,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_projects_account ON projects(account_id);

CREATE TABLE IF NOT EXISTS project_members (
	project_id       TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	user_id          TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	role_in_project  TEXT NOT NULL DEFAULT '',
	created_at       TEXT NOT NULL,
	PRIMARY KEY (project_id, user_id)
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
	jti         TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	expires_at  TEXT NOT NULL,
	revoked     INTEGER NOT NULL DEFAULT 0,
	revoked_at  TEXT,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS timesheets (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
	period_start  TEXT NOT NULL,
	period_end    TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'Draft' CHECK (status IN ('Draft', 'Submitted', 'Approved', 'Rejected')),
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL,
	CHECK (period_start <= period_end)
);

CREATE INDEX IF NOT EXISTS idx_timesheets_user_period ON timesheets(user_id, period_start, period_end);

CREATE TABLE IF NOT EXISTS timesheet_items (
	id            TEXT PRIMARY KEY,
	timesheet_id  TEXT NOT NULL REFERENCES timesheets(id) ON DELETE CASCADE,
	project_id    TEXT NOT NULL REFERENCES projects(id) ON DELETE RESTRICT,
	date          TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	hours         REAL NOT NULL CHECK (hours > 0 AND hours <= 24),
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_timesheet_date ON timesheet_items(timesheet_id, date);
CREATE INDEX IF NOT EXISTS idx_items_project_date   ON timesheet_items(project_id, date);
`

// NewRepositories wires every sqlite repository to db.
func NewRepositories(db *sql.DB) persistence.Repositories {
	return persistence.Repositories{
		Tx:          NewTxManager(db),
		Accounts:    NewAccountRepository(db),
		Projects:    NewProjectRepository(db),
		Memberships: NewMembershipRepository(db),
		Users:       NewUserRepository(db),
		Profiles:    NewProfileRepository(db),
		Tokens:      NewTokenStore(db),
		Timesheets:  NewTimesheetRepository(db),
		Items:       NewTimesheetItemRepository(db),
		Reports:     NewReportRepository(db),
	}
}
