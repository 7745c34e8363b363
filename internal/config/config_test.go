package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("JWT_ACCESS_EXPIRY", "")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "8080" || cfg.Database.Driver != DriverPostgres {
		t.Errorf("server/db defaults = %+v %+v", cfg.Server, cfg.Database)
	}
	if cfg.JWT.AccessExpiry != 1800 || cfg.JWT.RefreshExpiry != 604800 {
		t.Errorf("jwt expiries = %d/%d", cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)
	}
	if cfg.Lockout.MaxAttempts != 5 || cfg.Retention.RefreshTokenDays != 30 || !cfg.Worker.Embedded {
		t.Errorf("defaults = %+v %+v %+v", cfg.Lockout, cfg.Retention, cfg.Worker)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/ts.db")
	t.Setenv("JWT_ACCESS_EXPIRY", "60")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("WORKER_EMBEDDED", "false")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "9090" || cfg.Database.Driver != DriverSQLite || cfg.Database.SQLitePath != "/tmp/ts.db" {
		t.Errorf("cfg = %+v %+v", cfg.Server, cfg.Database)
	}
	if cfg.JWT.AccessExpiry != 60 {
		t.Errorf("access expiry = %d", cfg.JWT.AccessExpiry)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, want) {
		t.Errorf("origins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Worker.Embedded {
		t.Error("WORKER_EMBEDDED=false ignored")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("JWT_ISSUER: from-file\nLOCKOUT_MAX_ATTEMPTS: 7\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_ISSUER", "")
	t.Setenv("LOCKOUT_MAX_ATTEMPTS", "")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.JWT.Issuer != "from-file" || cfg.Lockout.MaxAttempts != 7 {
		t.Errorf("file values not read: %+v %+v", cfg.JWT, cfg.Lockout)
	}
}

func TestValidate(t *testing.T) {
	secret := strings.Repeat("s", 32)
	cases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"postgres ok", Config{Database: DatabaseConfig{Driver: DriverPostgres, URL: "postgres://x"}, JWT: JWTConfig{Secret: secret}}, ""},
		{"sqlite ok", Config{Database: DatabaseConfig{Driver: DriverSQLite, SQLitePath: "x.db"}, JWT: JWTConfig{PrivateKeyPath: "k.pem"}}, ""},
		{"postgres no url", Config{Database: DatabaseConfig{Driver: DriverPostgres}, JWT: JWTConfig{Secret: secret}}, "DATABASE_URL"},
		{"unknown driver", Config{Database: DatabaseConfig{Driver: "mysql"}, JWT: JWTConfig{Secret: secret}}, "DATABASE_DRIVER"},
		{"no signing key", Config{Database: DatabaseConfig{Driver: DriverSQLite, SQLitePath: "x.db"}}, "JWT_SECRET or"},
		{"short secret", Config{Database: DatabaseConfig{Driver: DriverSQLite, SQLitePath: "x.db"}, JWT: JWTConfig{Secret: "short"}}, "at least 32"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("want error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
