package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Lockout   LockoutConfig
	Webhook   WebhookConfig
	CORS      CORSConfig
	Secure    SecureConfig
	Log       LogConfig
	Retention RetentionConfig
	Worker    WorkerConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Driver     string // postgres or sqlite
	URL        string
	SQLitePath string
	MaxConns   int
	MinConns   int
}

type RedisConfig struct {
	URL string // empty disables the queue and the shared lockout store
}

type JWTConfig struct {
	Secret         string // HS256 key; ignored when PrivateKeyPath is set
	PrivateKeyPath string // RS256 PEM
	Issuer         string
	Audience       string
	AccessExpiry   int64 // seconds
	RefreshExpiry  int64 // seconds
}

type RateLimitConfig struct {
	RatePerIP   string // ulule format, e.g. "100-M"
	RatePerUser string
}

type LockoutConfig struct {
	MaxAttempts  int
	CooldownSecs int
}

type WebhookConfig struct {
	URL        string
	AuthHeader string // sent as Authorization
}

type CORSConfig struct {
	AllowedOrigins []string
}

type SecureConfig struct {
	IsDevelopment bool
}

type LogConfig struct {
	Level  string
	Format string // console or json
}

type RetentionConfig struct {
	RefreshTokenDays int
}

type WorkerConfig struct {
	Embedded    bool // run the asynq worker inside serve
	Concurrency int
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		v.SetConfigFile(p)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("JWT_ACCESS_EXPIRY", 1800)
	v.SetDefault("JWT_REFRESH_EXPIRY", 604800)
	v.SetDefault("LOCKOUT_MAX_ATTEMPTS", 5)
	v.SetDefault("LOCKOUT_COOLDOWN_SECS", 900)
	v.SetDefault("REFRESH_TOKEN_RETENTION_DAYS", 30)
	v.SetDefault("WORKER_EMBEDDED", true)
	v.SetDefault("WORKER_CONCURRENCY", 2)

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault(v, "PORT", "8080"),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnvOrDefault(v, "DATABASE_DRIVER", DriverPostgres)),
			URL:        getEnvOrDefault(v, "DATABASE_URL", ""),
			SQLitePath: getEnvOrDefault(v, "SQLITE_PATH", "timesheets.db"),
			MaxConns:   v.GetInt("DB_MAX_CONNS"),
			MinConns:   v.GetInt("DB_MIN_CONNS"),
		},
		Redis: RedisConfig{
			URL: getEnvOrDefault(v, "REDIS_URL", ""),
		},
		JWT: JWTConfig{
			Secret:         getEnvOrDefault(v, "JWT_SECRET", ""),
			PrivateKeyPath: getEnvOrDefault(v, "JWT_PRIVATE_KEY_PATH", ""),
			Issuer:         getEnvOrDefault(v, "JWT_ISSUER", "timesheets"),
			Audience:       getEnvOrDefault(v, "JWT_AUDIENCE", "timesheets"),
			AccessExpiry:   v.GetInt64("JWT_ACCESS_EXPIRY"),
			RefreshExpiry:  v.GetInt64("JWT_REFRESH_EXPIRY"),
		},
		RateLimit: RateLimitConfig{
			RatePerIP:   getEnvOrDefault(v, "RATE_LIMIT_PER_IP", "100-M"),
			RatePerUser: getEnvOrDefault(v, "RATE_LIMIT_PER_USER", "300-M"),
		},
		Lockout: LockoutConfig{
			MaxAttempts:  v.GetInt("LOCKOUT_MAX_ATTEMPTS"),
			CooldownSecs: v.GetInt("LOCKOUT_COOLDOWN_SECS"),
		},
		Webhook: WebhookConfig{
			URL:        getEnvOrDefault(v, "WEBHOOK_URL", ""),
			AuthHeader: getEnvOrDefault(v, "WEBHOOK_AUTH_HEADER", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnvOrDefault(v, "CORS_ALLOWED_ORIGINS", "")),
		},
		Secure: SecureConfig{
			IsDevelopment: v.GetBool("SECURE_DEVELOPMENT"),
		},
		Log: LogConfig{
			Level:  getEnvOrDefault(v, "LOG_LEVEL", "info"),
			Format: getEnvOrDefault(v, "LOG_FORMAT", "console"),
		},
		Retention: RetentionConfig{
			RefreshTokenDays: v.GetInt("REFRESH_TOKEN_RETENTION_DAYS"),
		},
		Worker: WorkerConfig{
			Embedded:    v.GetBool("WORKER_EMBEDDED"),
			Concurrency: v.GetInt("WORKER_CONCURRENCY"),
		},
	}
	if cfg.JWT.AccessExpiry <= 0 {
		cfg.JWT.AccessExpiry = 1800
	}
	if cfg.JWT.RefreshExpiry <= 0 {
		cfg.JWT.RefreshExpiry = 604800
	}
	return cfg, nil
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q (want postgres or sqlite)", c.Database.Driver)
	}
	if c.JWT.Secret == "" && c.JWT.PrivateKeyPath == "" {
		return fmt.Errorf("JWT_SECRET or JWT_PRIVATE_KEY_PATH is required")
	}
	if c.JWT.PrivateKeyPath == "" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}
	return nil
}

// getEnvOrDefault reads key from the environment or config file.
func getEnvOrDefault(v *viper.Viper, key, def string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadJWTPrivateKey reads the PEM file and returns its contents.
func (c *Config) LoadJWTPrivateKey() ([]byte, error) {
	if c.JWT.PrivateKeyPath == "" {
		return nil, fmt.Errorf("JWT_PRIVATE_KEY_PATH is required")
	}
	return os.ReadFile(c.JWT.PrivateKeyPath)
}
