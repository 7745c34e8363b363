package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/amirhosseinghanipour/timesheets/internal/config"
)

var (
	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "timesheets",
	Short:         "Multi-tenant timesheet service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		log = newLogger(cfg.Log)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, workerCmd, migrateCmd, createAdminCmd, pruneTokensCmd)
}

// Execute runs the root command and prints a failure.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

func newLogger(c config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(c.Level))
	if err != nil || c.Level == "" {
		level = zerolog.InfoLevel
	}
	var l zerolog.Logger
	if strings.EqualFold(c.Format, "json") {
		l = zerolog.New(os.Stderr)
	} else {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return l.Level(level).With().Timestamp().Logger()
}
