package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer s.close()
		return s.migrate(cmd.Context())
	},
}
