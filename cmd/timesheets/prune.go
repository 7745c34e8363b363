package main

import (
	"github.com/spf13/cobra"

	"github.com/amirhosseinghanipour/timesheets/internal/application/retention"
	"github.com/amirhosseinghanipour/timesheets/internal/clock"
)

var pruneTokensCmd = &cobra.Command{
	Use:   "prune-tokens",
	Short: "Delete refresh tokens past the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer s.close()
		n, err := retention.RunPruneRefreshTokens(cmd.Context(), s.repos.Tx, s.repos.Tokens, clock.Real(), cfg.Retention.RefreshTokenDays)
		if err != nil {
			return err
		}
		log.Info().Int64("pruned", n).Int("retention_days", cfg.Retention.RefreshTokenDays).Msg("refresh tokens pruned")
		return nil
	},
}
