package retention

import (
	"context"
	"time"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/clock"
)

// RunPruneRefreshTokens deletes refresh-token records that expired or were
// revoked more than retentionDays ago. Call periodically (the worker schedules
// it daily). retentionDays 0 = no-op.
func RunPruneRefreshTokens(ctx context.Context, tx ports.TxManager, tokens ports.TokenStore, clk clock.Clock, retentionDays int) (pruned int64, err error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := clk.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)
	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		pruned, err = tokens.PruneRefreshTokens(ctx, cutoff)
		return err
	})
	return pruned, err
}
