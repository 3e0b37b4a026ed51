package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartStaleUserCleaner periodically removes users who synced nothing
// and have not been seen within the retention window.
func StartStaleUserCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-retention)
				res, err := db.ExecContext(ctx, `
                    DELETE FROM users u
                     WHERE u.last_seen < $1
                       AND NOT EXISTS (SELECT 1 FROM records r WHERE r.user_login = u.login)
                `, cutoff)
				if err != nil {
					log.Error("failed to clean stale users", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("cleaned stale users", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
