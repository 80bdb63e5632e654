// Package inbox records consumed event ids so redelivered messages are
// processed once.
package inbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/md-rashed-zaman/meetslot/libs/db"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record claims eventID and reports false when it was already seen.
func (r *Repository) Record(ctx context.Context, eventID string, eventType string) (bool, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO inbox_events (event_id, event_type)
		VALUES ($1, $2)
	`, eventID, eventType)
	switch {
	case err == nil:
		return true, nil
	case db.IsUniqueViolation(err):
		return false, nil
	default:
		return false, err
	}
}

// Prune deletes ids received before cutoff and returns how many were removed.
func (r *Repository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM inbox_events WHERE received_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// RunRetention prunes ids older than keep on schedule until ctx is done. An
// empty schedule or a non-positive keep disables it.
func RunRetention(ctx context.Context, p Pruner, schedule string, keep time.Duration, logger *slog.Logger) error {
	if schedule == "" || keep <= 0 {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		n, err := p.Prune(ctx, time.Now().Add(-keep))
		if err != nil {
			logger.Error("inbox prune failed", "err", err)
			return
		}
		logger.Info("inbox pruned", "removed", n)
	})
	if err != nil {
		return err
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
