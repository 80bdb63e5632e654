package calendar

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/model"
)

type GroupEventLister interface {
	ListGroupEnabled(ctx context.Context) ([]model.EventType, error)
}

// Warmer precomputes the current and next month of every group event type so
// the busiest calendars are served from the cache.
type Warmer struct {
	svc    *Service
	lister GroupEventLister
	logger *slog.Logger
}

func NewWarmer(svc *Service, lister GroupEventLister, logger *slog.Logger) *Warmer {
	return &Warmer{svc: svc, lister: lister, logger: logger}
}

// Warm runs one pass and returns how many months were computed.
func (w *Warmer) Warm(ctx context.Context) int {
	ets, err := w.lister.ListGroupEnabled(ctx)
	if err != nil {
		w.logger.Error("rollup warm: list event types failed", "err", err)
		return 0
	}
	n := 0
	for _, et := range ets {
		now := w.svc.now().In(et.HostLocation())
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		for _, m := range []time.Time{first, first.AddDate(0, 1, 0)} {
			if ctx.Err() != nil {
				return n
			}
			if _, err := w.svc.Month(ctx, et, m.Year(), m.Month(), nil); err != nil {
				w.logger.Warn("rollup warm failed", "event_type_id", et.ID, "month", m.Format("2006-01"), "err", err)
				continue
			}
			n++
		}
	}
	return n
}

// Run schedules Warm on spec until ctx is done. An empty spec disables it.
func (w *Warmer) Run(ctx context.Context, spec string) error {
	if spec == "" {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		n := w.Warm(ctx)
		w.logger.Debug("rollup warm done", "months", n)
	}); err != nil {
		return err
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
