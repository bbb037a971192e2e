package jobs

import (
	"context"
	"time"

	"socialhub/metrics"
	"socialhub/utils"

	"github.com/rs/zerolog"
)

// NotificationDeleter removes notifications created before a cutoff.
type NotificationDeleter interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NotificationPruner deletes notifications older than the retention period.
type NotificationPruner struct {
	store     NotificationDeleter
	retention time.Duration
	interval  time.Duration
	timeout   time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

func NewNotificationPruner(store NotificationDeleter, retention, interval time.Duration) *NotificationPruner {
	return &NotificationPruner{
		store:     store,
		retention: retention,
		interval:  interval,
		timeout:   10 * time.Minute,
		now:       time.Now,
		logger:    utils.Logger("notification_pruner"),
	}
}

// Start prunes once right away and then every interval until ctx is done.
func (p *NotificationPruner) Start(ctx context.Context) {
	p.logger.Info().Dur("retention", p.retention).Dur("interval", p.interval).Msg("starting notification pruner")

	p.RunOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.RunOnce(ctx)
		case <-ctx.Done():
			p.logger.Info().Msg("notification pruner stopped")
			return
		}
	}
}

// RunOnce performs a single sweep and returns how many notifications were removed.
func (p *NotificationPruner) RunOnce(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cutoff := p.now().UTC().Add(-p.retention)
	deleted, err := p.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		p.logger.Error().Err(err).Time("cutoff", cutoff).Msg("notification prune failed")
		return 0
	}

	metrics.NotificationsPruned.Add(float64(deleted))
	p.logger.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("notification prune completed")
	return deleted
}
