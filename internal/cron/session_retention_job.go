package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/suuq-marketplace/pkg/blob"
	"github.com/angelmondragon/suuq-marketplace/pkg/logger"
	"github.com/angelmondragon/suuq-marketplace/pkg/metrics"
)

const sessionRetentionJobName = "session-blob-retention"

// abandonedSessionBlobs are the per-session documents swept by the retention job.
// Order history is kept.
var abandonedSessionBlobs = []string{
	blob.KeyCart,
	blob.KeyCheckoutSession,
	blob.KeyShippingInfo,
	blob.KeyPaymentInfo,
	blob.KeyOrderSummary,
	blob.KeyAppliedCoupon,
}

type stalePurger interface {
	PurgeStale(ctx context.Context, name string, cutoff time.Time) (int64, error)
}

type SessionRetentionJobParams struct {
	Store     stalePurger
	Logger    *logger.Logger
	Metrics   *metrics.CronJobMetrics
	Retention time.Duration
	Now       func() time.Time
}

// SessionRetentionJob removes carts and checkout drafts untouched for longer than the retention window.
type SessionRetentionJob struct {
	store     stalePurger
	logg      *logger.Logger
	metrics   *metrics.CronJobMetrics
	retention time.Duration
	now       func() time.Time
}

func NewSessionRetentionJob(params SessionRetentionJobParams) (*SessionRetentionJob, error) {
	if params.Store == nil {
		return nil, errors.New("blob store required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Retention <= 0 {
		return nil, errors.New("retention must be positive")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &SessionRetentionJob{
		store:     params.Store,
		logg:      params.Logger,
		metrics:   params.Metrics,
		retention: params.Retention,
		now:       now,
	}, nil
}

func (j *SessionRetentionJob) Name() string { return sessionRetentionJobName }

// Run purges every blob name even when an earlier one fails and reports the combined error.
func (j *SessionRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	var (
		errs  error
		total int64
	)
	for _, name := range abandonedSessionBlobs {
		removed, err := j.store.PurgeStale(ctx, name, cutoff)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("purge %s: %w", name, err))
			continue
		}
		j.metrics.AddPurged(name, removed)
		total += removed
	}

	ctx = j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff.Format(time.RFC3339),
		"removed": total,
	})
	j.logg.Info(ctx, "cron.session_blobs_purged")
	return errs
}
