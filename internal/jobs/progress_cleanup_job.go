package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/bucketcart/storefront-gateway/pkg/logger"
)

type progressCleaner interface {
	CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// progressCleanupJob evicts order progress marks older than the retention
// window. Delivered or not, a mark untouched for that long belongs to an
// order nobody is watching anymore.
type progressCleanupJob struct {
	logg      *logger.Logger
	cleaner   progressCleaner
	retention time.Duration
	now       func() time.Time
}

// NewProgressCleanupJob constructs the progress retention job.
func NewProgressCleanupJob(logg *logger.Logger, cleaner progressCleaner, retention time.Duration) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cleaner == nil {
		return nil, fmt.Errorf("progress cleaner required")
	}
	if retention <= 0 {
		return nil, fmt.Errorf("retention must be positive")
	}
	return &progressCleanupJob{
		logg:      logg,
		cleaner:   cleaner,
		retention: retention,
		now:       time.Now,
	}, nil
}

func (j *progressCleanupJob) Name() string {
	return "progress-cleanup"
}

func (j *progressCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.retention)
	removed, err := j.cleaner.CleanupBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("cleanup progress marks: %w", err)
	}
	if removed > 0 {
		j.logg.Info(j.logg.WithField(ctx, "removed", removed), "progress marks evicted")
	}
	return nil
}
