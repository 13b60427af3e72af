package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bucketcart/storefront-gateway/pkg/backend"
	pkgerrors "github.com/bucketcart/storefront-gateway/pkg/errors"
	"github.com/bucketcart/storefront-gateway/pkg/localstate"
)

type progressStore interface {
	Put(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string, dest any) (bool, error)
	DeleteOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int64, error)
}

// Progress is the estimated delivery progress shown on the order page.
type Progress struct {
	Percent   int           `json:"percent"`
	Remaining time.Duration `json:"-"`
	// RemainingSeconds feeds the storefront countdown directly.
	RemainingSeconds int `json:"remainingSeconds"`
}

type progressRecord struct {
	Max int `json:"max"`
}

// Estimator derives a monotonic progress percentage from the order's
// milestone flags and its age. The high-water mark per order survives
// restarts via the state store, so progress never moves backwards even
// when the backend clears a flag.
type Estimator struct {
	state  progressStore
	window time.Duration
	now    func() time.Time
}

// NewEstimator builds an estimator with the configured auto-progress window.
func NewEstimator(state progressStore, window time.Duration) (*Estimator, error) {
	if state == nil {
		return nil, fmt.Errorf("state store required")
	}
	if window <= 0 {
		return nil, fmt.Errorf("progress window must be positive")
	}
	return &Estimator{
		state:  state,
		window: window,
		now:    time.Now,
	}, nil
}

// Estimate computes the displayed progress and persists a new high-water
// mark before returning.
func (e *Estimator) Estimate(ctx context.Context, order *backend.Order) (Progress, error) {
	if order == nil || strings.TrimSpace(order.ID) == "" {
		return Progress{}, pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}

	flag := 0
	if order.IsPaid {
		flag += 25
	}
	if order.IsShipped {
		flag += 25
	}
	if order.IsDelivered {
		flag += 25
	}

	elapsed := e.now().Sub(order.CreatedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	auto := int(elapsed * 100 / e.window)
	if auto > 100 {
		auto = 100
	}

	percent := flag
	if auto > percent {
		percent = auto
	}

	key := localstate.ProgressKey(order.ID)
	var stored progressRecord
	if _, err := e.state.Get(ctx, key, &stored); err != nil {
		return Progress{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order progress")
	}
	if stored.Max > percent {
		percent = stored.Max
	}
	if percent > stored.Max {
		if err := e.state.Put(ctx, key, progressRecord{Max: percent}); err != nil {
			return Progress{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist order progress")
		}
	}

	remaining := e.window - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return Progress{
		Percent:          percent,
		Remaining:        remaining,
		RemainingSeconds: int(remaining / time.Second),
	}, nil
}

// Countdown re-estimates every second until the window elapses or the context
// is cancelled. It is presentation-only; milestones from the backend remain
// authoritative. The initial estimate is delivered before the first tick.
func (e *Estimator) Countdown(ctx context.Context, order *backend.Order, observe func(Progress)) error {
	if observe == nil {
		return fmt.Errorf("observer required")
	}

	progress, err := e.Estimate(ctx, order)
	if err != nil {
		return err
	}
	observe(progress)
	if progress.Remaining <= 0 {
		return nil
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			progress, err := e.Estimate(ctx, order)
			if err != nil {
				return err
			}
			observe(progress)
			if progress.Remaining <= 0 {
				return nil
			}
		}
	}
}

// CleanupBefore evicts progress marks not touched since the cutoff.
func (e *Estimator) CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return e.state.DeleteOlderThan(ctx, localstate.ProgressPrefix, cutoff)
}
