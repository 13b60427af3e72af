package orders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bucketcart/storefront-gateway/internal/notifications"
	"github.com/bucketcart/storefront-gateway/pkg/backend"
	"github.com/bucketcart/storefront-gateway/pkg/logger"
	"github.com/bucketcart/storefront-gateway/pkg/metrics"
)

// AdminFeedKey is the notification audience for back-office alerts.
const AdminFeedKey = notifications.AdminFeed

type ordersLister interface {
	ListOrders(ctx context.Context, token string) ([]backend.Order, error)
}

// Poller refreshes the back-office order feed on a fixed interval. Fetches
// run concurrently with the tick loop; a response is applied only if no
// later-dispatched fetch has already resolved, so a slow fetch can never
// overwrite fresher data.
type Poller struct {
	lister   ordersLister
	token    string
	interval time.Duration
	notifier notifications.Notifier
	metrics  *metrics.PollerMetrics
	logg     *logger.Logger

	mu           sync.Mutex
	cancel       context.CancelFunc
	done         chan struct{}
	seq          uint64
	applied      uint64
	haveBaseline bool
	lastCount    int
	snapshot     []backend.Order
}

// PollerOptions carries the poller dependencies.
type PollerOptions struct {
	Lister       ordersLister
	ServiceToken string
	Interval     time.Duration
	Notifier     notifications.Notifier
	Metrics      *metrics.PollerMetrics
	Logger       *logger.Logger
}

// NewPoller validates the options and builds a stopped poller.
func NewPoller(opts PollerOptions) (*Poller, error) {
	if opts.Lister == nil {
		return nil, fmt.Errorf("orders lister required")
	}
	if opts.ServiceToken == "" {
		return nil, fmt.Errorf("service token required")
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	if opts.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &Poller{
		lister:   opts.Lister,
		token:    opts.ServiceToken,
		interval: opts.Interval,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		logg:     opts.Logger,
	}, nil
}

// Start launches the poll loop. Starting a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	go p.run(runCtx, done)
}

// Stop cancels the loop and waits for it to drain. Stop is idempotent.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Snapshot returns the most recently applied feed.
func (p *Poller) Snapshot() []backend.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]backend.Order, len(p.snapshot))
	copy(out, p.snapshot)
	return out
}

// run owns its done channel; Stop may clear p.done before this goroutine
// is scheduled, so it must never read the field.
func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	// First fetch happens immediately so the feed is warm before the
	// first interval elapses.
	p.dispatch(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.dispatch(ctx)
		}
	}
}

func (p *Poller) dispatch(ctx context.Context) {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	p.metrics.IncTick()

	go func() {
		start := time.Now()
		orders, err := p.lister.ListOrders(ctx, p.token)
		p.metrics.ObserveFetch(time.Since(start))
		if err != nil {
			if ctx.Err() == nil && p.logg != nil {
				p.logg.Warn(p.logg.WithField(ctx, "error", err.Error()), "order feed fetch failed")
			}
			return
		}
		p.apply(ctx, seq, orders)
	}()
}

func (p *Poller) apply(ctx context.Context, seq uint64, orders []backend.Order) {
	p.mu.Lock()
	if seq <= p.applied {
		p.mu.Unlock()
		p.metrics.IncStaleDropped()
		return
	}
	p.applied = seq
	p.snapshot = orders

	newOrders := 0
	if p.haveBaseline && len(orders) > p.lastCount {
		newOrders = len(orders) - p.lastCount
	}
	p.haveBaseline = true
	p.lastCount = len(orders)
	p.mu.Unlock()

	if newOrders > 0 {
		p.metrics.AddNewOrders(newOrders)
		p.notifier.NotifyWithSound(ctx, AdminFeedKey, notifications.LevelInfo,
			fmt.Sprintf("%d new order(s) received", newOrders), "new-order")
	}
}
