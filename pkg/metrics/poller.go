package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PollerMetrics tracks the admin order feed poll loop.
type PollerMetrics struct {
	ticks        prometheus.Counter
	staleDropped prometheus.Counter
	newOrders    prometheus.Counter
	fetchSeconds prometheus.Histogram
}

// NewPollerMetrics registers the poller metrics on the provided registerer.
func NewPollerMetrics(reg prometheus.Registerer) *PollerMetrics {
	if reg == nil {
		return &PollerMetrics{}
	}
	ticks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_poll_ticks_total",
		Help: "Poll cycles started for the order feed.",
	})
	staleDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_poll_stale_dropped_total",
		Help: "Poll responses discarded because a newer cycle already resolved.",
	})
	newOrders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_poll_new_orders_total",
		Help: "Orders that appeared in the feed since the previous cycle.",
	})
	fetchSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_poll_fetch_seconds",
		Help:    "Duration of order feed fetches in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(ticks, staleDropped, newOrders, fetchSeconds)
	return &PollerMetrics{
		ticks:        ticks,
		staleDropped: staleDropped,
		newOrders:    newOrders,
		fetchSeconds: fetchSeconds,
	}
}

// IncTick counts a started poll cycle.
func (p *PollerMetrics) IncTick() {
	if p == nil || p.ticks == nil {
		return
	}
	p.ticks.Inc()
}

// IncStaleDropped counts a response superseded before it resolved.
func (p *PollerMetrics) IncStaleDropped() {
	if p == nil || p.staleDropped == nil {
		return
	}
	p.staleDropped.Inc()
}

// AddNewOrders counts orders newly observed in the feed.
func (p *PollerMetrics) AddNewOrders(n int) {
	if p == nil || p.newOrders == nil || n <= 0 {
		return
	}
	p.newOrders.Add(float64(n))
}

// ObserveFetch records how long a feed fetch took.
func (p *PollerMetrics) ObserveFetch(d time.Duration) {
	if p == nil || p.fetchSeconds == nil {
		return
	}
	p.fetchSeconds.Observe(d.Seconds())
}
