package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the storefront collectors. A nil *Metrics is valid and
// records nothing, which keeps tests and optional wiring simple.
type Metrics struct {
	cartMutations    *prometheus.CounterVec
	slotFailures     *prometheus.CounterVec
	checkoutOutcomes *prometheus.CounterVec
	backendDuration  *prometheus.HistogramVec
	openSessions     prometheus.Gauge
}

// New registers the storefront collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		cartMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Cart mutations applied, by operation.",
		}, []string{"op"}),
		slotFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "slot_failures_total",
			Help:      "Cart slot reads or writes that failed or were discarded, by stage.",
		}, []string{"stage"}),
		checkoutOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "checkout",
			Name:      "outcomes_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		backendDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Latency of calls to the storefront backend API.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"call", "result"}),
		openSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "open_sessions",
			Help:      "Cart sessions currently held in memory.",
		}),
	}
}

// CartMutation counts one applied cart operation.
func (m *Metrics) CartMutation(op string) {
	if m == nil {
		return
	}
	m.cartMutations.WithLabelValues(op).Inc()
}

// SlotFailure counts a slot problem at stage load, decode, encode or save.
func (m *Metrics) SlotFailure(stage string) {
	if m == nil {
		return
	}
	m.slotFailures.WithLabelValues(stage).Inc()
}

// CheckoutOutcome counts how a checkout attempt ended.
func (m *Metrics) CheckoutOutcome(outcome string) {
	if m == nil {
		return
	}
	m.checkoutOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveBackend records the duration of one store API call since started,
// labelled by whether it failed.
func (m *Metrics) ObserveBackend(call string, started time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.backendDuration.WithLabelValues(call, result).Observe(time.Since(started).Seconds())
}

// SessionOpened and SessionClosed track the number of live cart sessions.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.openSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.openSessions.Dec()
}
