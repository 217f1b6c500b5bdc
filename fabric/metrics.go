package fabric

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Package-level metric vectors, registered once at process startup against
// the default Prometheus registry — the same style
// NikeGunn-tutu/internal/infra/observability/observability.go uses for its
// Phase 3 gauges/counters. A Metrics value is a thin per-router label
// wrapper around these shared vectors, not a separate registration.
var (
	creditGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fabricsim",
		Subsystem: "crossbar",
		Name:      "credits",
		Help:      "Current credit count per (router, global vc).",
	}, []string{"router", "vc"})

	grantsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fabricsim",
		Subsystem: "router",
		Name:      "grants_total",
		Help:      "Total flits accepted by a router's main crossbar, by output vc.",
	}, []string{"router", "vc"})

	vcDenialsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fabricsim",
		Subsystem: "router",
		Name:      "vc_denials_total",
		Help:      "Total VC scheduler requests that did not win a candidate VC.",
	}, []string{"router"})

	congestionGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fabricsim",
		Subsystem: "router",
		Name:      "congestion_status",
		Help:      "Last reported congestion-status value per (router, port, vc).",
	}, []string{"router", "port", "vc"})
)

// Metrics implements CreditWatcher and exposes the Router-level recording
// methods it needs, scoped to one router name (SPEC_FULL §11). A nil
// *Metrics is never constructed — a Router that does not enable metrics
// simply never registers one as a credit watcher.
type Metrics struct {
	router string
}

// NewMetrics constructs a Metrics scoped to routerName's label value.
func NewMetrics(routerName string) *Metrics {
	return &Metrics{router: routerName}
}

// OnCreditInit implements CreditWatcher.
func (m *Metrics) OnCreditInit(globalVc, n int) {
	creditGauge.WithLabelValues(m.router, strconv.Itoa(globalVc)).Set(float64(n))
}

// OnCreditIncrement implements CreditWatcher.
func (m *Metrics) OnCreditIncrement(globalVc int) {
	creditGauge.WithLabelValues(m.router, strconv.Itoa(globalVc)).Inc()
}

// OnCreditDecrement implements CreditWatcher.
func (m *Metrics) OnCreditDecrement(globalVc int) {
	creditGauge.WithLabelValues(m.router, strconv.Itoa(globalVc)).Dec()
}

// RecordGrant counts one flit accepted onto the main crossbar for vc.
func (m *Metrics) RecordGrant(vc int) {
	grantsCounter.WithLabelValues(m.router, strconv.Itoa(vc)).Inc()
}

// RecordVCDenial counts one VC scheduler request that received no grant.
func (m *Metrics) RecordVCDenial() {
	vcDenialsCounter.WithLabelValues(m.router).Inc()
}

// RecordCongestion publishes the last congestion-status reading for
// (port, vc).
func (m *Metrics) RecordCongestion(port, vc int, value float64) {
	congestionGauge.WithLabelValues(m.router, strconv.Itoa(port), strconv.Itoa(vc)).Set(value)
}
