// Package observability collects per-run outcome metrics.
package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cleared-dev/txengine/internal/engine"
	"github.com/cleared-dev/txengine/internal/model"
)

const namespace = "txengine"

// Record outcomes.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
)

// unparsed labels records that never became a transaction.
const unparsed = "unparsed"

// Metrics holds the collectors of one run on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	records  *prometheus.CounterVec
	rejects  *prometheus.CounterVec
	accounts prometheus.Gauge
	locked   prometheus.Gauge
	duration prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Input records by transaction type and outcome",
		}, []string{"type", "outcome"}),
		rejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejects_total",
			Help:      "Rejected records by reason",
		}, []string{"reason"}),
		accounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accounts",
			Help:      "Accounts in the final snapshot",
		}),
		locked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accounts_locked",
			Help:      "Locked accounts in the final snapshot",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the run",
		}),
	}
	m.registry.MustRegister(m.records, m.rejects, m.accounts, m.locked, m.duration)
	return m
}

// Registry exposes the collectors for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveApplied(tx model.Transaction) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(string(tx.Kind()), OutcomeApplied).Inc()
}

func (m *Metrics) ObserveRejected(res engine.Result) {
	if m == nil {
		return
	}
	kind := unparsed
	if res.Tx != nil {
		kind = string(res.Tx.Kind())
	}
	m.records.WithLabelValues(kind, OutcomeRejected).Inc()
	m.rejects.WithLabelValues(res.Reason()).Inc()
}

// ObserveSnapshot sets the account gauges from the final snapshot.
func (m *Metrics) ObserveSnapshot(accounts []model.Account) {
	if m == nil {
		return
	}
	locked := 0
	for _, a := range accounts {
		if a.Locked() {
			locked++
		}
	}
	m.accounts.Set(float64(len(accounts)))
	m.locked.Set(float64(locked))
}

func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Set(d.Seconds())
}

// WriteTextfile writes every metric in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
