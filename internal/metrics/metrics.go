package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records ledger and replication metrics in its own registry.
type Collector struct {
	registry *prometheus.Registry

	height    prometheus.Gauge
	pending   prometheus.Gauge
	proposed  prometheus.Counter
	confirmed prometheus.Counter
	pruned    prometheus.Counter
	adopted   prometheus.Counter
}

// NewCollector creates the ledger metrics for the given node and registers
// them together with the Go runtime and process collectors.
func NewCollector(node string) *Collector {
	labels := prometheus.Labels{"node": node}

	c := Collector{
		registry: prometheus.NewRegistry(),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "ledger_height",
			Help:        "Number of blocks in the chain, genesis included.",
			ConstLabels: labels,
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "ledger_pending_blocks",
			Help:        "Number of proposed blocks waiting for confirmation.",
			ConstLabels: labels,
		}),
		proposed: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ledger_proposed_total",
			Help:        "Number of proposals accepted into the pending pool.",
			ConstLabels: labels,
		}),
		confirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ledger_confirmed_total",
			Help:        "Number of pending blocks sealed into the chain.",
			ConstLabels: labels,
		}),
		pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ledger_pruned_total",
			Help:        "Number of invalid blocks removed from the chain.",
			ConstLabels: labels,
		}),
		adopted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ledger_sync_adopted_total",
			Help:        "Number of peer chains adopted by replication.",
			ConstLabels: labels,
		}),
	}

	c.registry.MustRegister(
		c.height,
		c.pending,
		c.proposed,
		c.confirmed,
		c.pruned,
		c.adopted,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &c
}

func (c *Collector) Height(n int)  { c.height.Set(float64(n)) }
func (c *Collector) Pending(n int) { c.pending.Set(float64(n)) }
func (c *Collector) Proposed()     { c.proposed.Inc() }

func (c *Collector) Confirmed(n int) { c.confirmed.Add(float64(n)) }
func (c *Collector) Pruned(n int)    { c.pruned.Add(float64(n)) }

// Adopted counts a chain adopted from a peer.
func (c *Collector) Adopted() { c.adopted.Inc() }

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
