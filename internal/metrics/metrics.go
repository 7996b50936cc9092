package metrics

import (
	"net/http"

	"github.com/Junchao-Mellanox/sonic-swss/internal/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes trap counter check results on a private registry
type Collector struct {
	registry *prometheus.Registry

	checks   *prometheus.CounterVec
	duration *prometheus.GaugeVec
	counters *prometheus.GaugeVec
}

// NewCollector creates and registers the trapcheck metrics
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trapcheck_checks_total",
				Help: "Trap counter checks run, by check and result",
			},
			[]string{"check", "result"},
		),
		duration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trapcheck_check_duration_seconds",
				Help: "Duration of the latest run of each check",
			},
			[]string{"check"},
		),
		counters: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trapcheck_counters",
				Help: "Trap counters registered in the name map after the latest add check",
			},
			[]string{"stat"},
		),
	}
	c.registry.MustRegister(c.checks, c.duration, c.counters)
	return c
}

// Observe records one check result
func (c *Collector) Observe(r state.Result) {
	result := "pass"
	if !r.OK() {
		result = "fail"
	}
	c.checks.WithLabelValues(r.Check, result).Inc()
	c.duration.WithLabelValues(r.Check).Set(r.Duration.Seconds())
	if r.Check == "add" && r.OK() {
		c.counters.WithLabelValues(r.Stat).Set(float64(r.Counters))
	}
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError})
}
