// Package metrics exposes search measures as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/operator-framework/fdsolver/pkg/fd/solver"
)

const namespace = "fdsolver"

// Source reports the measures of a running or finished search.
type Source interface {
	Measures() solver.Measures
}

// Collector reads the measures of one solver at scrape time. Every
// metric carries the model name as a const label.
type Collector struct {
	source Source

	nodes        *prometheus.Desc
	backtracks   *prometheus.Desc
	fails        *prometheus.Desc
	solutions    *prometheus.Desc
	propagations *prometheus.Desc
	depth        *prometheus.Desc
	elapsed      *prometheus.Desc
	best         *prometheus.Desc
	stopped      *prometheus.Desc
}

// NewCollector returns a collector over the measures of source.
func NewCollector(model string, source Source) *Collector {
	labels := prometheus.Labels{"model": model}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "search", name), help, nil, labels)
	}
	return &Collector{
		source:       source,
		nodes:        desc("nodes_total", "Decisions taken, refutations excluded."),
		backtracks:   desc("backtracks_total", "Checkpoints restored."),
		fails:        desc("fails_total", "Contradictions raised by propagation."),
		solutions:    desc("solutions_total", "Solutions found."),
		propagations: desc("propagations_total", "Propagator executions."),
		depth:        desc("max_depth", "Deepest decision level reached."),
		elapsed:      desc("elapsed_seconds", "Time spent searching."),
		best:         desc("objective_best", "Best objective value found."),
		stopped:      desc("stopped", "1 when a limit or a cancellation ended the search."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{c.nodes, c.backtracks, c.fails, c.solutions, c.propagations, c.depth, c.elapsed, c.best, c.stopped} {
		ch <- d
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	m := c.source.Measures()
	ch <- prometheus.MustNewConstMetric(c.nodes, prometheus.CounterValue, float64(m.Nodes))
	ch <- prometheus.MustNewConstMetric(c.backtracks, prometheus.CounterValue, float64(m.Backtracks))
	ch <- prometheus.MustNewConstMetric(c.fails, prometheus.CounterValue, float64(m.Fails))
	ch <- prometheus.MustNewConstMetric(c.solutions, prometheus.CounterValue, float64(m.Solutions))
	ch <- prometheus.MustNewConstMetric(c.propagations, prometheus.CounterValue, float64(m.Propagations))
	ch <- prometheus.MustNewConstMetric(c.depth, prometheus.GaugeValue, float64(m.MaxDepth))
	ch <- prometheus.MustNewConstMetric(c.elapsed, prometheus.GaugeValue, m.Elapsed.Seconds())
	if m.HasBest {
		ch <- prometheus.MustNewConstMetric(c.best, prometheus.GaugeValue, float64(m.Best))
	}
	stopped := 0.0
	if m.Stopped {
		stopped = 1
	}
	ch <- prometheus.MustNewConstMetric(c.stopped, prometheus.GaugeValue, stopped)
}

// WriteTextfile registers a collector over source in a fresh registry
// and writes it to path in the node exporter textfile format.
func WriteTextfile(path, model string, source Source) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(NewCollector(model, source)); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, reg)
}
