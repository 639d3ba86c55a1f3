package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SweepCollector exposes wind-sweep Prometheus metrics.
type SweepCollector struct {
	gatherer prometheus.Gatherer

	RunDuration    prometheus.Histogram
	RunsInFlight   prometheus.Gauge
	RunsTotal      *prometheus.CounterVec
	LoopsCompleted prometheus.Counter
}

// NewSweepCollector registers sweep metrics against the provided registerer.
func NewSweepCollector(reg prometheus.Registerer) (*SweepCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "kitesim_sweep_run_duration_seconds",
		Help:    "Wall-clock duration of one wind-speed run of a sweep.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})
	duration, err := registerHistogram(reg, duration, "kitesim_sweep_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kitesim_sweep_runs_in_flight",
		Help: "Number of sweep runs currently executing.",
	})
	inFlight, err = registerGauge(reg, inFlight, "kitesim_sweep_runs_in_flight")
	if err != nil {
		return nil, err
	}

	runs, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kitesim_sweep_runs_total",
		Help: "Finished sweep runs, labeled by result (ok, failed).",
	}, []string{"result"}), "kitesim_sweep_runs_total")
	if err != nil {
		return nil, err
	}

	loops := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kitesim_sweep_loops_total",
		Help: "Cumulative number of path loops completed across sweep runs.",
	})
	loops, err = registerCounter(reg, loops, "kitesim_sweep_loops_total")
	if err != nil {
		return nil, err
	}

	return &SweepCollector{
		gatherer:       gatherer,
		RunDuration:    duration,
		RunsInFlight:   inFlight,
		RunsTotal:      runs,
		LoopsCompleted: loops,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SweepCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SweepCollector) Handler() http.Handler {
	return handlerFor(c.gatherer)
}

// RunStarted marks one run in flight.
func (c *SweepCollector) RunStarted() {
	if c == nil || c.RunsInFlight == nil {
		return
	}
	c.RunsInFlight.Inc()
}

// RunFinished records the outcome and duration of a run.
func (c *SweepCollector) RunFinished(d time.Duration, ok bool) {
	if c == nil {
		return
	}
	if c.RunsInFlight != nil {
		c.RunsInFlight.Dec()
	}
	if c.RunDuration != nil {
		c.RunDuration.Observe(d.Seconds())
	}
	if c.RunsTotal != nil {
		result := "ok"
		if !ok {
			result = "failed"
		}
		c.RunsTotal.WithLabelValues(result).Inc()
	}
}

// IncLoops counts one completed path loop.
func (c *SweepCollector) IncLoops() {
	if c == nil || c.LoopsCompleted == nil {
		return
	}
	c.LoopsCompleted.Inc()
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
