package observability

import (
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/kite-simulator/internal/flightcontrol"
	"github.com/signalsfoundry/kite-simulator/internal/sim/state"
)

// SimCollector bundles Prometheus metrics for a running simulation. It is
// a state.Observer, so it can be attached with state.WithObserver.
type SimCollector struct {
	gatherer prometheus.Gatherer

	Frames        prometheus.Counter
	FrameDuration prometheus.Histogram

	AngleOfAttack  prometheus.Gauge
	ApparentWind   prometheus.Gauge
	PathError      prometheus.Gauge
	GroundTension  prometheus.Gauge
	VehicleSpeed   prometheus.Gauge
	VehiclePower   prometheus.Gauge
	FlightMode     *prometheus.GaugeVec
	SimulationTime prometheus.Gauge

	mu        sync.Mutex
	lastFrame time.Time
	now       func() time.Time
}

// NewSimCollector registers simulation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	frames, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kitesim_frames_total",
		Help: "Number of simulation frames run.",
	}), "kitesim_frames_total")
	if err != nil {
		return nil, err
	}
	frameDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "kitesim_frame_duration_seconds",
		Help:    "Wall-clock time between consecutive simulation frames.",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.016, 0.025, 0.05, 0.1},
	}), "kitesim_frame_duration_seconds")
	if err != nil {
		return nil, err
	}

	c := &SimCollector{gatherer: gatherer, Frames: frames, FrameDuration: frameDuration, now: time.Now}
	for _, g := range []struct {
		dst  *prometheus.Gauge
		name string
		help string
	}{
		{&c.AngleOfAttack, "kitesim_angle_of_attack_degrees", "Angle of attack of the reference wing surface."},
		{&c.ApparentWind, "kitesim_apparent_wind_speed", "Apparent wind speed at the reference wing surface in m/s."},
		{&c.PathError, "kitesim_path_error_meters", "Signed distance from the circular path, positive outside."},
		{&c.GroundTension, "kitesim_tether_ground_tension_newtons", "Spring force of the tether segment at the anchor."},
		{&c.VehicleSpeed, "kitesim_vehicle_speed", "Airframe ground speed in m/s."},
		{&c.VehiclePower, "kitesim_vehicle_power_watts", "Rotor power; negative while generating."},
		{&c.SimulationTime, "kitesim_simulation_time_seconds", "Simulation time of the last frame."},
	} {
		gauge, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: g.name, Help: g.help}), g.name)
		if err != nil {
			return nil, err
		}
		*g.dst = gauge
	}

	mode, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kitesim_flight_mode",
		Help: "1 for the active flight mode, 0 for the others.",
	}, []string{"mode"}), "kitesim_flight_mode")
	if err != nil {
		return nil, err
	}
	c.FlightMode = mode
	return c, nil
}

// ObserveFrame implements state.Observer.
func (c *SimCollector) ObserveFrame(s state.Sample) {
	if c == nil {
		return
	}
	c.Frames.Inc()
	c.AngleOfAttack.Set(s.AngleOfAttack * 180 / math.Pi)
	c.ApparentWind.Set(s.ApparentWind)
	c.PathError.Set(s.PathError)
	c.GroundTension.Set(s.GroundTension)
	c.VehicleSpeed.Set(s.Speed)
	c.VehiclePower.Set(s.Power)
	c.SimulationTime.Set(s.Time)
	for _, m := range flightcontrol.Modes {
		v := 0.0
		if m == s.Mode {
			v = 1
		}
		c.FlightMode.WithLabelValues(m.String()).Set(v)
	}

	c.mu.Lock()
	now := c.now()
	if !c.lastFrame.IsZero() {
		c.FrameDuration.Observe(now.Sub(c.lastFrame).Seconds())
	}
	c.lastFrame = now
	c.mu.Unlock()
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SimCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	return handlerFor(c.gatherer)
}

func handlerFor(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
