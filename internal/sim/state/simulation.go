// internal/sim/state/simulation.go
package state

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/core"
	"github.com/signalsfoundry/kite-simulator/internal/flightcontrol"
	"github.com/signalsfoundry/kite-simulator/internal/logging"
	"github.com/signalsfoundry/kite-simulator/model"
)

// Simulation couples one airframe, its tether and the flight controller.
// It is not safe for concurrent use; run independent simulations on
// separate goroutines instead.
type Simulation struct {
	cfg model.SimConfig

	airplane   *core.Airplane
	tether     *core.Tether
	controller *flightcontrol.FlightModeController
	wind       core.Wind

	time  float64
	frame uint64
	cost  Cost

	// log is an optional structured logger for mode changes.
	log logging.Logger

	// observer receives one Sample per frame.
	observer Observer
}

// Option customises Simulation construction.
type Option func(*Simulation)

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.log = l
		}
	}
}

// WithObserver attaches a per-frame telemetry observer. Multiple observers
// can be combined with Observers.
func WithObserver(o Observer) Option {
	return func(s *Simulation) {
		s.observer = o
	}
}

// NewSimulation places the airframe at the end of the straight tether and
// wires the controller. Defaults are applied to cfg before validation.
func NewSimulation(cfg model.SimConfig, opts ...Option) (*Simulation, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	airplane, err := core.NewAirplane(cfg.Airplane, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("NewSimulation: airplane: %w", err)
	}
	q, err := core.Orientation(cfg.Orientation)
	if err != nil {
		return nil, fmt.Errorf("NewSimulation: orientation: %w", err)
	}
	tp := cfg.Tether
	start := r3.Add(core.Vec(tp.Origin), r3.Scale(tp.TotalLength, core.Unit(core.Vec(tp.Direction))))
	airplane.SetState(core.BodyState{Position: start, Orientation: q})

	tether := core.NewTether(tp, cfg.Environment, airplane.AttachmentPointStates())
	airplane.SetExternalMass(tether.KiteTetherMass())

	controller, err := flightcontrol.NewFlightModeController(cfg.Controller, airplane, tp.TotalLength)
	if err != nil {
		return nil, fmt.Errorf("NewSimulation: controller: %w", err)
	}
	wind, err := core.NewWind(cfg.Wind)
	if err != nil {
		return nil, fmt.Errorf("NewSimulation: %w", err)
	}

	s := &Simulation{
		cfg:        cfg,
		airplane:   airplane,
		tether:     tether,
		controller: controller,
		wind:       wind,
		log:        logging.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the effective configuration (defaults applied).
func (s *Simulation) Config() model.SimConfig { return s.cfg }

// Airplane returns the airframe.
func (s *Simulation) Airplane() *core.Airplane { return s.airplane }

// Tether returns the tether.
func (s *Simulation) Tether() *core.Tether { return s.tether }

// Controller returns the flight controller.
func (s *Simulation) Controller() *flightcontrol.FlightModeController { return s.controller }

// Mode returns the current flight mode.
func (s *Simulation) Mode() flightcontrol.Mode { return s.controller.Mode() }

// Time returns the simulation time of the last frame.
func (s *Simulation) Time() float64 { return s.time }

// Frame returns the number of frames run.
func (s *Simulation) Frame() uint64 { return s.frame }

// Cost returns the path cost accumulated while path following.
func (s *Simulation) Cost() *Cost { return &s.cost }

// Update advances one frame. dt is clamped to MaxFrameDt and split into
// SubSteps equal substeps; the wind is sampled once at time.
func (s *Simulation) Update(dt, time float64) {
	s.advance(dt, time)
	s.afterFrame(context.Background())
}

func (s *Simulation) advance(dt, time float64) {
	dt = math.Min(dt, s.cfg.MaxFrameDt)
	sub := dt / float64(s.cfg.SubSteps)
	wind := s.wind.At(time)

	for k := 0; k < s.cfg.SubSteps; k++ {
		s.tether.SyncBoundary(s.airplane.AttachmentPointStates())
		s.tether.Update(sub, wind)
		s.substepVehicle(sub, wind)
	}
	s.time = time
	s.frame++
}

// substepVehicle runs the controller and integrates the airframe. The
// tether must already have been updated for this substep.
func (s *Simulation) substepVehicle(dt float64, wind r3.Vec) {
	cmd := s.controller.Step(dt)
	s.apply(cmd)

	f1, f2 := s.tether.KiteTetherForces()
	external := s.airplane.AttachmentForceMoment(f1, f2).Add(core.ForceMoment{Moment: cmd.Moment})
	s.airplane.Update(dt, wind, external)
}

func (s *Simulation) apply(cmd flightcontrol.Command) {
	for _, d := range cmd.Deflections {
		// NewFlightModeController checks every surface it deflects, so a
		// failure here is a controller and airframe mismatch.
		surface, ok := s.airplane.Surface(d.Surface)
		if !ok {
			panic(fmt.Sprintf("state: controller deflected unknown surface %q", d.Surface))
		}
		if err := surface.SetDelta(d.Angle); err != nil {
			panic(fmt.Sprintf("state: deflect %q: %v", d.Surface, err))
		}
	}
	if cmd.SetThrust {
		s.airplane.SetThrust(cmd.Thrust)
	}
}

func (s *Simulation) afterFrame(ctx context.Context) {
	from := s.controller.Mode()
	if to, changed := s.controller.AutoAdjustMode(); changed {
		trace.SpanFromContext(ctx).AddEvent("flight mode changed", trace.WithAttributes(
			attribute.String("from", from.String()),
			attribute.String("to", to.String()),
			attribute.Float64("time", s.time),
		))
		s.log.Info(ctx, "flight mode changed",
			logging.String("from", from.String()),
			logging.String("to", to.String()),
			logging.Float("time", s.time),
		)
	}
	if s.controller.Mode() == flightcontrol.ModePathFollow {
		s.cost.Add(s.controller.Path().Cost(s.airplane.Position()))
	}
	if s.observer != nil {
		s.observer.ObserveFrame(s.Sample())
	}
}

// Sample returns the diagnostics of the current state.
func (s *Simulation) Sample() Sample {
	pos := s.airplane.Position()
	path := s.controller.Path()
	sample := Sample{
		Time:          s.time,
		Mode:          s.controller.Mode(),
		Position:      pos,
		Speed:         s.airplane.Speed(),
		Power:         s.airplane.Power(),
		Thrust:        s.airplane.Thrust(),
		PathError:     path.DistanceToPath(pos),
		LoopAngle:     path.LoopProgressAngle(pos),
		VTOLRatio:     s.controller.VTOL().Ratio(),
		SpringForces:  s.tether.SpringForceMagnitudes(),
		GroundTension: r3.Norm(s.tether.RootForce()),
	}
	if ref, ok := s.airplane.Surface(s.cfg.Controller.AngleOfAttackSource); ok {
		sample.AngleOfAttack = ref.AngleOfAttack()
		sample.ApparentWind = ref.ApparentWindSpeed()
	}
	return sample
}

// Energy returns the mechanical energy of airframe and tether relative to
// the world origin. It is meant for divergence checks, not conservation.
func (s *Simulation) Energy() float64 {
	st := s.airplane.State()
	m := s.airplane.Mass() + s.airplane.ExternalMass()
	g := s.cfg.Environment.Gravity
	potential := 0.0
	if g != nil {
		potential = -m * r3.Dot(core.Vec(*g), st.Position)
	}
	return 0.5*m*r3.Norm2(st.Velocity) + potential + s.tether.Energy()
}
