package flightcontrol

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/core"
	"github.com/signalsfoundry/kite-simulator/model"
)

// Surface names the controller actuates.
const (
	SurfaceElevator = "elevator"
	SurfaceRudder   = "rudder"
)

// ErrMissingSurface is returned when the airframe lacks a surface the
// controller needs, or a hinge on it.
var ErrMissingSurface = errors.New("airframe is missing a required surface")

// Mode is a flight mode of the controller.
type Mode int

const (
	ModePosition Mode = iota
	ModeTransitionForward
	ModePathFollow
	ModeTransitionBackward
)

func (m Mode) String() string {
	switch m {
	case ModePosition:
		return "position"
	case ModeTransitionForward:
		return "transition_forward"
	case ModePathFollow:
		return "path_follow"
	case ModeTransitionBackward:
		return "transition_backward"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Modes lists every mode in declaration order.
var Modes = []Mode{ModePosition, ModeTransitionForward, ModePathFollow, ModeTransitionBackward}

var (
	defaultVelocityGains      = model.PIDGains{P: 0.05, I: 0.01, D: 0, IAbsMax: 100}
	defaultAngleOfAttackGains = model.PIDGains{P: 3.6, IAbsMax: 10}
)

// FlightModeController runs the hover, transition and path-following
// control laws and the automatic mode changes between them.
type FlightModeController struct {
	vehicle Vehicle

	attitude *MCAttitude
	position *MCPosition
	roll     *FWAttitude
	vtol     *VTOL
	path     *PathFollow

	velocity      *PID
	angleOfAttack *PID

	hoverTarget     PointOnSphere
	captureDistance float64
	hoverElevator   float64
	velocitySP      float64
	rudderLimit     float64 // degrees
	aoaTarget       float64
	aoaSurface      *core.AeroSurface
	momentLimit     r3.Vec
	tetherLength    float64
	manual          bool

	mode   Mode
	moment r3.Vec
}

// ControllerState is the resumable controller state.
type ControllerState struct {
	Mode   Mode
	Moment r3.Vec
	Loops  map[string]PIDState
	VTOL   VTOLState
	Path   PathState
}

// NewFlightModeController builds a controller in position mode. opts must
// have defaults applied.
func NewFlightModeController(opts model.ControllerOptions, v Vehicle, tetherLength float64) (*FlightModeController, error) {
	for _, name := range []string{SurfaceElevator, SurfaceRudder} {
		s, ok := v.Surface(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingSurface, name)
		}
		if !s.Hinged() {
			return nil, fmt.Errorf("%w: %q has no hinge axis", ErrMissingSurface, name)
		}
	}
	aoa, ok := v.Surface(opts.AngleOfAttackSource)
	if !ok {
		return nil, fmt.Errorf("%w: %q (angle of attack reference)", ErrMissingSurface, opts.AngleOfAttackSource)
	}
	vtol, err := NewVTOL(opts.VTOL)
	if err != nil {
		return nil, err
	}

	p := opts.Path
	center := PointOnSphere{Heading: deg2rad(p.HeadingDeg), Altitude: deg2rad(p.ConeAngleDeg)}
	return &FlightModeController{
		vehicle:         v,
		attitude:        NewMCAttitude(opts.Gains.Attitude, opts.Gains.Rate),
		position:        NewMCPosition(opts.Hover, opts.Gains),
		roll:            NewFWAttitude(opts.Gains.Roll),
		vtol:            vtol,
		path:            NewPathFollow(center, p.Radius, p.Points, p.LookAheadRatio, deg2rad(p.StartAngleDeg)),
		velocity:        newPIDWith(defaultVelocityGains, opts.Gains.Velocity),
		angleOfAttack:   newPIDWith(defaultAngleOfAttackGains, opts.Gains.AngleOfAttack),
		hoverTarget:     PointOnSphere{Heading: deg2rad(opts.Hover.HeadingDeg), Altitude: deg2rad(opts.Hover.AltitudeDeg)},
		captureDistance: opts.Hover.CaptureDistance,
		hoverElevator:   deg2rad(opts.Hover.ElevatorDeg),
		velocitySP:      opts.VelocitySetpoint,
		rudderLimit:     opts.RudderLimitDeg,
		aoaTarget:       deg2rad(opts.AngleOfAttackDeg),
		aoaSurface:      aoa,
		momentLimit:     core.Vec(opts.MomentLimit),
		tetherLength:    tetherLength,
		manual:          opts.ManualModes,
		mode:            ModePosition,
	}, nil
}

// Mode returns the current flight mode.
func (c *FlightModeController) Mode() Mode { return c.mode }

// Moment returns the last moment command.
func (c *FlightModeController) Moment() r3.Vec { return c.moment }

// HoverTarget returns the position-mode target direction.
func (c *FlightModeController) HoverTarget() PointOnSphere { return c.hoverTarget }

// VTOL exposes the transition blend for diagnostics.
func (c *FlightModeController) VTOL() *VTOL { return c.vtol }

// Path exposes the path follower for diagnostics.
func (c *FlightModeController) Path() *PathFollow { return c.path }

// PathTargetPosition returns the world position of the current waypoint at
// tether distance.
func (c *FlightModeController) PathTargetPosition() r3.Vec {
	t := c.path.Target()
	return core.Rotate(c.path.q, r3.Vec{X: c.tetherLength, Y: t.Y, Z: t.X})
}

// SetMode switches mode manually, running the entry action of the new
// mode.
func (c *FlightModeController) SetMode(m Mode) {
	c.enter(m)
}

// RequestTransitionBackward leaves forward flight. The next Step stalls
// the wing and returns to position mode.
func (c *FlightModeController) RequestTransitionBackward() {
	c.enter(ModeTransitionBackward)
}

func (c *FlightModeController) enter(m Mode) {
	switch m {
	case ModeTransitionForward:
		c.vtol.Start(c.vehicle.Orientation(), c.vehicle.Thrust())
	case ModePathFollow:
		c.path.Start()
	case ModePosition, ModeTransitionBackward:
		c.path.Stop()
	}
	c.mode = m
}

// Step computes the command for one substep of length dt.
func (c *FlightModeController) Step(dt float64) Command {
	var cmd Command
	v := c.vehicle
	pos, vel, q, rate := v.Position(), v.Velocity(), v.Orientation(), v.AngularRate()

	var moment r3.Vec
	switch c.mode {
	case ModePosition:
		sp := c.position.Attitude(c.hoverTarget, vel, pos, dt)
		rates := c.attitude.RatesSetpoint(q, sp, dt)
		moment = c.attitude.MomentFromRates(rate, rates, dt)
		cmd.deflect(SurfaceElevator, c.hoverElevator)
		cmd.thrust(c.position.Thrust(c.hoverTarget, vel, pos, dt))

	case ModeTransitionForward:
		c.vtol.Advance(dt)
		sp := c.vtol.Attitude(pos, vel)
		rates := c.attitude.RatesSetpoint(q, sp, dt)
		airspeed := c.vtol.AirspeedRatio(vel)
		moment = r3.Scale(1-airspeed, c.attitude.MomentFromRates(rate, rates, dt))

		rudder := clamp(c.roll.RudderAngle(rates.X, rate.X, dt), -c.rudderLimit, c.rudderLimit) / 2
		cmd.deflect(SurfaceRudder, deg2rad(rudder))
		cmd.deflect(SurfaceElevator, math.Pi/2*(1-airspeed))
		cmd.thrust(c.vtol.Thrust())

	case ModePathFollow:
		yawRate := c.path.RotationRate(pos, vel)
		rudder := clamp(c.roll.RudderAngle(yawRate, rate.X, dt), -c.rudderLimit, c.rudderLimit)
		cmd.deflect(SurfaceRudder, deg2rad(rudder))
		cmd.deflect(SurfaceElevator, -c.angleOfAttack.Update(c.aoaSurface.AngleOfAttack()-c.aoaTarget, dt))
		cmd.thrust(c.velocity.Update(c.velocitySP-r3.Norm(vel), dt))

	case ModeTransitionBackward:
		cmd.deflect(SurfaceElevator, math.Pi)
		c.enter(ModePosition)
	}

	c.moment = r3.Vec{
		X: clamp(moment.X, -c.momentLimit.X, c.momentLimit.X),
		Y: clamp(moment.Y, -c.momentLimit.Y, c.momentLimit.Y),
		Z: clamp(moment.Z, -c.momentLimit.Z, c.momentLimit.Z),
	}
	c.moment = r3.Scale(v.MaxMoment(), c.moment)
	cmd.Moment = c.moment
	return cmd
}

// AutoAdjustMode applies the automatic transitions. It runs once per frame
// and reports whether the mode changed.
func (c *FlightModeController) AutoAdjustMode() (Mode, bool) {
	if c.manual {
		return c.mode, false
	}
	v := c.vehicle
	switch c.mode {
	case ModePosition:
		if PointOnSphereOf(v.Position()).Distance(c.hoverTarget) < c.captureDistance {
			c.enter(ModeTransitionForward)
			return c.mode, true
		}
	case ModeTransitionForward:
		if c.vtol.AirspeedRatio(v.Velocity()) >= 1 {
			c.enter(ModePathFollow)
			return c.mode, true
		}
	}
	return c.mode, false
}

func (c *FlightModeController) loops() map[string]*PID {
	out := map[string]*PID{
		"roll":          c.roll.roll,
		"velocity":      c.velocity,
		"angleOfAttack": c.angleOfAttack,
	}
	c.attitude.loops("", out)
	c.position.loops(out)
	return out
}

// LoopNames returns the names of every PID loop, sorted.
func (c *FlightModeController) LoopNames() []string {
	loops := c.loops()
	names := make([]string, 0, len(loops))
	for n := range loops {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// State returns the resumable controller state.
func (c *FlightModeController) State() ControllerState {
	loops := c.loops()
	s := ControllerState{
		Mode:   c.mode,
		Moment: c.moment,
		Loops:  make(map[string]PIDState, len(loops)),
		VTOL:   c.vtol.State(),
		Path:   c.path.State(),
	}
	for name, pid := range loops {
		s.Loops[name] = pid.State()
	}
	return s
}

// SetState restores controller state without running mode entry actions.
func (c *FlightModeController) SetState(s ControllerState) error {
	if s.Mode < ModePosition || s.Mode > ModeTransitionBackward {
		return fmt.Errorf("controller state has invalid mode %d", int(s.Mode))
	}
	loops := c.loops()
	for name, st := range s.Loops {
		pid, ok := loops[name]
		if !ok {
			return fmt.Errorf("controller state has unknown loop %q", name)
		}
		pid.SetState(st)
	}
	c.mode = s.Mode
	c.moment = s.Moment
	c.vtol.SetState(s.VTOL)
	c.path.SetState(s.Path)
	return nil
}
