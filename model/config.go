package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Environment holds the physical constants shared by all bodies.
type Environment struct {
	AirDensity float64 `json:"airDensity"` // kg/m^3
	Gravity    *Vec3   `json:"gravity,omitempty"`
}

// WindSeries is a wind history sampled every Dt seconds and replayed
// cyclically.
type WindSeries struct {
	Dt   float64 `json:"dt"`
	Wind []Vec3  `json:"wind"`
}

// WindOptions selects the wind model. Exactly one of the fields is used;
// Series wins when both are present.
type WindOptions struct {
	Static *Vec3       `json:"static,omitempty"`
	Series *WindSeries `json:"timeSeries,omitempty"`
}

// SimConfig is the complete description of one simulation run.
type SimConfig struct {
	Airplane    AirplaneOptions   `json:"airplane"`
	Orientation Orientation       `json:"airplaneOrientation"`
	Tether      TetherOptions     `json:"tether"`
	Controller  ControllerOptions `json:"controller"`
	Wind        WindOptions       `json:"wind"`
	Environment Environment       `json:"environment"`

	// SubSteps is the number of integration substeps per frame.
	SubSteps int `json:"subSteps"`
	// MaxFrameDt clamps the frame step in seconds.
	MaxFrameDt float64 `json:"maxFrameDt"`
}

// Defaults used by WithDefaults.
const (
	DefaultAirDensity = 1.205
	DefaultGravity    = 9.82
	DefaultSubSteps   = 32
	MinSubSteps       = 20
	MaxSubSteps       = 32
	DefaultMaxFrameDt = 0.03
)

// WithDefaults returns a copy of c with every zero-valued tunable replaced
// by its default.
func (c SimConfig) WithDefaults() SimConfig {
	if c.Environment.AirDensity == 0 {
		c.Environment.AirDensity = DefaultAirDensity
	}
	if c.Environment.Gravity == nil {
		c.Environment.Gravity = &Vec3{Z: DefaultGravity}
	}
	if c.SubSteps == 0 {
		c.SubSteps = DefaultSubSteps
	}
	if c.MaxFrameDt == 0 {
		c.MaxFrameDt = DefaultMaxFrameDt
	}
	if c.Wind.Static == nil && c.Wind.Series == nil {
		c.Wind.Static = &Vec3{}
	}

	a := &c.Airplane
	if a.Mass == 0 {
		a.Mass = 1
	}
	if a.Inertia == ([9]float64{}) {
		a.Inertia = [9]float64{0.15, 0, 0, 0, 0.05, 0, 0, 0, 1.15}
	}
	if a.MaxThrust == 0 {
		a.MaxThrust = 30
	}
	if a.MaxMoment == 0 {
		a.MaxMoment = 6
	}
	if a.Thrust == nil {
		a.Thrust = &ThrustLimits{Min: -1, Max: 1}
	}
	if a.AttachmentPoints == ([2]Vec3{}) {
		a.AttachmentPoints = [2]Vec3{{Y: 1}, {Y: -1}}
	}

	c.Controller = c.Controller.withDefaults()
	return c
}

func (o ControllerOptions) withDefaults() ControllerOptions {
	if o.VelocitySetpoint == 0 {
		o.VelocitySetpoint = 20
	}
	p := &o.Path
	if p.Radius == 0 {
		p.Radius = 20
	}
	if p.ConeAngleDeg == 0 {
		p.ConeAngleDeg = 30
	}
	if p.LookAheadRatio == 0 {
		p.LookAheadRatio = 0.9
	}
	if p.Points == 0 {
		p.Points = 40
	}

	h := &o.Hover
	if h.HeadingDeg == 0 && h.AltitudeDeg == 0 {
		h.HeadingDeg, h.AltitudeDeg = 30, 10
	}
	if h.PitchDeg == 0 {
		h.PitchDeg = -15
	}
	if h.BaseThrust == 0 {
		h.BaseThrust = 0.5
	}
	if h.CaptureDistance == 0 {
		h.CaptureDistance = 0.2
	}
	if h.ElevatorDeg == 0 {
		h.ElevatorDeg = 90
	}

	v := &o.VTOL
	if v.Algorithm == "" {
		v.Algorithm = VTOLDefault
	}
	straightUp := v.Algorithm == VTOLStraightUp
	if v.TransitionTime == 0 {
		v.TransitionTime = 2
		if straightUp {
			v.TransitionTime = 8
		}
	}
	if v.AirspeedTransition == 0 {
		v.AirspeedTransition = 16
		if straightUp {
			v.AirspeedTransition = 14
		}
	}
	if v.ThrustForward == 0 {
		v.ThrustForward = 0.85
	}
	if v.RollForwardDeg == 0 {
		v.RollForwardDeg = -80
	}
	if v.WindSpeedEstimate == 0 {
		v.WindSpeedEstimate = 5
	}

	if o.RudderLimitDeg == 0 {
		o.RudderLimitDeg = 16
	}
	if o.AngleOfAttackDeg == 0 {
		o.AngleOfAttackDeg = 8
	}
	if o.AngleOfAttackSource == "" {
		o.AngleOfAttackSource = "left"
	}
	if o.MomentLimit == (Vec3{}) {
		o.MomentLimit = Vec3{X: 1, Y: 1, Z: 0.1}
	}
	return o
}

// Validate reports the first structural problem found in c. It expects
// defaults to have been applied.
func (c SimConfig) Validate() error {
	if c.SubSteps < MinSubSteps || c.SubSteps > MaxSubSteps {
		return fmt.Errorf("%w: subSteps %d outside [%d, %d]", ErrInvalidConfig, c.SubSteps, MinSubSteps, MaxSubSteps)
	}
	if c.MaxFrameDt <= 0 {
		return fmt.Errorf("%w: maxFrameDt must be positive", ErrInvalidConfig)
	}
	if c.Environment.AirDensity <= 0 {
		return fmt.Errorf("%w: air density must be positive", ErrInvalidConfig)
	}
	if c.Airplane.Mass <= 0 {
		return fmt.Errorf("%w: airplane mass must be positive", ErrInvalidConfig)
	}
	if c.Airplane.Thrust != nil && c.Airplane.Thrust.Min > c.Airplane.Thrust.Max {
		return fmt.Errorf("%w: thrust limits min %.3g > max %.3g", ErrInvalidConfig, c.Airplane.Thrust.Min, c.Airplane.Thrust.Max)
	}
	seen := make(map[string]bool, len(c.Airplane.Surfaces))
	for _, s := range c.Airplane.Surfaces {
		if s.Name == "" {
			return fmt.Errorf("%w: aero surface without a name", ErrInvalidConfig)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate aero surface %q", ErrInvalidConfig, s.Name)
		}
		seen[s.Name] = true
		if s.Span <= 0 || s.Chord <= 0 {
			return fmt.Errorf("%w: aero surface %q needs positive span and chord", ErrInvalidConfig, s.Name)
		}
	}
	if err := c.Tether.validate(); err != nil {
		return err
	}
	if s := c.Wind.Series; s != nil {
		if s.Dt <= 0 || len(s.Wind) == 0 {
			return fmt.Errorf("%w: wind time series needs dt > 0 and at least one sample", ErrInvalidConfig)
		}
	}
	if c.Controller.Path.Points <= 0 || c.Controller.Path.Radius <= 0 {
		return fmt.Errorf("%w: path needs positive radius and point count", ErrInvalidConfig)
	}
	if c.Controller.VTOL.TransitionTime <= 0 || c.Controller.VTOL.AirspeedTransition <= 0 {
		return fmt.Errorf("%w: vtol transition time and airspeed must be positive", ErrInvalidConfig)
	}
	return nil
}

func (t TetherOptions) validate() error {
	switch {
	case t.Segments < 1:
		return fmt.Errorf("%w: tether needs at least one segment", ErrInvalidConfig)
	case t.KiteTetherLength < 0 || t.TotalLength <= t.KiteTetherLength:
		return fmt.Errorf("%w: tether total length %.3g must exceed bridle length %.3g", ErrInvalidConfig, t.TotalLength, t.KiteTetherLength)
	case t.Diameter <= 0 || t.Density <= 0 || t.YoungsModulus <= 0:
		return fmt.Errorf("%w: tether diameter, density and modulus must be positive", ErrInvalidConfig)
	case math.Hypot(math.Hypot(t.Direction.X, t.Direction.Y), t.Direction.Z) == 0:
		return fmt.Errorf("%w: tether direction is zero", ErrInvalidConfig)
	}
	return nil
}
