package flightcontrol

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/core"
	"github.com/signalsfoundry/kite-simulator/model"
)

// ErrUnknownVTOLAlgorithm is returned for an unrecognised transition
// algorithm name.
var ErrUnknownVTOLAlgorithm = errors.New("unknown VTOL transition algorithm")

// VTOL blends the hover attitude and thrust captured at the start of the
// transition into the forward-flight targets.
type VTOL struct {
	algorithm          string
	transitionTime     float64
	airspeedTransition float64
	thrustForward      float64
	rollForward        float64
	windSpeed          float64

	elapsed     float64
	ratio       float64
	rollStart   float64
	pitchStart  float64
	thrustStart float64
	attitude0   quat.Number
}

// VTOLState is the resumable part of a transition.
type VTOLState struct {
	Elapsed       float64
	Ratio         float64
	RollStart     float64
	PitchStart    float64
	ThrustStart   float64
	AttitudeStart quat.Number
}

// NewVTOL validates the algorithm selector.
func NewVTOL(o model.VTOLOptions) (*VTOL, error) {
	switch o.Algorithm {
	case model.VTOLDefault, model.VTOLStraightUp:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVTOLAlgorithm, o.Algorithm)
	}
	return &VTOL{
		algorithm:          o.Algorithm,
		transitionTime:     o.TransitionTime,
		airspeedTransition: o.AirspeedTransition,
		thrustForward:      o.ThrustForward,
		rollForward:        deg2rad(o.RollForwardDeg),
		windSpeed:          o.WindSpeedEstimate,
		attitude0:          core.Identity,
	}, nil
}

// Start captures the attitude and thrust the blend starts from.
func (v *VTOL) Start(attitude quat.Number, thrust float64) {
	v.attitude0 = attitude
	v.rollStart, v.pitchStart, _ = core.ToEulerZYX(attitude)
	v.thrustStart = thrust
	v.elapsed = 0
	v.ratio = 0
}

// Advance moves the transition clock by dt.
func (v *VTOL) Advance(dt float64) {
	v.elapsed += dt
	v.ratio = clamp(v.elapsed/v.transitionTime, 0, 1)
}

// Ratio is the blend factor, 0 at the start and 1 once transitionTime has
// elapsed.
func (v *VTOL) Ratio() float64 { return v.ratio }

// AirspeedRatio is |vel| relative to the transition airspeed, in [0, 1].
func (v *VTOL) AirspeedRatio(vel r3.Vec) float64 {
	return clamp(r3.Norm(vel)/v.airspeedTransition, 0, 1)
}

// Thrust returns the blended thrust command.
func (v *VTOL) Thrust() float64 {
	if v.algorithm == model.VTOLStraightUp {
		return 1
	}
	return (1-v.ratio)*v.thrustStart + v.ratio*v.thrustForward
}

// Attitude returns the attitude setpoint for the current blend.
func (v *VTOL) Attitude(pos, vel r3.Vec) quat.Number {
	heading := math.Atan2(pos.Y, pos.X)
	if v.algorithm == model.VTOLStraightUp {
		pitch := math.Atan2(-pos.Z, math.Hypot(pos.X, pos.Y))
		return core.FromEulerZYX(0, pitch, heading)
	}

	// Crab into the estimated crosswind as airspeed builds up.
	speed := r3.Norm(vel)
	heading -= v.AirspeedRatio(vel) * math.Atan2(v.windSpeed, speed)

	pitch := (1 - v.ratio) * v.pitchStart
	roll := (1-v.ratio)*v.rollStart + v.ratio*v.rollForward
	return core.FromEulerZYX(roll, pitch, heading)
}

// State returns the resumable transition state.
func (v *VTOL) State() VTOLState {
	return VTOLState{
		Elapsed:       v.elapsed,
		Ratio:         v.ratio,
		RollStart:     v.rollStart,
		PitchStart:    v.pitchStart,
		ThrustStart:   v.thrustStart,
		AttitudeStart: v.attitude0,
	}
}

// SetState restores a transition.
func (v *VTOL) SetState(s VTOLState) {
	v.elapsed = s.Elapsed
	v.ratio = s.Ratio
	v.rollStart = s.RollStart
	v.pitchStart = s.PitchStart
	v.thrustStart = s.ThrustStart
	v.attitude0 = s.AttitudeStart
}
