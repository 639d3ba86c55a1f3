package flightcontrol

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/core"
	"github.com/signalsfoundry/kite-simulator/model"
)

var (
	defaultAltitudeGains         = model.PIDGains{P: 1, IAbsMax: 500}
	defaultVerticalVelocityGains = model.PIDGains{P: 0.1, IAbsMax: 500}
	defaultHeadingGains          = model.PIDGains{P: 20, IAbsMax: 500}
	defaultHeadingVelocityGains  = model.PIDGains{P: 0.2, IAbsMax: 500}
)

// MCPosition holds the hover position loops. Positions are taken relative
// to the world origin; the target is a direction on the sphere around it.
type MCPosition struct {
	altitude         *PID
	verticalVelocity *PID
	heading          *PID
	headingVelocity  *PID

	pitch      float64
	baseThrust float64
}

// NewMCPosition builds the position loops from the hover options.
func NewMCPosition(h model.HoverOptions, g model.ControllerGains) *MCPosition {
	return &MCPosition{
		altitude:         newPIDWith(defaultAltitudeGains, g.Altitude),
		verticalVelocity: newPIDWith(defaultVerticalVelocityGains, g.VerticalVelocity),
		heading:          newPIDWith(defaultHeadingGains, g.Heading),
		headingVelocity:  newPIDWith(defaultHeadingVelocityGains, g.HeadingVelocity),
		pitch:            deg2rad(h.PitchDeg),
		baseThrust:       h.BaseThrust,
	}
}

// Thrust holds the elevation of target: altitude error to vertical
// velocity setpoint, vertical velocity error to thrust around the base
// value.
func (m *MCPosition) Thrust(target PointOnSphere, vel, pos r3.Vec, dt float64) float64 {
	dist := math.Hypot(pos.X, pos.Y)
	altErr := -math.Tan(target.Altitude)*dist - pos.Z
	velSP := m.altitude.Update(altErr, dt)
	return m.baseThrust - m.verticalVelocity.Update(velSP-vel.Z, dt)
}

// Attitude returns the hover attitude setpoint. Heading error becomes a
// tangential velocity setpoint, whose error becomes the roll angle. Pitch
// is fixed and yaw follows the current heading.
func (m *MCPosition) Attitude(target PointOnSphere, vel, pos r3.Vec, dt float64) quat.Number {
	current := math.Atan2(pos.Y, pos.X)
	velSP := m.heading.Update(wrapPi(target.Heading-current), dt)

	posNE := r3.Vec{X: pos.X, Y: pos.Y}
	velNE := r3.Vec{X: vel.X, Y: vel.Y}
	tangential := r3.Cross(core.Unit(posNE), velNE).Z

	roll := m.headingVelocity.Update(velSP-tangential, dt)
	return core.FromEulerZYX(roll, m.pitch, current)
}

func (m *MCPosition) loops(out map[string]*PID) {
	out["altitude"] = m.altitude
	out["verticalVelocity"] = m.verticalVelocity
	out["heading"] = m.heading
	out["headingVelocity"] = m.headingVelocity
}
