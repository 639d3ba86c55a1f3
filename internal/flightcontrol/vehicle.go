package flightcontrol

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/core"
)

// Vehicle is the read-only view of the airframe the controller works from.
// *core.Airplane satisfies it.
type Vehicle interface {
	Position() r3.Vec
	Velocity() r3.Vec
	Orientation() quat.Number
	AngularRate() r3.Vec
	Thrust() float64
	MaxMoment() float64
	Surface(name string) (*core.AeroSurface, bool)
}

// Deflection commands a hinge angle (radians) on a named surface.
type Deflection struct {
	Surface string
	Angle   float64
}

// Command is the controller output for one substep.
type Command struct {
	// Moment is the body-frame moment in N*m.
	Moment r3.Vec
	// Thrust is the normalized thrust; it applies only when SetThrust is
	// true.
	Thrust      float64
	SetThrust   bool
	Deflections []Deflection
}

func (c *Command) deflect(surface string, angle float64) {
	c.Deflections = append(c.Deflections, Deflection{Surface: surface, Angle: angle})
}

func (c *Command) thrust(t float64) {
	c.Thrust, c.SetThrust = t, true
}
