package core

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/model"
)

// ErrSingularInertia is returned when the inertia tensor cannot be
// inverted.
var ErrSingularInertia = errors.New("inertia tensor is singular")

// AttachmentPointState is the world position and velocity of a point fixed
// to the airframe.
type AttachmentPointState struct {
	Position r3.Vec
	Velocity r3.Vec
}

// BodyState is the mutable kinematic state of the airframe.
type BodyState struct {
	Position    r3.Vec      // NED, m
	Orientation quat.Number // body to NED
	Velocity    r3.Vec      // NED, m/s
	AngularRate r3.Vec      // FRD, rad/s
}

// Airplane is a 6-DOF rigid body carrying aero surfaces and a thrust unit
// pushing along body -z.
type Airplane struct {
	surfaces []*AeroSurface
	byName   map[string]*AeroSurface

	mass         float64
	externalMass float64
	jInv         [9]float64
	maxThrust    float64
	maxMoment    float64
	thrustMin    float64
	thrustMax    float64
	attachment   [2]r3.Vec
	gravity      r3.Vec

	state  BodyState
	thrust float64
}

// NewAirplane builds an airframe at rest at the origin with identity
// orientation. opts must have defaults applied.
func NewAirplane(opts model.AirplaneOptions, env model.Environment) (*Airplane, error) {
	jInv, err := invertInertia(opts.Inertia)
	if err != nil {
		return nil, err
	}
	a := &Airplane{
		byName:     make(map[string]*AeroSurface, len(opts.Surfaces)),
		mass:       opts.Mass,
		jInv:       jInv,
		maxThrust:  opts.MaxThrust,
		maxMoment:  opts.MaxMoment,
		thrustMin:  -1,
		thrustMax:  1,
		attachment: [2]r3.Vec{Vec(opts.AttachmentPoints[0]), Vec(opts.AttachmentPoints[1])},
		state:      BodyState{Orientation: Identity},
	}
	if opts.Thrust != nil {
		a.thrustMin, a.thrustMax = opts.Thrust.Min, opts.Thrust.Max
	}
	if env.Gravity != nil {
		a.gravity = Vec(*env.Gravity)
	}
	for _, so := range opts.Surfaces {
		s, err := NewAeroSurface(so, env.AirDensity)
		if err != nil {
			return nil, err
		}
		a.surfaces = append(a.surfaces, s)
		a.byName[so.Name] = s
	}
	a.SetThrust(opts.InitialThrust)
	return a, nil
}

func invertInertia(j [9]float64) ([9]float64, error) {
	var inv mat.Dense
	if err := inv.Inverse(mat.NewDense(3, 3, j[:])); err != nil {
		return [9]float64{}, fmt.Errorf("%w: %v", ErrSingularInertia, err)
	}
	var out [9]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[3*r+c] = inv.At(r, c)
		}
	}
	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return [9]float64{}, ErrSingularInertia
		}
	}
	return out, nil
}

// State returns a copy of the kinematic state.
func (a *Airplane) State() BodyState { return a.state }

// SetState replaces the kinematic state. The orientation is normalized
// unless it already has unit length, so restoring a saved state is exact.
func (a *Airplane) SetState(s BodyState) {
	if math.Abs(quat.Abs(s.Orientation)-1) > 1e-12 {
		s.Orientation = Normalize(s.Orientation)
	}
	a.state = s
}

func (a *Airplane) Position() r3.Vec { return a.state.Position }
func (a *Airplane) Velocity() r3.Vec { return a.state.Velocity }
func (a *Airplane) Orientation() quat.Number { return a.state.Orientation }
func (a *Airplane) AngularRate() r3.Vec { return a.state.AngularRate }
func (a *Airplane) Thrust() float64 { return a.thrust }
func (a *Airplane) MaxMoment() float64 { return a.maxMoment }
func (a *Airplane) Mass() float64 { return a.mass }
func (a *Airplane) ExternalMass() float64 { return a.externalMass }
func (a *Airplane) Surfaces() []*AeroSurface { return a.surfaces }
func (a *Airplane) AttachmentOffsets() [2]r3.Vec { return a.attachment }

// Surface returns the named aero surface.
func (a *Airplane) Surface(name string) (*AeroSurface, bool) {
	s, ok := a.byName[name]
	return s, ok
}

// SetExternalMass sets mass carried along with the airframe, such as the
// bridle lines.
func (a *Airplane) SetExternalMass(m float64) { a.externalMass = m }

// SetThrust sets the normalized thrust, clamped to the configured limits.
func (a *Airplane) SetThrust(t float64) { a.thrust = clamp(t, a.thrustMin, a.thrustMax) }

// Speed returns the ground speed.
func (a *Airplane) Speed() float64 { return r3.Norm(a.state.Velocity) }

// Power returns the mechanical power of the rotors. Negative values mean
// energy is being generated.
func (a *Airplane) Power() float64 {
	return a.Speed() * (-a.maxThrust) * a.thrust
}

// AttachmentPointStates returns the world kinematics of both attachment
// points.
func (a *Airplane) AttachmentPointStates() [2]AttachmentPointState {
	return [2]AttachmentPointState{a.attachmentPointState(a.attachment[0]), a.attachmentPointState(a.attachment[1])}
}

func (a *Airplane) attachmentPointState(offset r3.Vec) AttachmentPointState {
	q := a.state.Orientation
	return AttachmentPointState{
		Position: r3.Add(a.state.Position, Rotate(q, offset)),
		Velocity: r3.Add(a.state.Velocity, Rotate(q, r3.Cross(a.state.AngularRate, offset))),
	}
}

// AttachmentForceMoment converts world forces acting at the two attachment
// points into a body-frame force and moment.
func (a *Airplane) AttachmentForceMoment(f1, f2 r3.Vec) ForceMoment {
	q := a.state.Orientation
	b1 := InverseRotate(q, f1)
	b2 := InverseRotate(q, f2)
	return ForceMoment{
		Force:  r3.Add(b1, b2),
		Moment: r3.Add(r3.Cross(a.attachment[0], b1), r3.Cross(a.attachment[1], b2)),
	}
}

// ApparentWind returns the body-frame apparent wind for a world wind.
func (a *Airplane) ApparentWind(wind r3.Vec) r3.Vec {
	return InverseRotate(a.state.Orientation, r3.Sub(wind, a.state.Velocity))
}

// Update advances the body by dt under the given world wind and an external
// body-frame force/moment.
func (a *Airplane) Update(dt float64, wind r3.Vec, external ForceMoment) {
	apparent := a.ApparentWind(wind)
	rate := a.state.AngularRate

	total := ForceMoment{
		Force:  r3.Add(r3.Vec{Z: -a.maxThrust * a.thrust}, external.Force),
		Moment: external.Moment,
	}
	for _, s := range a.surfaces {
		total = total.Add(s.ForceMoment(apparent, rate))
	}

	rate = r3.Add(rate, r3.Scale(dt, a.applyJInv(total.Moment)))
	a.state.AngularRate = rate
	if w := r3.Norm(rate); w > epsilon {
		step := AxisAngle(rate, w*dt)
		a.state.Orientation = Normalize(quat.Mul(a.state.Orientation, step))
	}

	force := Rotate(a.state.Orientation, total.Force)
	acc := r3.Add(r3.Scale(1/(a.mass+a.externalMass), force), a.gravity)
	a.state.Velocity = r3.Add(a.state.Velocity, r3.Scale(dt, acc))
	a.state.Position = r3.Add(a.state.Position, r3.Scale(dt, a.state.Velocity))
}

func (a *Airplane) applyJInv(m r3.Vec) r3.Vec {
	j := &a.jInv
	return r3.Vec{
		X: j[0]*m.X + j[1]*m.Y + j[2]*m.Z,
		Y: j[3]*m.X + j[4]*m.Y + j[5]*m.Z,
		Z: j[6]*m.X + j[7]*m.Y + j[8]*m.Z,
	}
}
