package core

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/model"
)

// SharedSegment is an anchor-side segment whose outer end is a free
// junction carrying several tethers. Each tether treats the junction as its
// moving origin.
type SharedSegment struct {
	anchor     r3.Vec
	junction   r3.Vec
	junctionV  r3.Vec
	restLength float64
	mass       float64
	k0         float64
	damping    float64
	cd         float64
	diameter   float64
	airDensity float64
	gravity    r3.Vec

	spring r3.Vec
	drag   r3.Vec
}

// NewSharedSegment lays the segment out straight from its anchor.
func NewSharedSegment(opts model.SharedSegmentOptions, env model.Environment) *SharedSegment {
	area := math.Pi * math.Pow(opts.Diameter/2, 2)
	anchor := Vec(opts.Origin)
	s := &SharedSegment{
		anchor:     anchor,
		junction:   r3.Add(anchor, r3.Scale(opts.Length, Unit(Vec(opts.Direction)))),
		restLength: opts.Length,
		mass:       opts.Length*area*opts.Density + opts.JunctionMass,
		k0:         area * opts.YoungsModulus,
		damping:    opts.Damping,
		cd:         opts.DragCoefficient,
		diameter:   opts.Diameter,
		airDensity: env.AirDensity,
	}
	if env.Gravity != nil {
		s.gravity = Vec(*env.Gravity)
	}
	return s
}

// Junction returns the junction position and velocity.
func (s *SharedSegment) Junction() (r3.Vec, r3.Vec) { return s.junction, s.junctionV }

// SetJunction restores the junction state.
func (s *SharedSegment) SetJunction(pos, vel r3.Vec) { s.junction, s.junctionV = pos, vel }

// Attach points every tether at the junction.
func (s *SharedSegment) Attach(tethers ...*Tether) {
	for _, t := range tethers {
		t.SetOrigin(s.junction, s.junctionV)
	}
}

// GroundForce is the spring force of the shared segment acting on the
// junction.
func (s *SharedSegment) GroundForce() r3.Vec { return s.spring }

// Update must run after every attached tether has been updated for the
// substep, since it consumes their root reactions. It then moves the
// tether origins to the new junction state.
func (s *SharedSegment) Update(dt float64, wind r3.Vec, tethers []*Tether) {
	seg := r3.Sub(s.junction, s.anchor)
	dir := Unit(seg)
	length := r3.Norm(seg)
	stretch := (length - s.restLength) / s.restLength
	stretchVel := r3.Dot(dir, s.junctionV) / s.restLength
	k := 0.0
	if stretch > 0 {
		k = s.k0
	}
	s.spring = r3.Scale(-k*stretch-s.damping*stretchVel, dir)
	s.drag = segmentDrag(wind, s.junctionV, dir, length, s.diameter, s.cd, s.airDensity)

	f := r3.Add(s.spring, s.drag)
	for _, t := range tethers {
		f = r3.Sub(f, t.RootForce())
	}
	acc := r3.Add(r3.Scale(1/s.mass, f), s.gravity)
	s.junctionV = r3.Add(s.junctionV, r3.Scale(dt, acc))
	s.junction = r3.Add(s.junction, r3.Scale(dt, s.junctionV))
	s.Attach(tethers...)
}
