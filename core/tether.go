package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/model"
)

// TetherState is the round-trippable state of every tether point.
type TetherState struct {
	Positions  []r3.Vec
	Velocities []r3.Vec
}

// Tether is a chain of point masses joined by spring-damper segments. The
// first Segments points form the main line from the origin to the trunk
// point. The last two points are the ends of the bridle lines and are
// slaved to the airframe attachment points.
type Tether struct {
	segments int
	end      int // trunk point
	k1, k2   int // bridle ends

	pos        []r3.Vec
	vel        []r3.Vec
	mass       []float64
	restLength []float64

	k0          float64
	kCompress   float64
	damping     float64
	cd          float64
	diameter    float64
	airDensity  float64
	gravity     r3.Vec
	origin      r3.Vec
	originVel   r3.Vec
	segmentSize float64

	segment    []r3.Vec
	dir        []r3.Vec
	stretchVel []float64
	fSpring    []r3.Vec
	fDrag      []r3.Vec
}

// NewTether lays the main line out straight from the origin along the
// configured direction and sizes the bridle lines from the current
// attachment point positions.
func NewTether(opts model.TetherOptions, env model.Environment, ap [2]AttachmentPointState) *Tether {
	n := opts.Segments
	area := math.Pi * math.Pow(opts.Diameter/2, 2)
	t := &Tether{
		segments:    n,
		end:         n - 1,
		k1:          n,
		k2:          n + 1,
		pos:         make([]r3.Vec, n+2),
		vel:         make([]r3.Vec, n+2),
		mass:        make([]float64, n+2),
		restLength:  make([]float64, n+2),
		k0:          area * opts.YoungsModulus,
		kCompress:   opts.CompressionSpring,
		damping:     opts.Damping,
		cd:          opts.DragCoefficient,
		diameter:    opts.Diameter,
		airDensity:  env.AirDensity,
		origin:      Vec(opts.Origin),
		segmentSize: (opts.TotalLength - opts.KiteTetherLength) / float64(n),
		segment:     make([]r3.Vec, n+2),
		dir:         make([]r3.Vec, n+2),
		stretchVel:  make([]float64, n+2),
		fSpring:     make([]r3.Vec, n+2),
		fDrag:       make([]r3.Vec, n+2),
	}
	if env.Gravity != nil {
		t.gravity = Vec(*env.Gravity)
	}

	dir := Unit(Vec(opts.Direction))
	for i := 0; i < n; i++ {
		t.restLength[i] = t.segmentSize
		t.pos[i] = r3.Add(t.origin, r3.Scale(float64(i+1)*t.segmentSize, dir))
	}
	for i, s := range ap {
		t.restLength[n+i] = r3.Norm(r3.Sub(s.Position, t.pos[t.end]))
	}
	for i := range t.mass {
		t.mass[i] = t.restLength[i] * area * opts.Density
	}
	t.SyncBoundary(ap)
	return t
}

// SyncBoundary moves the bridle ends onto the attachment points.
func (t *Tether) SyncBoundary(ap [2]AttachmentPointState) {
	t.pos[t.k1], t.vel[t.k1] = ap[0].Position, ap[0].Velocity
	t.pos[t.k2], t.vel[t.k2] = ap[1].Position, ap[1].Velocity
}

// SetOrigin moves the anchor end of the first segment. It is used when the
// anchor is itself a moving junction.
func (t *Tether) SetOrigin(pos, vel r3.Vec) {
	t.origin, t.originVel = pos, vel
}

// Origin returns the anchor end of the first segment.
func (t *Tether) Origin() r3.Vec { return t.origin }

// Update computes segment forces and integrates the main-line points with
// semi-implicit Euler.
func (t *Tether) Update(dt float64, wind r3.Vec) {
	t.measure(0, t.origin, t.originVel)
	for i := 1; i <= t.end; i++ {
		t.measure(i, t.pos[i-1], t.vel[i-1])
	}
	t.measure(t.k1, t.pos[t.end], t.vel[t.end])
	t.measure(t.k2, t.pos[t.end], t.vel[t.end])

	for i := range t.pos {
		t.fSpring[i] = t.springForce(i)
		t.fDrag[i] = t.dragForce(i, wind)
	}

	for i := 0; i <= t.end; i++ {
		var f r3.Vec
		if i < t.end {
			f = r3.Sub(t.fSpring[i], t.fSpring[i+1])
		} else {
			f = r3.Sub(r3.Sub(t.fSpring[i], t.fSpring[t.k1]), t.fSpring[t.k2])
		}
		f = r3.Add(f, t.fDrag[i])

		acc := r3.Add(r3.Scale(1/t.mass[i], f), t.gravity)
		t.vel[i] = r3.Add(t.vel[i], r3.Scale(dt, acc))
		t.pos[i] = r3.Add(t.pos[i], r3.Scale(dt, t.vel[i]))
	}
}

// measure fills the geometry of segment i, which runs from the inner point
// (p, v) to point i.
func (t *Tether) measure(i int, p, v r3.Vec) {
	t.segment[i] = r3.Sub(t.pos[i], p)
	t.dir[i] = Unit(t.segment[i])
	t.stretchVel[i] = r3.Dot(t.dir[i], r3.Sub(t.vel[i], v)) / t.restLength[i]
}

// springForce returns the spring-damper force of segment i acting on its
// outer point.
func (t *Tether) springForce(i int) r3.Vec {
	stretch := (r3.Norm(t.segment[i]) - t.restLength[i]) / t.restLength[i]
	k := t.kCompress
	if stretch > 0 {
		k = t.k0
	}
	return r3.Scale(-k*stretch-t.damping*t.stretchVel[i], t.dir[i])
}

// dragForce is the cross-flow drag on segment i. The wind component along
// the segment produces no drag.
func (t *Tether) dragForce(i int, wind r3.Vec) r3.Vec {
	return segmentDrag(wind, t.vel[i], t.dir[i], r3.Norm(t.segment[i]), t.diameter, t.cd, t.airDensity)
}

func segmentDrag(wind, vel, dir r3.Vec, length, diameter, cd, rho float64) r3.Vec {
	ap := r3.Sub(wind, vel)
	perp := r3.Sub(ap, r3.Scale(r3.Dot(dir, ap), dir))
	return r3.Scale(0.5*rho*diameter*length*cd*r3.Norm(perp), perp)
}

// KiteTetherForces returns the world forces the bridle lines exert on the
// two attachment points.
func (t *Tether) KiteTetherForces() (r3.Vec, r3.Vec) {
	return r3.Add(t.fSpring[t.k1], t.fDrag[t.k1]), r3.Add(t.fSpring[t.k2], t.fDrag[t.k2])
}

// KiteTetherMass is the mass of the two bridle lines.
func (t *Tether) KiteTetherMass() float64 { return t.mass[t.k1] + t.mass[t.k2] }

// RootForce is the spring force of the first segment acting on the first
// point. The anchor feels its negation.
func (t *Tether) RootForce() r3.Vec { return t.fSpring[0] }

// SpringForceMagnitudes returns |spring force| for every segment, main line
// first, then the two bridle lines.
func (t *Tether) SpringForceMagnitudes() []float64 {
	out := make([]float64, len(t.fSpring))
	for i, f := range t.fSpring {
		out[i] = r3.Norm(f)
	}
	return out
}

// Segments returns the number of main-line segments.
func (t *Tether) Segments() int { return t.segments }

// RestLengths returns a copy of the rest length of every segment.
func (t *Tether) RestLengths() []float64 { return append([]float64(nil), t.restLength...) }

// SpringConstant returns k0, the axial stiffness per unit strain.
func (t *Tether) SpringConstant() float64 { return t.k0 }

// Positions returns a copy of every point position.
func (t *Tether) Positions() []r3.Vec { return append([]r3.Vec(nil), t.pos...) }

// State returns a copy of positions and velocities.
func (t *Tether) State() TetherState {
	return TetherState{
		Positions:  append([]r3.Vec(nil), t.pos...),
		Velocities: append([]r3.Vec(nil), t.vel...),
	}
}

// SetState restores positions and velocities from a copy.
func (t *Tether) SetState(s TetherState) error {
	if len(s.Positions) != len(t.pos) || len(s.Velocities) != len(t.vel) {
		return fmt.Errorf("tether state has %d/%d points, want %d", len(s.Positions), len(s.Velocities), len(t.pos))
	}
	copy(t.pos, s.Positions)
	copy(t.vel, s.Velocities)
	return nil
}

// Energy returns the kinetic energy of the main line plus the elastic
// energy of every stretched segment.
func (t *Tether) Energy() float64 {
	var e float64
	for i := 0; i <= t.end; i++ {
		e += 0.5 * t.mass[i] * r3.Norm2(t.vel[i])
	}
	for i := range t.segment {
		stretch := (r3.Norm(t.segment[i]) - t.restLength[i]) / t.restLength[i]
		if stretch > 0 {
			e += 0.5 * t.k0 / t.restLength[i] * math.Pow(stretch*t.restLength[i], 2)
		}
	}
	return e
}
