package flightcontrol

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/core"
)

// PathFollow steers along a circle of waypoints lying in the plane normal
// to a direction on the sphere (the path centre). Positions are projected
// into that plane as (local z, local y).
type PathFollow struct {
	center    PointOnSphere
	q         quat.Number
	points    []r2.Vec
	radius    float64
	lookAhead float64

	index      int
	angleError float64
	active     bool
}

// PathState is the resumable part of the path follower.
type PathState struct {
	Index      int
	AngleError float64
	Active     bool
}

// NewPathFollow lays out n waypoints clockwise starting at startAngle.
func NewPathFollow(center PointOnSphere, radius float64, n int, lookAheadRatio, startAngle float64) *PathFollow {
	pf := &PathFollow{
		center:    center,
		q:         center.Quaternion(),
		points:    make([]r2.Vec, n),
		radius:    radius,
		lookAhead: lookAheadRatio,
	}
	for i := range pf.points {
		a := -float64(i) / float64(n) * 2 * math.Pi
		pf.points[i] = r2.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a)}
	}
	pf.index = int(math.Floor(startAngle*float64(n)/(2*math.Pi))) % n
	if pf.index < 0 {
		pf.index += n
	}
	return pf
}

// Start marks the follower active.
func (pf *PathFollow) Start() { pf.active = true }

// Stop marks the follower inactive.
func (pf *PathFollow) Stop() { pf.active = false }

// Active reports whether the follower has been started.
func (pf *PathFollow) Active() bool { return pf.active }

// Index returns the current target waypoint.
func (pf *PathFollow) Index() int { return pf.index }

// Target returns the current target waypoint in path coordinates.
func (pf *PathFollow) Target() r2.Vec { return pf.points[pf.index] }

// AngleError returns the last heading error in degrees.
func (pf *PathFollow) AngleError() float64 { return pf.angleError }

// Center returns the path centre direction.
func (pf *PathFollow) Center() PointOnSphere { return pf.center }

func (pf *PathFollow) local2D(pos r3.Vec) r2.Vec {
	l := core.InverseRotate(pf.q, pos)
	return r2.Vec{X: l.Z, Y: l.Y}
}

// RotationRate advances the target waypoint past everything within the
// look-ahead distance and returns the rate (rad/s) of the circular arc
// through the current position, tangent to the velocity, that reaches the
// target. The sign turns the vehicle against the heading error.
func (pf *PathFollow) RotationRate(pos, vel r3.Vec) float64 {
	p := pf.local2D(pos)
	v := core.InverseRotate(pf.q, vel)
	v.X = 0

	for n := 0; n < len(pf.points) && r2.Norm(r2.Sub(p, pf.points[pf.index])) < pf.lookAhead*pf.radius; n++ {
		pf.index = (pf.index + 1) % len(pf.points)
	}

	heading := math.Atan2(v.Z, v.Y)
	toTarget := r2.Sub(pf.points[pf.index], p)
	angleToPoint := math.Atan2(toTarget.X, toTarget.Y)
	pf.angleError = wrapDegrees((heading - angleToPoint) * 180 / math.Pi)

	speed := r3.Norm(v)
	if speed < 1e-9 {
		return 0
	}
	dir := r2.Scale(1/speed, r2.Vec{X: v.Z, Y: v.Y})
	y := r2.Dot(dir, toTarget)
	l2 := r2.Norm2(toTarget)
	x := math.Sqrt(math.Max(0, l2-y*y))
	if x < 1e-9 {
		return 0
	}
	r := l2 / (2 * x)
	return -sign(pf.angleError) * speed / r
}

// DistanceToPath is the signed radial distance from the circle, positive
// outside.
func (pf *PathFollow) DistanceToPath(pos r3.Vec) float64 {
	return r2.Norm(pf.local2D(pos)) - pf.radius
}

// LoopProgressAngle is the position around the circle in [0, 2*pi). While
// following the path it wraps from near 2*pi back to 0 once per lap.
func (pf *PathFollow) LoopProgressAngle(pos r3.Vec) float64 {
	p := pf.local2D(pos)
	return math.Pi - math.Atan2(p.Y, p.X)
}

// Cost is the squared distance to the path.
func (pf *PathFollow) Cost(pos r3.Vec) float64 {
	d := pf.DistanceToPath(pos)
	return d * d
}

// State returns the resumable follower state.
func (pf *PathFollow) State() PathState {
	return PathState{Index: pf.index, AngleError: pf.angleError, Active: pf.active}
}

// SetState restores the follower state.
func (pf *PathFollow) SetState(s PathState) {
	if n := len(pf.points); n > 0 {
		pf.index = ((s.Index % n) + n) % n
	}
	pf.angleError = s.AngleError
	pf.active = s.Active
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
