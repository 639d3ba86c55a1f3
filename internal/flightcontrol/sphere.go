package flightcontrol

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/core"
)

// PointOnSphere is a direction from the origin given as heading (rotation
// about down, from north) and altitude (elevation above the horizon), both
// in radians.
type PointOnSphere struct {
	Heading  float64
	Altitude float64
}

// Quaternion returns the rotation that turns +x (north) towards the point.
func (p PointOnSphere) Quaternion() quat.Number {
	return core.FromEulerZYX(0, p.Altitude, p.Heading)
}

// Distance is the flat angular distance used for target capture.
func (p PointOnSphere) Distance(o PointOnSphere) float64 {
	return math.Hypot(p.Heading-o.Heading, p.Altitude-o.Altitude)
}

// PointOnSphereOf returns the direction of pos seen from the origin.
func PointOnSphereOf(pos r3.Vec) PointOnSphere {
	return PointOnSphere{
		Heading:  math.Atan2(pos.Y, pos.X),
		Altitude: math.Atan2(-pos.Z, math.Hypot(pos.X, pos.Y)),
	}
}

// wrapPi maps an angle in radians to [-pi, pi].
func wrapPi(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < -math.Pi {
		a += 2 * math.Pi
	}
	if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// wrapDegrees maps an angle in degrees to (-180, 180].
func wrapDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a <= -180 {
		a += 360
	}
	if a > 180 {
		a -= 360
	}
	return a
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }
