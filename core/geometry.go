package core

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/model"
)

// All world quantities are NED (north, east, down); body quantities are
// FRD (forward, right, down). Quaternions rotate body vectors into the
// parent frame.

// Identity is the identity rotation.
var Identity = quat.Number{Real: 1}

// epsilon below which a vector or angle is treated as zero.
const epsilon = 1e-12

// ForceMoment is a force and a moment expressed in one frame.
type ForceMoment struct {
	Force  r3.Vec
	Moment r3.Vec
}

// Add returns the component-wise sum of two force/moment pairs.
func (fm ForceMoment) Add(other ForceMoment) ForceMoment {
	return ForceMoment{
		Force:  r3.Add(fm.Force, other.Force),
		Moment: r3.Add(fm.Moment, other.Moment),
	}
}

// Unit returns v scaled to length one, or the zero vector when v is zero.
func Unit(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n < epsilon {
		return r3.Vec{}
	}
	return r3.Scale(1/n, v)
}

// Rotate applies the rotation q to v.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
	return r3.Vec{X: p.Imag, Y: p.Jmag, Z: p.Kmag}
}

// InverseRotate applies the inverse of the unit rotation q to v.
func InverseRotate(q quat.Number, v r3.Vec) r3.Vec {
	return Rotate(quat.Conj(q), v)
}

// AxisAngle returns the rotation by angle radians about axis. A zero axis
// yields the identity.
func AxisAngle(axis r3.Vec, angle float64) quat.Number {
	u := Unit(axis)
	if u == (r3.Vec{}) {
		return Identity
	}
	s, c := math.Sincos(angle / 2)
	return quat.Number{Real: c, Imag: u.X * s, Jmag: u.Y * s, Kmag: u.Z * s}
}

// Normalize scales q to unit length.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n < epsilon {
		return Identity
	}
	return quat.Scale(1/n, q)
}

// EulerOrder names the axis sequence of an Euler rotation.
type EulerOrder string

const (
	OrderXYZ EulerOrder = "XYZ"
	OrderZYX EulerOrder = "ZYX"
)

// FromEuler builds a rotation from intrinsic Euler angles (radians) about
// x (roll), y (pitch) and z (yaw) applied in the given order.
func FromEuler(roll, pitch, yaw float64, order EulerOrder) (quat.Number, error) {
	qx := AxisAngle(r3.Vec{X: 1}, roll)
	qy := AxisAngle(r3.Vec{Y: 1}, pitch)
	qz := AxisAngle(r3.Vec{Z: 1}, yaw)
	switch order {
	case OrderXYZ, "":
		return quat.Mul(quat.Mul(qx, qy), qz), nil
	case OrderZYX:
		return quat.Mul(quat.Mul(qz, qy), qx), nil
	default:
		return Identity, fmt.Errorf("unsupported euler order %q", order)
	}
}

// FromEulerZYX is FromEuler with yaw-pitch-roll order, the convention used
// for attitude setpoints.
func FromEulerZYX(roll, pitch, yaw float64) quat.Number {
	q, _ := FromEuler(roll, pitch, yaw, OrderZYX)
	return q
}

// ToEulerZYX decomposes q into yaw-pitch-roll angles (radians).
func ToEulerZYX(q quat.Number) (roll, pitch, yaw float64) {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	m11 := 1 - 2*(y*y+z*z)
	m12 := 2 * (x*y - w*z)
	m21 := 2 * (x*y + w*z)
	m22 := 1 - 2*(x*x+z*z)
	m31 := 2 * (x*z - w*y)
	m32 := 2 * (y*z + w*x)
	m33 := 1 - 2*(x*x+y*y)

	pitch = math.Asin(-clamp(m31, -1, 1))
	if math.Abs(m31) < 0.9999999 {
		roll = math.Atan2(m32, m33)
		yaw = math.Atan2(m21, m11)
	} else {
		yaw = math.Atan2(-m12, m22)
	}
	return roll, pitch, yaw
}

// Vec converts a configuration vector.
func Vec(v model.Vec3) r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

// ModelVec converts back to the configuration representation.
func ModelVec(v r3.Vec) model.Vec3 { return model.Vec3{X: v.X, Y: v.Y, Z: v.Z} }

// Orientation resolves a configured orientation to a unit quaternion.
func Orientation(o model.Orientation) (quat.Number, error) {
	switch {
	case o.Quaternion != nil:
		q := quat.Number{Real: o.Quaternion.W, Imag: o.Quaternion.X, Jmag: o.Quaternion.Y, Kmag: o.Quaternion.Z}
		if quat.Abs(q) < epsilon {
			return Identity, fmt.Errorf("orientation quaternion has zero length")
		}
		return Normalize(q), nil
	case o.Euler != nil:
		e := o.Euler
		return FromEuler(deg(e.Roll), deg(e.Pitch), deg(e.Yaw), EulerOrder(strings.ToUpper(e.Order)))
	default:
		return Identity, nil
	}
}

func deg(d float64) float64 { return d * math.Pi / 180 }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
