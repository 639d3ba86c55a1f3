package flightcontrol

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/core"
)

func TestPointOnSphereOf(t *testing.T) {
	p := PointOnSphereOf(r3.Vec{X: 3, Y: 4, Z: -5})
	if math.Abs(p.Heading-math.Atan2(4, 3)) > 1e-12 || math.Abs(p.Altitude-math.Pi/4) > 1e-12 {
		t.Fatalf("PointOnSphereOf = %+v, want heading atan2(4, 3) and altitude pi/4", p)
	}

	dir := core.Rotate(p.Quaternion(), r3.Vec{X: 1})
	want := r3.Scale(1/math.Sqrt(50), r3.Vec{X: 3, Y: 4, Z: -5})
	if r3.Norm(r3.Sub(dir, want)) > 1e-12 {
		t.Fatalf("Quaternion() points x at %v, want %v", dir, want)
	}
}

func TestPointOnSphereDistance(t *testing.T) {
	a := PointOnSphere{Heading: 1, Altitude: 1}
	b := PointOnSphere{Heading: 4, Altitude: 5}
	if got := a.Distance(b); got != 5 {
		t.Fatalf("Distance = %v, want 5", got)
	}
}

func TestWrapAngles(t *testing.T) {
	radians := []struct{ in, want float64 }{
		{0, 0},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
	}
	for _, tc := range radians {
		if got := wrapPi(tc.in); math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("wrapPi(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}

	degrees := []struct{ in, want float64 }{
		{190, -170},
		{-180, 180},
		{180, 180},
		{-190, 170},
		{725, 5},
	}
	for _, tc := range degrees {
		if got := wrapDegrees(tc.in); got != tc.want {
			t.Fatalf("wrapDegrees(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
