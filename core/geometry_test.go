package core

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/model"
)

const tol = 1e-12

func vecNear(a, b r3.Vec, eps float64) bool {
	return r3.Norm(r3.Sub(a, b)) <= eps
}

func TestRotateQuarterTurnAboutZ(t *testing.T) {
	q := AxisAngle(r3.Vec{Z: 1}, math.Pi/2)
	got := Rotate(q, r3.Vec{X: 1})
	if !vecNear(got, r3.Vec{Y: 1}, tol) {
		t.Fatalf("Rotate(x) = %v, want (0, 1, 0)", got)
	}
	if back := InverseRotate(q, got); !vecNear(back, r3.Vec{X: 1}, tol) {
		t.Fatalf("InverseRotate(Rotate(x)) = %v, want x", back)
	}
}

func TestAxisAngleZeroAxis(t *testing.T) {
	if q := AxisAngle(r3.Vec{}, 1); q != Identity {
		t.Fatalf("AxisAngle(0, 1) = %v, want identity", q)
	}
}

func TestUnitAndNormalize(t *testing.T) {
	if u := Unit(r3.Vec{}); u != (r3.Vec{}) {
		t.Fatalf("Unit(0) = %v, want zero", u)
	}
	if n := r3.Norm(Unit(r3.Vec{X: 3, Y: 4})); math.Abs(n-1) > tol {
		t.Fatalf("|Unit(3,4,0)| = %v, want 1", n)
	}
	q := Normalize(quat.Number{Real: 2, Kmag: 2})
	if math.Abs(quat.Abs(q)-1) > tol {
		t.Fatalf("|Normalize(q)| = %v, want 1", quat.Abs(q))
	}
	if Normalize(quat.Number{}) != Identity {
		t.Fatalf("Normalize(0) should be the identity")
	}
}

func TestEulerZYXRoundTrip(t *testing.T) {
	roll, pitch, yaw := 0.1, -0.2, 0.3
	r, p, y := ToEulerZYX(FromEulerZYX(roll, pitch, yaw))
	if math.Abs(r-roll) > 1e-9 || math.Abs(p-pitch) > 1e-9 || math.Abs(y-yaw) > 1e-9 {
		t.Fatalf("ToEulerZYX = (%v, %v, %v), want (%v, %v, %v)", r, p, y, roll, pitch, yaw)
	}
}

func TestFromEulerOrders(t *testing.T) {
	xyz, err := FromEuler(0.3, 0.2, 0.1, OrderXYZ)
	if err != nil {
		t.Fatalf("FromEuler XYZ: %v", err)
	}
	zyx, err := FromEuler(0.3, 0.2, 0.1, OrderZYX)
	if err != nil {
		t.Fatalf("FromEuler ZYX: %v", err)
	}
	if xyz == zyx {
		t.Fatalf("XYZ and ZYX orders produced the same rotation")
	}
	if _, err := FromEuler(0, 0, 0, "YXZ"); err == nil {
		t.Fatalf("expected an error for an unsupported order")
	}
}

func TestOrientation(t *testing.T) {
	q, err := Orientation(model.Orientation{})
	if err != nil || q != Identity {
		t.Fatalf("Orientation(empty) = %v, %v; want identity", q, err)
	}

	q, err = Orientation(model.Orientation{Euler: &model.Euler{Yaw: 90, Order: "zyx"}})
	if err != nil {
		t.Fatalf("Orientation(euler): %v", err)
	}
	if got := Rotate(q, r3.Vec{X: 1}); !vecNear(got, r3.Vec{Y: 1}, tol) {
		t.Fatalf("yaw 90 deg rotates x to %v, want (0, 1, 0)", got)
	}

	q, err = Orientation(model.Orientation{Quaternion: &model.Quaternion{W: 2}})
	if err != nil || q != Identity {
		t.Fatalf("Orientation(2,0,0,0) = %v, %v; want identity", q, err)
	}
	if _, err := Orientation(model.Orientation{Quaternion: &model.Quaternion{}}); err == nil {
		t.Fatalf("expected an error for a zero quaternion")
	}
}

func TestForceMomentAdd(t *testing.T) {
	a := ForceMoment{Force: r3.Vec{X: 1}, Moment: r3.Vec{Y: 2}}
	b := ForceMoment{Force: r3.Vec{X: 3}, Moment: r3.Vec{Z: 4}}
	want := ForceMoment{Force: r3.Vec{X: 4}, Moment: r3.Vec{Y: 2, Z: 4}}
	if got := a.Add(b); got != want {
		t.Fatalf("Add = %+v, want %+v", got, want)
	}
}
