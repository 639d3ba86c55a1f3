package core

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/model"
)

func TestStaticWind(t *testing.T) {
	w, err := NewWind(model.WindOptions{Static: &model.Vec3{X: -12}})
	if err != nil {
		t.Fatalf("NewWind: %v", err)
	}
	for _, at := range []float64{0, 5, 1e6} {
		if got := w.At(at); got != (r3.Vec{X: -12}) {
			t.Fatalf("At(%v) = %v, want (-12, 0, 0)", at, got)
		}
	}
}

func TestNoWind(t *testing.T) {
	w, err := NewWind(model.WindOptions{})
	if err != nil {
		t.Fatalf("NewWind: %v", err)
	}
	if got := w.At(3); got != (r3.Vec{}) {
		t.Fatalf("At(3) = %v, want calm", got)
	}
}

func TestTimeseriesWindWraps(t *testing.T) {
	a, b, c := model.Vec3{X: 1}, model.Vec3{X: 2}, model.Vec3{X: 3}
	w, err := NewWind(model.WindOptions{
		Static: &model.Vec3{Y: 100},
		Series: &model.WindSeries{Dt: 1, Wind: []model.Vec3{a, b, c}},
	})
	if err != nil {
		t.Fatalf("NewWind: %v", err)
	}

	tests := []struct {
		at   float64
		want float64
	}{
		{0, 1},
		{0.99, 1},
		{1.5, 2},
		{2, 3},
		{3.2, 1},
		{-0.5, 3},
	}
	for _, tc := range tests {
		if got := w.At(tc.at); got != (r3.Vec{X: tc.want}) {
			t.Fatalf("At(%v) = %v, want (%v, 0, 0)", tc.at, got, tc.want)
		}
	}
}

func TestNewWindRejectsBadSeries(t *testing.T) {
	bad := []*model.WindSeries{
		{Dt: 0, Wind: []model.Vec3{{X: 1}}},
		{Dt: 1},
	}
	for _, s := range bad {
		if _, err := NewWind(model.WindOptions{Series: s}); err == nil {
			t.Fatalf("NewWind(%+v) succeeded, want an error", s)
		}
	}
}
