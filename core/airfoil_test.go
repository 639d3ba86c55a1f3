package core

import (
	"errors"
	"math"
	"testing"

	"github.com/signalsfoundry/kite-simulator/model"
)

func TestAirfoilPeriodicity(t *testing.T) {
	for _, name := range []string{model.AirfoilNACA0012, model.AirfoilDU96W180} {
		a, err := LookupAirfoil(name)
		if err != nil {
			t.Fatalf("LookupAirfoil(%s): %v", name, err)
		}
		for _, alpha := range []float64{-3, -1.2, -0.05, 0, 0.3, 1.5, 3.1} {
			for _, k := range []float64{-2, 1, 3} {
				shifted := alpha + k*2*math.Pi
				if d := math.Abs(a.CL(alpha) - a.CL(shifted)); d > 1e-9 {
					t.Fatalf("%s: CL(%v) and CL(%v) differ by %v", name, alpha, shifted, d)
				}
				if d := math.Abs(a.CD(alpha) - a.CD(shifted)); d > 1e-9 {
					t.Fatalf("%s: CD(%v) and CD(%v) differ by %v", name, alpha, shifted, d)
				}
				if d := math.Abs(a.CM(alpha) - a.CM(shifted)); d > 1e-9 {
					t.Fatalf("%s: CM(%v) and CM(%v) differ by %v", name, alpha, shifted, d)
				}
			}
		}
	}
}

func TestSymmetricAirfoilMirrors(t *testing.T) {
	a := DefaultAirfoil(true)
	if !a.Symmetric() {
		t.Fatalf("DefaultAirfoil(true) is not symmetric")
	}
	for _, alpha := range []float64{0.01, 0.2, 0.7, 1.9, 3.0} {
		if cl, mirrored := a.CL(alpha), a.CL(-alpha); math.Abs(cl+mirrored) > 1e-12 {
			t.Fatalf("CL(%v) = %v, CL(-%v) = %v; want opposite", alpha, cl, alpha, mirrored)
		}
		if cd, mirrored := a.CD(alpha), a.CD(-alpha); math.Abs(cd-mirrored) > 1e-12 {
			t.Fatalf("CD(%v) = %v, CD(-%v) = %v; want equal", alpha, cd, alpha, mirrored)
		}
		if a.CM(alpha) != 0 {
			t.Fatalf("CM(%v) = %v, want 0 for a symmetric airfoil", alpha, a.CM(alpha))
		}
	}
	if a.CL(0) != 0 {
		t.Fatalf("CL(0) = %v, want 0", a.CL(0))
	}
}

func TestAsymmetricAirfoilHasCamber(t *testing.T) {
	a := DefaultAirfoil(false)
	if a.Symmetric() || a.Name() != model.AirfoilDU96W180 {
		t.Fatalf("DefaultAirfoil(false) = %s", a.Name())
	}
	if a.CL(0) <= 0 {
		t.Fatalf("CL(0) = %v, want positive lift at zero angle", a.CL(0))
	}
	if a.CM(0) >= 0 {
		t.Fatalf("CM(0) = %v, want nose-down moment", a.CM(0))
	}
}

func TestAirfoilInterpolatesLinearly(t *testing.T) {
	ramp := []Sample{{0, 0}, {90, 90}, {180, 0}}
	a, err := NewAirfoil(AirfoilTable{Name: "ramp", Symmetric: true, CL: ramp, CD: ramp})
	if err != nil {
		t.Fatalf("NewAirfoil: %v", err)
	}
	for _, deg := range []float64{10.25, 45.5, 89} {
		got := a.CL(deg * math.Pi / 180)
		if math.Abs(got-deg) > 1e-9 {
			t.Fatalf("CL(%v deg) = %v, want %v", deg, got, deg)
		}
	}
	if got := a.CL(135 * math.Pi / 180); math.Abs(got-45) > 1e-9 {
		t.Fatalf("CL(135 deg) = %v, want 45", got)
	}
}

func TestNewAirfoilRejectsBadTables(t *testing.T) {
	tests := []struct {
		name string
		cl   []Sample
	}{
		{"too few", []Sample{{0, 1}}},
		{"late start", []Sample{{5, 0}, {180, 0}}},
		{"short", []Sample{{0, 0}, {90, 0}}},
		{"unsorted", []Sample{{0, 0}, {100, 0}, {90, 0}, {180, 0}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			table := AirfoilTable{Name: tc.name, Symmetric: true, CL: tc.cl, CD: []Sample{{0, 0}, {180, 0}}}
			if _, err := NewAirfoil(table); !errors.Is(err, ErrInvalidAirfoilTable) {
				t.Fatalf("NewAirfoil error = %v, want ErrInvalidAirfoilTable", err)
			}
		})
	}
}

func TestLookupAirfoilUnknown(t *testing.T) {
	if _, err := LookupAirfoil("clark-y"); !errors.Is(err, ErrUnknownAirfoil) {
		t.Fatalf("LookupAirfoil error = %v, want ErrUnknownAirfoil", err)
	}
}
