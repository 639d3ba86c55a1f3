package state

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/kb"
	"github.com/signalsfoundry/kite-simulator/model"
)

func sharedSegment() model.SharedSegmentOptions {
	return model.SharedSegmentOptions{
		Length:          10,
		Density:         950,
		Diameter:        0.002,
		YoungsModulus:   80e8,
		Damping:         30,
		DragCoefficient: 0.95,
		Direction:       model.Vec3{X: 1},
		JunctionMass:    0.5,
	}
}

func twoTrainers() []model.SimConfig {
	a, b := kb.Trainer(), kb.Trainer()
	a.Tether.Direction = model.Vec3{X: 1, Y: 0.3}
	b.Tether.Direction = model.Vec3{X: 1, Y: -0.3}
	return []model.SimConfig{a, b}
}

func TestFormationAttachesMembersToJunction(t *testing.T) {
	f, err := NewFormation(sharedSegment(), twoTrainers())
	if err != nil {
		t.Fatalf("NewFormation: %v", err)
	}
	junction, _ := f.Shared().Junction()
	if junction != (r3.Vec{X: 10}) {
		t.Fatalf("junction = %v, want (10, 0, 0)", junction)
	}
	for i, m := range f.Members() {
		if m.Tether().Origin() != junction {
			t.Fatalf("member %d tether origin = %v, want %v", i, m.Tether().Origin(), junction)
		}
		if r := r3.Norm(r3.Sub(m.Airplane().Position(), junction)); math.Abs(r-70) > 1e-9 {
			t.Fatalf("member %d starts %.6f m from the junction, want 70", i, r)
		}
	}
}

func TestFormationStaysFinite(t *testing.T) {
	var frames int
	f, err := NewFormation(sharedSegment(), twoTrainers(), WithObserver(ObserverFunc(func(Sample) { frames++ })))
	if err != nil {
		t.Fatalf("NewFormation: %v", err)
	}

	tm := 0.0
	for i := 0; i < 128; i++ {
		tm += frameDt
		f.Update(frameDt, tm)
	}

	junction, vel := f.Shared().Junction()
	if !Finite(junction) || !Finite(vel) {
		t.Fatalf("junction not finite: %v %v", junction, vel)
	}
	if g := f.GroundTension(); math.IsNaN(g) || math.IsInf(g, 0) {
		t.Fatalf("GroundTension() = %v", g)
	}
	for i, m := range f.Members() {
		if !Finite(m.Airplane().Position()) {
			t.Fatalf("member %d position not finite", i)
		}
		if m.Tether().Origin() != junction {
			t.Fatalf("member %d tether detached from the junction", i)
		}
		if m.Frame() != 128 || m.Time() != tm {
			t.Fatalf("member %d frame/time = %d/%v, want 128/%v", i, m.Frame(), m.Time(), tm)
		}
	}
	if f.Time() != tm {
		t.Fatalf("Time() = %v, want %v", f.Time(), tm)
	}
	// The observer option is shared by both members.
	if frames != 2*128 {
		t.Fatalf("observer saw %d frames, want %d", frames, 2*128)
	}
}

func TestNewFormationRejectsBadInput(t *testing.T) {
	if _, err := NewFormation(sharedSegment(), nil); !errors.Is(err, model.ErrInvalidConfig) {
		t.Fatalf("no members: error = %v, want ErrInvalidConfig", err)
	}

	bad := sharedSegment()
	bad.Length = 0
	if _, err := NewFormation(bad, twoTrainers()); !errors.Is(err, model.ErrInvalidConfig) {
		t.Fatalf("zero length: error = %v, want ErrInvalidConfig", err)
	}

	members := twoTrainers()
	members[1].SubSteps = 24
	if _, err := NewFormation(sharedSegment(), members); !errors.Is(err, model.ErrInvalidConfig) {
		t.Fatalf("mismatched substeps: error = %v, want ErrInvalidConfig", err)
	}
}
