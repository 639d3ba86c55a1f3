package flightcontrol

import (
	"math"
	"testing"

	"github.com/signalsfoundry/kite-simulator/model"
)

func TestPIDProportional(t *testing.T) {
	p := NewPID(2, 0, 0, 10)
	if got := p.Update(3, 0.1); got != 6 {
		t.Fatalf("Update(3) = %v, want 6", got)
	}
	if got := p.Update(-1, 0.1); got != -2 {
		t.Fatalf("Update(-1) = %v, want -2", got)
	}
}

func TestPIDIntegratorClamp(t *testing.T) {
	p := NewPID(0, 1, 0, 0.5)
	if got := p.Update(10, 1); got != 0.5 {
		t.Fatalf("Update(10, 1) = %v, want the clamped 0.5", got)
	}
	if p.Integrator() != 0.5 {
		t.Fatalf("Integrator() = %v, want 0.5", p.Integrator())
	}
	p.Update(-10, 1)
	if p.Integrator() != -0.5 {
		t.Fatalf("Integrator() = %v, want -0.5", p.Integrator())
	}
}

func TestPIDDerivative(t *testing.T) {
	p := NewPID(0, 0, 1, 0)
	if got := p.Update(1, 0.5); got != 2 {
		t.Fatalf("Update(1, 0.5) = %v, want 2", got)
	}
	// A zero step has no derivative.
	if got := p.Update(3, 0); got != 0 {
		t.Fatalf("Update(3, 0) = %v, want 0", got)
	}
	if got := p.Update(4, 0.5); got != 2 {
		t.Fatalf("Update(4, 0.5) = %v, want 2", got)
	}
}

func TestPIDFeedForward(t *testing.T) {
	p := NewPID(1, 0, 0, 0)
	p.FF = 0.25
	if got := p.Update(0, 0.1); got != 0.25 {
		t.Fatalf("Update(0) = %v, want the feed-forward 0.25", got)
	}
}

func TestPIDResetAndState(t *testing.T) {
	p := NewPID(1, 1, 1, 100)
	p.Update(2, 0.1)
	p.Update(3, 0.1)
	st := p.State()

	q := NewPID(1, 1, 1, 100)
	q.SetState(st)
	if a, b := p.Update(1, 0.1), q.Update(1, 0.1); a != b {
		t.Fatalf("restored loop output = %v, want %v", b, a)
	}

	p.Reset()
	if p.State() != (PIDState{}) {
		t.Fatalf("State() after Reset = %+v, want zero", p.State())
	}
}

func TestNewPIDWithOverride(t *testing.T) {
	defaults := model.PIDGains{P: 1, I: 2, D: 3, IAbsMax: 4}
	if p := newPIDWith(defaults, nil); p.P != 1 || p.IAbsMax != 4 {
		t.Fatalf("newPIDWith(nil) = %+v, want the defaults", p)
	}
	p := newPIDWith(defaults, &model.PIDGains{P: 9})
	if p.P != 9 || p.I != 0 || p.D != 0 || p.IAbsMax != 0 {
		t.Fatalf("newPIDWith(override) = %+v, want only the override", p)
	}
	if math.IsNaN(p.Update(1, 0.1)) {
		t.Fatalf("Update produced NaN")
	}
}
