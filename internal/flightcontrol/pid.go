package flightcontrol

import (
	"math"

	"github.com/signalsfoundry/kite-simulator/model"
)

// PID is a discrete PID loop with a clamped integrator and a feed-forward
// term.
type PID struct {
	P, I, D float64
	FF      float64
	IAbsMax float64

	integrator float64
	lastError  float64
}

// PIDState is the internal memory of a PID loop.
type PIDState struct {
	Integrator float64
	LastError  float64
}

// NewPID constructs a loop with zero feed-forward.
func NewPID(p, i, d, iAbsMax float64) *PID {
	return &PID{P: p, I: i, D: d, IAbsMax: iAbsMax}
}

// newPIDWith uses override when present and the defaults otherwise.
func newPIDWith(defaults model.PIDGains, override *model.PIDGains) *PID {
	g := defaults
	if override != nil {
		g = *override
	}
	return NewPID(g.P, g.I, g.D, g.IAbsMax)
}

// Update integrates err over dt and returns the loop output. The
// integrator is clamped before it contributes.
func (p *PID) Update(err, dt float64) float64 {
	p.integrator += err * dt
	p.integrator = math.Max(-p.IAbsMax, math.Min(p.IAbsMax, p.integrator))

	out := p.P*err + p.I*p.integrator + p.FF
	if dt > 0 {
		out += p.D * (err - p.lastError) / dt
	}
	p.lastError = err
	return out
}

// Reset clears the integrator and derivative memory.
func (p *PID) Reset() {
	p.integrator = 0
	p.lastError = 0
}

// Integrator returns the current integrator value.
func (p *PID) Integrator() float64 { return p.integrator }

// State returns the loop memory.
func (p *PID) State() PIDState { return PIDState{Integrator: p.integrator, LastError: p.lastError} }

// SetState restores the loop memory.
func (p *PID) SetState(s PIDState) {
	p.integrator = s.Integrator
	p.lastError = s.LastError
}
