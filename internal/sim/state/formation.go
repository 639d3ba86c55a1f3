package state

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/core"
	"github.com/signalsfoundry/kite-simulator/model"
)

// Formation flies several vehicles whose tethers meet at the junction of
// one shared anchor-side segment.
type Formation struct {
	members []*Simulation
	tethers []*core.Tether
	shared  *core.SharedSegment

	subSteps   int
	maxFrameDt float64
	time       float64
}

// NewFormation builds one Simulation per member config. Each member's
// tether origin is replaced by the junction of the shared segment. All
// members must agree on SubSteps and MaxFrameDt once defaults apply.
func NewFormation(shared model.SharedSegmentOptions, members []model.SimConfig, opts ...Option) (*Formation, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("NewFormation: %w: no members", model.ErrInvalidConfig)
	}
	if err := shared.Validate(); err != nil {
		return nil, fmt.Errorf("NewFormation: %w", err)
	}

	first := members[0].WithDefaults()
	segment := core.NewSharedSegment(shared, first.Environment)
	junction, _ := segment.Junction()

	f := &Formation{
		shared:     segment,
		subSteps:   first.SubSteps,
		maxFrameDt: first.MaxFrameDt,
	}
	for i, cfg := range members {
		cfg = cfg.WithDefaults()
		if cfg.SubSteps != f.subSteps || cfg.MaxFrameDt != f.maxFrameDt {
			return nil, fmt.Errorf("NewFormation: %w: member %d step settings differ from member 0", model.ErrInvalidConfig, i)
		}
		cfg.Tether.Origin = core.ModelVec(junction)
		sim, err := NewSimulation(cfg, opts...)
		if err != nil {
			return nil, fmt.Errorf("NewFormation: member %d: %w", i, err)
		}
		f.members = append(f.members, sim)
		f.tethers = append(f.tethers, sim.tether)
	}
	segment.Attach(f.tethers...)
	return f, nil
}

// Members returns the member simulations in construction order.
func (f *Formation) Members() []*Simulation { return f.members }

// Shared returns the shared segment.
func (f *Formation) Shared() *core.SharedSegment { return f.shared }

// Time returns the simulation time of the last frame.
func (f *Formation) Time() float64 { return f.time }

// Update advances every member one frame. Within each substep all members
// step before the shared segment, which sees their fresh root reactions.
// The shared segment uses the first member's wind.
func (f *Formation) Update(dt, time float64) {
	dt = math.Min(dt, f.maxFrameDt)
	sub := dt / float64(f.subSteps)

	winds := make([]r3.Vec, len(f.members))
	for i, m := range f.members {
		winds[i] = m.wind.At(time)
	}

	for k := 0; k < f.subSteps; k++ {
		for i, m := range f.members {
			m.tether.SyncBoundary(m.airplane.AttachmentPointStates())
			m.tether.Update(sub, winds[i])
			m.substepVehicle(sub, winds[i])
		}
		f.shared.Update(sub, winds[0], f.tethers)
	}

	f.time = time
	for _, m := range f.members {
		m.time = time
		m.frame++
		m.afterFrame(context.Background())
	}
}

// GroundTension is the magnitude of the shared segment spring force.
func (f *Formation) GroundTension() float64 { return r3.Norm(f.shared.GroundForce()) }
