package state

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/internal/flightcontrol"
	"github.com/signalsfoundry/kite-simulator/kb"
	"github.com/signalsfoundry/kite-simulator/model"
)

const frameDt = 1.0 / 64

func newTestSimulation(t *testing.T, mutate func(*model.SimConfig), opts ...Option) *Simulation {
	t.Helper()
	cfg := kb.Trainer()
	if mutate != nil {
		mutate(&cfg)
	}
	sim, err := NewSimulation(cfg, opts...)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	return sim
}

func runFrames(sim *Simulation, n int) {
	tm := sim.Time()
	for i := 0; i < n; i++ {
		tm += frameDt
		sim.Update(frameDt, tm)
	}
}

func TestNewSimulationPlacesAirframeAtTetherEnd(t *testing.T) {
	sim := newTestSimulation(t, nil)

	want := r3.Vec{X: 70}
	if got := sim.Airplane().Position(); got != want {
		t.Fatalf("initial position = %v, want %v", got, want)
	}
	if sim.Mode() != flightcontrol.ModePosition {
		t.Fatalf("initial mode = %v, want position", sim.Mode())
	}
	if m := sim.Airplane().ExternalMass(); m <= 0 {
		t.Fatalf("external mass = %v, want the bridle mass", m)
	}
}

func TestNewSimulationRejectsInvalidConfig(t *testing.T) {
	cfg := kb.Trainer()
	cfg.SubSteps = 4
	if _, err := NewSimulation(cfg); err == nil {
		t.Fatalf("expected an error for too few substeps")
	}

	cfg = kb.Trainer()
	cfg.Airplane.Surfaces = cfg.Airplane.Surfaces[:4] // no elevator or rudder
	if _, err := NewSimulation(cfg); err == nil {
		t.Fatalf("expected an error for a missing elevator")
	}
}

// Static wind (12, 0, 0) on a 10-segment 70 m tether: after 4000 frames
// everything is finite and the airframe has not left the tether sphere by
// more than the elastic stretch.
func TestSimulationLongRunStaysBounded(t *testing.T) {
	if testing.Short() {
		t.Skip("long run")
	}
	sim := newTestSimulation(t, func(c *model.SimConfig) {
		c.Controller.ManualModes = true
	})

	length := sim.Config().Tether.TotalLength
	origin := r3.Vec{}
	tm := 0.0
	for i := 0; i < 4000; i++ {
		tm += frameDt
		sim.Update(frameDt, tm)

		pos := sim.Airplane().Position()
		if !Finite(pos) || !Finite(sim.Airplane().Velocity()) {
			t.Fatalf("frame %d: state not finite: pos=%v vel=%v", i, pos, sim.Airplane().Velocity())
		}
		if r := r3.Norm(r3.Sub(pos, origin)); r > 1.01*length {
			t.Fatalf("frame %d: radius %.3f exceeds %.3f", i, r, 1.01*length)
		}
	}
	for i, p := range sim.Tether().Positions() {
		if !Finite(p) {
			t.Fatalf("tether point %d not finite: %v", i, p)
		}
	}
	if sim.Frame() != 4000 {
		t.Fatalf("Frame() = %d, want 4000", sim.Frame())
	}
}

func TestTransitionForwardRatioReachesOne(t *testing.T) {
	sim := newTestSimulation(t, func(c *model.SimConfig) {
		c.Controller.ManualModes = true
		c.Controller.VTOL.TransitionTime = 2
	})
	sim.Controller().SetMode(flightcontrol.ModeTransitionForward)

	// 128 frames of 1/64 s with 32 substeps is exactly 2 s.
	runFrames(sim, 127)
	if r := sim.Controller().VTOL().Ratio(); r >= 1 {
		t.Fatalf("ratio after 127 frames = %v, want < 1", r)
	}
	runFrames(sim, 1)
	if r := sim.Controller().VTOL().Ratio(); r != 1 {
		t.Fatalf("ratio after 2 s = %v, want exactly 1", r)
	}
	runFrames(sim, 10)
	if r := sim.Controller().VTOL().Ratio(); r != 1 {
		t.Fatalf("ratio after 2 s + 10 frames = %v, want 1", r)
	}
}

func TestUpdateClampsFrameDt(t *testing.T) {
	a := newTestSimulation(t, nil)
	b := newTestSimulation(t, nil)

	// Anything above MaxFrameDt is the same as MaxFrameDt.
	a.Update(5, 5)
	b.Update(a.Config().MaxFrameDt, 5)

	if a.Airplane().State() != b.Airplane().State() {
		t.Fatalf("clamped frame differs:\n%+v\n%+v", a.Airplane().State(), b.Airplane().State())
	}
}

func TestObserverSeesEveryFrame(t *testing.T) {
	rec := NewTelemetryState(0)
	var frames []float64
	sim := newTestSimulation(t, nil, WithObserver(Observers(rec, ObserverFunc(func(s Sample) {
		frames = append(frames, s.Time)
	}))))

	runFrames(sim, 5)

	if len(frames) != 5 {
		t.Fatalf("observer saw %d frames, want 5", len(frames))
	}
	if frames[4] != 5*frameDt {
		t.Fatalf("last frame time = %v, want %v", frames[4], 5*frameDt)
	}
	latest, ok := rec.Latest()
	if !ok {
		t.Fatalf("TelemetryState has no sample")
	}
	if got, want := len(latest.SpringForces), sim.Tether().Segments()+2; got != want {
		t.Fatalf("len(SpringForces) = %d, want %d", got, want)
	}
	if latest.GroundTension != latest.SpringForces[0] {
		t.Fatalf("GroundTension = %v, want spring_0 %v", latest.GroundTension, latest.SpringForces[0])
	}
	if latest.Mode != flightcontrol.ModePosition {
		t.Fatalf("sample mode = %v, want position", latest.Mode)
	}
}

func TestCostAccumulatesOnlyWhilePathFollowing(t *testing.T) {
	sim := newTestSimulation(t, func(c *model.SimConfig) {
		c.Controller.ManualModes = true
	})
	runFrames(sim, 3)
	if sim.Cost().N != 0 {
		t.Fatalf("cost samples in position mode = %d, want 0", sim.Cost().N)
	}

	sim.Controller().SetMode(flightcontrol.ModePathFollow)
	runFrames(sim, 3)
	if sim.Cost().N != 3 {
		t.Fatalf("cost samples in path mode = %d, want 3", sim.Cost().N)
	}
	if sim.Cost().Mean() <= 0 {
		t.Fatalf("mean cost = %v, want > 0", sim.Cost().Mean())
	}
}

func TestTransitionBackwardReturnsToPosition(t *testing.T) {
	sim := newTestSimulation(t, func(c *model.SimConfig) {
		c.Controller.ManualModes = true
	})
	sim.Controller().SetMode(flightcontrol.ModePathFollow)
	runFrames(sim, 1)

	sim.Controller().RequestTransitionBackward()
	runFrames(sim, 1)
	if sim.Mode() != flightcontrol.ModePosition {
		t.Fatalf("mode after backward transition = %v, want position", sim.Mode())
	}
	if sim.Controller().Path().Active() {
		t.Fatalf("path follower still active after leaving forward flight")
	}
}

func TestEnergyIsFinite(t *testing.T) {
	sim := newTestSimulation(t, nil)
	runFrames(sim, 10)
	if e := sim.Energy(); math.IsNaN(e) || math.IsInf(e, 0) {
		t.Fatalf("Energy() = %v", e)
	}
}

func TestApplyPanicsOnSurfaceMismatch(t *testing.T) {
	sim := newTestSimulation(t, nil)
	for name, cmd := range map[string]flightcontrol.Command{
		"unknown surface": {Deflections: []flightcontrol.Deflection{{Surface: "canard", Angle: 0.1}}},
		"fixed surface":   {Deflections: []flightcontrol.Deflection{{Surface: "left", Angle: 0.1}}},
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatalf("apply(%+v) did not panic", cmd)
				}
			}()
			sim.apply(cmd)
		})
	}
}

func TestFiniteRejectsSingleInfinity(t *testing.T) {
	if !Finite(r3.Vec{X: 1, Y: -2, Z: 3}) {
		t.Fatalf("Finite() = false for a finite vector")
	}
	for _, v := range []r3.Vec{
		{X: math.Inf(1)},
		{Y: math.Inf(-1)},
		{Z: math.NaN()},
		{X: math.Inf(1), Y: math.Inf(-1)},
	} {
		if Finite(v) {
			t.Fatalf("Finite(%v) = true", v)
		}
	}
}
