package sweep

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/internal/sim/state"
	"github.com/signalsfoundry/kite-simulator/kb"
	"github.com/signalsfoundry/kite-simulator/model"
)

// lapSamples produces n frames per lap with the loop angle rising from 0
// towards 2*pi, so every lap boundary is a drop of almost 2*pi.
func lapSamples(laps, n int, power func(lap int) float64) []state.Sample {
	var out []state.Sample
	for lap := 0; lap < laps; lap++ {
		for i := 0; i < n; i++ {
			out = append(out, state.Sample{
				LoopAngle:     2 * math.Pi * float64(i) / float64(n),
				Position:      r3.Vec{X: 50, Z: -30},
				Power:         power(lap),
				PathError:     float64(i),
				GroundTension: 100 * float64(lap),
			})
		}
	}
	return out
}

func TestLoopDetectorCountsLaps(t *testing.T) {
	d := NewLoopDetector(4, 0.5)
	for _, s := range lapSamples(6, 20, func(lap int) float64 { return float64(lap) }) {
		d.ObserveFrame(s)
	}

	if !d.Done() || !d.Succeeded() {
		t.Fatalf("Done = %v, Succeeded = %v, want both true", d.Done(), d.Succeeded())
	}
	if d.Loops() != 4 {
		t.Fatalf("Loops() = %d, want 4", d.Loops())
	}

	// The fourth lap (index 3) is the one summarized.
	stats := d.Stats()
	if stats.Power != (MinMeanMax{Min: 3, Mean: 3, Max: 3}) {
		t.Fatalf("power stats = %+v, want all 3", stats.Power)
	}
	if stats.GroundTetherForce.Mean != 300 {
		t.Fatalf("ground force mean = %v, want 300", stats.GroundTetherForce.Mean)
	}
	if stats.PathError.Min != 0 || stats.PathError.Max != 19 || stats.PathError.Mean != 9.5 {
		t.Fatalf("path error stats = %+v", stats.PathError)
	}
}

func TestLoopDetectorIgnoresSmallDrops(t *testing.T) {
	d := NewLoopDetector(1, 0.5)
	// A wobble near the start of the circle is not a lap.
	for _, a := range []float64{0.3, 0.1, 0.4, 0.2, 1.5} {
		d.ObserveFrame(state.Sample{LoopAngle: a, Position: r3.Vec{Z: -10}})
	}
	if d.Loops() != 0 || d.Done() {
		t.Fatalf("Loops() = %d, Done = %v, want 0 and false", d.Loops(), d.Done())
	}
}

func TestLoopDetectorFailsBelowFloor(t *testing.T) {
	d := NewLoopDetector(4, 0.5)
	d.ObserveFrame(state.Sample{Position: r3.Vec{Z: -5}})
	d.ObserveFrame(state.Sample{Position: r3.Vec{Z: 0.6}})

	if !d.Done() || d.Succeeded() {
		t.Fatalf("Done = %v, Succeeded = %v, want done and failed", d.Done(), d.Succeeded())
	}
}

func TestNewMinMeanMax(t *testing.T) {
	got, err := NewMinMeanMax([]float64{2, -1, 5})
	if err != nil {
		t.Fatalf("NewMinMeanMax: %v", err)
	}
	if got != (MinMeanMax{Min: -1, Mean: 2, Max: 5}) {
		t.Fatalf("NewMinMeanMax = %+v", got)
	}
	if _, err := NewMinMeanMax(nil); !errors.Is(err, ErrNoSamples) {
		t.Fatalf("NewMinMeanMax(nil) error = %v, want ErrNoSamples", err)
	}
}

func TestRunKeepsSpeedOrderAndBaseConfig(t *testing.T) {
	base := kb.Trainer()
	speeds := []float64{0, 12}

	results, err := Run(context.Background(), Options{Base: base, Speeds: speeds, Frames: 8})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != len(speeds) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(speeds))
	}
	for i, r := range results {
		if r.WindSpeed != speeds[i] {
			t.Fatalf("results[%d].WindSpeed = %v, want %v", i, r.WindSpeed, speeds[i])
		}
		if r.Frames != 8 {
			t.Fatalf("results[%d].Frames = %d, want 8", i, r.Frames)
		}
		if r.Success {
			t.Fatalf("results[%d] succeeded after 8 frames", i)
		}
	}
	if base.Wind.Static == nil || base.Wind.Static.X != 12 {
		t.Fatalf("base config wind was modified: %+v", base.Wind)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	base := kb.Trainer()
	base.Tether.Segments = 0

	if _, err := Run(context.Background(), Options{Base: base, Speeds: []float64{5}, Frames: 1}); !errors.Is(err, model.ErrInvalidConfig) {
		t.Fatalf("Run error = %v, want ErrInvalidConfig", err)
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Run(ctx, Options{Base: kb.Trainer(), Speeds: []float64{5}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
}

func TestSummaryJSON(t *testing.T) {
	results := []Result{
		{WindSpeed: 2.5, Success: true, Loops: 4, Stats: &Stats{Power: MinMeanMax{Min: -1, Mean: 0, Max: 1}}},
		{WindSpeed: 10},
	}
	raw, err := json.Marshal(Summary(results))
	if err != nil {
		t.Fatalf("marshal summary: %v", err)
	}
	var decoded map[string]map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}
	if _, ok := decoded["2.5"]["stats"]; !ok {
		t.Fatalf("summary for 2.5 lacks stats: %s", raw)
	}
	if _, ok := decoded["10"]["stats"]; ok {
		t.Fatalf("failed flight should omit stats: %s", raw)
	}
}
