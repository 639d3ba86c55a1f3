// Package state runs the coupled airframe, tether and controller and
// exposes per-frame telemetry.
package state

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/internal/flightcontrol"
)

// Sample is the per-frame diagnostic record.
type Sample struct {
	Time     float64
	Mode     flightcontrol.Mode
	Position r3.Vec
	Speed    float64
	// Power is the rotor power; negative while generating.
	Power  float64
	Thrust float64

	// AngleOfAttack (radians) and ApparentWind (m/s) of the reference
	// wing surface.
	AngleOfAttack float64
	ApparentWind  float64

	PathError float64
	LoopAngle float64
	VTOLRatio float64

	// SpringForces holds |spring force| per tether segment, main line
	// first.
	SpringForces  []float64
	GroundTension float64
}

// Observer receives one Sample per frame, on the simulation goroutine.
type Observer interface {
	ObserveFrame(Sample)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Sample)

func (f ObserverFunc) ObserveFrame(s Sample) { f(s) }

// Observers fans a frame out to several observers in order.
func Observers(obs ...Observer) Observer {
	return ObserverFunc(func(s Sample) {
		for _, o := range obs {
			if o != nil {
				o.ObserveFrame(s)
			}
		}
	})
}

// TelemetryState is a concurrency-safe store of recent samples. It lets a
// reader (an HTTP handler, a plot) look at a simulation running on another
// goroutine.
type TelemetryState struct {
	mu      sync.RWMutex
	latest  Sample
	seen    bool
	history []Sample
	limit   int
}

// NewTelemetryState keeps at most limit samples of history; zero keeps
// only the latest sample.
func NewTelemetryState(limit int) *TelemetryState {
	return &TelemetryState{limit: limit}
}

// ObserveFrame implements Observer.
func (t *TelemetryState) ObserveFrame(s Sample) {
	s.SpringForces = append([]float64(nil), s.SpringForces...)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest, t.seen = s, true
	if t.limit == 0 {
		return
	}
	if len(t.history) == t.limit {
		copy(t.history, t.history[1:])
		t.history = t.history[:len(t.history)-1]
	}
	t.history = append(t.history, s)
}

// Latest returns the most recent sample, if any.
func (t *TelemetryState) Latest() (Sample, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.latest, t.seen
}

// History returns a copy of the retained samples, oldest first.
func (t *TelemetryState) History() []Sample {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Sample(nil), t.history...)
}

// Reset drops every retained sample.
func (t *TelemetryState) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest, t.seen, t.history = Sample{}, false, nil
}

// TSVWriter writes one tab-separated row per frame, preceded by a header
// row naming the columns.
type TSVWriter struct {
	w       *bufio.Writer
	springs int
	started bool
	err     error
}

// NewTSVWriter wraps w. Call Flush when done.
func NewTSVWriter(w io.Writer) *TSVWriter {
	return &TSVWriter{w: bufio.NewWriter(w)}
}

// Columns returns the header for a tether with the given number of
// spring segments.
func Columns(springs int) []string {
	cols := []string{
		"time",
		"plane.p.x", "plane.p.y", "plane.p.z",
		"plane.power", "plane.velocity", "plane.thrust",
		"wing.alfa", "wing.apparentVelocity",
	}
	for i := 0; i < springs; i++ {
		cols = append(cols, "spring_"+strconv.Itoa(i))
	}
	return append(cols, "pf.pathError", "pf.loopProgressAngle", "fc.mode")
}

// ObserveFrame implements Observer. The first write error is kept and
// later rows are dropped.
func (t *TSVWriter) ObserveFrame(s Sample) {
	if t.err != nil {
		return
	}
	if !t.started {
		t.springs = len(s.SpringForces)
		t.writeRow(Columns(t.springs))
		t.started = true
	}

	row := make([]string, 0, 12+t.springs)
	row = append(row, strconv.FormatFloat(s.Time, 'f', -1, 64))
	for _, v := range []float64{
		s.Position.X, s.Position.Y, s.Position.Z,
		s.Power, s.Speed, s.Thrust,
		s.AngleOfAttack * 180 / math.Pi, s.ApparentWind,
	} {
		row = append(row, exp4(v))
	}
	for i := 0; i < t.springs; i++ {
		v := 0.0
		if i < len(s.SpringForces) {
			v = s.SpringForces[i]
		}
		row = append(row, exp4(v))
	}
	row = append(row, exp4(s.PathError), exp4(s.LoopAngle), strconv.Itoa(int(s.Mode)))
	t.writeRow(row)
}

func (t *TSVWriter) writeRow(cols []string) {
	for i, c := range cols {
		if i > 0 {
			if err := t.w.WriteByte('\t'); err != nil {
				t.err = err
				return
			}
		}
		if _, err := t.w.WriteString(c); err != nil {
			t.err = err
			return
		}
	}
	if err := t.w.WriteByte('\n'); err != nil {
		t.err = err
	}
}

// Flush writes buffered rows and returns the first error seen.
func (t *TSVWriter) Flush() error {
	if t.err != nil {
		return t.err
	}
	if err := t.w.Flush(); err != nil {
		return fmt.Errorf("flush telemetry: %w", err)
	}
	return nil
}

func exp4(v float64) string { return strconv.FormatFloat(v, 'e', 4, 64) }

// Cost accumulates a mean of per-frame costs.
type Cost struct {
	N     int
	Total float64
}

// Add records one cost value.
func (c *Cost) Add(v float64) {
	c.Total += v
	c.N++
}

// Mean returns the mean cost, or zero when nothing was recorded.
func (c *Cost) Mean() float64 {
	if c.N == 0 {
		return 0
	}
	return c.Total / float64(c.N)
}

// Reset clears the accumulator.
func (c *Cost) Reset() { *c = Cost{} }
