package sweep

import (
	"math"

	"github.com/signalsfoundry/kite-simulator/internal/sim/state"
)

// loopJump is the drop of the loop progress angle between two frames that
// counts as crossing the start of the circle.
const loopJump = -1.8 * math.Pi

// LoopDetector counts path loops from per-frame samples and records the
// samples of the last loop. It is a state.Observer.
type LoopDetector struct {
	target int
	floorZ float64

	prev    float64
	started bool
	loops   int
	failed  bool
	done    bool

	power, pathError, groundForce []float64
}

// NewLoopDetector finishes after target loops, or fails as soon as a
// sample lies below floorZ.
func NewLoopDetector(target int, floorZ float64) *LoopDetector {
	return &LoopDetector{target: target, floorZ: floorZ}
}

// ObserveFrame implements state.Observer. Samples after Done are ignored.
func (d *LoopDetector) ObserveFrame(s state.Sample) {
	if d.done {
		return
	}
	if d.started && s.LoopAngle-d.prev < loopJump {
		d.loops++
	}
	d.prev, d.started = s.LoopAngle, true

	if s.Position.Z > d.floorZ {
		d.failed, d.done = true, true
		return
	}
	if d.loops == d.target-1 {
		d.power = append(d.power, s.Power)
		d.pathError = append(d.pathError, s.PathError)
		d.groundForce = append(d.groundForce, s.GroundTension)
	}
	if d.loops >= d.target {
		d.done = true
	}
}

// Loops returns the number of completed loops.
func (d *LoopDetector) Loops() int { return d.loops }

// Done reports whether the flight has reached a verdict.
func (d *LoopDetector) Done() bool { return d.done }

// Succeeded reports whether the target loop count was reached without
// touching the floor.
func (d *LoopDetector) Succeeded() bool { return d.done && !d.failed }

// Stats summarizes the recorded loop. It is only meaningful after success.
func (d *LoopDetector) Stats() Stats {
	var s Stats
	s.Power, _ = NewMinMeanMax(d.power)
	s.PathError, _ = NewMinMeanMax(d.pathError)
	s.GroundTetherForce, _ = NewMinMeanMax(d.groundForce)
	return s
}
