// Package sweep flies one preset at several static wind speeds in parallel
// and summarizes a steady-state loop of each flight.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/brunoga/deep"
	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/kite-simulator/internal/logging"
	"github.com/signalsfoundry/kite-simulator/internal/observability"
	"github.com/signalsfoundry/kite-simulator/internal/sim/state"
	"github.com/signalsfoundry/kite-simulator/model"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultFrames = 4000
	DefaultDt     = 1.0 / 64
	DefaultLoops  = 4
	DefaultFloorZ = 0.5
)

// DefaultSpeeds are the wind speeds (m/s) swept when none are given.
var DefaultSpeeds = []float64{0, 2, 5, 10, 15, 20}

// Options configures a sweep.
type Options struct {
	Base   model.SimConfig
	Speeds []float64

	// Frames bounds each flight; Dt is the frame step.
	Frames int
	Dt     float64
	// Loops is the number of completed path loops that ends a flight.
	// Statistics are taken over the last of them.
	Loops int
	// FloorZ fails a flight once the vehicle sinks below it (NED, so a
	// larger z is lower).
	FloorZ float64
	// Workers bounds the number of concurrent flights; zero means one per
	// speed.
	Workers int

	Logger    logging.Logger
	Collector *observability.SweepCollector
}

// MinMeanMax summarizes one column over the recorded loop.
type MinMeanMax struct {
	Min  float64 `json:"min"`
	Mean float64 `json:"mean"`
	Max  float64 `json:"max"`
}

// Stats are the loop statistics of a successful flight.
type Stats struct {
	Power             MinMeanMax `json:"power"`
	PathError         MinMeanMax `json:"pathError"`
	GroundTetherForce MinMeanMax `json:"groundTetherForce"`
}

// Result is the outcome of the flight at one wind speed.
type Result struct {
	WindSpeed float64 `json:"windSpeed"`
	Success   bool    `json:"success"`
	Loops     int     `json:"loops"`
	Frames    int     `json:"frames"`
	Stats     *Stats  `json:"stats,omitempty"`
	Error     string  `json:"error,omitempty"`
}

func (o Options) withDefaults() Options {
	if len(o.Speeds) == 0 {
		o.Speeds = DefaultSpeeds
	}
	if o.Frames == 0 {
		o.Frames = DefaultFrames
	}
	if o.Dt == 0 {
		o.Dt = DefaultDt
	}
	if o.Loops == 0 {
		o.Loops = DefaultLoops
	}
	if o.FloorZ == 0 {
		o.FloorZ = DefaultFloorZ
	}
	if o.Logger == nil {
		o.Logger = logging.Noop()
	}
	return o
}

// Run flies every speed and returns the results in the order of
// opts.Speeds. A flight that fails to fly is a Result with Success false,
// not an error; errors are reserved for configuration problems and
// cancellation.
func Run(ctx context.Context, opts Options) ([]Result, error) {
	opts = opts.withDefaults()
	results := make([]Result, len(opts.Speeds))

	g, ctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i, speed := range opts.Speeds {
		g.Go(func() error {
			res, err := fly(ctx, opts, speed)
			if err != nil {
				return fmt.Errorf("wind %.3g m/s: %w", speed, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func fly(ctx context.Context, opts Options, speed float64) (Result, error) {
	cfg := deep.MustCopy(opts.Base)
	cfg.Wind = model.WindOptions{Static: &model.Vec3{X: speed}}

	det := NewLoopDetector(opts.Loops, opts.FloorZ)
	sim, err := state.NewSimulation(cfg, state.WithObserver(det), state.WithLogger(opts.Logger))
	if err != nil {
		return Result{}, err
	}

	log := opts.Logger.With(logging.Float("wind_speed", speed))
	start := time.Now()
	opts.Collector.RunStarted()

	res := Result{WindSpeed: speed}
	t := 0.0
	loops := 0
	for res.Frames < opts.Frames && !det.Done() {
		if err := ctx.Err(); err != nil {
			opts.Collector.RunFinished(time.Since(start), false)
			return Result{}, err
		}
		t += opts.Dt
		sim.Update(opts.Dt, t)
		res.Frames++
		for ; loops < det.Loops(); loops++ {
			opts.Collector.IncLoops()
		}
		if !state.Finite(sim.Airplane().Position()) {
			res.Error = state.ErrDiverged.Error()
			break
		}
	}

	res.Loops = det.Loops()
	res.Success = det.Succeeded()
	if res.Success {
		stats := det.Stats()
		res.Stats = &stats
	}
	opts.Collector.RunFinished(time.Since(start), res.Success)
	log.Info(ctx, "sweep flight finished",
		logging.Int("loops", res.Loops),
		logging.Int("frames", res.Frames),
		logging.Any("success", res.Success),
	)
	return res, nil
}

// Summary keys results by wind speed, the layout of the sweep's JSON
// output.
func Summary(results []Result) map[string]Result {
	out := make(map[string]Result, len(results))
	for _, r := range results {
		out[fmt.Sprintf("%g", r.WindSpeed)] = r
	}
	return out
}

// ErrNoSamples is returned by NewMinMeanMax for an empty series.
var ErrNoSamples = errors.New("no samples")

// NewMinMeanMax summarizes values.
func NewMinMeanMax(values []float64) (MinMeanMax, error) {
	if len(values) == 0 {
		return MinMeanMax{}, ErrNoSamples
	}
	m := MinMeanMax{Min: math.Inf(1), Max: math.Inf(-1)}
	sum := 0.0
	for _, v := range values {
		m.Min = math.Min(m.Min, v)
		m.Max = math.Max(m.Max, v)
		sum += v
	}
	m.Mean = sum / float64(len(values))
	return m, nil
}
