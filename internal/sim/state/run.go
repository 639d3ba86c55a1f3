package state

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/internal/logging"
)

// ErrDiverged is returned by Run when the airframe state stops being
// finite.
var ErrDiverged = errors.New("simulation diverged")

const tracerName = "github.com/signalsfoundry/kite-simulator/internal/sim/state"

// Run advances sim by frames fixed frames of length dt, starting from its
// current time. It stops early when ctx is done or the state diverges.
// The whole run is one span; mode changes are recorded as span events.
func Run(ctx context.Context, sim *Simulation, frames int, dt float64) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "simulation.run",
		trace.WithAttributes(
			attribute.Int("kitesim.frames", frames),
			attribute.Float64("kitesim.dt", dt),
			attribute.Int("kitesim.substeps", sim.cfg.SubSteps),
		),
	)
	defer span.End()

	ctx, log := logging.WithRunLogger(ctx, sim.log)
	prev := sim.log
	sim.log = log
	defer func() { sim.log = prev }()

	log.Info(ctx, "simulation started",
		logging.Int("frames", frames),
		logging.Float("dt", dt),
		logging.String("mode", sim.Mode().String()),
	)

	t := sim.time
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return err
		}
		t += dt
		sim.advance(dt, t)
		sim.afterFrame(ctx)

		if !Finite(sim.airplane.Position()) {
			err := fmt.Errorf("%w at t=%.3f", ErrDiverged, sim.time)
			span.RecordError(err)
			span.SetStatus(codes.Error, "diverged")
			log.Error(ctx, "simulation diverged", logging.Err(err))
			return err
		}
	}

	span.SetAttributes(
		attribute.String("kitesim.final_mode", sim.Mode().String()),
		attribute.Float64("kitesim.mean_cost", sim.cost.Mean()),
	)
	log.Info(ctx, "simulation finished",
		logging.Float("time", sim.time),
		logging.String("mode", sim.Mode().String()),
		logging.Float("mean_cost", sim.cost.Mean()),
	)
	return nil
}

// Finite reports whether every component of v is neither NaN nor infinite.
func Finite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
