package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/signalsfoundry/kite-simulator/core"
	"github.com/signalsfoundry/kite-simulator/internal/logging"
	"github.com/signalsfoundry/kite-simulator/internal/observability"
	sim "github.com/signalsfoundry/kite-simulator/internal/sim/state"
	"github.com/signalsfoundry/kite-simulator/kb"
	"github.com/signalsfoundry/kite-simulator/model"
	"github.com/signalsfoundry/kite-simulator/timectrl"
)

type options struct {
	configPath   string
	preset       string
	frames       int
	dt           float64
	telemetry    string
	tee          bool
	loadSnapshot string
	saveSnapshot string
	plotPath     string
	metricsAddr  string
	realtime     bool

	stdin  io.Reader
	stdout io.Writer
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "simulation config JSON file, or - for stdin (overrides -preset)")
	flag.StringVar(&opts.preset, "preset", kb.PresetKX40, "built-in preset to fly when no -config is given")
	flag.IntVar(&opts.frames, "frames", 4000, "number of frames to run")
	flag.Float64Var(&opts.dt, "dt", 1.0/64, "frame step in seconds")
	flag.StringVar(&opts.telemetry, "telemetry", "", "write per-frame TSV telemetry to this file")
	flag.BoolVar(&opts.tee, "stdout", false, "also write TSV telemetry to stdout")
	flag.StringVar(&opts.loadSnapshot, "load-snapshot", "", "resume from a snapshot written by -save-snapshot")
	flag.StringVar(&opts.saveSnapshot, "save-snapshot", "", "write the final state to this snapshot file")
	flag.StringVar(&opts.plotPath, "plot", "", "write a trajectory and tether tension PNG to this file")
	flag.StringVar(&opts.metricsAddr, "metrics-addr", "", "HTTP address for Prometheus /metrics (disabled when empty)")
	flag.BoolVar(&opts.realtime, "realtime", false, "pace frames by the wall clock")
	flag.Parse()
	opts.stdin, opts.stdout = os.Stdin, os.Stdout

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	if err := run(ctx, opts, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error(ctx, "simulation failed", logging.Err(err))
		observability.ShutdownWithTimeout(context.Background(), shutdown, log)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, log logging.Logger) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	var observers []sim.Observer

	var tsv *sim.TSVWriter
	if opts.telemetry != "" || opts.tee {
		var sinks []io.Writer
		if opts.telemetry != "" {
			f, err := os.Create(opts.telemetry)
			if err != nil {
				return fmt.Errorf("create telemetry file: %w", err)
			}
			defer f.Close()
			sinks = append(sinks, f)
		}
		if opts.tee {
			sinks = append(sinks, opts.stdout)
		}
		tsv = sim.NewTSVWriter(io.MultiWriter(sinks...))
		observers = append(observers, tsv)
	}

	var history *sim.TelemetryState
	if opts.plotPath != "" {
		history = sim.NewTelemetryState(opts.frames)
		observers = append(observers, history)
	}

	if opts.metricsAddr != "" {
		collector, err := observability.NewSimCollector(nil)
		if err != nil {
			return fmt.Errorf("initialise metrics collector: %w", err)
		}
		observers = append(observers, collector)
		srv := serveMetrics(opts.metricsAddr, collector, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	s, err := sim.NewSimulation(cfg, sim.WithLogger(log), sim.WithObserver(sim.Observers(observers...)))
	if err != nil {
		return err
	}
	if opts.loadSnapshot != "" {
		if err := restore(s, opts.loadSnapshot); err != nil {
			return err
		}
		log.Info(ctx, "resumed from snapshot",
			logging.String("path", opts.loadSnapshot),
			logging.Float("time", s.Time()),
		)
	}

	if opts.realtime {
		err = runRealTime(ctx, s, opts)
	} else {
		err = sim.Run(ctx, s, opts.frames, opts.dt)
	}
	if tsv != nil {
		if ferr := tsv.Flush(); ferr != nil && err == nil {
			err = ferr
		}
	}
	if err != nil {
		return err
	}

	if opts.saveSnapshot != "" {
		if err := save(s, opts.saveSnapshot); err != nil {
			return err
		}
	}
	if history != nil {
		if err := writePlot(opts.plotPath, history.History()); err != nil {
			return err
		}
	}
	return nil
}

func loadConfig(opts options) (model.SimConfig, error) {
	switch opts.configPath {
	case "":
		return kb.Default().Preset(opts.preset)
	case "-":
		return core.LoadSimConfig(opts.stdin)
	}
	f, err := os.Open(opts.configPath)
	if err != nil {
		return model.SimConfig{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return core.LoadSimConfig(f)
}

// runRealTime paces frames by the wall clock. Frames longer than dt are
// clamped to dt.
func runRealTime(ctx context.Context, s *sim.Simulation, opts options) error {
	tick := time.Duration(opts.dt * float64(time.Second))
	tc := timectrl.NewTimeController(s.Time(), tick, timectrl.RealTime)
	return tc.Run(ctx, opts.frames, func(dt, t float64) error {
		s.Update(dt, t)
		return nil
	})
}

func restore(s *sim.Simulation, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	snap, err := sim.ReadSnapshot(f)
	if err != nil {
		return err
	}
	return s.Restore(snap)
}

func save(s *sim.Simulation, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := sim.WriteSnapshot(f, s.Snapshot()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func serveMetrics(addr string, collector *observability.SimCollector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
