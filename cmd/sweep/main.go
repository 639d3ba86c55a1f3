package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/kite-simulator/core"
	"github.com/signalsfoundry/kite-simulator/internal/logging"
	"github.com/signalsfoundry/kite-simulator/internal/observability"
	"github.com/signalsfoundry/kite-simulator/internal/sweep"
	"github.com/signalsfoundry/kite-simulator/kb"
	"github.com/signalsfoundry/kite-simulator/model"
)

type options struct {
	configPath  string
	preset      string
	speeds      string
	frames      int
	dt          float64
	loops       int
	workers     int
	outPath     string
	metricsAddr string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "simulation config JSON file (overrides -preset)")
	flag.StringVar(&opts.preset, "preset", kb.PresetKX40, "built-in preset to sweep when no -config is given")
	flag.StringVar(&opts.speeds, "speeds", "", "comma-separated wind speeds in m/s (default 0,2,5,10,15,20)")
	flag.IntVar(&opts.frames, "frames", sweep.DefaultFrames, "frame limit per flight")
	flag.Float64Var(&opts.dt, "dt", sweep.DefaultDt, "frame step in seconds")
	flag.IntVar(&opts.loops, "loops", sweep.DefaultLoops, "completed loops that end a flight")
	flag.IntVar(&opts.workers, "workers", 0, "concurrent flights (0 = one per speed)")
	flag.StringVar(&opts.outPath, "out", "", "write the JSON summary to this file instead of stdout")
	flag.StringVar(&opts.metricsAddr, "metrics-addr", "", "HTTP address for Prometheus /metrics (disabled when empty)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := io.Writer(os.Stdout)
	if opts.outPath != "" {
		f, err := os.Create(opts.outPath)
		if err != nil {
			log.Error(ctx, "failed to create output file", logging.String("path", opts.outPath), logging.Err(err))
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if err := run(ctx, opts, out, log); err != nil {
		log.Error(ctx, "sweep failed", logging.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer, log logging.Logger) error {
	base, err := loadConfig(opts)
	if err != nil {
		return err
	}
	speeds, err := parseSpeeds(opts.speeds)
	if err != nil {
		return err
	}

	var collector *observability.SweepCollector
	if opts.metricsAddr != "" {
		collector, err = observability.NewSweepCollector(nil)
		if err != nil {
			return fmt.Errorf("initialise metrics collector: %w", err)
		}
		srv := serveMetrics(opts.metricsAddr, collector, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	ctx, log = logging.WithRunLogger(ctx, log)
	log.Info(ctx, "starting wind sweep", logging.Any("speeds", speeds), logging.Int("frames", opts.frames))

	results, err := sweep.Run(ctx, sweep.Options{
		Base:      base,
		Speeds:    speeds,
		Frames:    opts.frames,
		Dt:        opts.dt,
		Loops:     opts.loops,
		Workers:   opts.workers,
		Logger:    log,
		Collector: collector,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sweep.Summary(results)); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

func loadConfig(opts options) (model.SimConfig, error) {
	if opts.configPath == "" {
		return kb.Default().Preset(opts.preset)
	}
	f, err := os.Open(opts.configPath)
	if err != nil {
		return model.SimConfig{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return core.LoadSimConfig(f)
}

// parseSpeeds reads a comma-separated list. An empty list selects the
// sweep defaults.
func parseSpeeds(raw string) ([]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []float64
	for _, field := range strings.Split(raw, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid wind speed %q: %w", field, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func serveMetrics(addr string, collector *observability.SweepCollector, log logging.Logger) *http.Server {
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
