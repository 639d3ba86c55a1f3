package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/model"
)

// Wind yields the free-stream wind (NED, m/s) at a simulation time.
type Wind interface {
	At(t float64) r3.Vec
}

// StaticWind is a constant wind.
type StaticWind struct {
	V r3.Vec
}

func (w StaticWind) At(float64) r3.Vec { return w.V }

// TimeseriesWind replays samples taken every Dt seconds, wrapping around at
// the end of the series.
type TimeseriesWind struct {
	Dt      float64
	Samples []r3.Vec
}

func (w TimeseriesWind) At(t float64) r3.Vec {
	n := len(w.Samples)
	i := int(math.Floor(t/w.Dt)) % n
	if i < 0 {
		i += n
	}
	return w.Samples[i]
}

// NewWind builds the wind model described by opts.
func NewWind(opts model.WindOptions) (Wind, error) {
	if s := opts.Series; s != nil {
		if s.Dt <= 0 || len(s.Wind) == 0 {
			return nil, fmt.Errorf("wind time series needs dt > 0 and samples")
		}
		samples := make([]r3.Vec, len(s.Wind))
		for i, v := range s.Wind {
			samples[i] = Vec(v)
		}
		return TimeseriesWind{Dt: s.Dt, Samples: samples}, nil
	}
	if opts.Static != nil {
		return StaticWind{V: Vec(*opts.Static)}, nil
	}
	return StaticWind{}, nil
}
