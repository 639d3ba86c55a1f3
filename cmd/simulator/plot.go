package main

import (
	"fmt"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	sim "github.com/signalsfoundry/kite-simulator/internal/sim/state"
)

// writePlot renders two stacked panels: the trajectory seen from the
// anchor looking downwind (east against height) and the ground tether
// tension over time.
func writePlot(path string, samples []sim.Sample) error {
	if len(samples) == 0 {
		return fmt.Errorf("plot: no samples")
	}

	track := make(plotter.XYs, len(samples))
	tension := make(plotter.XYs, len(samples))
	for i, s := range samples {
		track[i] = plotter.XY{X: s.Position.Y, Y: -s.Position.Z}
		tension[i] = plotter.XY{X: s.Time, Y: s.GroundTension}
	}

	top := plot.New()
	top.Title.Text = "Trajectory"
	top.X.Label.Text = "east (m)"
	top.Y.Label.Text = "height (m)"
	line, err := plotter.NewLine(track)
	if err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	top.Add(line, plotter.NewGrid())

	bottom := plot.New()
	bottom.Title.Text = "Ground tether tension"
	bottom.X.Label.Text = "time (s)"
	bottom.Y.Label.Text = "tension (N)"
	line, err = plotter.NewLine(tension)
	if err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	bottom.Add(line, plotter.NewGrid())

	img := vgimg.New(16*vg.Centimeter, 20*vg.Centimeter)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      2,
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      4 * vg.Millimeter,
		PadTop:    2 * vg.Millimeter,
		PadBottom: 2 * vg.Millimeter,
		PadLeft:   2 * vg.Millimeter,
		PadRight:  2 * vg.Millimeter,
	}
	plots := [][]*plot.Plot{{top}, {bottom}}
	canvases := plot.Align(plots, tiles, dc)
	for j := range plots {
		plots[j][0].Draw(canvases[j][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("plot: %w", err)
	}
	return f.Close()
}
