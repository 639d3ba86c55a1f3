package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/signalsfoundry/kite-simulator/model"
)

var (
	// ErrUnknownAirfoil is returned when a surface names an airfoil that is
	// not registered.
	ErrUnknownAirfoil = errors.New("unknown airfoil")
	// ErrInvalidAirfoilTable is returned for sample tables that are not
	// sorted or do not cover their domain.
	ErrInvalidAirfoilTable = errors.New("invalid airfoil table")
)

// Sample is one (angle in degrees, coefficient) pair.
type Sample struct {
	Angle float64
	Value float64
}

// AirfoilTable is the sparse description of an airfoil. Asymmetric tables
// cover [0, 360] degrees; symmetric tables cover [0, 180] and are mirrored
// (lift odd, drag even). Symmetric airfoils have no pitching moment.
type AirfoilTable struct {
	Name      string
	Symmetric bool
	CL        []Sample
	CD        []Sample
	CM        []Sample
}

// Airfoil answers coefficient lookups from dense per-degree tables. It is
// immutable and safe for concurrent use.
type Airfoil struct {
	name      string
	symmetric bool
	cl        []float64
	cd        []float64
	cm        []float64
}

// NewAirfoil densifies a sparse table.
func NewAirfoil(t AirfoilTable) (*Airfoil, error) {
	limit := 360
	if t.Symmetric {
		limit = 180
	}
	a := &Airfoil{name: t.Name, symmetric: t.Symmetric}
	var err error
	if a.cl, err = precalculate(t.CL, limit); err != nil {
		return nil, fmt.Errorf("airfoil %s cl: %w", t.Name, err)
	}
	if a.cd, err = precalculate(t.CD, limit); err != nil {
		return nil, fmt.Errorf("airfoil %s cd: %w", t.Name, err)
	}
	if !t.Symmetric {
		if a.cm, err = precalculate(t.CM, limit); err != nil {
			return nil, fmt.Errorf("airfoil %s cm: %w", t.Name, err)
		}
	}
	return a, nil
}

// precalculate linearly interpolates one value per integer degree in
// [0, limit) and appends the first two values so that index+1 lookups near
// the end of the domain wrap around.
func precalculate(samples []Sample, limit int) ([]float64, error) {
	if len(samples) < 2 {
		return nil, fmt.Errorf("%w: need at least two samples", ErrInvalidAirfoilTable)
	}
	if samples[0].Angle != 0 || samples[len(samples)-1].Angle < float64(limit) {
		return nil, fmt.Errorf("%w: samples must span [0, %d] degrees", ErrInvalidAirfoilTable, limit)
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].Angle <= samples[i-1].Angle {
			return nil, fmt.Errorf("%w: angles not strictly increasing at %g", ErrInvalidAirfoilTable, samples[i].Angle)
		}
	}

	out := make([]float64, 0, limit+2)
	idx := 1
	for i := 0; i < limit; i++ {
		deg := float64(i)
		for deg > samples[idx].Angle {
			idx++
		}
		lo, hi := samples[idx-1], samples[idx]
		ratio := (deg - lo.Angle) / (hi.Angle - lo.Angle)
		out = append(out, lo.Value*(1-ratio)+hi.Value*ratio)
	}
	return append(out, out[0], out[1]), nil
}

// Name returns the table name.
func (a *Airfoil) Name() string { return a.name }

// Symmetric reports whether the airfoil is mirrored about zero angle.
func (a *Airfoil) Symmetric() bool { return a.symmetric }

// CL returns the lift coefficient at angle (radians).
func (a *Airfoil) CL(angle float64) float64 {
	if a.symmetric {
		d := wrapSigned(toDegrees(angle))
		sign := 1.0
		if d < 0 {
			sign = -1
		}
		return sign * interpolate(a.cl, math.Abs(d))
	}
	return interpolate(a.cl, wrapPositive(toDegrees(angle)))
}

// CD returns the drag coefficient at angle (radians).
func (a *Airfoil) CD(angle float64) float64 {
	if a.symmetric {
		return interpolate(a.cd, math.Abs(wrapSigned(toDegrees(angle))))
	}
	return interpolate(a.cd, wrapPositive(toDegrees(angle)))
}

// CM returns the pitching moment coefficient at angle (radians). It is
// zero for symmetric airfoils.
func (a *Airfoil) CM(angle float64) float64 {
	if a.symmetric {
		return 0
	}
	return interpolate(a.cm, wrapPositive(toDegrees(angle)))
}

func interpolate(table []float64, deg float64) float64 {
	i := int(math.Floor(deg))
	ratio := deg - float64(i)
	return table[i]*(1-ratio) + table[i+1]*ratio
}

func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }

// wrapPositive maps any angle in degrees to [0, 360).
func wrapPositive(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 || math.IsNaN(d) {
		return 0
	}
	return d
}

// wrapSigned maps any angle in degrees to (-180, 180].
func wrapSigned(deg float64) float64 {
	d := wrapPositive(deg)
	if d > 180 {
		d -= 360
	}
	return d
}

var builtinAirfoils = func() map[string]*Airfoil {
	m := make(map[string]*Airfoil)
	for _, t := range []AirfoilTable{naca0012Table, du96w180Table} {
		a, err := NewAirfoil(t)
		if err != nil {
			panic(err)
		}
		m[t.Name] = a
	}
	return m
}()

// LookupAirfoil returns a built-in airfoil by name.
func LookupAirfoil(name string) (*Airfoil, error) {
	a, ok := builtinAirfoils[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAirfoil, name)
	}
	return a, nil
}

// DefaultAirfoil returns the built-in airfoil of the requested kind.
func DefaultAirfoil(symmetric bool) *Airfoil {
	if symmetric {
		return builtinAirfoils[model.AirfoilNACA0012]
	}
	return builtinAirfoils[model.AirfoilDU96W180]
}
