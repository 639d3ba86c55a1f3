package core

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/model"
)

// ErrNoHingeAxis is returned when a deflection is commanded on a surface
// that has no hinge.
var ErrNoHingeAxis = errors.New("aero surface has no hinge axis")

// AeroSurface is one lifting or control surface attached to a parent body.
// In its own frame the leading edge points along +x, the span along +y and
// the upper side towards -z.
type AeroSurface struct {
	name     string
	airfoil  *Airfoil
	span     float64
	chord    float64
	area     float64
	position r3.Vec

	baseOrientation quat.Number
	orientation     quat.Number
	hinge           *r3.Vec
	airDensity      float64

	delta float64
	flap  float64

	// diagnostics from the last ForceMoment call
	alpha        float64
	apparentWind float64
}

// NewAeroSurface builds a surface from its options.
func NewAeroSurface(opts model.AeroSurfaceOptions, airDensity float64) (*AeroSurface, error) {
	airfoil, err := LookupAirfoil(opts.Airfoil)
	if err != nil {
		return nil, fmt.Errorf("aero surface %q: %w", opts.Name, err)
	}
	q, err := Orientation(opts.Orientation)
	if err != nil {
		return nil, fmt.Errorf("aero surface %q: %w", opts.Name, err)
	}
	s := &AeroSurface{
		name:            opts.Name,
		airfoil:         airfoil,
		span:            opts.Span,
		chord:           opts.Chord,
		area:            opts.Span * opts.Chord,
		position:        Vec(opts.Position),
		baseOrientation: q,
		orientation:     q,
		airDensity:      airDensity,
	}
	if opts.HingeAxis != nil {
		h := Unit(Vec(*opts.HingeAxis))
		if h == (r3.Vec{}) {
			return nil, fmt.Errorf("aero surface %q: hinge axis is zero", opts.Name)
		}
		s.hinge = &h
	}
	return s, nil
}

// Name returns the configured surface name.
func (s *AeroSurface) Name() string { return s.name }

// Hinged reports whether SetDelta can be used.
func (s *AeroSurface) Hinged() bool { return s.hinge != nil }

// Position returns the surface offset in the parent frame.
func (s *AeroSurface) Position() r3.Vec { return s.position }

// Orientation returns the current (deflected) surface orientation.
func (s *AeroSurface) Orientation() quat.Number { return s.orientation }

// SetDelta rotates the surface about its hinge axis by angle radians,
// relative to its configured orientation.
func (s *AeroSurface) SetDelta(angle float64) error {
	if s.hinge == nil {
		return fmt.Errorf("aero surface %q: %w", s.name, ErrNoHingeAxis)
	}
	s.delta = angle
	s.orientation = quat.Mul(AxisAngle(*s.hinge, angle), s.baseOrientation)
	return nil
}

// Delta returns the current hinge deflection.
func (s *AeroSurface) Delta() float64 { return s.delta }

// SetFlapDeflection sets a lift coefficient offset without changing the
// surface geometry.
func (s *AeroSurface) SetFlapDeflection(angle float64) { s.flap = angle }

// Flap returns the current flap deflection.
func (s *AeroSurface) Flap() float64 { return s.flap }

// SurfaceState is the mutable part of a surface: actuator positions and
// the diagnostics of the last evaluation.
type SurfaceState struct {
	Delta        float64
	Flap         float64
	Alpha        float64
	ApparentWind float64
}

// State returns the mutable surface state.
func (s *AeroSurface) State() SurfaceState {
	return SurfaceState{Delta: s.delta, Flap: s.flap, Alpha: s.alpha, ApparentWind: s.apparentWind}
}

// SetState restores a state returned by State. A non-zero delta needs a
// hinge.
func (s *AeroSurface) SetState(st SurfaceState) error {
	if s.hinge != nil {
		if err := s.SetDelta(st.Delta); err != nil {
			return err
		}
	} else if st.Delta != 0 {
		return fmt.Errorf("aero surface %q: %w", s.name, ErrNoHingeAxis)
	}
	s.flap = st.Flap
	s.alpha = st.Alpha
	s.apparentWind = st.ApparentWind
	return nil
}

// AngleOfAttack returns the angle of attack (radians) seen in the last
// evaluation.
func (s *AeroSurface) AngleOfAttack() float64 { return s.alpha }

// ApparentWindSpeed returns the chordwise apparent wind speed seen in the
// last evaluation.
func (s *AeroSurface) ApparentWindSpeed() float64 { return s.apparentWind }

// ForceMoment returns the aerodynamic force and moment in the parent frame.
// apparentWind is the parent-frame apparent wind at the parent's origin.
// angularRate is the parent's body rate; pass the zero vector for a surface
// that is not mounted on a rotating body.
func (s *AeroSurface) ForceMoment(apparentWind, angularRate r3.Vec) ForceMoment {
	wind := r3.Sub(apparentWind, r3.Cross(angularRate, s.position))
	local := InverseRotate(s.orientation, wind)

	s.alpha = math.Atan2(-local.Z, -local.X)
	perp := r3.Vec{X: local.X, Z: local.Z}
	s.apparentWind = r3.Norm(perp)

	qs := 0.5 * s.airDensity * r3.Norm2(perp) * s.area
	liftScalar := (s.airfoil.CL(s.alpha) + s.flap) * qs
	dragScalar := s.airfoil.CD(s.alpha+math.Abs(s.flap)) * qs
	momentScalar := s.airfoil.CM(s.alpha) * qs * s.chord

	lift := r3.Scale(liftScalar, Unit(r3.Cross(r3.Vec{Y: -1}, perp)))
	drag := r3.Scale(dragScalar, Unit(perp))
	pitching := r3.Vec{Y: momentScalar}

	sumLocal := r3.Add(lift, drag)
	fromForces := r3.Cross(InverseRotate(s.orientation, s.position), sumLocal)

	return ForceMoment{
		Force:  Rotate(s.orientation, sumLocal),
		Moment: Rotate(s.orientation, r3.Add(pitching, fromForces)),
	}
}
