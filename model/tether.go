package model

import (
	"fmt"
	"math"
)

// TetherOptions describes the main tether and the two bridle lines that
// connect its end point to the airframe.
type TetherOptions struct {
	Segments         int     `json:"segments"`
	TotalLength      float64 `json:"totalLength"`      // m, anchor to airframe
	KiteTetherLength float64 `json:"kiteTetherLength"` // m, part taken by the bridle
	Density          float64 `json:"density"`          // kg/m^3
	Diameter         float64 `json:"diameter"`         // m
	YoungsModulus    float64 `json:"youngsModulus"`    // Pa
	// CompressionSpring is the spring constant used while a segment is
	// shorter than its rest length. Zero models a slack line.
	CompressionSpring float64 `json:"compressionSpring"`
	Damping           float64 `json:"damping"`
	DragCoefficient   float64 `json:"dragCoefficient"`
	Origin            Vec3    `json:"origin"`
	Direction         Vec3    `json:"direction"`
}

// SharedSegmentOptions describes the anchor-side segment shared by several
// vehicles. The junction starts at Origin + Direction*Length.
type SharedSegmentOptions struct {
	Length          float64 `json:"length"`
	Density         float64 `json:"density"`
	Diameter        float64 `json:"diameter"`
	YoungsModulus   float64 `json:"youngsModulus"`
	Damping         float64 `json:"damping"`
	DragCoefficient float64 `json:"dragCoefficient"`
	Origin          Vec3    `json:"origin"`
	Direction       Vec3    `json:"direction"`
	// JunctionMass is added to the segment mass lumped at the junction.
	JunctionMass float64 `json:"junctionMass"`
}

// Validate checks that the segment has a positive length and material.
func (s SharedSegmentOptions) Validate() error {
	switch {
	case s.Length <= 0:
		return fmt.Errorf("%w: shared segment length must be positive", ErrInvalidConfig)
	case s.Diameter <= 0 || s.Density <= 0 || s.YoungsModulus <= 0:
		return fmt.Errorf("%w: shared segment diameter, density and modulus must be positive", ErrInvalidConfig)
	case s.JunctionMass < 0:
		return fmt.Errorf("%w: shared segment junction mass is negative", ErrInvalidConfig)
	case math.Hypot(math.Hypot(s.Direction.X, s.Direction.Y), s.Direction.Z) == 0:
		return fmt.Errorf("%w: shared segment direction is zero", ErrInvalidConfig)
	}
	return nil
}
