package model

// Vec3 is a plain 3-vector used in configuration documents. Positions and
// directions are NED (world) or FRD (body) depending on the field.
type Vec3 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// Quaternion is a rotation in (w, x, y, z) form.
type Quaternion struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Euler describes a rotation by three angles in degrees. Order is "XYZ"
// (the default) or "ZYX".
type Euler struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Order string  `json:"order,omitempty"`
}

// Orientation holds either a quaternion or an Euler description. When both
// are nil the orientation is the identity.
type Orientation struct {
	Quaternion *Quaternion `json:"quaternion,omitempty"`
	Euler      *Euler      `json:"euler,omitempty"`
}

// Named airfoils understood by the core package.
const (
	AirfoilNACA0012 = "NACA0012" // symmetric
	AirfoilDU96W180 = "DU96W180" // asymmetric, cambered
)

// AeroSurfaceOptions describes one lifting or control surface. Its default
// frame has the leading edge towards +x, the span along +y and the upper
// surface towards -z.
type AeroSurfaceOptions struct {
	Name        string      `json:"-"`
	Airfoil     string      `json:"airfoil"`
	Span        float64     `json:"span"`
	Chord       float64     `json:"chord"`
	Thickness   float64     `json:"thickness"`
	Position    Vec3        `json:"position"`
	Orientation Orientation `json:"orientation"`
	// HingeAxis is required for surfaces that are deflected by the
	// controller (elevator, rudder).
	HingeAxis *Vec3 `json:"hingeAxis,omitempty"`
}

// ThrustLimits bounds the normalized thrust command. Negative thrust means
// the rotors are windmilling.
type ThrustLimits struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// AirplaneOptions describes the rigid airframe.
type AirplaneOptions struct {
	// Surfaces are summed in slice order.
	Surfaces []AeroSurfaceOptions `json:"-"`

	Mass      float64       `json:"mass"`
	Inertia   [9]float64    `json:"inertia"` // row-major 3x3
	MaxThrust float64       `json:"maxThrust"`
	MaxMoment float64       `json:"maxMoment"`
	Thrust    *ThrustLimits `json:"thrustLimits,omitempty"`

	// AttachmentPoints are the body-frame offsets of the two bridle lines.
	AttachmentPoints [2]Vec3 `json:"attachmentPoints"`

	// InitialThrust is the normalized thrust before the first command.
	InitialThrust float64 `json:"initialThrust"`
}

// Surface returns the options of the named surface.
func (o AirplaneOptions) Surface(name string) (AeroSurfaceOptions, bool) {
	for _, s := range o.Surfaces {
		if s.Name == name {
			return s, true
		}
	}
	return AeroSurfaceOptions{}, false
}
