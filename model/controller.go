package model

// PIDGains configures one PID loop. IAbsMax bounds the integrator.
type PIDGains struct {
	P       float64 `json:"p"`
	I       float64 `json:"i"`
	D       float64 `json:"d"`
	IAbsMax float64 `json:"iAbsMax"`
}

// ControllerGains holds optional overrides for every loop of the flight
// controller. Nil entries keep the built-in defaults.
type ControllerGains struct {
	Altitude         *PIDGains `json:"altitude,omitempty"`
	VerticalVelocity *PIDGains `json:"verticalVelocity,omitempty"`
	Heading          *PIDGains `json:"heading,omitempty"`
	HeadingVelocity  *PIDGains `json:"headingVelocity,omitempty"`
	Attitude         *PIDGains `json:"attitude,omitempty"`
	Rate             *PIDGains `json:"rate,omitempty"`
	Roll             *PIDGains `json:"roll,omitempty"`
	Velocity         *PIDGains `json:"velocity,omitempty"`
	AngleOfAttack    *PIDGains `json:"angleOfAttack,omitempty"`
}

// VTOL transition algorithms.
const (
	VTOLDefault    = "default"
	VTOLStraightUp = "straight-up"
)

// VTOLOptions configures the hover to forward-flight transition.
type VTOLOptions struct {
	Algorithm          string  `json:"algorithm"`
	TransitionTime     float64 `json:"transitionTime"`     // s
	AirspeedTransition float64 `json:"airspeedTransition"` // m/s
	ThrustForward      float64 `json:"thrustForward"`
	RollForwardDeg     float64 `json:"rollForward"`
	// WindSpeedEstimate is the assumed crosswind used for the drift
	// correction of the target heading.
	WindSpeedEstimate float64 `json:"windSpeedEstimate"`
}

// HoverOptions configures position (multicopter) mode.
type HoverOptions struct {
	HeadingDeg  float64 `json:"heading"`
	AltitudeDeg float64 `json:"altitude"`
	PitchDeg    float64 `json:"pitch"`
	BaseThrust  float64 `json:"baseThrust"`
	// CaptureDistance is the point-on-sphere distance (rad) below which
	// the forward transition starts.
	CaptureDistance float64 `json:"captureDistance"`
	ElevatorDeg     float64 `json:"elevator"`
}

// PathOptions configures the circular path followed in forward flight.
type PathOptions struct {
	Radius         float64 `json:"radius"`
	ConeAngleDeg   float64 `json:"angle"`
	HeadingDeg     float64 `json:"headingOffset"`
	LookAheadRatio float64 `json:"lookAhead"`
	Points         int     `json:"points"`
	StartAngleDeg  float64 `json:"startAngle"`
}

// ControllerOptions configures the flight mode controller.
type ControllerOptions struct {
	VelocitySetpoint float64         `json:"velocitySp"`
	Path             PathOptions     `json:"path"`
	Hover            HoverOptions    `json:"hover"`
	VTOL             VTOLOptions     `json:"vtol"`
	Gains            ControllerGains `json:"gains"`

	RudderLimitDeg      float64 `json:"rudderLimit"`
	AngleOfAttackDeg    float64 `json:"angleOfAttack"`
	AngleOfAttackSource string  `json:"angleOfAttackSurface"`
	// MomentLimit is the per-axis bound applied before scaling by the
	// airframe's maximum moment.
	MomentLimit Vec3 `json:"momentLimit"`

	// ManualModes disables the automatic mode transitions.
	ManualModes bool `json:"manualModes"`
}
