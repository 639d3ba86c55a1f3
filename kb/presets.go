package kb

import "github.com/signalsfoundry/kite-simulator/model"

func euler(roll, pitch, yaw float64, order string) model.Orientation {
	return model.Orientation{Euler: &model.Euler{Roll: roll, Pitch: pitch, Yaw: yaw, Order: order}}
}

func vec(x, y, z float64) model.Vec3 { return model.Vec3{X: x, Y: y, Z: z} }

func ptr[T any](v T) *T { return &v }

// airframeSurfaces lays out the twin-boom box wing shared by the presets.
// s scales every length.
func airframeSurfaces(s float64) []model.AeroSurfaceOptions {
	wing := euler(0, 100, 180, "ZYX")
	fin := euler(-90, 0, 90, "XYZ")
	return []model.AeroSurfaceOptions{
		{Name: "right", Airfoil: model.AirfoilDU96W180, Span: 4 * s, Chord: 0.8 * s, Thickness: 0.1 * s, Position: vec(0, 2*s, 0), Orientation: wing},
		{Name: "left", Airfoil: model.AirfoilDU96W180, Span: 4 * s, Chord: 0.8 * s, Thickness: 0.1 * s, Position: vec(0, -2*s, 0), Orientation: wing},
		{Name: "verticalR", Airfoil: model.AirfoilNACA0012, Span: 4.2 * s, Chord: 0.8 * s, Thickness: 0.04 * s, Position: vec(0, 2*s, 0), Orientation: fin},
		{Name: "verticalL", Airfoil: model.AirfoilNACA0012, Span: 4.2 * s, Chord: 0.8 * s, Thickness: 0.04 * s, Position: vec(0, -2*s, 0), Orientation: fin},
		{Name: "elevator", Airfoil: model.AirfoilNACA0012, Span: 3.2 * s, Chord: 0.6 * s, Thickness: 0.08 * s, Position: vec(0, 0, 3.4*s), Orientation: euler(0, 90, 0, "XYZ"), HingeAxis: ptr(vec(0, 1, 0))},
		{Name: "rudder", Airfoil: model.AirfoilNACA0012, Span: 2.2 * s, Chord: 0.4 * s, Thickness: 0.08 * s, Position: vec(0, 0, 3.2*s), Orientation: fin, HingeAxis: ptr(vec(1, 0, 0))},
	}
}

// KX40 is the full-size 50 kg energy kite on a 120 m tether.
func KX40() model.SimConfig {
	return model.SimConfig{
		Airplane: model.AirplaneOptions{
			Surfaces:         airframeSurfaces(1),
			Mass:             50,
			Inertia:          [9]float64{300.564, 0, 0, 0, 100.625, 0, 0, 0, 200.614},
			MaxThrust:        1200,
			MaxMoment:        600,
			AttachmentPoints: [2]model.Vec3{vec(0, 3, 0), vec(0, -3, 0)},
			InitialThrust:    0.3,
		},
		Orientation: euler(0, 0, 0, "XYZ"),
		Tether: model.TetherOptions{
			Segments:          10,
			TotalLength:       120,
			KiteTetherLength:  8,
			Density:           950,
			Diameter:          0.01,
			YoungsModulus:     80e8,
			CompressionSpring: 0,
			Damping:           30,
			DragCoefficient:   0.95,
			Origin:            vec(0, 0, -10),
			Direction:         vec(1, 0, 0),
		},
		Controller: model.ControllerOptions{
			VelocitySetpoint:    40,
			Path:                model.PathOptions{Radius: 40, ConeAngleDeg: 40},
			AngleOfAttackSource: "left",
		},
		Wind: model.WindOptions{Static: ptr(vec(12, 0, 0))},
	}
}

// Trainer is a quarter-scale airframe with the default 1 kg mass
// properties on a light 70 m tether.
func Trainer() model.SimConfig {
	return model.SimConfig{
		Airplane: model.AirplaneOptions{
			Surfaces: airframeSurfaces(0.25),
		},
		Tether: model.TetherOptions{
			Segments:         10,
			TotalLength:      70,
			KiteTetherLength: 2,
			Density:          950,
			Diameter:         0.002,
			YoungsModulus:    80e8,
			Damping:          30,
			DragCoefficient:  0.95,
			Direction:        vec(1, 0, 0),
		},
		Wind: model.WindOptions{Static: ptr(vec(12, 0, 0))},
	}
}
