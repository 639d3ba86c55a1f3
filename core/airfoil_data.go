package core

import "github.com/signalsfoundry/kite-simulator/model"

// Sparse coefficient tables. Angles are degrees of angle of attack. Values
// past stall follow flat-plate behaviour.

var naca0012Table = AirfoilTable{
	Name:      model.AirfoilNACA0012,
	Symmetric: true,
	CL: []Sample{
		{0, 0}, {2, 0.22}, {4, 0.44}, {6, 0.66}, {8, 0.86}, {10, 1.00},
		{12, 1.08}, {14, 1.02}, {16, 0.90}, {20, 0.80}, {30, 0.90},
		{45, 1.05}, {60, 0.90}, {75, 0.50}, {90, 0}, {105, -0.50},
		{120, -0.90}, {135, -1.05}, {150, -0.90}, {160, -0.80},
		{164, -0.90}, {168, -1.00}, {170, -0.85}, {172, -0.66},
		{176, -0.33}, {180, 0},
	},
	CD: []Sample{
		{0, 0.008}, {4, 0.009}, {8, 0.012}, {10, 0.015}, {12, 0.020},
		{14, 0.050}, {16, 0.10}, {20, 0.20}, {30, 0.45}, {45, 0.95},
		{60, 1.35}, {75, 1.60}, {90, 1.75}, {105, 1.60}, {120, 1.35},
		{135, 0.95}, {150, 0.45}, {160, 0.20}, {166, 0.06}, {170, 0.015},
		{176, 0.009}, {180, 0.008},
	},
}

// du96w180Table pairs the DU 96-W-180 lift and drag polars with the
// DU 97-W-300 pitching moment.
var du96w180Table = AirfoilTable{
	Name: model.AirfoilDU96W180,
	CL: []Sample{
		{0, 0.40}, {2, 0.62}, {4, 0.84}, {6, 1.05}, {8, 1.20}, {10, 1.30},
		{12, 1.28}, {14, 1.18}, {16, 1.05}, {20, 0.95}, {30, 1.00},
		{45, 1.08}, {60, 0.90}, {75, 0.50}, {90, 0.05}, {105, -0.40},
		{120, -0.75}, {135, -0.95}, {150, -0.85}, {165, -0.60},
		{170, -0.65}, {175, -0.45}, {180, 0}, {185, 0.45}, {190, 0.65},
		{195, 0.60}, {210, 0.85}, {225, 0.95}, {240, 0.75}, {255, 0.40},
		{270, -0.05}, {285, -0.50}, {300, -0.90}, {315, -1.08},
		{330, -1.00}, {340, -0.95}, {344, -1.05}, {348, -0.85},
		{350, -0.70}, {352, -0.45}, {354, -0.20}, {356, 0}, {358, 0.20},
		{360, 0.40},
	},
	CD: []Sample{
		{0, 0.010}, {4, 0.011}, {8, 0.015}, {10, 0.020}, {12, 0.040},
		{16, 0.10}, {20, 0.20}, {30, 0.45}, {45, 0.90}, {60, 1.30},
		{75, 1.55}, {90, 1.65}, {105, 1.55}, {120, 1.30}, {135, 0.95},
		{150, 0.55}, {165, 0.20}, {175, 0.06}, {180, 0.03}, {185, 0.06},
		{195, 0.20}, {210, 0.55}, {225, 0.95}, {240, 1.30}, {255, 1.55},
		{270, 1.65}, {285, 1.55}, {300, 1.30}, {315, 0.90}, {330, 0.45},
		{340, 0.20}, {344, 0.10}, {348, 0.040}, {350, 0.020},
		{352, 0.015}, {356, 0.011}, {360, 0.010},
	},
	CM: []Sample{
		{0, -0.10}, {10, -0.10}, {20, -0.15}, {30, -0.20}, {45, -0.28},
		{60, -0.35}, {90, -0.45}, {120, -0.45}, {150, -0.30}, {170, -0.20},
		{180, 0}, {190, 0.20}, {210, 0.35}, {240, 0.45}, {270, 0.45},
		{300, 0.35}, {315, 0.28}, {330, 0.20}, {340, 0.15}, {350, 0.05},
		{356, -0.05}, {360, -0.10},
	},
}
