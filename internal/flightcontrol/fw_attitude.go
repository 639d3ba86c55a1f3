package flightcontrol

import "github.com/signalsfoundry/kite-simulator/model"

var defaultRollGains = model.PIDGains{P: 1, IAbsMax: 100}

// rudderAuthority is the rudder deflection (degrees) per unit of roll
// loop output.
const rudderAuthority = 30

// FWAttitude is the fixed-wing roll-rate loop. In this airframe roll is
// commanded with the rudder.
type FWAttitude struct {
	roll *PID
}

// NewFWAttitude builds the roll loop.
func NewFWAttitude(g *model.PIDGains) *FWAttitude {
	return &FWAttitude{roll: newPIDWith(defaultRollGains, g)}
}

// RudderAngle returns the rudder deflection in degrees for a roll-rate
// command and measurement.
func (f *FWAttitude) RudderAngle(commanded, measured, dt float64) float64 {
	return rudderAuthority * f.roll.Update(measured-commanded, dt)
}

// Reset clears the loop memory.
func (f *FWAttitude) Reset() { f.roll.Reset() }
