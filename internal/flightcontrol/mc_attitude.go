package flightcontrol

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/model"
)

var (
	defaultAttitudeGains = model.PIDGains{P: 1, I: 0.1, D: 0, IAbsMax: 100}
	defaultRateGains     = model.PIDGains{P: 1, I: 0.01, D: 0, IAbsMax: 10}
)

// MCAttitude is the multicopter attitude cascade: quaternion attitude error
// to body rate setpoint, then rate error to moment.
type MCAttitude struct {
	angles [3]*PID
	rates  [3]*PID
}

// NewMCAttitude builds the cascade, one PID per body axis and level.
func NewMCAttitude(attitude, rate *model.PIDGains) *MCAttitude {
	m := &MCAttitude{}
	for i := range m.angles {
		m.angles[i] = newPIDWith(defaultAttitudeGains, attitude)
		m.rates[i] = newPIDWith(defaultRateGains, rate)
	}
	return m
}

// RatesSetpoint returns body rate setpoints that drive attitude towards
// setpoint. The error rotation is setpoint * attitude^-1 expressed in the
// body frame and reduced to the shorter of the two equivalent rotations.
func (m *MCAttitude) RatesSetpoint(attitude, setpoint quat.Number, dt float64) r3.Vec {
	errWorld := quat.Mul(setpoint, quat.Conj(attitude))
	errBody := quat.Mul(quat.Mul(quat.Conj(attitude), errWorld), attitude)
	if errBody.Real < 0 {
		errBody = quat.Scale(-1, errBody)
	}

	var e r3.Vec
	w := math.Min(1, errBody.Real)
	if s := 1 - w*w; s > 1e-12 {
		k := 2 * math.Acos(w) / math.Sqrt(s)
		e = r3.Vec{X: errBody.Imag * k, Y: errBody.Jmag * k, Z: errBody.Kmag * k}
	}
	return r3.Vec{
		X: m.angles[0].Update(e.X, dt),
		Y: m.angles[1].Update(e.Y, dt),
		Z: m.angles[2].Update(e.Z, dt),
	}
}

// MomentFromRates returns the normalized moment command for a rate error.
func (m *MCAttitude) MomentFromRates(rates, setpoint r3.Vec, dt float64) r3.Vec {
	e := r3.Sub(setpoint, rates)
	return r3.Vec{
		X: m.rates[0].Update(e.X, dt),
		Y: m.rates[1].Update(e.Y, dt),
		Z: m.rates[2].Update(e.Z, dt),
	}
}

func (m *MCAttitude) loops(prefix string, out map[string]*PID) {
	for i, axis := range [3]string{"x", "y", "z"} {
		out[prefix+"attitude."+axis] = m.angles[i]
		out[prefix+"rate."+axis] = m.rates[i]
	}
}
