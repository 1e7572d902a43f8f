package leakoff

import (
	"errors"
)

var errFakeRange = errors.New("fake: out of range")

// fakeProps is a deterministic Properties double. Steam temperature is
// h/tempDivisor so tests can see which enthalpy reached the provider.
type fakeProps struct {
	steamH      float64
	steamV      float64
	steamMu     float64
	tempDivisor float64
	airV        float64
	airMu       float64
	lambda      float64
	xi          float64

	failSteamAbove float64 // SteamStateFromEnthalpy fails when h exceeds this (0 = never)
	failFriction   bool
}

func newFakeProps() *fakeProps {
	return &fakeProps{
		steamH:      3400,
		steamV:      0.03,
		steamMu:     3e-5,
		tempDivisor: 10,
		airV:        0.887,
		airMu:       1.9e-5,
		lambda:      0.04,
		xi:          0.2,
	}
}

func (f *fakeProps) SteamEnthalpy(p, t float64) (float64, error) {
	if p <= 0 {
		return 0, errFakeRange
	}
	return f.steamH, nil
}

func (f *fakeProps) SteamStateFromEnthalpy(p, h float64) (float64, float64, float64, error) {
	if p <= 0 || (f.failSteamAbove > 0 && h > f.failSteamAbove) {
		return 0, 0, 0, errFakeRange
	}
	return f.steamV, h / f.tempDivisor, f.steamMu, nil
}

func (f *fakeProps) AirSpecificVolume(t float64) (float64, error) { return f.airV, nil }
func (f *fakeProps) AirViscosity(t float64) (float64, error)      { return f.airMu, nil }

func (f *fakeProps) FrictionFactor(re float64) (float64, error) {
	if f.failFriction || re <= 0 {
		return 0, errFakeRange
	}
	return f.lambda, nil
}

func (f *fakeProps) LossCoefficient(ratio float64) (float64, error) { return f.xi, nil }

func ptr(v float64) *float64 { return &v }

func lengths(vals ...float64) []*float64 {
	out := make([]*float64, len(vals))
	for i, v := range vals {
		out[i] = ptr(v)
	}
	return out
}
