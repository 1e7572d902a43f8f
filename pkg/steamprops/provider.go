package steamprops

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutOfRange is returned for states outside the covered regions.
var ErrOutOfRange = errors.New("steamprops: state out of range")

// Provider implements leakoff.Properties. The zero value is ready to use
// and safe for concurrent use.
type Provider struct{}

// New returns a Provider.
func New() Provider { return Provider{} }

func outOfRange(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrOutOfRange, fmt.Sprintf(format, args...))
}

func checkFinite(vals ...float64) error {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return outOfRange("non-finite argument %g", v)
		}
	}
	return nil
}

// SteamEnthalpy returns h (kJ/kg) of water or steam at p (MPa) and tC (°C).
func (Provider) SteamEnthalpy(p, tC float64) (float64, error) {
	if err := checkFinite(p, tC); err != nil {
		return 0, err
	}
	t := tC + 273.15
	switch {
	case p <= 0 || p > pMax:
		return 0, outOfRange("pressure %g MPa", p)
	case t < tMin || t > tMax:
		return 0, outOfRange("temperature %g °C", tC)
	}

	if p <= pSat13 && p >= pSatMin {
		if t < saturationTemperature(p) {
			_, h := region1(p, t)
			return h, nil
		}
		_, h := region2(p, t)
		return h, nil
	}
	if p < pSatMin {
		_, h := region2(p, t)
		return h, nil
	}
	// above the saturation dome's region 1/3 corner
	if t <= t13 {
		_, h := region1(p, t)
		return h, nil
	}
	if p <= b23Pressure(t) {
		_, h := region2(p, t)
		return h, nil
	}
	return 0, outOfRange("near-critical state p=%g MPa, t=%g °C", p, tC)
}

// SteamStateFromEnthalpy returns specific volume (m³/kg), temperature (°C)
// and dynamic viscosity (Pa·s) at p (MPa) and h (kJ/kg). Inside the
// saturation dome the state is a wet mixture at Ts.
func (Provider) SteamStateFromEnthalpy(p, h float64) (v, tC, mu float64, err error) {
	if err := checkFinite(p, h); err != nil {
		return 0, 0, 0, err
	}
	if p < pSatMin || p > pMax {
		return 0, 0, 0, outOfRange("pressure %g MPa", p)
	}

	var t float64
	if p <= pSat13 {
		ts := saturationTemperature(p)
		vf, hf := region1(p, ts)
		vg, hg := region2(p, ts)
		switch {
		case h < hf:
			t, err = invert(region1, p, h, tMin, ts)
			if err != nil {
				return 0, 0, 0, err
			}
			v, _ = region1(p, t)
		case h <= hg:
			x := (h - hf) / (hg - hf)
			v = vf + x*(vg-vf)
			muF := waterViscosity(1/vf, ts)
			muG := waterViscosity(1/vg, ts)
			mu = 1 / (x/muG + (1-x)/muF)
			return v, ts - 273.15, mu, nil
		default:
			t, err = invert(region2, p, h, ts, tMax)
			if err != nil {
				return 0, 0, 0, err
			}
			v, _ = region2(p, t)
		}
	} else {
		_, h13 := region1(p, t13)
		t23 := b23Temperature(p)
		_, h23 := region2(p, t23)
		switch {
		case h <= h13:
			t, err = invert(region1, p, h, tMin, t13)
			if err != nil {
				return 0, 0, 0, err
			}
			v, _ = region1(p, t)
		case h >= h23:
			t, err = invert(region2, p, h, t23, tMax)
			if err != nil {
				return 0, 0, 0, err
			}
			v, _ = region2(p, t)
		default:
			return 0, 0, 0, outOfRange("near-critical state p=%g MPa, h=%g kJ/kg", p, h)
		}
	}
	return v, t - 273.15, waterViscosity(1/v, t), nil
}

// invert solves h(p, t) = target for t in [lo, hi] by Newton steps kept
// inside a shrinking bracket.
func invert(region func(p, t float64) (float64, float64), p, target, lo, hi float64) (float64, error) {
	hAt := func(t float64) float64 {
		_, h := region(p, t)
		return h
	}
	if target < hAt(lo)-1e-9 || target > hAt(hi)+1e-9 {
		return 0, outOfRange("enthalpy %g kJ/kg at %g MPa", target, p)
	}

	const (
		maxIter = 100
		dt      = 1e-3
		tolT    = 1e-9
	)
	t := 0.5 * (lo + hi)
	for i := 0; i < maxIter; i++ {
		f := hAt(t) - target
		if f > 0 {
			hi = t
		} else {
			lo = t
		}
		slope := (hAt(t+dt) - hAt(t-dt)) / (2 * dt)
		next := t - f/slope
		if slope <= 0 || math.IsNaN(next) || next <= lo || next >= hi {
			next = 0.5 * (lo + hi)
		}
		if math.Abs(next-t) < tolT {
			return next, nil
		}
		t = next
	}
	return t, nil
}

// AirSpecificVolume returns v (m³/kg) of dry air at atmospheric pressure.
func (Provider) AirSpecificVolume(tC float64) (float64, error) {
	if err := checkAir(tC); err != nil {
		return 0, err
	}
	return airSpecificVolume(tC), nil
}

// AirViscosity returns μ (Pa·s) of dry air.
func (Provider) AirViscosity(tC float64) (float64, error) {
	if err := checkAir(tC); err != nil {
		return 0, err
	}
	return airViscosity(tC), nil
}

func checkAir(tC float64) error {
	if err := checkFinite(tC); err != nil {
		return err
	}
	if tC < airTMin || tC > airTMax {
		return outOfRange("air temperature %g °C", tC)
	}
	return nil
}

// FrictionFactor returns λ for Reynolds number re.
func (Provider) FrictionFactor(re float64) (float64, error) {
	if err := checkFinite(re); err != nil {
		return 0, err
	}
	if re <= 0 {
		return 0, outOfRange("reynolds number %g", re)
	}
	return frictionFactor(re), nil
}

// LossCoefficient returns ξ for the rounding ratio r/2δ.
func (Provider) LossCoefficient(ratio float64) (float64, error) {
	if err := checkFinite(ratio); err != nil {
		return 0, err
	}
	if ratio < 0 {
		return 0, outOfRange("rounding ratio %g", ratio)
	}
	return interpolate(ratio, lossTable)
}
