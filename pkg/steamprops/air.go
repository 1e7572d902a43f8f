package steamprops

import "math"

const (
	rAir          = 287.058  // J/(kg·K)
	pAtm          = 101325.0 // Pa
	sutherlandMu0 = 1.716e-5 // Pa·s at sutherlandT0
	sutherlandT0  = 273.15   // K
	sutherlandS   = 110.4    // K
	airTMin       = -100.0   // °C
	airTMax       = 1000.0   // °C
)

func airSpecificVolume(tC float64) float64 {
	return rAir * (tC + 273.15) / pAtm
}

func airViscosity(tC float64) float64 {
	t := tC + 273.15
	return sutherlandMu0 * math.Pow(t/sutherlandT0, 1.5) * (sutherlandT0 + sutherlandS) / (t + sutherlandS)
}
