package leakoff

// Properties supplies the thermophysical data the solver needs. Pressures
// are in MPa, temperatures in °C, enthalpies in kJ/kg, specific volumes in
// m³/kg and dynamic viscosities in Pa·s. Implementations must be pure
// functions of their arguments and safe for concurrent use.
type Properties interface {
	SteamEnthalpy(pressure, temperature float64) (float64, error)
	SteamStateFromEnthalpy(pressure, enthalpy float64) (specificVolume, temperature, viscosity float64, err error)
	AirSpecificVolume(temperature float64) (float64, error)
	AirViscosity(temperature float64) (float64, error)
	FrictionFactor(reynolds float64) (float64, error)
	LossCoefficient(ratio float64) (float64, error)
}
