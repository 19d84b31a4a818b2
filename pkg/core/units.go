// pkg/core/units.go
package core

// Internal units are veh/min, veh/m and m/min; displays use veh/h, veh/km
// and km/h. The conversions live here so every exporter agrees.

const (
	minutesPerHour     = 60.0
	metersPerKilometer = 1000.0
)

// DefaultWaveSpeedKmh is the built-in backward wave speed used by the loop
// detector when no line measurement has been taken yet.
const DefaultWaveSpeedKmh = -17.0

// FlowPerHour converts veh/min to veh/h.
func FlowPerHour(vehPerMin float64) float64 {
	return vehPerMin * minutesPerHour
}

// DensityPerKm converts veh/m to veh/km.
func DensityPerKm(vehPerMeter float64) float64 {
	return vehPerMeter * metersPerKilometer
}

// SpeedKmh converts m/min to km/h.
func SpeedKmh(metersPerMin float64) float64 {
	return metersPerMin * minutesPerHour / metersPerKilometer
}

// WaveSpeedFromKmh converts km/h to the internal m/min.
func WaveSpeedFromKmh(kmh float64) float64 {
	return kmh * metersPerKilometer / minutesPerHour
}
