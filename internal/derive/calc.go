package derive

import "math"

// windChillMinTempC and windChillMinWindMS bound the validity range of the
// wind chill formula; outside it the felt temperature is just the air
// temperature.
const (
	windChillMinTempC  = 10.0
	windChillMinWindMS = 1.34
)

// WindChill computes the felt temperature in °C from air temperature (°C)
// and wind speed (m/s) using the Environment Canada wind chill index.
// For temps above 10°C or wind below 1.34 m/s, wind chill is just the
// current temperature.
func WindChill(temp float64, wind float64) float64 {
	if temp > windChillMinTempC || wind < windChillMinWindMS {
		return temp
	}

	vk := math.Pow(wind*3.6, 0.16)
	return 13.12 + 0.6215*temp - 11.37*vk + 0.3965*temp*vk
}

var sectorNames = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Sector maps a wind direction in degrees to an 8-point compass category.
func Sector(deg float64) string {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	idx := int(math.Floor((deg+22.5)/45.0)) % 8
	return sectorNames[idx]
}

// inAzimuthRange reports whether deg lies in the clockwise arc from→to,
// inclusive, allowing arcs that wrap through north.
func inAzimuthRange(deg, from, to float64) bool {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if from <= to {
		return deg >= from && deg <= to
	}
	return deg >= from || deg <= to
}
