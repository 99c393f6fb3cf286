package geo

import "math"

// Directions are the eight cardinal and intercardinal compass labels,
// ordered clockwise from north in 45 degree increments.
var Directions = [8]string{
	"North", "Northeast", "East", "Southeast",
	"South", "Southwest", "West", "Northwest",
}

// Distance calculates the great-circle distance between two points
// using the Haversine formula. The result is in kilometers.
// Distance is symmetric and returns exactly 0 for identical points.
func Distance(from, to Location) float64 {
	// Convert degrees to radians
	lat1Rad := from.Latitude * math.Pi / 180
	lat2Rad := to.Latitude * math.Pi / 180
	dLat := (to.Latitude - from.Latitude) * math.Pi / 180
	dLon := (to.Longitude - from.Longitude) * math.Pi / 180

	// Haversine formula
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Bearing calculates the initial compass bearing from one point to
// another, in degrees clockwise from true north, in [0, 360).
// It is not symmetric. Identical points produce 0 by convention
// (atan2(0, 0) is defined as 0), which is documented degenerate output,
// not an error.
func Bearing(from, to Location) float64 {
	lat1Rad := from.Latitude * math.Pi / 180
	lat2Rad := to.Latitude * math.Pi / 180
	dLon := (to.Longitude - from.Longitude) * math.Pi / 180

	x := math.Sin(dLon) * math.Cos(lat2Rad)
	y := math.Cos(lat1Rad)*math.Sin(lat2Rad) -
		math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(dLon)

	bearing := math.Atan2(x, y) * 180 / math.Pi
	return math.Mod(bearing+360, 360)
}

// DirectionLabel quantizes a bearing in degrees to one of the eight
// compass labels in Directions. Quantization rounds half away from zero,
// so exact sector boundaries resolve clockwise: 22.5 is Northeast and
// 67.5 is East.
func DirectionLabel(bearing float64) string {
	index := int(math.Round(bearing/45)) % 8
	if index < 0 {
		index += 8
	}
	return Directions[index]
}
