// Package geo computes great-circle distances between airports and the
// scheduled duration of a flight covering that distance.
package geo

import (
	"math"
	"time"
)

const (
	milesToKilometers    = 1.609344
	milesToNauticalMiles = 0.8684

	// CruiseSpeed is the ground speed, in miles per hour, used for every
	// scheduled duration.
	CruiseSpeed = 450.0
)

type Distance struct {
	NauticalMiles float64 `json:"nautical_miles"`
	Kilometers    float64 `json:"kilometers"`
	Miles         float64 `json:"miles"`
}

// Between returns the spherical-law-of-cosines distance between two
// coordinates given in decimal degrees. Coordinates are not range checked.
func Between(lat1, lon1, lat2, lon2 float64) Distance {
	theta := lon1 - lon2
	cos := math.Sin(radians(lat1))*math.Sin(radians(lat2)) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Cos(radians(theta))
	// rounding can push identical points slightly past 1
	cos = math.Max(-1, math.Min(1, cos))

	miles := degrees(math.Acos(cos)) * 60 * 1.1515
	return Distance{
		NauticalMiles: miles * milesToNauticalMiles,
		Kilometers:    miles * milesToKilometers,
		Miles:         miles,
	}
}

// FlightDuration converts a distance in miles to elapsed time at CruiseSpeed,
// rounded to whole minutes.
func FlightDuration(distanceMiles float64) time.Duration {
	hours := distanceMiles / CruiseSpeed
	return time.Duration(hours * float64(time.Hour)).Round(time.Minute)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
