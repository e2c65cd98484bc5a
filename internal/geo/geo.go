// Package geo holds the coordinate math for shop discovery and delivery
// range checks. Storage keeps [longitude, latitude] column order; the API
// speaks named latitude/longitude fields. Conversions happen only at
// those two boundaries.
package geo

import "math"

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points using
// the haversine formula.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// WithinRadius reports whether the two points are at most radiusKm apart.
func WithinRadius(lat1, lng1, lat2, lng2, radiusKm float64) bool {
	return DistanceKm(lat1, lng1, lat2, lng2) <= radiusKm
}

// EstimateDeliveryMinutes derives a travel estimate from distance:
// base preparation time plus 3 minutes per kilometre.
func EstimateDeliveryMinutes(distanceKm float64, baseMinutes int) int {
	return baseMinutes + int(math.Ceil(distanceKm*3))
}

// RoundKm truncates a distance to two decimals for API responses.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
