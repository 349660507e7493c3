package location

import "math"

// EarthRadiusKm is the Earth radius in kilometers for Haversine.
const EarthRadiusKm = 6371.0

// HaversineKm returns distance in km between two points (lat/lng in degrees).
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	if lat1 == lat2 && lng1 == lng2 {
		return 0
	}
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	φ1, φ2 := rad(lat1), rad(lat2)
	Δφ := rad(lat2 - lat1)
	Δλ := rad(lng2 - lng1)
	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) +
		math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	// min guards a crossing 1.0 from float error on near-antipodal points
	c := 2 * math.Atan2(math.Sqrt(math.Min(a, 1)), math.Sqrt(math.Max(1-a, 0)))
	return EarthRadiusKm * c
}

// WithinRadiusKm reports whether a distance falls inside a service radius.
// The boundary is inclusive: a business exactly radiusKm away still matches.
func WithinRadiusKm(distanceKm, radiusKm float64) bool {
	return distanceKm <= radiusKm
}
