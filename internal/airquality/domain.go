package airquality

import "context"

// Location is a geocoded place.
type Location struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// CityAQI pairs a canonical city name with its current US AQI.
type CityAQI struct {
	City string `json:"city"`
	AQI  int    `json:"aqi"`
}

// Provider resolves free-text city names and reads current air quality.
// Implementations make exactly one outbound call per method and never retry.
type Provider interface {
	Geocode(ctx context.Context, name string) (Location, error)
	CurrentAQI(ctx context.Context, latitude, longitude float64) (int, error)
}
