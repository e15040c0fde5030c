package airquality

import (
	"context"
	"strings"

	"golang.org/x/sync/singleflight"
)

// Service answers public AQI lookups.
type Service struct {
	provider Provider
	lookups  singleflight.Group
}

// NewService constructs a Service.
func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// AQIAt returns the current AQI for coordinates.
func (s *Service) AQIAt(ctx context.Context, latitude, longitude float64) (int, error) {
	return s.provider.CurrentAQI(ctx, latitude, longitude)
}

// AQIForCity geocodes city and returns its canonical name with current AQI.
// Concurrent lookups for the same name share one provider round-trip; nothing
// is kept once the round-trip completes.
func (s *Service) AQIForCity(ctx context.Context, city string) (CityAQI, error) {
	key := strings.ToLower(strings.TrimSpace(city))
	ch := s.lookups.DoChan(key, func() (interface{}, error) {
		return Resolve(context.WithoutCancel(ctx), s.provider, city)
	})
	select {
	case <-ctx.Done():
		return CityAQI{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return CityAQI{}, res.Err
		}
		return res.Val.(CityAQI), nil
	}
}

// Resolve performs geocode followed by an AQI read. Name and AQI always come
// from the same round-trip.
func Resolve(ctx context.Context, provider Provider, city string) (CityAQI, error) {
	loc, err := provider.Geocode(ctx, city)
	if err != nil {
		return CityAQI{}, err
	}
	aqi, err := provider.CurrentAQI(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		return CityAQI{}, err
	}
	return CityAQI{City: loc.Name, AQI: aqi}, nil
}
