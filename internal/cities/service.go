// Package cities manages the saved cities of a user: the per-user quota and
// the geocode, AQI, persist workflow behind add and rename.
package cities

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/airtrack/airtrack/internal/airquality"
	"github.com/airtrack/airtrack/internal/shared"
	"github.com/airtrack/airtrack/internal/users"
)

// DefaultMaxCities is the saved-city quota when none is configured.
const DefaultMaxCities = 3

// ErrUnknownUser marks a shared.ErrNotFound that refers to the caller's
// account rather than to a saved city or a geocoding miss.
var ErrUnknownUser = errors.New("user not found")

// Store is the persistence port used by Service.
type Store interface {
	FindByID(ctx context.Context, id uuid.UUID) (*users.User, error)
	AppendSavedCity(ctx context.Context, userID uuid.UUID, city users.SavedCity, limit int) (*users.User, error)
	ReplaceSavedCity(ctx context.Context, userID, cityID uuid.UUID, name string, aqi int) (users.SavedCity, error)
	RemoveSavedCity(ctx context.Context, userID, cityID uuid.UUID) error
	ListTrackedCities(ctx context.Context) ([]users.TrackedCity, error)
}

// Service orchestrates saved-city operations.
type Service struct {
	store     Store
	provider  airquality.Provider
	maxCities int
	logger    *slog.Logger
	now       func() time.Time
	newID     func() uuid.UUID
}

// NewService constructs a Service. A non-positive maxCities falls back to
// DefaultMaxCities.
func NewService(store Store, provider airquality.Provider, maxCities int, logger *slog.Logger) *Service {
	if maxCities <= 0 {
		maxCities = DefaultMaxCities
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		provider:  provider,
		maxCities: maxCities,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.New,
	}
}

// WithClock replaces the time source used for AddedAt.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// MaxCities returns the configured quota.
func (s *Service) MaxCities() int {
	return s.maxCities
}

// List returns the saved cities of the user in display order. An empty list
// is not an error.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]users.SavedCity, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.SavedCities == nil {
		return []users.SavedCity{}, nil
	}
	return user.SavedCities, nil
}

// Add resolves rawName through the provider and appends the result. The quota
// is checked before any provider call and again by the store under a lock.
func (s *Service) Add(ctx context.Context, userID uuid.UUID, rawName string) (users.SavedCity, error) {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return users.SavedCity{}, fmt.Errorf("%w: City name is required", shared.ErrInvalidInput)
	}
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return users.SavedCity{}, err
	}
	if len(user.SavedCities) >= s.maxCities {
		return users.SavedCity{}, s.quotaError()
	}
	resolved, err := airquality.Resolve(ctx, s.provider, name)
	if err != nil {
		return users.SavedCity{}, err
	}
	city := users.SavedCity{
		ID:      s.newID(),
		Name:    resolved.City,
		AQI:     resolved.AQI,
		AddedAt: s.now(),
	}
	if _, err := s.store.AppendSavedCity(ctx, userID, city, s.maxCities); err != nil {
		switch {
		case errors.Is(err, shared.ErrQuotaExceeded):
			return users.SavedCity{}, s.quotaError()
		case errors.Is(err, shared.ErrNotFound):
			return users.SavedCity{}, unknownUser(err)
		}
		return users.SavedCity{}, err
	}
	s.logger.InfoContext(ctx, "saved city added",
		slog.String("user_id", userID.String()),
		slog.String("city_id", city.ID.String()),
		slog.String("city", city.Name))
	return city, nil
}

// Update re-geocodes rawName and replaces name and AQI of the city together.
func (s *Service) Update(ctx context.Context, userID, cityID uuid.UUID, rawName string) (users.SavedCity, error) {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return users.SavedCity{}, fmt.Errorf("%w: City name is required", shared.ErrInvalidInput)
	}
	resolved, err := airquality.Resolve(ctx, s.provider, name)
	if err != nil {
		return users.SavedCity{}, err
	}
	return s.store.ReplaceSavedCity(ctx, userID, cityID, resolved.City, resolved.AQI)
}

// Delete removes one saved city of the user.
func (s *Service) Delete(ctx context.Context, userID, cityID uuid.UUID) error {
	return s.store.RemoveSavedCity(ctx, userID, cityID)
}

// RefreshResult summarises one RefreshAll run.
type RefreshResult struct {
	Checked int
	Updated int
	Failed  int
}

// RefreshAll re-resolves every saved city and writes the fresh name and AQI.
// A failing city is logged and skipped; only a failure to list cities or a
// cancelled context aborts the run.
func (s *Service) RefreshAll(ctx context.Context) (RefreshResult, error) {
	var res RefreshResult
	tracked, err := s.store.ListTrackedCities(ctx)
	if err != nil {
		return res, err
	}
	for _, tc := range tracked {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Checked++
		resolved, err := airquality.Resolve(ctx, s.provider, tc.City.Name)
		if err == nil {
			_, err = s.store.ReplaceSavedCity(ctx, tc.UserID, tc.City.ID, resolved.City, resolved.AQI)
		}
		if err != nil {
			// Deleted since the listing; nothing to refresh.
			if errors.Is(err, shared.ErrNotFound) && resolved.City != "" {
				continue
			}
			res.Failed++
			s.logger.WarnContext(ctx, "refresh saved city",
				slog.String("user_id", tc.UserID.String()),
				slog.String("city_id", tc.City.ID.String()),
				slog.Any("error", err))
			continue
		}
		res.Updated++
	}
	return res, nil
}

func (s *Service) findUser(ctx context.Context, userID uuid.UUID) (*users.User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, unknownUser(err)
	}
	return user, err
}

func unknownUser(err error) error {
	return fmt.Errorf("%w: %w", ErrUnknownUser, err)
}

func (s *Service) quotaError() error {
	return fmt.Errorf("%w: at most %d saved cities", shared.ErrQuotaExceeded, s.maxCities)
}
