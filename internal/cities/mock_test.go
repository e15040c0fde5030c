package cities

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/airtrack/airtrack/internal/airquality"
	"github.com/airtrack/airtrack/internal/shared"
	"github.com/airtrack/airtrack/internal/users"
)

type mockStore struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*users.User
	appendErr error
	listErr   error
	appends   int
	replaces  int
}

func newMockStore(ids ...uuid.UUID) *mockStore {
	m := &mockStore{users: make(map[uuid.UUID]*users.User)}
	for _, id := range ids {
		m.users[id] = &users.User{ID: id, SavedCities: []users.SavedCity{}}
	}
	return m
}

func (m *mockStore) FindByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("find user: %w", shared.ErrNotFound)
	}
	cp := *u
	cp.SavedCities = append([]users.SavedCity(nil), u.SavedCities...)
	return &cp, nil
}

func (m *mockStore) AppendSavedCity(ctx context.Context, userID uuid.UUID, city users.SavedCity, limit int) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appends++
	if m.appendErr != nil {
		return nil, m.appendErr
	}
	u, ok := m.users[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if limit > 0 && len(u.SavedCities) >= limit {
		return nil, shared.ErrQuotaExceeded
	}
	u.SavedCities = append(u.SavedCities, city)
	cp := *u
	return &cp, nil
}

func (m *mockStore) ReplaceSavedCity(ctx context.Context, userID, cityID uuid.UUID, name string, aqi int) (users.SavedCity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaces++
	u, ok := m.users[userID]
	if !ok {
		return users.SavedCity{}, shared.ErrNotFound
	}
	for i := range u.SavedCities {
		if u.SavedCities[i].ID == cityID {
			u.SavedCities[i].Name = name
			u.SavedCities[i].AQI = aqi
			return u.SavedCities[i], nil
		}
	}
	return users.SavedCity{}, fmt.Errorf("replace: %w", shared.ErrNotFound)
}

func (m *mockStore) RemoveSavedCity(ctx context.Context, userID, cityID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return shared.ErrNotFound
	}
	for i := range u.SavedCities {
		if u.SavedCities[i].ID == cityID {
			u.SavedCities = append(u.SavedCities[:i], u.SavedCities[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("remove: %w", shared.ErrNotFound)
}

func (m *mockStore) ListTrackedCities(ctx context.Context) ([]users.TrackedCity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []users.TrackedCity
	for _, u := range m.users {
		for _, c := range u.SavedCities {
			out = append(out, users.TrackedCity{UserID: u.ID, City: c})
		}
	}
	return out, nil
}

func (m *mockStore) cities(id uuid.UUID) []users.SavedCity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]users.SavedCity(nil), m.users[id].SavedCities...)
}

// mockProvider answers by lower-cased name. Geocode results for a name can be
// queued to simulate the provider changing its canonical answer.
type mockProvider struct {
	mu        sync.Mutex
	locations map[string][]airquality.Location
	aqi       map[float64]int
	geoErr    error
	aqiErr    error
	geoCalls  int
	aqiCalls  int
}

func newMockProvider() *mockProvider {
	return &mockProvider{locations: make(map[string][]airquality.Location), aqi: make(map[float64]int)}
}

func (p *mockProvider) add(query string, loc airquality.Location, aqi int) *mockProvider {
	key := strings.ToLower(query)
	p.locations[key] = append(p.locations[key], loc)
	p.aqi[loc.Latitude] = aqi
	return p
}

func (p *mockProvider) Geocode(ctx context.Context, name string) (airquality.Location, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.geoCalls++
	if p.geoErr != nil {
		return airquality.Location{}, p.geoErr
	}
	queue := p.locations[strings.ToLower(name)]
	if len(queue) == 0 {
		return airquality.Location{}, fmt.Errorf("geocode %q: %w", name, shared.ErrNotFound)
	}
	loc := queue[0]
	if len(queue) > 1 {
		p.locations[strings.ToLower(name)] = queue[1:]
	}
	return loc, nil
}

func (p *mockProvider) CurrentAQI(ctx context.Context, latitude, longitude float64) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.aqiCalls++
	if p.aqiErr != nil {
		return 0, p.aqiErr
	}
	return p.aqi[latitude], nil
}

func (p *mockProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.geoCalls + p.aqiCalls
}

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func newTestService(store Store, provider airquality.Provider) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, provider, 3, logger).WithClock(func() time.Time { return fixedNow })
}
