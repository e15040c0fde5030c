package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/airtrack/airtrack/internal/shared"
	"github.com/airtrack/airtrack/internal/users"
)

type mockRepository struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*users.User
	findErr error
	updates []users.ProfileUpdate
}

func newMockRepository() *mockRepository {
	return &mockRepository{byID: make(map[uuid.UUID]*users.User)}
}

func (m *mockRepository) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepository) FindByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("find %s: %w", id, shared.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *mockRepository) Create(ctx context.Context, in users.NewUser) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, in.Email) {
			return nil, fmt.Errorf("create: %w", shared.ErrConflict)
		}
	}
	now := time.Now().UTC()
	u := &users.User{
		ID:           uuid.New(),
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		HomeCity:     in.HomeCity,
		SavedCities:  []users.SavedCity{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.byID[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *mockRepository) UpdateProfile(ctx context.Context, id uuid.UUID, update users.ProfileUpdate) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, update)
	u, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if update.FullName != nil {
		u.FullName = *update.FullName
	}
	if update.HomeCity != nil {
		u.HomeCity = *update.HomeCity
	}
	if update.PasswordHash != nil {
		u.PasswordHash = *update.PasswordHash
	}
	cp := *u
	return &cp, nil
}
