package users

import (
	"time"

	"github.com/google/uuid"
)

// User is an account together with its saved cities in display order.
type User struct {
	ID           uuid.UUID
	FullName     string
	Email        string
	PasswordHash string
	HomeCity     string
	SavedCities  []SavedCity
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SavedCity is a tracked location owned by exactly one user. Name and AQI are
// always written together from the same provider round-trip.
type SavedCity struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	AQI     int       `json:"aqi"`
	AddedAt time.Time `json:"addedAt"`
}

// NewUser carries the fields needed to register an account. Email must already
// be normalised to lower case.
type NewUser struct {
	FullName     string
	Email        string
	PasswordHash string
	HomeCity     string
}

// ProfileUpdate is a partial update; nil fields are left untouched.
type ProfileUpdate struct {
	FullName     *string
	HomeCity     *string
	PasswordHash *string
}

// Empty reports whether the update changes nothing.
func (p ProfileUpdate) Empty() bool {
	return p.FullName == nil && p.HomeCity == nil && p.PasswordHash == nil
}

// TrackedCity is a saved city addressed by its owner.
type TrackedCity struct {
	UserID uuid.UUID
	City   SavedCity
}
