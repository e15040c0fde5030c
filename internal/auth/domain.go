package auth

import (
	"github.com/google/uuid"

	"github.com/airtrack/airtrack/internal/users"
)

// PublicUser is the outward view of an account. It never carries the hash.
type PublicUser struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
	Email    string    `json:"email"`
	CityName string    `json:"cityName"`
}

// PublicView builds the outward view of u.
func PublicView(u *users.User) PublicUser {
	return PublicUser{ID: u.ID, FullName: u.FullName, Email: u.Email, CityName: u.HomeCity}
}

// SignupInput carries the registration fields.
type SignupInput struct {
	FullName string
	Email    string
	Password string
	CityName string
}

// ProfileInput carries optional profile changes; empty strings mean "keep".
type ProfileInput struct {
	FullName string
	Password string
	CityName string
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}
