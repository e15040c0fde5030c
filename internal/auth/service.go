package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/airtrack/airtrack/internal/shared"
	"github.com/airtrack/airtrack/internal/users"
)

const (
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 8
	// MaxPasswordBytes is the bcrypt input limit, counted in bytes.
	MaxPasswordBytes = 72
)

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*users.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*users.User, error)
	Create(ctx context.Context, in users.NewUser) (*users.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update users.ProfileUpdate) (*users.User, error)
}

// Service wraps authentication business rules.
type Service struct {
	repo      Repository
	tokens    *TokenManager
	cost      int
	dummyHash []byte
	logger    *slog.Logger
}

// NewService constructs a new Service. cost is the bcrypt work factor.
func NewService(repo Repository, tokens *TokenManager, cost int, logger *slog.Logger) *Service {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	// Compared against when the email is unknown so both failure paths do a hash check.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("airtrack-placeholder"), cost)
	return &Service{repo: repo, tokens: tokens, cost: cost, dummyHash: dummy, logger: logger}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(email))
}

// Signup registers a new account.
func (s *Service) Signup(ctx context.Context, in SignupInput) (PublicUser, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := NormalizeEmail(in.Email)
	if fullName == "" || email == "" {
		return PublicUser{}, fmt.Errorf("%w: full name and email are required", shared.ErrInvalidInput)
	}
	if err := checkPassword(in.Password); err != nil {
		return PublicUser{}, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return PublicUser{}, err
	}
	user, err := s.repo.Create(ctx, users.NewUser{
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		HomeCity:     strings.TrimSpace(in.CityName),
	})
	if err != nil {
		return PublicUser{}, err
	}
	return PublicView(user), nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password both return ErrUnauthorized; the reason is only logged.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = NormalizeEmail(email)
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return LoginResult{}, err
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		s.logger.InfoContext(ctx, "login rejected", slog.String("reason", "no such user"))
		return LoginResult{}, fmt.Errorf("%w: invalid email or password", shared.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.InfoContext(ctx, "login rejected", slog.String("reason", "password mismatch"), slog.String("user_id", user.ID.String()))
		return LoginResult{}, fmt.Errorf("%w: invalid email or password", shared.ErrUnauthorized)
	}
	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, User: PublicView(user)}, nil
}

// Me returns the public view of the authenticated user.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (PublicUser, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return PublicUser{}, err
	}
	return PublicView(user), nil
}

// UpdateProfile applies the non-empty fields of in.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (PublicUser, error) {
	var update users.ProfileUpdate
	if name := strings.TrimSpace(in.FullName); name != "" {
		update.FullName = &name
	}
	if city := strings.TrimSpace(in.CityName); city != "" {
		update.HomeCity = &city
	}
	if strings.TrimSpace(in.Password) != "" {
		if err := checkPassword(in.Password); err != nil {
			return PublicUser{}, err
		}
		hash, err := s.hash(in.Password)
		if err != nil {
			return PublicUser{}, err
		}
		update.PasswordHash = &hash
	}
	if update.Empty() {
		return s.Me(ctx, userID)
	}
	user, err := s.repo.UpdateProfile(ctx, userID, update)
	if err != nil {
		return PublicUser{}, err
	}
	return PublicView(user), nil
}

// VerifyToken resolves a bearer token to the caller identity.
func (s *Service) VerifyToken(token string) (shared.Identity, error) {
	return s.tokens.Verify(token)
}

func checkPassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: Password must be at least %d characters", shared.ErrInvalidInput, MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("%w: Password must be at most %d bytes", shared.ErrInvalidInput, MaxPasswordBytes)
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}
