package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/airtrack/airtrack/internal/platform/db"
	"github.com/airtrack/airtrack/internal/shared"
)

const uniqueViolation = "23505"

// DBTX is the subset of *pgxpool.Pool used by the repository.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// PGRepository persists users and their saved cities in PostgreSQL. Every
// mutation is scoped to one user row so unrelated columns are never rewritten.
type PGRepository struct {
	db  DBTX
	now func() time.Time
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool DBTX) *PGRepository {
	return &PGRepository{db: pool, now: func() time.Time { return time.Now().UTC() }}
}

const userColumns = `id, full_name, email, password_hash, home_city, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.HomeCity, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByEmail fetches a user by email, ignoring case.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return nil, fmt.Errorf("users: find by email: %w", err)
	}
	if user.SavedCities, err = r.savedCities(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID fetches a user and its saved cities.
func (r *PGRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("users: find by id: %w", err)
	}
	if user.SavedCities, err = r.savedCities(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// Create inserts a new user. A duplicate email yields shared.ErrConflict.
func (r *PGRepository) Create(ctx context.Context, in NewUser) (*User, error) {
	now := r.now()
	user := &User{
		ID:           uuid.New(),
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		HomeCity:     in.HomeCity,
		SavedCities:  []SavedCity{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, full_name, email, password_hash, home_city, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.FullName, user.Email, user.PasswordHash, user.HomeCity, now, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("users: email already registered: %w", shared.ErrConflict)
		}
		return nil, fmt.Errorf("users: create: %w", err)
	}
	return user, nil
}

// AppendSavedCity adds city to the user's list. The user row is locked for
// the duration of the count and insert, so concurrent appends cannot push the
// list past limit. A non-positive limit disables the check.
func (r *PGRepository) AppendSavedCity(ctx context.Context, userID uuid.UUID, city SavedCity, limit int) (*User, error) {
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var locked uuid.UUID
		if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			return err
		}
		if limit > 0 {
			var count int
			if err := tx.QueryRow(ctx, `SELECT count(*) FROM saved_cities WHERE user_id = $1`, userID).Scan(&count); err != nil {
				return err
			}
			if count >= limit {
				return shared.ErrQuotaExceeded
			}
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO saved_cities (id, user_id, name, aqi, added_at) VALUES ($1, $2, $3, $4, $5)`,
			city.ID, userID, city.Name, city.AQI, city.AddedAt); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE users SET updated_at = $2 WHERE id = $1`, userID, r.now())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("users: append saved city: %w", err)
	}
	return r.FindByID(ctx, userID)
}

// ReplaceSavedCity sets name and AQI of one saved city and bumps the owner's
// updated_at in a single statement.
func (r *PGRepository) ReplaceSavedCity(ctx context.Context, userID, cityID uuid.UUID, name string, aqi int) (SavedCity, error) {
	var city SavedCity
	err := r.db.QueryRow(ctx, replaceSavedCitySQL, userID, cityID, name, aqi, r.now()).
		Scan(&city.ID, &city.Name, &city.AQI, &city.AddedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SavedCity{}, fmt.Errorf("users: replace saved city: %w", shared.ErrNotFound)
		}
		return SavedCity{}, fmt.Errorf("users: replace saved city: %w", err)
	}
	return city, nil
}

// RemoveSavedCity deletes one saved city of the user and bumps the owner's
// updated_at. The affected row count is that of the users update, so it is
// zero exactly when no saved city matched.
func (r *PGRepository) RemoveSavedCity(ctx context.Context, userID, cityID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, removeSavedCitySQL, userID, cityID, r.now())
	if err != nil {
		return fmt.Errorf("users: remove saved city: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("users: remove saved city: %w", shared.ErrNotFound)
	}
	return nil
}

const replaceSavedCitySQL = `WITH updated AS (
	UPDATE saved_cities SET name = $3, aqi = $4
	WHERE user_id = $1 AND id = $2
	RETURNING id, name, aqi, added_at
), touched AS (
	UPDATE users SET updated_at = $5
	WHERE id = $1 AND EXISTS (SELECT 1 FROM updated)
)
SELECT id, name, aqi, added_at FROM updated`

const removeSavedCitySQL = `WITH removed AS (
	DELETE FROM saved_cities WHERE user_id = $1 AND id = $2 RETURNING id
)
UPDATE users SET updated_at = $3
WHERE id = $1 AND EXISTS (SELECT 1 FROM removed)`

// UpdateProfile applies a partial profile update.
func (r *PGRepository) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*User, error) {
	user, err := scanUser(r.db.QueryRow(ctx,
		`UPDATE users SET
			full_name = COALESCE($2, full_name),
			home_city = COALESCE($3, home_city),
			password_hash = COALESCE($4, password_hash),
			updated_at = $5
		WHERE id = $1
		RETURNING `+userColumns,
		userID, update.FullName, update.HomeCity, update.PasswordHash, r.now()))
	if err != nil {
		return nil, fmt.Errorf("users: update profile: %w", err)
	}
	if user.SavedCities, err = r.savedCities(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// ListTrackedCities returns every saved city across all users, grouped by owner.
func (r *PGRepository) ListTrackedCities(ctx context.Context) ([]TrackedCity, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id, id, name, aqi, added_at FROM saved_cities ORDER BY user_id, added_at, id`)
	if err != nil {
		return nil, fmt.Errorf("users: list tracked cities: %w", err)
	}
	defer rows.Close()
	var out []TrackedCity
	for rows.Next() {
		var tc TrackedCity
		if err := rows.Scan(&tc.UserID, &tc.City.ID, &tc.City.Name, &tc.City.AQI, &tc.City.AddedAt); err != nil {
			return nil, fmt.Errorf("users: scan tracked city: %w", err)
		}
		out = append(out, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("users: list tracked cities: %w", err)
	}
	return out, nil
}

func (r *PGRepository) savedCities(ctx context.Context, userID uuid.UUID) ([]SavedCity, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, aqi, added_at FROM saved_cities WHERE user_id = $1 ORDER BY added_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("users: list saved cities: %w", err)
	}
	defer rows.Close()
	cities := []SavedCity{}
	for rows.Next() {
		var c SavedCity
		if err := rows.Scan(&c.ID, &c.Name, &c.AQI, &c.AddedAt); err != nil {
			return nil, fmt.Errorf("users: scan saved city: %w", err)
		}
		cities = append(cities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("users: list saved cities: %w", err)
	}
	return cities, nil
}
