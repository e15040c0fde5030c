package users

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airtrack/airtrack/internal/shared"
)

// execOnlyDB answers Exec and fails everything else.
type execOnlyDB struct {
	tag   pgconn.CommandTag
	err   error
	calls int
}

func (d *execOnlyDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.calls++
	return d.tag, d.err
}

func (d *execOnlyDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected query")
}

func (d *execOnlyDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return errRow{err: errors.New("unexpected query row")}
}

func (d *execOnlyDB) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	return nil, errors.New("unexpected begin")
}

type errRow struct{ err error }

func (r errRow) Scan(dest ...any) error { return r.err }

func TestCreateMapsUniqueViolationToConflict(t *testing.T) {
	db := &execOnlyDB{err: &pgconn.PgError{Code: "23505", ConstraintName: "users_email_lower_key"}}
	repo := NewRepository(db)

	_, err := repo.Create(context.Background(), NewUser{FullName: "Ana", Email: "a@b.com", PasswordHash: "x"})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestCreateReturnsUserWithEmptyCityList(t *testing.T) {
	db := &execOnlyDB{tag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := NewRepository(db)

	user, err := repo.Create(context.Background(), NewUser{FullName: "Ana", Email: "a@b.com", PasswordHash: "x", HomeCity: "Lisbon"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "Lisbon", user.HomeCity)
	assert.NotNil(t, user.SavedCities)
	assert.Empty(t, user.SavedCities)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestCreateInfrastructureErrorIsNotTaxonomy(t *testing.T) {
	db := &execOnlyDB{err: errors.New("connection reset")}
	repo := NewRepository(db)

	_, err := repo.Create(context.Background(), NewUser{Email: "a@b.com"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrConflict)
	assert.NotErrorIs(t, err, shared.ErrNotFound)
}

func TestRemoveSavedCityMissingRowIsNotFound(t *testing.T) {
	db := &execOnlyDB{tag: pgconn.NewCommandTag("DELETE 0")}
	repo := NewRepository(db)

	err := repo.RemoveSavedCity(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRemoveSavedCity(t *testing.T) {
	db := &execOnlyDB{tag: pgconn.NewCommandTag("DELETE 1")}
	repo := NewRepository(db)

	require.NoError(t, repo.RemoveSavedCity(context.Background(), uuid.New(), uuid.New()))
	assert.Equal(t, 1, db.calls)
}

func TestProfileUpdateEmpty(t *testing.T) {
	assert.True(t, ProfileUpdate{}.Empty())
	name := "Ana"
	assert.False(t, ProfileUpdate{FullName: &name}.Empty())
}
