package users

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airtrack/airtrack/internal/shared"
)

type valuesRow struct {
	values []any
	err    error
}

func (r valuesRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return errors.New("scan: column count mismatch")
	}
	for i, v := range r.values {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

type sliceRows struct {
	pgx.Rows
	rows []valuesRow
	pos  int
}

func (r *sliceRows) Next() bool {
	r.pos++
	return r.pos <= len(r.rows)
}

func (r *sliceRows) Scan(dest ...any) error { return r.rows[r.pos-1].Scan(dest...) }
func (r *sliceRows) Err() error             { return nil }
func (r *sliceRows) Close()                 {}

type call struct {
	sql  string
	args []any
}

// scriptedTx answers QueryRow from a queue and records every Exec.
type scriptedTx struct {
	pgx.Tx
	rows      []pgx.Row
	execs     []call
	execErr   error
	committed bool
}

func (t *scriptedTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if len(t.rows) == 0 {
		return errRow{err: errors.New("unexpected query row")}
	}
	row := t.rows[0]
	t.rows = t.rows[1:]
	return row
}

func (t *scriptedTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, call{sql: sql, args: args})
	return pgconn.NewCommandTag("UPDATE 1"), t.execErr
}

func (t *scriptedTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *scriptedTx) Rollback(ctx context.Context) error { return nil }

// scriptedDB hands out tx on BeginTx and answers reads from queues.
type scriptedDB struct {
	tx      *scriptedTx
	rows    []pgx.Row
	queries []call
	list    []valuesRow
	tag     pgconn.CommandTag
	execs   []call
}

func (d *scriptedDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.execs = append(d.execs, call{sql: sql, args: args})
	return d.tag, nil
}

func (d *scriptedDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	d.queries = append(d.queries, call{sql: sql, args: args})
	return &sliceRows{rows: d.list}, nil
}

func (d *scriptedDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	d.queries = append(d.queries, call{sql: sql, args: args})
	if len(d.rows) == 0 {
		return errRow{err: errors.New("unexpected query row")}
	}
	row := d.rows[0]
	d.rows = d.rows[1:]
	return row
}

func (d *scriptedDB) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	if d.tx == nil {
		return nil, errors.New("unexpected begin")
	}
	return d.tx, nil
}

var clock = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newScriptedRepo(db *scriptedDB) *PGRepository {
	repo := NewRepository(db)
	repo.now = func() time.Time { return clock }
	return repo
}

func userRow(id uuid.UUID) valuesRow {
	return valuesRow{values: []any{id, "Ana", "ana@x.io", "hash", "Lisbon", clock, clock}}
}

func cityRow(name string, aqi int, addedAt time.Time) valuesRow {
	return valuesRow{values: []any{uuid.New(), name, aqi, addedAt}}
}

func TestAppendSavedCityUnknownUser(t *testing.T) {
	tx := &scriptedTx{rows: []pgx.Row{valuesRow{err: pgx.ErrNoRows}}}
	repo := newScriptedRepo(&scriptedDB{tx: tx})

	_, err := repo.AppendSavedCity(context.Background(), uuid.New(), SavedCity{ID: uuid.New(), Name: "Oslo"}, 3)
	require.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, tx.execs)
	assert.False(t, tx.committed)
}

func TestAppendSavedCityAtQuota(t *testing.T) {
	userID := uuid.New()
	tx := &scriptedTx{rows: []pgx.Row{
		valuesRow{values: []any{userID}},
		valuesRow{values: []any{3}},
	}}
	repo := newScriptedRepo(&scriptedDB{tx: tx})

	_, err := repo.AppendSavedCity(context.Background(), userID, SavedCity{ID: uuid.New(), Name: "Oslo"}, 3)
	require.ErrorIs(t, err, shared.ErrQuotaExceeded)
	assert.Empty(t, tx.execs)
	assert.False(t, tx.committed)
}

func TestAppendSavedCityInsertsAndReloads(t *testing.T) {
	userID := uuid.New()
	tx := &scriptedTx{rows: []pgx.Row{
		valuesRow{values: []any{userID}},
		valuesRow{values: []any{1}},
	}}
	db := &scriptedDB{
		tx:   tx,
		rows: []pgx.Row{userRow(userID)},
		list: []valuesRow{
			cityRow("Paris", 42, clock.Add(-time.Hour)),
			cityRow("Oslo", 5, clock),
		},
	}
	repo := newScriptedRepo(db)
	city := SavedCity{ID: uuid.New(), Name: "Oslo", AQI: 5, AddedAt: clock}

	user, err := repo.AppendSavedCity(context.Background(), userID, city, 3)
	require.NoError(t, err)
	assert.True(t, tx.committed)
	require.Len(t, tx.execs, 2)
	assert.Contains(t, tx.execs[0].sql, "INSERT INTO saved_cities")
	assert.Equal(t, []any{city.ID, userID, "Oslo", 5, clock}, tx.execs[0].args)
	assert.Contains(t, tx.execs[1].sql, "UPDATE users SET updated_at")

	require.Len(t, user.SavedCities, 2)
	assert.Equal(t, "Paris", user.SavedCities[0].Name)
	assert.Equal(t, "Oslo", user.SavedCities[1].Name)
	require.Len(t, db.queries, 2)
	assert.Contains(t, db.queries[1].sql, "ORDER BY added_at, id")
}

func TestAppendSavedCityWithoutLimitSkipsCount(t *testing.T) {
	userID := uuid.New()
	tx := &scriptedTx{rows: []pgx.Row{valuesRow{values: []any{userID}}}}
	repo := newScriptedRepo(&scriptedDB{tx: tx, rows: []pgx.Row{userRow(userID)}})

	_, err := repo.AppendSavedCity(context.Background(), userID, SavedCity{ID: uuid.New(), Name: "Oslo"}, 0)
	require.NoError(t, err)
	assert.True(t, tx.committed)
	assert.Len(t, tx.execs, 2)
}

func TestAppendSavedCityInsertFailureRollsBack(t *testing.T) {
	userID := uuid.New()
	tx := &scriptedTx{
		rows:    []pgx.Row{valuesRow{values: []any{userID}}, valuesRow{values: []any{0}}},
		execErr: errors.New("connection reset"),
	}
	repo := newScriptedRepo(&scriptedDB{tx: tx})

	_, err := repo.AppendSavedCity(context.Background(), userID, SavedCity{ID: uuid.New(), Name: "Oslo"}, 3)
	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrQuotaExceeded)
	assert.False(t, tx.committed)
}

func TestFindByIDUnknownUser(t *testing.T) {
	repo := newScriptedRepo(&scriptedDB{rows: []pgx.Row{valuesRow{err: pgx.ErrNoRows}}})

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestReplaceSavedCity(t *testing.T) {
	userID, cityID := uuid.New(), uuid.New()
	db := &scriptedDB{rows: []pgx.Row{valuesRow{values: []any{cityID, "Paris", 50, clock.Add(-time.Hour)}}}}
	repo := newScriptedRepo(db)

	city, err := repo.ReplaceSavedCity(context.Background(), userID, cityID, "Paris", 50)
	require.NoError(t, err)
	assert.Equal(t, SavedCity{ID: cityID, Name: "Paris", AQI: 50, AddedAt: clock.Add(-time.Hour)}, city)

	require.Len(t, db.queries, 1)
	assert.Contains(t, db.queries[0].sql, "UPDATE users SET updated_at")
	assert.Equal(t, []any{userID, cityID, "Paris", 50, clock}, db.queries[0].args)
}

func TestReplaceSavedCityMissingRowIsNotFound(t *testing.T) {
	repo := newScriptedRepo(&scriptedDB{rows: []pgx.Row{valuesRow{err: pgx.ErrNoRows}}})

	_, err := repo.ReplaceSavedCity(context.Background(), uuid.New(), uuid.New(), "Paris", 50)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRemoveSavedCityTouchesOwner(t *testing.T) {
	userID, cityID := uuid.New(), uuid.New()
	db := &scriptedDB{tag: pgconn.NewCommandTag("UPDATE 1")}
	repo := newScriptedRepo(db)

	require.NoError(t, repo.RemoveSavedCity(context.Background(), userID, cityID))
	require.Len(t, db.execs, 1)
	assert.Contains(t, db.execs[0].sql, "DELETE FROM saved_cities")
	assert.Contains(t, db.execs[0].sql, "UPDATE users SET updated_at")
	assert.Equal(t, []any{userID, cityID, clock}, db.execs[0].args)
}
