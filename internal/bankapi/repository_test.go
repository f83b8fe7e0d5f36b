package bankapi

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankdash/bankdash/internal/bank"
	"github.com/bankdash/bankdash/internal/bankapi/migrations"
	"github.com/bankdash/bankdash/internal/platform/db"
	"github.com/bankdash/bankdash/internal/shared"
)

func newSQLiteRepository(t *testing.T) Repository {
	t.Helper()
	ctx := context.Background()
	sqlDB, err := db.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.MigrateSQLite(migrations.SQLite(), sqlDB))
	return NewSQLiteRepository(sqlDB)
}

func newPostgresRepository(t *testing.T) Repository {
	t.Helper()
	dsn := os.Getenv("BANKDASH_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("BANKDASH_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	require.NoError(t, db.MigratePostgres(migrations.Postgres(), dsn))
	pool, err := db.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	_, err = pool.Exec(ctx, `TRUNCATE banks RESTART IDENTITY`)
	require.NoError(t, err)
	return NewPostgresRepository(pool)
}

var stamp = time.Date(2024, 2, 3, 4, 5, 6, 789000000, time.UTC)

func sampleBank(name string) bank.Bank {
	return bank.Bank{
		Name:      name,
		Year:      time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC),
		Address:   "1 Infinite Loop, Cupertino CA",
		ATMs:      4,
		Branches:  2,
		Employees: 30,
		CreatedAt: stamp,
		UpdatedAt: stamp,
	}
}

func TestSQLiteRepository(t *testing.T) {
	runRepositoryContract(t, newSQLiteRepository(t))
}

func TestPostgresRepository(t *testing.T) {
	runRepositoryContract(t, newPostgresRepository(t))
}

func runRepositoryContract(t *testing.T, repo Repository) {
	ctx := context.Background()

	banks, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, banks)

	first, err := repo.Create(ctx, sampleBank("Twin"))
	require.NoError(t, err)
	assert.Positive(t, first.ID)
	second, err := repo.Create(ctx, sampleBank("Twin"))
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Twin", got.Name)
	assert.True(t, stamp.Equal(got.CreatedAt))
	assert.True(t, sampleBank("").Year.Equal(got.Year))

	byName, err := repo.GetByName(ctx, "Twin")
	require.NoError(t, err)
	assert.Equal(t, first.ID, byName.ID, "name lookups resolve the lowest id")

	_, err = repo.Get(ctx, 9999)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = repo.GetByName(ctx, "Nobody")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	later := stamp.Add(time.Hour)
	updated, err := repo.Update(ctx, first.ID, func(b bank.Bank) (bank.Bank, error) {
		b.Name = "Renamed"
		b.ID = 12345
		b.CreatedAt = time.Time{}
		b.UpdatedAt = later
		return b, nil
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, updated.ID)
	got, err = repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.True(t, stamp.Equal(got.CreatedAt), "created timestamp is immutable")
	assert.True(t, later.Equal(got.UpdatedAt))

	boom := errors.New("abort")
	_, err = repo.Update(ctx, first.ID, func(b bank.Bank) (bank.Bank, error) {
		b.Name = "Never"
		return b, boom
	})
	assert.ErrorIs(t, err, boom)
	got, err = repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	_, err = repo.Update(ctx, 9999, func(b bank.Bank) (bank.Bank, error) { return b, nil })
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, second.ID))
	assert.ErrorIs(t, repo.Delete(ctx, second.ID), shared.ErrNotFound)

	banks, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, banks, 1)
	assert.Equal(t, first.ID, banks[0].ID)
}
