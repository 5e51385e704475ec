package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cv-hub/internal/database"
	"cv-hub/internal/database/migration"
	"cv-hub/internal/database/sqlite"
	"cv-hub/internal/domain/cv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMigrated(t *testing.T) database.DB {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migration.Runner{}.Run(ctx, db))
	return db
}

func TestCVRepository_CreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewCVRepository(openMigrated(t))

	_, err := repo.GetActive(ctx)
	assert.True(t, errors.Is(err, cv.ErrNotFound))

	now := time.Date(2025, 11, 8, 10, 0, 0, 0, time.UTC)
	rec, err := repo.Create(ctx, []byte(`{"basics":{"name":"Ada"}}`), now)
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)

	require.NoError(t, repo.UpdateData(ctx, rec.ID, []byte(`{"basics":{"name":"Grace"}}`), now.Add(time.Minute)))

	got, err := repo.GetActive(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"basics":{"name":"Grace"}}`, string(got.Data))
	assert.True(t, got.UpdatedAt.Equal(now.Add(time.Minute)))

	err = repo.UpdateData(ctx, rec.ID+100, []byte(`{}`), now)
	assert.True(t, errors.Is(err, cv.ErrNotFound))
}

func TestCVVersionRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := openMigrated(t)
	cvs := NewCVRepository(db)
	versions := NewCVVersionRepository(db)

	base := time.Date(2025, 11, 8, 10, 0, 0, 0, time.UTC)
	rec, err := cvs.Create(ctx, []byte(`{"basics":{"name":"Ada"}}`), base)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := versions.Create(ctx, NewVersion{
			CVID:   rec.ID,
			Data:   []byte(`{"basics":{"name":"Ada"}}`),
			Source: cv.SourceAPIUpdate,
		}, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}
	// same timestamp as the newest; id breaks the tie
	tie, err := versions.Create(ctx, NewVersion{CVID: rec.ID, Data: []byte(`{}`)}, base.Add(2*time.Second))
	require.NoError(t, err)

	n, err := versions.Count(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	page, err := versions.List(ctx, rec.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, tie.ID, page[0].ID)
	assert.Equal(t, cv.StatusArchived, page[0].Status)
	assert.Empty(t, page[0].Source)
	assert.Equal(t, cv.SourceAPIUpdate, page[1].Source)

	rest, err := versions.List(ctx, rec.ID, 10, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 2)
	assert.True(t, rest[0].CreatedAt.After(rest[1].CreatedAt))

	got, err := versions.FindByID(ctx, page[1].ID)
	require.NoError(t, err)
	assert.Equal(t, page[1].CreatedAt, got.CreatedAt)

	_, err = versions.FindByID(ctx, 9999)
	assert.True(t, errors.Is(err, cv.ErrVersionNotFound))
}

func TestSystemConfigRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewSystemConfigRepository(openMigrated(t))
	now := time.Now()

	_, err := repo.FindByKey(ctx, "app.version")
	assert.True(t, errors.Is(err, ErrConfigNotFound))

	_, err = repo.Create(ctx, "app.version", "0.1.0", now)
	require.NoError(t, err)

	_, err = repo.Create(ctx, "app.version", "0.2.0", now)
	assert.ErrorIs(t, err, ErrConfigExists, "unique key violation is mapped")

	c, err := repo.Update(ctx, "app.version", "0.2.0", now)
	require.NoError(t, err)
	assert.Equal(t, "0.2.0", c.Value)

	_, err = repo.Update(ctx, "missing", "x", now)
	assert.True(t, errors.Is(err, ErrConfigNotFound))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	ok, err := repo.Delete(ctx, "app.version")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(ctx, "app.version")
	require.NoError(t, err)
	assert.False(t, ok)
}
