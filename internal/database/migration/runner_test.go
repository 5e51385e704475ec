package migration

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"cv-hub/internal/database"
	"cv-hub/internal/database/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) database.DB {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableColumns(t *testing.T, db database.DB, table string) map[string]bool {
	t.Helper()
	rows, err := db.Query(context.Background(), `SELECT name FROM pragma_table_info(?)`, table)
	require.NoError(t, err)
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		out[name] = true
	}
	require.NoError(t, rows.Err())
	return out
}

func TestRun_EmbeddedSQLite(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, Runner{}.Run(ctx, db))
	require.NoError(t, Runner{}.Run(ctx, db), "second run must be a no-op")

	var n int
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 3, n)

	cols := tableColumns(t, db, "cv_versions")
	for _, c := range []string{"id", "cv_id", "data", "status", "source", "file_hash", "created_at"} {
		assert.True(t, cols[c], "cv_versions.%s", c)
	}
	cols = tableColumns(t, db, "cv")
	for _, c := range []string{"id", "data", "updated_at"} {
		assert.True(t, cols[c], "cv.%s", c)
	}
	cols = tableColumns(t, db, "system_config")
	for _, c := range []string{"id", "key", "value", "updated_at"} {
		assert.True(t, cols[c], "system_config.%s", c)
	}
}

func TestRun_ForeignKeyEnforced(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, Runner{}.Run(ctx, db))

	_, err := db.Exec(ctx,
		`INSERT INTO cv_versions (cv_id, data, status, source, created_at) VALUES (?, ?, ?, ?, ?)`,
		999, `{}`, "archived", "api-update", "2025-11-08T10:00:00.000000Z",
	)
	assert.Error(t, err)
}

func TestRun_ChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	v1 := fstest.MapFS{"V1__kv.sql": {Data: []byte(`CREATE TABLE kv (k TEXT)`)}}
	require.NoError(t, Runner{FS: v1}.Run(ctx, db))

	changed := fstest.MapFS{"V1__kv.sql": {Data: []byte(`CREATE TABLE kv (k TEXT, v TEXT)`)}}
	err := Runner{FS: changed}.Run(ctx, db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
}

func TestLoadMigrations_OrderingAndValidation(t *testing.T) {
	src := fstest.MapFS{
		"V10__later.sql":  {Data: []byte("SELECT 10")},
		"V2__earlier.sql": {Data: []byte("SELECT 2")},
		"README.md":       {Data: []byte("ignored")},
	}
	migs, err := loadMigrations(src)
	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, int64(2), migs[0].Version)
	assert.Equal(t, int64(10), migs[1].Version)

	_, err = loadMigrations(fstest.MapFS{"V1__empty.sql": {Data: []byte("  ")}})
	assert.Error(t, err)

	_, err = loadMigrations(fstest.MapFS{
		"V1__a.sql":  {Data: []byte("SELECT 1")},
		"V01__b.sql": {Data: []byte("SELECT 1")},
	})
	assert.Error(t, err)
}

func TestRun_FailedMigrationRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	bad := fstest.MapFS{"V1__broken.sql": {Data: []byte(`CREATE TABLE ok (id INTEGER); NOT SQL`)}}
	require.Error(t, Runner{FS: bad}.Run(ctx, db))

	var n int
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 0, n)
}
