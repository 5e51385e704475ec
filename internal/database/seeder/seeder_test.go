package seeder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cv-hub/internal/database"
	"cv-hub/internal/database/migration"
	"cv-hub/internal/database/sqlite"
	"cv-hub/internal/domain/cv"
	"cv-hub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func openDB(t *testing.T, migrate bool) database.DB {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	if migrate {
		require.NoError(t, migration.Runner{}.Run(ctx, db))
	}
	return db
}

func TestDefaults_SeedOnceThenSkip(t *testing.T) {
	ctx := context.Background()
	db := openDB(t, true)

	r := Runner{Seeders: Defaults("", nil, nil)}
	require.NoError(t, r.Run(ctx, db))
	require.NoError(t, r.Run(ctx, db))

	rec, err := repository.NewCVRepository(db).GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", gjson.GetBytes(rec.Data, "basics.name").String())
	assert.True(t, gjson.GetBytes(rec.Data, "projects.1.isPrivate").Bool())

	n, err := repository.NewCVVersionRepository(db).Count(ctx, rec.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "second run does not reseed")

	c, err := repository.NewSystemConfigRepository(db).FindByKey(ctx, "app.version")
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", c.Value)
}

func TestCVSeeder_ForceFromJSONFile(t *testing.T) {
	ctx := context.Background()
	db := openDB(t, true)
	require.NoError(t, CVSeeder{}.Run(ctx, db))

	path := filepath.Join(t.TempDir(), "cv.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"basics":{"name":"Ada Lovelace"}}`), 0o600))

	require.NoError(t, CVSeeder{File: path, Force: true}.Run(ctx, db))

	rec, err := repository.NewCVRepository(db).GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", gjson.GetBytes(rec.Data, "basics.name").String())

	page, err := repository.NewCVVersionRepository(db).List(ctx, rec.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, cv.SourceSeed, page[0].Source)
}

func TestCVSeeder_RequiresMigrations(t *testing.T) {
	err := CVSeeder{}.Run(context.Background(), openDB(t, false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema mismatch")
}

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte("basics:\n  name: Grace\nskills:\n  - name: COBOL\n    keywords: [compilers]\n"), ".yml")
	require.NoError(t, err)
	assert.Equal(t, "Grace", doc.Basics.Name)
	assert.Equal(t, []string{"compilers"}, doc.Skills[0].Keywords)

	_, err = ParseDocument([]byte("- just\n- a list\n"), ".yaml")
	assert.True(t, errors.Is(err, cv.ErrInvalidCV))

	_, err = ParseDocument([]byte(`{"basics":{}}`), ".json")
	assert.True(t, errors.Is(err, cv.ErrInvalidCV))

	_, err = ParseDocument(defaultCV, ".yaml")
	assert.NoError(t, err)
}
