package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/snow-globe/internal/world"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "globe.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSeedAndLoadStyles(t *testing.T) {
	db := openTestDB(t)
	defaults := world.DefaultStyles()

	n, err := db.SeedStyles(defaults)
	require.NoError(t, err)
	assert.Equal(t, len(defaults), n)

	loaded, err := db.LoadStyles()
	require.NoError(t, err)
	if diff := cmp.Diff(defaults, loaded); diff != "" {
		t.Errorf("catalog round trip mismatch (-want +got):\n%s", diff)
	}

	// A second seed leaves the catalog alone.
	n, err = db.SeedStyles(map[string]world.StyleProfile{"Nowhere": world.DefaultStyle()})
	require.NoError(t, err)
	assert.Zero(t, n)
	loaded, err = db.LoadStyles()
	require.NoError(t, err)
	assert.NotContains(t, loaded, "Nowhere")
}

func TestSaveStyleUpserts(t *testing.T) {
	db := openTestDB(t)

	p := world.DefaultStyles()["Venice"]
	require.NoError(t, db.SaveStyle(p))

	p.HeightScale = 0.9
	p.Layout = world.LayoutWalled
	require.NoError(t, db.SaveStyle(p))

	loaded, err := db.LoadStyles()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 0.9, loaded["Venice"].HeightScale)
	assert.Equal(t, world.LayoutWalled, loaded["Venice"].Layout)
	require.NotNil(t, loaded["Venice"].Ground)
	assert.Equal(t, *p.Ground, *loaded["Venice"].Ground)
}

func TestGenerationLog(t *testing.T) {
	db := openTestDB(t)
	run := uuid.New()
	scene := world.GenerateCity(world.DefaultStyleTable(), "London", world.SmallTestConfig())
	at := time.UnixMilli(time.Now().UnixMilli())

	first := Generation{
		RunID:       run,
		City:        "London",
		KnownStyle:  true,
		Fingerprint: scene.Fingerprint(),
		Counts:      scene.Counts(),
		Took:        1500 * time.Microsecond,
		At:          at,
	}
	second := Generation{
		RunID:       run,
		City:        "Atlantis",
		Fingerprint: ^uint64(0),
		At:          at.Add(time.Second),
	}
	require.NoError(t, db.RecordGeneration(first))
	require.NoError(t, db.RecordGeneration(second))

	got, err := db.RecentGenerations(10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Atlantis", got[0].City)
	assert.Equal(t, ^uint64(0), got[0].Fingerprint)
	assert.False(t, got[0].KnownStyle)

	assert.Equal(t, run, got[1].RunID)
	assert.Equal(t, first.Counts, got[1].Counts)
	assert.Equal(t, first.Took, got[1].Took)
	assert.True(t, first.At.Equal(got[1].At))

	limited, err := db.RecentGenerations(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMigrationsApplyOnceAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "globe.db")
	db, err := Open(path)
	require.NoError(t, err)

	version, dirty, err := db.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	require.NoError(t, db.SaveStyle(world.DefaultStyle()))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	loaded, err := db.LoadStyles()
	require.NoError(t, err)
	assert.Contains(t, loaded, "default")
}
