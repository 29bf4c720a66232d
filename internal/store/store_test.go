// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/lsystem-engine/internal/lsystem"
	"github.com/pdiddy/lsystem-engine/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.StoreConfig{Dir: t.TempDir(), MaxResults: 20})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleGeometry() *types.Geometry {
	return &types.Geometry{
		Branches: []types.Branch{
			{Start: types.Vec3{}, StartRadius: 0.5, End: types.Vec3{Y: 1}, EndRadius: 0.45},
			{Start: types.Vec3{Y: 1}, StartRadius: 0.45, End: types.Vec3{X: -0.5, Y: 1.7}, EndRadius: 0.4},
		},
		Leaves: []types.Leaf{
			{
				Anchor:  types.Vec3{X: -0.5, Y: 1.7, Z: 0.1},
				Forward: types.Vec3{Y: 1},
				Left:    types.Vec3{Z: 1},
				Size:    types.Size2{Width: 0.3, Length: 0.6},
			},
		},
	}
}

func saveRun(t *testing.T, s *Store, plant string) int64 {
	t.Helper()
	id, err := s.Save(context.Background(), RunRecord{Plant: plant, MaxDepth: 3}, sampleGeometry())
	require.NoError(t, err)
	return id
}

// --- tests ---

func TestNewStoreCreatesSchema(t *testing.T) {
	s := testStore(t)

	for _, table := range []string{"runs", "branches", "leaves"} {
		var count int
		err := s.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s", table)
	}
}

func TestNewStoreReopens(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(types.StoreConfig{Dir: dir})
	require.NoError(t, err)
	id := saveRun(t, s, "fern")
	require.NoError(t, s.Close())

	s2, err := NewStore(types.StoreConfig{Dir: dir})
	require.NoError(t, err)
	defer s2.Close()

	rec, _, err := s2.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "fern", rec.Plant)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	diag := lsystem.Diagnostics{Commands: 12, UnmatchedPops: 1, DeepestLevel: 3}
	cfg := types.GenerationConfig{
		Radius:          0.1,
		Distance:        1,
		LeafSize:        0.2,
		AngleWorldY:     math.Pi / 6,
		AngleTurtleLeft: math.Pi / 9,
		BrushDecayCoef:  0.8,
		MaxDepth:        3,
	}

	g := sampleGeometry()
	id, err := s.Save(ctx, RunRecord{Plant: "fern", MaxDepth: 3, Config: cfg, Diagnostics: diag, CreatedAt: created}, g)
	require.NoError(t, err)
	assert.Positive(t, id)

	rec, got, err := s.Load(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "fern", rec.Plant)
	assert.Equal(t, uint(3), rec.MaxDepth)
	assert.Equal(t, 2, rec.Branches)
	assert.Equal(t, 1, rec.Leaves)
	assert.Equal(t, cfg, rec.Config)
	assert.Equal(t, diag, rec.Diagnostics)
	assert.True(t, created.Equal(rec.CreatedAt))
	assert.Equal(t, g, got)
}

func TestNewStoreAddsConfigColumn(t *testing.T) {
	dir := t.TempDir()
	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile))
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		plant TEXT NOT NULL,
		max_depth INTEGER NOT NULL,
		branch_count INTEGER NOT NULL,
		leaf_count INTEGER NOT NULL,
		diagnostics TEXT,
		created_at TEXT NOT NULL
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO runs (plant, max_depth, branch_count, leaf_count, diagnostics, created_at)
		VALUES ('old', 2, 0, 0, '{}', '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := NewStore(types.StoreConfig{Dir: dir})
	require.NoError(t, err)
	defer s.Close()

	rec, _, err := s.Load(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "old", rec.Plant)
	assert.Equal(t, types.GenerationConfig{}, rec.Config)

	id, err := s.Save(context.Background(), RunRecord{Plant: "new", Config: types.GenerationConfig{Radius: 0.5}}, &types.Geometry{})
	require.NoError(t, err)
	rec, _, err = s.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 0.5, rec.Config.Radius)
}

func TestSaveEmptyGeometry(t *testing.T) {
	s := testStore(t)
	id, err := s.Save(context.Background(), RunRecord{Plant: "bare"}, &types.Geometry{})
	require.NoError(t, err)

	rec, g, err := s.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Zero(t, rec.Branches)
	assert.Empty(t, g.Branches)
	assert.Empty(t, g.Leaves)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestLoadUnknownRun(t *testing.T) {
	s := testStore(t)
	_, _, err := s.Load(context.Background(), 42)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	first := saveRun(t, s, "fern")
	saveRun(t, s, "willow")
	last := saveRun(t, s, "fern")

	tests := []struct {
		name    string
		opts    ListOptions
		wantIDs []int64
	}{
		{name: "all newest first", opts: ListOptions{}, wantIDs: []int64{last, first + 1, first}},
		{name: "by plant", opts: ListOptions{Plant: "fern"}, wantIDs: []int64{last, first}},
		{name: "limited", opts: ListOptions{MaxResults: 1}, wantIDs: []int64{last}},
		{name: "no match", opts: ListOptions{Plant: "oak"}, wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := s.List(ctx, tt.opts)
			require.NoError(t, err)
			var ids []int64
			for _, r := range runs {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestDeleteCascades(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	id := saveRun(t, s, "fern")

	require.NoError(t, s.Delete(ctx, id))

	_, _, err := s.Load(ctx, id)
	assert.ErrorIs(t, err, ErrRunNotFound)

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT count(*) FROM branches WHERE run_id = ?`, id).Scan(&n))
	assert.Zero(t, n)
	require.NoError(t, s.db.QueryRow(`SELECT count(*) FROM leaves WHERE run_id = ?`, id).Scan(&n))
	assert.Zero(t, n)

	assert.ErrorIs(t, s.Delete(ctx, id), ErrRunNotFound)
}
