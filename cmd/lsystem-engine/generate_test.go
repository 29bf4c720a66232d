// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/lsystem-engine/internal/export"
	"github.com/pdiddy/lsystem-engine/internal/logging"
	"github.com/pdiddy/lsystem-engine/internal/plant"
	"github.com/pdiddy/lsystem-engine/internal/store"
	"github.com/pdiddy/lsystem-engine/pkg/types"
)

const fernYAML = `name: fern
axiom: "A"
rules:
  A: "B[+A]*[-A]L"
config:
  radius: 0.1
  distance: 1
  leaf_size: 0.2
  angle_world_y: 30
  angle_turtle_left: 20
  brush_decay_coef: 0.8
  max_depth: 3
`

const brokenYAML = `name: broken
axiom: "B]]B["
config: {radius: 0.1, distance: 1, leaf_size: 0.2, brush_decay_coef: 0.8}
`

func writePlant(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func baseOptions(t *testing.T) generateOptions {
	t.Helper()
	root := t.TempDir()
	plants := filepath.Join(root, "plants")
	require.NoError(t, os.Mkdir(plants, 0o755))
	return generateOptions{
		PlantsDir: plants,
		Depth:     -1,
		OutputDir: filepath.Join(root, "output"),
		Format:    types.ExportYAML,
		StoreCfg:  types.StoreConfig{Dir: filepath.Join(root, "db")},
		Workers:   2,
	}
}

func TestGeneratePlantsWritesExports(t *testing.T) {
	opts := baseOptions(t)
	writePlant(t, opts.PlantsDir, "fern.yaml", fernYAML)

	var out bytes.Buffer
	require.NoError(t, generatePlants(context.Background(), &out, opts, logging.NewNop()))

	assert.Contains(t, out.String(), "generated fern: 7 branches, 7 leaves")

	data, err := os.ReadFile(filepath.Join(opts.OutputDir, "fern.yaml"))
	require.NoError(t, err)
	var doc export.Document
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "fern", doc.Plant)
	assert.Len(t, doc.Branches, 7)
	assert.Len(t, doc.Leaves, 7)
}

func TestGeneratePlantsDepthOverride(t *testing.T) {
	opts := baseOptions(t)
	path := writePlant(t, opts.PlantsDir, "fern.yaml", fernYAML)
	opts.Plants = []string{path}
	opts.Depth = 0

	var out bytes.Buffer
	require.NoError(t, generatePlants(context.Background(), &out, opts, logging.NewNop()))
	assert.Contains(t, out.String(), "generated fern: 0 branches, 0 leaves")
}

func TestGeneratePlantsStdout(t *testing.T) {
	opts := baseOptions(t)
	opts.Plants = []string{writePlant(t, opts.PlantsDir, "fern.yaml", fernYAML)}
	opts.Stdout = true
	opts.Format = types.ExportJSON

	var out bytes.Buffer
	require.NoError(t, generatePlants(context.Background(), &out, opts, logging.NewNop()))
	assert.Contains(t, out.String(), `"plant": "fern"`)
	assert.NotContains(t, out.String(), "generated")

	_, err := os.Stat(opts.OutputDir)
	assert.True(t, os.IsNotExist(err))
}

func TestGeneratePlantsStdoutNeedsOnePlant(t *testing.T) {
	opts := baseOptions(t)
	writePlant(t, opts.PlantsDir, "a.yaml", fernYAML)
	writePlant(t, opts.PlantsDir, "b.yaml", brokenYAML)
	opts.Stdout = true

	err := generatePlants(context.Background(), &bytes.Buffer{}, opts, logging.NewNop())
	assert.ErrorContains(t, err, "exactly one plant")
}

func TestGeneratePlantsStore(t *testing.T) {
	opts := baseOptions(t)
	writePlant(t, opts.PlantsDir, "fern.yaml", fernYAML)
	opts.Store = true

	var out bytes.Buffer
	require.NoError(t, generatePlants(context.Background(), &out, opts, logging.NewNop()))
	assert.Contains(t, out.String(), "stored   fern as run 1")

	s, err := store.NewStore(opts.StoreCfg)
	require.NoError(t, err)
	defer s.Close()
	rec, g, err := s.Load(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "fern", rec.Plant)
	assert.Len(t, g.Branches, 7)
	assert.Equal(t, 0.1, rec.Config.Radius)
	assert.Equal(t, 0.8, rec.Config.BrushDecayCoef)
	assert.InDelta(t, math.Pi/6, rec.Config.AngleWorldY, 1e-12)
	assert.Equal(t, uint(3), rec.Config.MaxDepth)
}

func TestShowRunExportsStoredConfig(t *testing.T) {
	opts := baseOptions(t)
	writePlant(t, opts.PlantsDir, "fern.yaml", fernYAML)
	opts.Store = true
	require.NoError(t, generatePlants(context.Background(), &bytes.Buffer{}, opts, logging.NewNop()))

	s, err := store.NewStore(opts.StoreCfg)
	require.NoError(t, err)
	defer s.Close()

	var out bytes.Buffer
	require.NoError(t, showRun(context.Background(), &out, s, 1, types.ExportYAML))

	var doc export.Document
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "fern", doc.Plant)
	assert.Equal(t, 0.1, doc.Config.Radius)
	assert.Equal(t, 1.0, doc.Config.Distance)
	assert.Equal(t, 0.2, doc.Config.LeafSize)
	assert.Equal(t, uint(3), doc.Config.MaxDepth)
	assert.Len(t, doc.Branches, 7)

	err = showRun(context.Background(), &out, s, 99, types.ExportYAML)
	assert.ErrorIs(t, err, store.ErrRunNotFound)
}

func TestGeneratePlantsRejectsDuplicateNames(t *testing.T) {
	opts := baseOptions(t)
	first := writePlant(t, opts.PlantsDir, "a.yaml", fernYAML)
	second := writePlant(t, opts.PlantsDir, "b.yaml", fernYAML)

	err := generatePlants(context.Background(), &bytes.Buffer{}, opts, logging.NewNop())
	require.Error(t, err)
	assert.ErrorContains(t, err, `duplicate plant name "fern"`)
	assert.ErrorContains(t, err, first)
	assert.ErrorContains(t, err, second)

	_, statErr := os.Stat(opts.OutputDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestGeneratePlantsRejectsPathLikeName(t *testing.T) {
	opts := baseOptions(t)
	writePlant(t, opts.PlantsDir, "escape.yaml", strings.Replace(fernYAML, "name: fern", "name: ../escaped", 1))

	err := generatePlants(context.Background(), &bytes.Buffer{}, opts, logging.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, plant.ErrInvalidDefinition)

	_, statErr := os.Stat(filepath.Join(filepath.Dir(opts.OutputDir), "escaped.yaml"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestGeneratePlantsStrict(t *testing.T) {
	opts := baseOptions(t)
	writePlant(t, opts.PlantsDir, "broken.yaml", brokenYAML)

	require.NoError(t, generatePlants(context.Background(), &bytes.Buffer{}, opts, logging.NewNop()))

	opts.Strict = true
	err := generatePlants(context.Background(), &bytes.Buffer{}, opts, logging.NewNop())
	assert.ErrorContains(t, err, "strict mode")
	assert.ErrorContains(t, err, "broken")
}

func TestGeneratePlantsEmptyDir(t *testing.T) {
	opts := baseOptions(t)
	err := generatePlants(context.Background(), &bytes.Buffer{}, opts, logging.NewNop())
	assert.ErrorContains(t, err, "no plant files")
}

func TestParseRunID(t *testing.T) {
	id, err := parseRunID("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	for _, bad := range []string{"", "0", "-3", "x"} {
		_, err := parseRunID(bad)
		assert.Error(t, err, bad)
	}
}
