// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package plant loads plant definitions (axiom, rules and generation
// constants) from YAML files and runs them through the L-system
// interpreter.
package plant

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/lsystem-engine/pkg/types"
)

// ErrInvalidDefinition is wrapped by every validation failure.
var ErrInvalidDefinition = errors.New("invalid plant definition")

// Settings is the on-disk form of the generation constants. Angles are in
// degrees.
type Settings struct {
	Radius          float64 `json:"radius" yaml:"radius"`
	Distance        float64 `json:"distance" yaml:"distance"`
	LeafSize        float64 `json:"leaf_size" yaml:"leaf_size"`
	AngleWorldY     float64 `json:"angle_world_y" yaml:"angle_world_y"`
	AngleTurtleLeft float64 `json:"angle_turtle_left" yaml:"angle_turtle_left"`
	BrushDecayCoef  float64 `json:"brush_decay_coef" yaml:"brush_decay_coef"`
	MaxDepth        uint    `json:"max_depth" yaml:"max_depth"`
}

// Definition is one plant file.
type Definition struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Axiom       string            `json:"axiom" yaml:"axiom"`
	Rules       map[string]string `json:"rules" yaml:"rules"`
	Settings    Settings          `json:"config" yaml:"config"`

	// Path is the file the definition was loaded from, if any.
	Path string `json:"-" yaml:"-"`
}

// Parse decodes a plant definition and validates it.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing plant definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Load reads and validates the plant file at path. A missing name
// defaults to the file's base name.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plant file: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	def.Path = path
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return def, nil
}

// LoadDir loads every *.yaml and *.yml file in dir, ordered by file name.
func LoadDir(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading plant directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	defs := make([]*Definition, 0, len(files))
	for _, f := range files {
		def, err := Load(f)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Validate rejects definitions the interpreter would run but which cannot
// describe a plant: an empty axiom, rule keys that are not a single
// symbol, and non-positive lengths or decay. The name becomes an output
// file name, so it may not contain path separators or "..".
func (d *Definition) Validate() error {
	var problems []error
	if strings.ContainsAny(d.Name, `/\`) || strings.Contains(d.Name, "..") || d.Name == "." {
		problems = append(problems, fmt.Errorf("name %q must not contain path separators or '..'", d.Name))
	}
	if d.Axiom == "" {
		problems = append(problems, errors.New("axiom is empty"))
	}

	keys := make([]string, 0, len(d.Rules))
	for k := range d.Rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if len(k) != 1 {
			problems = append(problems, fmt.Errorf("rule key %q must be a single symbol", k))
		}
	}

	s := d.Settings
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"radius", s.Radius},
		{"distance", s.Distance},
		{"leaf_size", s.LeafSize},
		{"brush_decay_coef", s.BrushDecayCoef},
	} {
		if !(f.value > 0) || math.IsInf(f.value, 0) {
			problems = append(problems, fmt.Errorf("%s must be positive, got %v", f.name, f.value))
		}
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"angle_world_y", s.AngleWorldY},
		{"angle_turtle_left", s.AngleTurtleLeft},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			problems = append(problems, fmt.Errorf("%s must be finite", f.name))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidDefinition, errors.Join(problems...))
}

// GenerationConfig converts the settings to interpreter constants, with
// angles in radians.
func (d *Definition) GenerationConfig() types.GenerationConfig {
	s := d.Settings
	return types.GenerationConfig{
		Radius:          s.Radius,
		Distance:        s.Distance,
		LeafSize:        s.LeafSize,
		AngleWorldY:     s.AngleWorldY * math.Pi / 180,
		AngleTurtleLeft: s.AngleTurtleLeft * math.Pi / 180,
		BrushDecayCoef:  s.BrushDecayCoef,
		MaxDepth:        s.MaxDepth,
	}
}

// RuleTable converts the rules to the interpreter's symbol table. Keys
// that are not a single byte are skipped; Validate reports them.
func (d *Definition) RuleTable() types.Rules {
	rules := make(types.Rules, len(d.Rules))
	for k, v := range d.Rules {
		if len(k) == 1 {
			rules[k[0]] = v
		}
	}
	return rules
}
