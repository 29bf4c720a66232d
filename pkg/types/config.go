// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Rules maps a single grammar symbol to its replacement sequence. Symbols
// with no entry are terminal and are interpreted as turtle commands.
type Rules map[byte]string

// GenerationConfig holds the numeric constants read during one generation
// run. It is built once by the caller and never modified by the interpreter.
type GenerationConfig struct {
	// Radius is the branch radius at brush width 1.
	Radius float64 `json:"radius" yaml:"radius"`

	// Distance is the step length at brush width 1.
	Distance float64 `json:"distance" yaml:"distance"`

	// LeafSize is the leaf width at brush width 1; leaf length is twice this.
	LeafSize float64 `json:"leaf_size" yaml:"leaf_size"`

	// AngleWorldY is the + / - rotation about world up, in radians.
	AngleWorldY float64 `json:"angle_world_y" yaml:"angle_world_y"`

	// AngleTurtleLeft is the & / ^ rotation about the turtle's left axis, in radians.
	AngleTurtleLeft float64 `json:"angle_turtle_left" yaml:"angle_turtle_left"`

	// BrushDecayCoef scales brush width on * and branch radius along a branch.
	BrushDecayCoef float64 `json:"brush_decay_coef" yaml:"brush_decay_coef"`

	// MaxDepth is the rewriting depth ceiling. Zero interprets the axiom directly.
	MaxDepth uint `json:"max_depth" yaml:"max_depth"`
}

// StoreConfig holds settings for the generation run store.
type StoreConfig struct {
	// Dir is the directory holding plants.db.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxResults is the default list limit (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// ExportFormat selects the geometry export encoding.
type ExportFormat string

const (
	ExportYAML ExportFormat = "yaml"
	ExportJSON ExportFormat = "json"
)

// CLIConfig groups the settings the CLI reads from its config file.
type CLIConfig struct {
	PlantsDir string       `json:"plants_dir" yaml:"plants_dir" mapstructure:"plants_dir"`
	OutputDir string       `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`
	Format    ExportFormat `json:"format" yaml:"format" mapstructure:"format"`
	Store     StoreConfig  `json:"store" yaml:"store" mapstructure:"store"`
	LogLevel  string       `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
}
