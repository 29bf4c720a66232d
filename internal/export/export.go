// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes generated geometry to YAML or JSON documents for
// downstream mesh builders.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/lsystem-engine/pkg/types"
)

// ErrUnsupportedFormat is returned for formats other than yaml and json.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Summary describes a geometry without listing it.
type Summary struct {
	Branches int         `json:"branches" yaml:"branches"`
	Leaves   int         `json:"leaves" yaml:"leaves"`
	Min      *types.Vec3 `json:"min,omitempty" yaml:"min,omitempty"`
	Max      *types.Vec3 `json:"max,omitempty" yaml:"max,omitempty"`
}

// Document is the exported form of one generation run.
type Document struct {
	Plant    string                 `json:"plant" yaml:"plant"`
	Config   types.GenerationConfig `json:"config" yaml:"config"`
	Summary  Summary                `json:"summary" yaml:"summary"`
	Branches []types.Branch         `json:"branches" yaml:"branches"`
	Leaves   []types.Leaf           `json:"leaves" yaml:"leaves"`
}

// NewDocument builds a document for g. Primitives keep their emission order.
func NewDocument(plant string, cfg types.GenerationConfig, g *types.Geometry) Document {
	doc := Document{
		Plant:    plant,
		Config:   cfg,
		Branches: g.Branches,
		Leaves:   g.Leaves,
		Summary: Summary{
			Branches: len(g.Branches),
			Leaves:   len(g.Leaves),
		},
	}
	if doc.Branches == nil {
		doc.Branches = []types.Branch{}
	}
	if doc.Leaves == nil {
		doc.Leaves = []types.Leaf{}
	}
	if lo, hi, ok := g.Bounds(); ok {
		doc.Summary.Min, doc.Summary.Max = &lo, &hi
	}
	return doc
}

// ParseFormat maps a format name to an ExportFormat.
func ParseFormat(s string) (types.ExportFormat, error) {
	switch strings.ToLower(s) {
	case "yaml", "yml", "":
		return types.ExportYAML, nil
	case "json":
		return types.ExportJSON, nil
	default:
		return "", fmt.Errorf("%w %q: use yaml or json", ErrUnsupportedFormat, s)
	}
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (types.ExportFormat, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// Write encodes doc to w.
func Write(w io.Writer, doc Document, format types.ExportFormat) error {
	switch format {
	case types.ExportYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	case types.ExportJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
	}
}

// WriteFile writes doc to path, creating parent directories. An empty
// format is taken from the file extension.
func WriteFile(path string, doc Document, format types.ExportFormat) error {
	if format == "" {
		f, err := FormatFromPath(path)
		if err != nil {
			return err
		}
		format = f
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(f, doc, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
