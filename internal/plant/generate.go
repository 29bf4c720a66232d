// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package plant

import (
	"context"
	"log/slog"

	"github.com/sourcegraph/conc/pool"

	"github.com/pdiddy/lsystem-engine/internal/logging"
	"github.com/pdiddy/lsystem-engine/internal/lsystem"
	"github.com/pdiddy/lsystem-engine/pkg/types"
)

// Result is the output of one generation run.
type Result struct {
	Name        string
	Config      types.GenerationConfig
	Geometry    *types.Geometry
	Diagnostics lsystem.Diagnostics
}

// Generate runs the definition's axiom through a fresh interpreter. Each
// call owns its interpreter, turtle and geometry, so concurrent calls do
// not share state.
func Generate(def *Definition, log *slog.Logger) (*Result, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.NewNop()
	}
	log = log.With("plant", def.Name)

	cfg := def.GenerationConfig()
	out := &types.Geometry{}
	in := lsystem.New(cfg, def.RuleTable(), out, lsystem.WithLogger(log))
	in.Run(def.Axiom)

	diag := in.Diagnostics()
	log.Debug("generated",
		"branches", len(out.Branches),
		"leaves", len(out.Leaves),
		"commands", diag.Commands,
		"depth", diag.DeepestLevel)

	return &Result{
		Name:        def.Name,
		Config:      cfg,
		Geometry:    out,
		Diagnostics: diag,
	}, nil
}

// Expand returns the terminal symbol sequence the definition interprets.
func Expand(def *Definition) (string, error) {
	if err := def.Validate(); err != nil {
		return "", err
	}
	in := lsystem.New(def.GenerationConfig(), def.RuleTable(), &types.Geometry{})
	return in.Yield(def.Axiom), nil
}

// GenerateAll generates every definition with at most workers runs in
// flight. Results are returned in the order of defs. The first failure
// cancels runs that have not started yet.
func GenerateAll(ctx context.Context, defs []*Definition, workers int, log *slog.Logger) ([]*Result, error) {
	if workers <= 0 {
		workers = 1
	}
	results := make([]*Result, len(defs))

	p := pool.New().WithMaxGoroutines(workers).WithErrors().WithContext(ctx).WithCancelOnError()
	for i, def := range defs {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := Generate(def, log)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
