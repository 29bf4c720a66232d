// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lsystem-engine/internal/export"
	"github.com/pdiddy/lsystem-engine/internal/plant"
	"github.com/pdiddy/lsystem-engine/internal/store"
	"github.com/pdiddy/lsystem-engine/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate [plant.yaml...]",
	Short: "Generate branch and leaf geometry from plant files",
	Long: `Generate loads each plant file, expands its axiom up to max_depth and
interprets the symbols as turtle commands. Every plant is generated
independently, several at a time with --workers.

With no arguments, every *.yaml file in the plants directory is generated.
Geometry is written to <output-dir>/<plant>.<format>; --stdout writes a
single plant to standard output instead. --store also records each run in
the run store.

Malformed grammars (unmatched ], unclosed [, non-positive brush widths) are
tolerated and reported. --strict turns them into a failure.`,
	RunE: runGenerate,
}

// generateOptions holds the resolved settings for one generate invocation.
type generateOptions struct {
	Plants    []string
	PlantsDir string
	Depth     int
	OutputDir string
	Format    types.ExportFormat
	Stdout    bool
	Store     bool
	StoreCfg  types.StoreConfig
	Strict    bool
	Workers   int
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := cliConfig()
	if err != nil {
		return err
	}

	opts := generateOptions{
		Plants:    args,
		PlantsDir: cfg.PlantsDir,
		OutputDir: cfg.OutputDir,
		StoreCfg:  cfg.Store,
	}
	opts.Depth, _ = cmd.Flags().GetInt("depth")
	opts.Stdout, _ = cmd.Flags().GetBool("stdout")
	opts.Store, _ = cmd.Flags().GetBool("store")
	opts.Strict, _ = cmd.Flags().GetBool("strict")
	opts.Workers, _ = cmd.Flags().GetInt("workers")
	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		opts.OutputDir = dir
	}
	if dir, _ := cmd.Flags().GetString("plants-dir"); dir != "" {
		opts.PlantsDir = dir
	}

	formatName := string(cfg.Format)
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		formatName = f
	}
	if opts.Format, err = export.ParseFormat(formatName); err != nil {
		return err
	}

	return generatePlants(cmd.Context(), os.Stdout, opts, commandLogger(cmd))
}

// generatePlants loads, generates and writes every requested plant.
// Progress lines go to w unless the geometry itself is written there.
func generatePlants(ctx context.Context, w io.Writer, opts generateOptions, log *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	defs, err := loadDefinitions(opts.Plants, opts.PlantsDir)
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		return fmt.Errorf("no plant files found in %s", opts.PlantsDir)
	}
	if opts.Stdout && len(defs) != 1 {
		return fmt.Errorf("--stdout needs exactly one plant, got %d", len(defs))
	}
	seen := make(map[string]string, len(defs))
	for _, def := range defs {
		if prev, ok := seen[def.Name]; ok {
			return fmt.Errorf("duplicate plant name %q in %s and %s", def.Name, prev, def.Path)
		}
		seen[def.Name] = def.Path
	}
	if opts.Depth >= 0 {
		for _, def := range defs {
			def.Settings.MaxDepth = uint(opts.Depth)
		}
	}

	results, err := plant.GenerateAll(ctx, defs, opts.Workers, log)
	if err != nil {
		return err
	}

	progress := w
	if opts.Stdout {
		progress = io.Discard
	}

	var runs *store.Store
	if opts.Store {
		runs, err = store.NewStore(opts.StoreCfg)
		if err != nil {
			return err
		}
		defer runs.Close()
	}

	var lenient []string
	for _, res := range results {
		doc := export.NewDocument(res.Name, res.Config, res.Geometry)
		if opts.Stdout {
			if err := export.Write(w, doc, opts.Format); err != nil {
				return err
			}
		} else {
			path := filepath.Join(opts.OutputDir, res.Name+"."+string(opts.Format))
			if err := export.WriteFile(path, doc, opts.Format); err != nil {
				return err
			}
			fmt.Fprintf(progress, "generated %s: %d branches, %d leaves -> %s\n",
				res.Name, len(res.Geometry.Branches), len(res.Geometry.Leaves), path)
		}

		if runs != nil {
			id, err := runs.Save(ctx, store.RunRecord{
				Plant:       res.Name,
				MaxDepth:    res.Config.MaxDepth,
				Config:      res.Config,
				Diagnostics: res.Diagnostics,
			}, res.Geometry)
			if err != nil {
				return err
			}
			fmt.Fprintf(progress, "stored   %s as run %d\n", res.Name, id)
		}

		if d := res.Diagnostics; d.Lenient() {
			log.Warn("grammar tolerated malformed input",
				"plant", res.Name,
				"unmatched_pops", d.UnmatchedPops,
				"unclosed_pushes", d.UnclosedPushes,
				"rejected_widths", d.RejectedWidths)
			lenient = append(lenient, res.Name)
		}
	}

	if opts.Strict && len(lenient) > 0 {
		return fmt.Errorf("strict mode: %d plant(s) with malformed grammar: %v", len(lenient), lenient)
	}
	return nil
}

// loadDefinitions loads the named plant files, or every plant in dir when
// none are named.
func loadDefinitions(paths []string, dir string) ([]*plant.Definition, error) {
	if len(paths) == 0 {
		return plant.LoadDir(dir)
	}
	defs := make([]*plant.Definition, 0, len(paths))
	for _, p := range paths {
		def, err := plant.Load(p)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func init() {
	generateCmd.Flags().Int("depth", -1, "override max_depth for every plant (-1 = use the plant file)")
	generateCmd.Flags().String("plants-dir", "", "directory of plant files used when no file is given (default: plants)")
	generateCmd.Flags().String("output-dir", "", "directory for exported geometry (default: output)")
	generateCmd.Flags().String("format", "", "export format: yaml or json (default: yaml)")
	generateCmd.Flags().Bool("stdout", false, "write the geometry of a single plant to standard output")
	generateCmd.Flags().Bool("store", false, "record each run in the run store")
	generateCmd.Flags().Bool("strict", false, "fail when a grammar has unmatched brackets or non-positive widths")
	generateCmd.Flags().Int("workers", 4, "number of plants generated concurrently")

	rootCmd.AddCommand(generateCmd)
}
