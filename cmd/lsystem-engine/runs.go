// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lsystem-engine/internal/export"
	"github.com/pdiddy/lsystem-engine/internal/store"
	"github.com/pdiddy/lsystem-engine/pkg/types"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect generation runs recorded with generate --store",
}

// --- list subcommand ---

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	RunE:  runRunsList,
}

func runRunsList(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	plantName, _ := cmd.Flags().GetString("plant")
	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := s.List(cmd.Context(), store.ListOptions{Plant: plantName, MaxResults: limit})
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRunsOutput(runs, jsonOutput)
}

func formatRunsOutput(runs []store.RunRecord, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-6s  %-20s  %-5s  %-8s  %-8s  %-7s  %s\n",
		"ID", "Plant", "Depth", "Branches", "Leaves", "Lenient", "Created")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 86))

	for _, r := range runs {
		name := r.Plant
		if len(name) > 20 {
			name = name[:17] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-6d  %-20s  %-5d  %-8d  %-8d  %-7t  %s\n",
			r.ID, name, r.MaxDepth, r.Branches, r.Leaves,
			r.Diagnostics.Lenient(), r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}

	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(runs))
	return nil
}

// --- show subcommand ---

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Write the geometry of a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRunID(args[0])
		if err != nil {
			return err
		}
		format, err := export.ParseFormat(mustString(cmd, "format"))
		if err != nil {
			return err
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		return showRun(cmd.Context(), cmd.OutOrStdout(), s, id, format)
	},
}

// showRun exports a stored run with the generation constants it was
// produced with.
func showRun(ctx context.Context, w io.Writer, s *store.Store, id int64, format types.ExportFormat) error {
	rec, g, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	cfg := rec.Config
	cfg.MaxDepth = rec.MaxDepth
	return export.Write(w, export.NewDocument(rec.Plant, cfg, g), format)
}

// --- delete subcommand ---

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a stored run and its geometry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRunID(args[0])
		if err != nil {
			return err
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted run %d\n", id)
		return nil
	},
}

// --- shared helpers ---

func openStore() (*store.Store, error) {
	cfg, err := cliConfig()
	if err != nil {
		return nil, err
	}
	return store.NewStore(cfg.Store)
}

func parseRunID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid run id %q", s)
	}
	return id, nil
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func init() {
	runsListCmd.Flags().String("plant", "", "filter by plant name")
	runsListCmd.Flags().Int("limit", 0, "maximum runs to list (0 = use store default)")
	runsListCmd.Flags().Bool("json", false, "output runs as JSON")

	runsShowCmd.Flags().String("format", "yaml", "output format: yaml or json")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)

	rootCmd.AddCommand(runsCmd)
}
