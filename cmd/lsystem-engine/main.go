// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the lsystem-engine CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/lsystem-engine/internal/logging"
	"github.com/pdiddy/lsystem-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is configured in the root pre-run from --log-level.
var logger = logging.NewNop()

// rootCmd is the base command for the lsystem-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "lsystem-engine",
	Short: "Generate 3D plant geometry from L-system grammars",
	Long: `lsystem-engine rewrites an axiom with per-symbol rules up to a depth
limit and drives a 3D turtle with the resulting symbols. The turtle emits
tapered branches and leaves, which are exported as YAML or JSON and can be
kept in a local SQLite run store.

Plants are described by YAML files holding the axiom, the rules and the
generation constants (radius, step distance, leaf size, angles in degrees,
brush decay, maximum depth).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(viper.GetString("log_level"))
		if err != nil {
			return err
		}
		logger = logging.New(os.Stderr, level)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./lsystem-engine.yaml or ~/.config/lsystem-engine/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().String("db-dir", "", "directory holding the run store (default: .lsystem)")

	viper.SetDefault("plants_dir", "plants")
	viper.SetDefault("output_dir", "output")
	viper.SetDefault("format", string(types.ExportYAML))
	viper.SetDefault("store.dir", ".lsystem")
	viper.SetDefault("store.max_results", 20)

	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("store.dir", rootCmd.PersistentFlags().Lookup("db-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("lsystem-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "lsystem-engine"))
		}
	}

	viper.SetEnvPrefix("LSYSTEM_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// cliConfig returns the merged file, environment and flag settings.
func cliConfig() (types.CLIConfig, error) {
	var cfg types.CLIConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	return cfg, nil
}

// commandLogger returns the configured logger scoped to a subcommand.
func commandLogger(cmd *cobra.Command) *slog.Logger {
	return logger.With("cmd", cmd.Name())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
