// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the transcript-clean CLI.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// logger is replaced in PersistentPreRunE once --log-level is known.
	logger *slog.Logger

	// logOutput receives diagnostics; run points it at the process stderr.
	logOutput io.Writer = os.Stderr
)

// rootCmd is the base command for the transcript-clean CLI.
var rootCmd = &cobra.Command{
	Use:   "transcript-clean",
	Short: "Convert exported chat transcripts into clean Markdown",
	Long: `transcript-clean extracts the user and assistant turns from an exported
HTML chat transcript and writes them as a lightweight Markdown document.

Use extract for a single file, batch for many, and archive to keep extracted
conversations in a searchable SQLite database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		levelName := setting(cmd, "log-level", "log_level", "info")
		var level slog.Level
		if err := level.UnmarshalText([]byte(levelName)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", levelName, err)
		}
		logger = slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: level}))
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./transcript-clean.yaml or ~/.config/transcript-clean/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, or error")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("transcript-clean")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "transcript-clean"))
		}
	}

	viper.SetEnvPrefix("TRANSCRIPT_CLEAN")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Debug("using config file", slog.String("path", viper.ConfigFileUsed()))
	}
}

// setting resolves a string option: an explicitly set flag wins, then the
// config key, then def.
func setting(cmd *cobra.Command, flag, key, def string) string {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		return f.Value.String()
	}
	if v := viper.GetString(key); v != "" {
		return v
	}
	if f := cmd.Flags().Lookup(flag); f != nil {
		return f.Value.String()
	}
	return def
}

// boolSetting resolves a boolean option with the same precedence as setting.
func boolSetting(cmd *cobra.Command, flag, key string) bool {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		v, _ := strconv.ParseBool(f.Value.String())
		return v
	}
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	v, _ := cmd.Flags().GetBool(flag)
	return v
}

// run executes the CLI with args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	logOutput = stderr
	logger = slog.New(slog.NewTextHandler(stderr, nil))

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", slog.String("error", err.Error()))
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
