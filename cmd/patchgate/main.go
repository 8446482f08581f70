// Command patchgate validates JSON Pointers and RFC 6902 patches against a
// JSON Schema, without needing a document instance.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/patchgate/patchgate"
)

var (
	flagSchema   string
	flagLogLevel string
)

func main() {
	root := &cobra.Command{
		Use:           "patchgate",
		Short:         "Schema-aware validation of JSON Pointers and JSON Patch operations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagSchema, "schema", "", "path to the JSON Schema document (.json, .yaml, .yml)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newValidateCmd())
	root.AddCommand(newPointerCmd())
	root.AddCommand(newGenerateCmd())
	root.AddCommand(newApplyCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "patchgate: %v\n", err)
		os.Exit(1)
	}
}

// engineOptions maps the CLI log level onto the engine's Options.
func engineOptions() patchgate.Options {
	opts := patchgate.DefaultOptions()
	opts.LogLevel = flagLogLevel
	return opts
}

// newLogger builds the zap logger used by the streaming layers.
func newLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
