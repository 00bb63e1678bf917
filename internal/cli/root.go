// Package cli wires the lessonsched command tree, grounded on Orbita's
// adapter/cli root/command registration pattern.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	logger  *slog.Logger
)

type commandContext struct {
	correlationID uuid.UUID
	startedAt     time.Time
}

type commandContextKey struct{}

var rootCmd = &cobra.Command{
	Use:   "lessonsched",
	Short: "lessonsched - private-lesson weekly scheduling CSP solver",
	Long: `lessonsched assigns private-lesson weekly time slots to students
under one teacher's availability and studio policies.

It wraps a constraint-satisfaction scheduler: domain construction,
constraint propagation, backtracking search with heuristics, and an
optional local-move optimization pass.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		ctx := cmd.Context()
		info := commandContext{correlationID: uuid.New(), startedAt: time.Now()}
		cmd.SetContext(context.WithValue(ctx, commandContextKey{}, info))
		if verbose {
			logger.Debug("command start", "command", cmd.CommandPath(), "correlation_id", info.correlationID.String())
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		info, ok := cmd.Context().Value(commandContextKey{}).(commandContext)
		if !ok {
			return
		}
		if verbose {
			logger.Debug("command end",
				"command", cmd.CommandPath(),
				"correlation_id", info.correlationID.String(),
				"duration_ms", time.Since(info.startedAt).Milliseconds(),
			)
		}
	},
}

// Execute runs the CLI, printing any top-level error and exiting 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ExecuteContext runs the CLI with ctx as every command's base context, so
// a SIGINT/SIGTERM cancellation reaches a long-running solve's cooperative
// budget polling (spec §5's cancellation model).
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (not read; configuration comes from the environment and .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// AddCommand registers a subcommand on the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger sets the CLI-wide logger used by PersistentPreRun/PostRun.
func SetLogger(l *slog.Logger) {
	logger = l
}

// Logger returns the CLI-wide logger, defaulting to slog.Default().
func Logger() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
