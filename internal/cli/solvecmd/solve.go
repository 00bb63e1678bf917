// Package solvecmd implements the lessonsched CLI's "solve" command,
// grounded on Orbita's adapter/cli/schedule/add.go flag-and-RunE shape.
package solvecmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wsepesi/lesson-solver/internal/scheduling/domain"
	"github.com/wsepesi/lesson-solver/internal/scheduling/engine"
	"github.com/wsepesi/lesson-solver/internal/scheduling/telemetry"
)

var (
	inputPath               string
	maxTimeMs               int64
	maxBacktracks           int
	useHeuristics           bool
	useConstraintPropagation bool
	enableOptimizations     bool
	partialSolutionsAllowed bool
	randomSeed              int64
)

// input is the CLI's JSON wire shape: a teacher and its students, the
// same plain value structures Solve itself consumes (spec §6: "the
// engine consumes plain value structures").
type input struct {
	Teacher  json.RawMessage `json:"teacher"`
	Students json.RawMessage `json:"students"`
}

// Cmd is the "solve" subcommand.
var Cmd = &cobra.Command{
	Use:   "solve",
	Short: "Run the scheduler against a (teacher, students) JSON file",
	Long: `Reads a JSON document shaped like {"teacher": ..., "students": [...]}
and prints the resulting ScheduleSolution as JSON.

Example:
  lessonsched solve --input week.json --seed 42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(inputPath)
		if err != nil {
			return fmt.Errorf("read input file: %w", err)
		}

		var in input
		if err := json.Unmarshal(raw, &in); err != nil {
			return fmt.Errorf("parse input JSON: %w", err)
		}

		var teacher domain.TeacherConfig
		if err := json.Unmarshal(in.Teacher, &teacher); err != nil {
			return fmt.Errorf("parse teacher: %w", err)
		}
		var students []domain.StudentConfig
		if err := json.Unmarshal(in.Students, &students); err != nil {
			return fmt.Errorf("parse students: %w", err)
		}

		opts := engine.DefaultOptions()
		opts.MaxTimeMs = maxTimeMs
		opts.MaxBacktracks = maxBacktracks
		opts.UseHeuristics = useHeuristics
		opts.UseConstraintPropagation = useConstraintPropagation
		opts.EnableOptimizations = enableOptimizations
		opts.PartialSolutionsAllowed = partialSolutionsAllowed
		opts.RandomSeed = randomSeed

		solution, err := engine.Solve(cmd.Context(), teacher, students, opts, telemetry.NoopRecorder{})
		if err != nil && !engine.IsResourceExhausted(err) {
			if engine.IsUnschedulable(err) {
				fmt.Fprintf(os.Stderr, "unschedulable: %v\n", err)
			} else {
				return fmt.Errorf("solve: %w", err)
			}
		}

		out, err := json.MarshalIndent(solution, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal solution: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	Cmd.Flags().StringVarP(&inputPath, "input", "i", "", "path to a JSON file shaped {teacher, students} (required)")
	Cmd.Flags().Int64Var(&maxTimeMs, "max-time-ms", 10_000, "wall-clock search budget in milliseconds")
	Cmd.Flags().IntVar(&maxBacktracks, "max-backtracks", 1_000, "backtrack budget")
	Cmd.Flags().BoolVar(&useHeuristics, "heuristics", true, "enable MRV/LCV scored ordering")
	Cmd.Flags().BoolVar(&useConstraintPropagation, "propagation", true, "enable forward-checking constraint propagation")
	Cmd.Flags().BoolVar(&enableOptimizations, "optimize", false, "run the local-move optimization pass")
	Cmd.Flags().BoolVar(&partialSolutionsAllowed, "partial", true, "allow partial solutions instead of failing strict")
	Cmd.Flags().Int64Var(&randomSeed, "seed", 1, "seed for deterministic tie-breaking")

	Cmd.MarkFlagRequired("input")
}
