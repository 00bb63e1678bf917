// Package fixturecmd implements the lessonsched CLI's "fixture"
// subcommand tree (save/load/list/rm), backed by the SQLite-based
// fixtures.Store.
package fixturecmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wsepesi/lesson-solver/internal/scheduling/domain"
	"github.com/wsepesi/lesson-solver/internal/scheduling/fixtures"
)

var dbPath string

// Cmd is the "fixture" command group.
var Cmd = &cobra.Command{
	Use:   "fixture",
	Short: "Manage stored (teacher, students) scheduling fixtures",
}

var saveCmd = &cobra.Command{
	Use:   "save <name> <input.json>",
	Short: "Save a {teacher, students} JSON file as a named fixture",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, path := args[0], args[1]

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		var doc struct {
			Teacher  domain.TeacherConfig  `json:"teacher"`
			Students []domain.StudentConfig `json:"students"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		store, err := fixtures.Open(cmd.Context(), dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Save(cmd.Context(), fixtures.Fixture{Name: name, Teacher: doc.Teacher, Students: doc.Students}); err != nil {
			return fmt.Errorf("save fixture: %w", err)
		}
		fmt.Printf("saved fixture %q (%d students)\n", name, len(doc.Students))
		return nil
	},
}

var loadCmd = &cobra.Command{
	Use:   "load <name>",
	Short: "Print a stored fixture as {teacher, students} JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := fixtures.Open(cmd.Context(), dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		f, err := store.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("load fixture %q: %w", args[0], err)
		}

		out, err := json.MarshalIndent(struct {
			Teacher  domain.TeacherConfig    `json:"teacher"`
			Students []domain.StudentConfig  `json:"students"`
		}{f.Teacher, f.Students}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored fixture names",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := fixtures.Open(cmd.Context(), dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		names, err := store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list fixtures: %w", err)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a stored fixture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := fixtures.Open(cmd.Context(), dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Delete(cmd.Context(), args[0])
	},
}

func init() {
	Cmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the fixture SQLite database (default: config's FixtureDBPath)")
	Cmd.AddCommand(saveCmd, loadCmd, listCmd, rmCmd)
}

// SetDefaultDBPath sets the --db flag's default when unset by the user,
// wiring in config.Config.FixtureDBPath from the CLI entrypoint.
func SetDefaultDBPath(path string) {
	if dbPath == "" {
		dbPath = path
	}
}
