// Package fixtures persists named (teacher, students) scheduling inputs
// for later replay — useful for regression-testing the engine against a
// fixed instance without regenerating it. It is an external collaborator
// to the engine (spec §1's fixture generator is explicitly out of
// scope); this package only stores and retrieves plain values, the same
// way Orbita's SQLite repositories store and retrieve domain aggregates.
package fixtures

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wsepesi/lesson-solver/internal/scheduling/domain"
)

// Fixture is one named, storable (teacher, students) scheduling instance.
type Fixture struct {
	Name      string
	Teacher   domain.TeacherConfig
	Students  []domain.StudentConfig
	CreatedAt time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS fixtures (
	name       TEXT PRIMARY KEY,
	teacher    TEXT NOT NULL,
	students   TEXT NOT NULL,
	created_at TEXT NOT NULL
);
`

// Store persists Fixtures to a SQLite database, grounded on Orbita's
// sqlite_schedule_repo.go save/find pattern, adapted to a single flat
// table since fixtures have no child collections to join in.
type Store struct {
	db *sql.DB
}

// Open connects to (and migrates) a SQLite database at path. Pass
// ":memory:" for an ephemeral store, as this package's tests do.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open fixture store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping fixture store: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate fixture store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// Save upserts a fixture by name.
func (s *Store) Save(ctx context.Context, f Fixture) error {
	teacherJSON, err := json.Marshal(f.Teacher)
	if err != nil {
		return fmt.Errorf("marshal teacher: %w", err)
	}
	studentsJSON, err := json.Marshal(f.Students)
	if err != nil {
		return fmt.Errorf("marshal students: %w", err)
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO fixtures (name, teacher, students, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			teacher = excluded.teacher,
			students = excluded.students,
			created_at = excluded.created_at
	`, f.Name, string(teacherJSON), string(studentsJSON), f.CreatedAt.Format(time.RFC3339))
	return err
}

// Load retrieves a fixture by name. It returns sql.ErrNoRows (unwrapped)
// when the name is not present, matching the teacher's convention of
// letting callers errors.Is against the stdlib sentinel directly.
func (s *Store) Load(ctx context.Context, name string) (Fixture, error) {
	var teacherJSON, studentsJSON, createdAt string
	row := s.db.QueryRowContext(ctx, `SELECT teacher, students, created_at FROM fixtures WHERE name = ?`, name)
	if err := row.Scan(&teacherJSON, &studentsJSON, &createdAt); err != nil {
		return Fixture{}, err
	}

	var f Fixture
	f.Name = name
	if err := json.Unmarshal([]byte(teacherJSON), &f.Teacher); err != nil {
		return Fixture{}, fmt.Errorf("unmarshal teacher: %w", err)
	}
	if err := json.Unmarshal([]byte(studentsJSON), &f.Students); err != nil {
		return Fixture{}, fmt.Errorf("unmarshal students: %w", err)
	}
	if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
		f.CreatedAt = ts
	}
	return f, nil
}

// List returns every stored fixture name, ordered by created_at. Save
// overwrites created_at on every upsert, so the order is by each name's
// most recent save.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM fixtures ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete removes a fixture by name. Deleting a name that doesn't exist is
// not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM fixtures WHERE name = ?`, name)
	return err
}
