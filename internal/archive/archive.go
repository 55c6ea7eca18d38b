// Package archive records solver runs in a SQLite database so that
// measures can be compared across models, algorithms and seeds.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/operator-framework/fdsolver/pkg/fd/solver"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	model TEXT NOT NULL,
	status TEXT NOT NULL,
	started INTEGER NOT NULL,
	elapsed_ns INTEGER NOT NULL,
	nodes INTEGER NOT NULL,
	backtracks INTEGER NOT NULL,
	fails INTEGER NOT NULL,
	solutions INTEGER NOT NULL,
	max_depth INTEGER NOT NULL,
	propagations INTEGER NOT NULL,
	objective INTEGER,
	stopped INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS assignments (
	run TEXT NOT NULL REFERENCES runs(id),
	name TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (run, name)
);`

// Status of a finished run.
type Status string

const (
	Satisfied   Status = "satisfied"
	Unsatisfied Status = "unsatisfied"
	Optimal     Status = "optimal"
	Incomplete  Status = "incomplete"
)

// Run is one archived solver invocation.
type Run struct {
	ID      uuid.UUID
	Model   string
	Status  Status
	Started time.Time

	Measures solver.Measures

	// Assignment holds the printed values of the last solution, if any.
	Assignment map[string]string
}

// Archive is a SQLite-backed run store.
type Archive struct {
	db   *sql.DB
	path string
}

// Open creates or opens the archive at path.
func Open(path string) (*Archive, error) {
	if path == "" {
		return nil, errors.New("archive path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Archive{db: db, path: path}, nil
}

// Record stores a run and the assignment of sol, which may be nil. It
// returns the identifier of the new run.
func (a *Archive) Record(ctx context.Context, model string, status Status, started time.Time, m solver.Measures, sol *solver.Solution) (retID uuid.UUID, retErr error) {
	id := uuid.New()
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	var objective sql.NullInt64
	if m.HasBest {
		objective = sql.NullInt64{Int64: int64(m.Best), Valid: true}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO runs(id,model,status,started,elapsed_ns,nodes,backtracks,fails,solutions,max_depth,propagations,objective,stopped)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		id.String(), model, string(status), started.UnixNano(), int64(m.Elapsed),
		m.Nodes, m.Backtracks, m.Fails, m.Solutions, m.MaxDepth, m.Propagations,
		objective, m.Stopped); err != nil {
		return uuid.Nil, fmt.Errorf("insert run: %w", err)
	}
	if sol != nil {
		for name, value := range sol.Values() {
			if _, err := tx.ExecContext(ctx, `INSERT INTO assignments(run,name,value) VALUES(?,?,?)`, id.String(), name, value); err != nil {
				return uuid.Nil, fmt.Errorf("insert assignment %s: %w", name, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Runs lists the runs of model, oldest first. An empty model lists
// every run.
func (a *Archive) Runs(ctx context.Context, model string) ([]Run, error) {
	query := `SELECT id,model,status,started,elapsed_ns,nodes,backtracks,fails,solutions,max_depth,propagations,objective,stopped FROM runs`
	var args []interface{}
	if model != "" {
		query += ` WHERE model = ?`
		args = append(args, model)
	}
	query += ` ORDER BY started, id`
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			id        string
			status    string
			started   int64
			elapsed   int64
			objective sql.NullInt64
		)
		if err := rows.Scan(&id, &r.Model, &status, &started, &elapsed,
			&r.Measures.Nodes, &r.Measures.Backtracks, &r.Measures.Fails, &r.Measures.Solutions,
			&r.Measures.MaxDepth, &r.Measures.Propagations, &objective, &r.Measures.Stopped); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("run id %q: %w", id, err)
		}
		r.Status = Status(status)
		r.Started = time.Unix(0, started)
		r.Measures.Elapsed = time.Duration(elapsed)
		if objective.Valid {
			r.Measures.HasBest = true
			r.Measures.Best = int(objective.Int64)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range runs {
		if runs[i].Assignment, err = a.assignment(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (a *Archive) assignment(ctx context.Context, id uuid.UUID) (map[string]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT name, value FROM assignments WHERE run = ?`, id.String())
	if err != nil {
		return nil, fmt.Errorf("select assignments: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := map[string]string{}
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out[name] = value
	}
	return out, rows.Err()
}

// Models lists the distinct model names in the archive.
func (a *Archive) Models(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT DISTINCT model FROM runs`)
	if err != nil {
		return nil, fmt.Errorf("select models: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var models []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		models = append(models, m)
	}
	sort.Strings(models)
	return models, rows.Err()
}

// Path returns the database file.
func (a *Archive) Path() string { return a.path }

func (a *Archive) Close() error {
	return a.db.Close()
}
