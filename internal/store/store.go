// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists generation runs (run metadata plus the emitted
// branches and leaves, in emission order) in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/lsystem-engine/internal/lsystem"
	"github.com/pdiddy/lsystem-engine/pkg/types"
)

const (
	dbFile            = "plants.db"
	defaultMaxResults = 20
)

// ErrRunNotFound is returned when a run ID has no record.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is the metadata stored for one generation run.
type RunRecord struct {
	ID          int64                  `json:"id" yaml:"id"`
	Plant       string                 `json:"plant" yaml:"plant"`
	MaxDepth    uint                   `json:"max_depth" yaml:"max_depth"`
	Config      types.GenerationConfig `json:"config" yaml:"config"`
	Branches    int                    `json:"branches" yaml:"branches"`
	Leaves      int                    `json:"leaves" yaml:"leaves"`
	Diagnostics lsystem.Diagnostics    `json:"diagnostics" yaml:"diagnostics"`
	CreatedAt   time.Time              `json:"created_at" yaml:"created_at"`
}

// ListOptions filters List.
type ListOptions struct {
	// Plant restricts results to one plant name.
	Plant string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// Store manages the run database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates cfg.Dir/plants.db and creates the schema if
// it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			plant TEXT NOT NULL,
			max_depth INTEGER NOT NULL,
			branch_count INTEGER NOT NULL,
			leaf_count INTEGER NOT NULL,
			config TEXT,
			diagnostics TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_plant ON runs(plant)`,
		`CREATE TABLE IF NOT EXISTS branches (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			sx REAL, sy REAL, sz REAL, start_radius REAL,
			ex REAL, ey REAL, ez REAL, end_radius REAL,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS leaves (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			ax REAL, ay REAL, az REAL,
			fx REAL, fy REAL, fz REAL,
			lx REAL, ly REAL, lz REAL,
			width REAL, length REAL,
			PRIMARY KEY (run_id, seq)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return s.addColumnIfMissing("runs", "config", "TEXT")
}

// addColumnIfMissing upgrades databases created before the column existed.
func (s *Store) addColumnIfMissing(table, column, decl string) error {
	var n int
	err := s.db.QueryRow(
		`SELECT count(*) FROM pragma_table_info(?) WHERE name = ?`, table, column,
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", table, err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, decl)); err != nil {
		return fmt.Errorf("adding %s.%s: %w", table, column, err)
	}
	return nil
}

// Save records a run and its geometry in one transaction and returns the
// new run ID. rec.ID, the counts and a zero CreatedAt are filled in.
func (s *Store) Save(ctx context.Context, rec RunRecord, g *types.Geometry) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	cfgJSON, err := json.Marshal(rec.Config)
	if err != nil {
		return 0, fmt.Errorf("encoding config: %w", err)
	}
	diagJSON, err := json.Marshal(rec.Diagnostics)
	if err != nil {
		return 0, fmt.Errorf("encoding diagnostics: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (plant, max_depth, branch_count, leaf_count, config, diagnostics, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Plant, rec.MaxDepth, len(g.Branches), len(g.Leaves),
		string(cfgJSON), string(diagJSON), rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	if err := insertBranches(ctx, tx, id, g.Branches); err != nil {
		return 0, err
	}
	if err := insertLeaves(ctx, tx, id, g.Leaves); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

func insertBranches(ctx context.Context, tx *sql.Tx, runID int64, branches []types.Branch) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO branches (run_id, seq, sx, sy, sz, start_radius, ex, ey, ez, end_radius)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing branch insert: %w", err)
	}
	defer stmt.Close()

	for i, b := range branches {
		_, err := stmt.ExecContext(ctx, runID, i,
			b.Start.X, b.Start.Y, b.Start.Z, b.StartRadius,
			b.End.X, b.End.Y, b.End.Z, b.EndRadius)
		if err != nil {
			return fmt.Errorf("inserting branch %d: %w", i, err)
		}
	}
	return nil
}

func insertLeaves(ctx context.Context, tx *sql.Tx, runID int64, leaves []types.Leaf) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO leaves (run_id, seq, ax, ay, az, fx, fy, fz, lx, ly, lz, width, length)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing leaf insert: %w", err)
	}
	defer stmt.Close()

	for i, l := range leaves {
		_, err := stmt.ExecContext(ctx, runID, i,
			l.Anchor.X, l.Anchor.Y, l.Anchor.Z,
			l.Forward.X, l.Forward.Y, l.Forward.Z,
			l.Left.X, l.Left.Y, l.Left.Z,
			l.Size.Width, l.Size.Length)
		if err != nil {
			return fmt.Errorf("inserting leaf %d: %w", i, err)
		}
	}
	return nil
}

// List returns run records, newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]RunRecord, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT id, plant, max_depth, branch_count, leaf_count, config, diagnostics, created_at
		FROM runs WHERE 1=1`)
	if opts.Plant != "" {
		qb.WriteString(` AND plant = ?`)
		args = append(args, opts.Plant)
	}
	qb.WriteString(` ORDER BY id DESC LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *rec)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*RunRecord, error) {
	var (
		rec       RunRecord
		cfgJSON   sql.NullString
		diagJSON  sql.NullString
		createdAt string
	)
	if err := row.Scan(&rec.ID, &rec.Plant, &rec.MaxDepth, &rec.Branches, &rec.Leaves,
		&cfgJSON, &diagJSON, &createdAt); err != nil {
		return nil, err
	}
	if cfgJSON.Valid && cfgJSON.String != "" {
		if err := json.Unmarshal([]byte(cfgJSON.String), &rec.Config); err != nil {
			return nil, fmt.Errorf("decoding config for run %d: %w", rec.ID, err)
		}
	}
	if diagJSON.Valid && diagJSON.String != "" {
		if err := json.Unmarshal([]byte(diagJSON.String), &rec.Diagnostics); err != nil {
			return nil, fmt.Errorf("decoding diagnostics for run %d: %w", rec.ID, err)
		}
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at for run %d: %w", rec.ID, err)
	}
	rec.CreatedAt = t
	return &rec, nil
}

// Load returns a run and its geometry with primitives in emission order.
func (s *Store) Load(ctx context.Context, id int64) (*RunRecord, *types.Geometry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, plant, max_depth, branch_count, leaf_count, config, diagnostics, created_at
		 FROM runs WHERE id = ?`, id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading run %d: %w", id, err)
	}

	g := &types.Geometry{}
	if g.Branches, err = s.loadBranches(ctx, id); err != nil {
		return nil, nil, err
	}
	if g.Leaves, err = s.loadLeaves(ctx, id); err != nil {
		return nil, nil, err
	}
	return rec, g, nil
}

func (s *Store) loadBranches(ctx context.Context, runID int64) ([]types.Branch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sx, sy, sz, start_radius, ex, ey, ez, end_radius
		 FROM branches WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying branches: %w", err)
	}
	defer rows.Close()

	var branches []types.Branch
	for rows.Next() {
		var b types.Branch
		if err := rows.Scan(&b.Start.X, &b.Start.Y, &b.Start.Z, &b.StartRadius,
			&b.End.X, &b.End.Y, &b.End.Z, &b.EndRadius); err != nil {
			return nil, fmt.Errorf("scanning branch: %w", err)
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

func (s *Store) loadLeaves(ctx context.Context, runID int64) ([]types.Leaf, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ax, ay, az, fx, fy, fz, lx, ly, lz, width, length
		 FROM leaves WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying leaves: %w", err)
	}
	defer rows.Close()

	var leaves []types.Leaf
	for rows.Next() {
		var l types.Leaf
		if err := rows.Scan(&l.Anchor.X, &l.Anchor.Y, &l.Anchor.Z,
			&l.Forward.X, &l.Forward.Y, &l.Forward.Z,
			&l.Left.X, &l.Left.Y, &l.Left.Z,
			&l.Size.Width, &l.Size.Length); err != nil {
			return nil, fmt.Errorf("scanning leaf: %w", err)
		}
		leaves = append(leaves, l)
	}
	return leaves, rows.Err()
}

// Delete removes a run and its primitives.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting run %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting run %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}
	return nil
}
