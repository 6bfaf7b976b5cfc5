// Package store keeps a history of slicing runs in SQLite: the
// parameters, the schedule and every keyframe written.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/chazu/slabanim/pkg/anim"
	"github.com/chazu/slabanim/pkg/slicer"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound reports an unknown run ID.
var ErrNotFound = errors.New("run not found")

// schema.sql creates the runs, schedule_entries and keyframes tables.
//
//go:embed schema.sql
var schemaSQL string

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store is a run history database.
type Store struct {
	*sql.DB
}

// Open opens or creates the database at path. Use ":memory:" for a
// throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases shared and
	// serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	log.Printf("store: opened %s", path)
	return &Store{db}, nil
}

// Run is one slicing run to record.
type Run struct {
	Label  string
	Script string
	Params slicer.Params
	Result *slicer.Result
	Curves *anim.Curves
	// Name resolves unit handles to scene names. Optional.
	Name func(slicer.Handle) string
}

// Summary is one row of the run history.
type Summary struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"createdAt"`
	Label     string        `json:"label"`
	Params    slicer.Params `json:"params"`
	Objects   int           `json:"objects"`
	Units     int           `json:"units"`
	Dropped   int           `json:"dropped"`
}

// Entry is a stored schedule entry.
type Entry struct {
	slicer.ScheduleEntry
	Name string `json:"name"`
}

// Keyframe is a stored key.
type Keyframe struct {
	Target slicer.Handle `json:"target"`
	Attr   string        `json:"attr"`
	anim.Key
}

// SaveRun records r in one transaction and returns its new ID.
func (s *Store) SaveRun(ctx context.Context, r Run) (string, error) {
	if r.Result == nil {
		return "", fmt.Errorf("store: save run: %w: nil result", slicer.ErrInvalidInput)
	}
	params, err := json.Marshal(r.Params)
	if err != nil {
		return "", fmt.Errorf("store: encode params: %w", err)
	}

	units := 0
	for _, e := range r.Result.Schedule {
		if !e.Skipped() {
			units++
		}
	}

	id := uuid.NewString()
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, label, script, params, objects, units, dropped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, time.Now().UTC().Format(timeLayout), r.Label, r.Script, string(params),
		len(r.Result.Objects), units, r.Result.Dropped())
	if err != nil {
		return "", fmt.Errorf("store: insert run: %w", err)
	}

	for _, e := range r.Result.Schedule {
		name := ""
		if r.Name != nil && !e.Skipped() {
			name = r.Name(e.Target)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO schedule_entries (run_id, object, slab, target, name, start_frame, end_frame)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, e.Object, e.Slab, string(e.Target), name, e.Start, e.End)
		if err != nil {
			return "", fmt.Errorf("store: insert entry %d/%d: %w", e.Object, e.Slab, err)
		}
	}

	if r.Curves != nil {
		for _, ch := range r.Curves.Channels() {
			for _, k := range r.Curves.Keys(ch.Target, ch.Attr) {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO keyframes (run_id, target, attr, frame, value, tangent)
					VALUES (?, ?, ?, ?, ?, ?)
				`, id, string(ch.Target), ch.Attr, k.Time, k.Value, k.Tangent.String())
				if err != nil {
					return "", fmt.Errorf("store: insert key %s@%d: %w", ch, k.Time, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("store: commit: %w", err)
	}
	return id, nil
}

// Runs lists the most recent runs first, at most limit of them.
func (s *Store) Runs(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.QueryContext(ctx, `
		SELECT id, created_at, label, params, objects, units, dropped
		FROM runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	return out, nil
}

// Get returns one run summary.
func (s *Store) Get(ctx context.Context, id string) (Summary, error) {
	row := s.QueryRowContext(ctx, `
		SELECT id, created_at, label, params, objects, units, dropped
		FROM runs WHERE id = ?
	`, id)
	sum, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Summary{}, fmt.Errorf("store: %w: %s", ErrNotFound, id)
	}
	return sum, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(sc scanner) (Summary, error) {
	var (
		sum     Summary
		created string
		params  string
	)
	if err := sc.Scan(&sum.ID, &created, &sum.Label, &params, &sum.Objects, &sum.Units, &sum.Dropped); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Summary{}, err
		}
		return Summary{}, fmt.Errorf("store: scan run: %w", err)
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return Summary{}, fmt.Errorf("store: run %s: bad timestamp %q: %w", sum.ID, created, err)
	}
	sum.CreatedAt = t
	if err := json.Unmarshal([]byte(params), &sum.Params); err != nil {
		return Summary{}, fmt.Errorf("store: run %s: decode params: %w", sum.ID, err)
	}
	return sum, nil
}

// Script returns the script text a run was evaluated from.
func (s *Store) Script(ctx context.Context, id string) (string, error) {
	var script string
	err := s.QueryRowContext(ctx, `SELECT script FROM runs WHERE id = ?`, id).Scan(&script)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("store: %w: %s", ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("store: script of %s: %w", id, err)
	}
	return script, nil
}

// Schedule returns a run's entries in slab-major order.
func (s *Store) Schedule(ctx context.Context, id string) ([]Entry, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT object, slab, target, name, start_frame, end_frame
		FROM schedule_entries
		WHERE run_id = ?
		ORDER BY slab, object
	`, id)
	if err != nil {
		return nil, fmt.Errorf("store: schedule of %s: %w", id, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e      Entry
			target string
		)
		if err := rows.Scan(&e.Object, &e.Slab, &target, &e.Name, &e.Start, &e.End); err != nil {
			return nil, fmt.Errorf("store: scan entry: %w", err)
		}
		e.Target = slicer.Handle(target)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Keyframes returns a run's keys ordered by target, attribute and frame.
func (s *Store) Keyframes(ctx context.Context, id string) ([]Keyframe, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT target, attr, frame, value, tangent
		FROM keyframes
		WHERE run_id = ?
		ORDER BY target, attr, frame
	`, id)
	if err != nil {
		return nil, fmt.Errorf("store: keyframes of %s: %w", id, err)
	}
	defer rows.Close()

	var out []Keyframe
	for rows.Next() {
		var (
			k       Keyframe
			target  string
			tangent string
		)
		if err := rows.Scan(&target, &k.Attr, &k.Time, &k.Value, &tangent); err != nil {
			return nil, fmt.Errorf("store: scan key: %w", err)
		}
		k.Target = slicer.Handle(target)
		if tangent == slicer.TangentStep.String() {
			k.Tangent = slicer.TangentStep
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Restore loads a run's keys into a fresh curve store.
func (s *Store) Restore(ctx context.Context, id string) (*anim.Curves, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	keys, err := s.Keyframes(ctx, id)
	if err != nil {
		return nil, err
	}
	c := anim.NewCurves()
	for _, k := range keys {
		if err := c.SetKeyframe(k.Target, k.Attr, k.Time, k.Value); err != nil {
			return nil, fmt.Errorf("store: restore %s: %w", id, err)
		}
		if err := c.SetTangents(k.Target, k.Attr, k.Time, k.Time, k.Tangent); err != nil {
			return nil, fmt.Errorf("store: restore %s: %w", id, err)
		}
	}
	return c, nil
}

// Delete removes a run and everything recorded with it.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("store: %w: %s", ErrNotFound, id)
	}
	return nil
}
