package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/roach88/schemac/internal/ir"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ModelRecord is a stored compiled model.
type ModelRecord struct {
	Hash     string
	Name     string
	Snapshot ir.Object
}

// ObjectRecord is a stored instance.
type ObjectRecord struct {
	ID         string
	ModelHash  string
	Class      string
	Identifier string // empty for classes without an identifier
	Fields     ir.Object
	Seq        int64
}

// ReadModel returns the model stored under hash.
func (s *Store) ReadModel(ctx context.Context, hash string) (ModelRecord, error) {
	var rec ModelRecord
	var snapshot string
	err := s.db.QueryRowContext(ctx, `
		SELECT hash, name, snapshot FROM models WHERE hash = ?
	`, hash).Scan(&rec.Hash, &rec.Name, &snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("model %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return rec, fmt.Errorf("read model: %w", err)
	}
	if rec.Snapshot, err = unmarshalObject(snapshot); err != nil {
		return rec, fmt.Errorf("read model: %w", err)
	}
	return rec, nil
}

// ReadRuns returns all compilation runs ordered by seq ASC, id ASC.
// Returns an empty slice (not nil) for an empty store.
func (s *Store) ReadRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, model_hash, warnings, seq
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		var warnings string
		if err := rows.Scan(&run.ID, &run.Source, &run.ModelHash, &warnings, &run.Seq); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(warnings), &run.Warnings); err != nil {
			return nil, fmt.Errorf("unmarshal warnings: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadObjects returns the objects of class stored under modelHash, ordered
// by seq ASC, id ASC. An empty class returns objects of every class.
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadObjects(ctx context.Context, modelHash, class string) ([]ObjectRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model_hash, class, identifier, fields, seq
		FROM objects
		WHERE model_hash = ? AND (? = '' OR class = ?)
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, modelHash, class, class)
	if err != nil {
		return nil, fmt.Errorf("query objects: %w", err)
	}
	defer rows.Close()

	records := []ObjectRecord{}
	for rows.Next() {
		var rec ObjectRecord
		var identifier sql.NullString
		var fields string
		if err := rows.Scan(&rec.ID, &rec.ModelHash, &rec.Class, &identifier, &fields, &rec.Seq); err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		rec.Identifier = identifier.String
		if rec.Fields, err = unmarshalObject(fields); err != nil {
			return nil, fmt.Errorf("object %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate objects: %w", err)
	}
	return records, nil
}

// unmarshalObject parses canonical JSON TEXT to an ir.Object. Numbers are
// decoded as json.Number so integers beyond 2^53 survive.
func unmarshalObject(data string) (ir.Object, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal object: %w", err)
	}
	v, err := ir.FromAny(raw)
	if err != nil {
		return nil, fmt.Errorf("unmarshal object: %w", err)
	}
	obj, _ := v.(ir.Object)
	if obj == nil {
		obj = ir.Object{}
	}
	return obj, nil
}
