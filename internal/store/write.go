package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/schemac/internal/ir"
	"github.com/roach88/schemac/internal/model"
)

// Run is one compilation of a schema source.
type Run struct {
	ID        string
	Source    string
	ModelHash string
	Warnings  []string
	Seq       int64
}

// IdentifierConflictError reports an object whose identifier is already
// stored for its class with different content.
type IdentifierConflictError struct {
	ModelHash  string
	Class      string
	Identifier string
}

func (e *IdentifierConflictError) Error() string {
	return fmt.Sprintf("object %s %q already stored with different content", e.Class, e.Identifier)
}

// IsIdentifierConflict returns true if err is an identifier conflict.
func IsIdentifierConflict(err error) bool {
	var ce *IdentifierConflictError
	return errors.As(err, &ce)
}

// WriteModel records a compilation run and the compiled model's snapshot.
// The model row uses ON CONFLICT(hash) DO NOTHING, so recompiling an
// unchanged schema only adds a run. run.ModelHash and run.Warnings are
// taken from m.
func (s *Store) WriteModel(ctx context.Context, run Run, m *model.CompiledModel) (Run, error) {
	snapshot, err := ir.MarshalCanonical(m.Snapshot())
	if err != nil {
		return run, fmt.Errorf("write model: %w", err)
	}

	run.ModelHash = m.Hash()
	run.Warnings = make([]string, 0, len(m.Warnings()))
	for _, c := range m.Warnings() {
		run.Warnings = append(run.Warnings, c.Message)
	}
	warnings, err := marshalStrings(run.Warnings)
	if err != nil {
		return run, fmt.Errorf("write model: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return run, fmt.Errorf("write model: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO models (hash, name, snapshot)
		VALUES (?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, run.ModelHash, m.Name(), string(snapshot)); err != nil {
		return run, fmt.Errorf("write model: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, source, model_hash, warnings, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.Source, run.ModelHash, warnings, run.Seq); err != nil {
		return run, fmt.Errorf("write run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return run, fmt.Errorf("write model: commit: %w", err)
	}
	return run, nil
}

// WriteObject stores an instance's canonical data under modelHash and
// returns its content-addressed id. Writing an identical object twice is a
// no-op; a different object with a stored identifier fails with
// IdentifierConflictError.
func (s *Store) WriteObject(ctx context.Context, modelHash string, inst *model.Instance, seq int64) (string, error) {
	class := inst.Class().Name()
	fields, err := inst.ToObject()
	if err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	id, err := ir.ObjectHash(modelHash, class, fields)
	if err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	data, err := ir.MarshalCanonical(fields)
	if err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}

	var identifier any
	if v := inst.ID(); v != nil {
		identifier = fmt.Sprint(v)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO objects (id, model_hash, class, identifier, fields, seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, modelHash, class, identifier, string(data), seq)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return "", &IdentifierConflictError{ModelHash: modelHash, Class: class, Identifier: fmt.Sprint(identifier)}
		}
		return "", fmt.Errorf("write object: %w", err)
	}
	return id, nil
}

func marshalStrings(ss []string) (string, error) {
	arr := make(ir.Array, len(ss))
	for i, s := range ss {
		arr[i] = ir.String(s)
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
