package harness

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/roach88/schemac/internal/ir"
	"github.com/roach88/schemac/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Index    int
	Type     string
	Message  string
	Expected any
	Actual   any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	msg := fmt.Sprintf("assertion[%d] (%s): %s", e.Index, e.Type, e.Message)
	if e.Expected != nil || e.Actual != nil {
		msg += fmt.Sprintf("\n  expected: %v\n  actual:   %v", e.Expected, e.Actual)
	}
	return msg
}

// EvaluateAssertions evaluates all assertions against the objects stored
// under modelHash. Returns a slice of error messages for failed assertions.
func EvaluateAssertions(ctx context.Context, st *store.Store, modelHash string, assertions []Assertion) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertStoredCount:
			err = assertStoredCount(ctx, st, modelHash, i, assertion)
		case AssertStoredObject:
			err = assertStoredObject(ctx, st, modelHash, i, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}

// assertStoredCount checks that the class has exactly Count stored objects.
func assertStoredCount(ctx context.Context, st *store.Store, modelHash string, index int, a Assertion) error {
	records, err := st.ReadObjects(ctx, modelHash, a.Class)
	if err != nil {
		return fmt.Errorf("assertion[%d]: %w", index, err)
	}
	if len(records) != a.Count {
		return &AssertionError{
			Index:    index,
			Type:     a.Type,
			Message:  fmt.Sprintf("stored %s objects", a.Class),
			Expected: a.Count,
			Actual:   len(records),
		}
	}
	return nil
}

// assertStoredObject finds the stored object by identifier and checks its
// fields with subset semantics: fields absent from Expect are ignored.
func assertStoredObject(ctx context.Context, st *store.Store, modelHash string, index int, a Assertion) error {
	records, err := st.ReadObjects(ctx, modelHash, a.Class)
	if err != nil {
		return fmt.Errorf("assertion[%d]: %w", index, err)
	}

	var fields ir.Object
	for _, rec := range records {
		if rec.Identifier == a.ID {
			fields = rec.Fields
			break
		}
	}
	if fields == nil {
		return &AssertionError{
			Index:   index,
			Type:    a.Type,
			Message: fmt.Sprintf("no stored %s with identifier %q", a.Class, a.ID),
		}
	}

	keys := make([]string, 0, len(a.Expect))
	for k := range a.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		expected, err := ir.FromAny(a.Expect[key])
		if err != nil {
			return fmt.Errorf("assertion[%d]: expect.%s: %w", index, key, err)
		}
		actual, ok := fields[key]
		if !ok {
			actual = ir.Null{}
		}
		if !valuesEqual(actual, expected) {
			return &AssertionError{
				Index:    index,
				Type:     a.Type,
				Message:  fmt.Sprintf("%s %q field %s", a.Class, a.ID, key),
				Expected: expected,
				Actual:   actual,
			}
		}
	}
	return nil
}

// valuesEqual compares stored and expected values. Integral floats match
// integers, since YAML and canonical JSON do not keep the distinction.
func valuesEqual(actual, expected ir.Value) bool {
	switch exp := expected.(type) {
	case ir.Int:
		if f, ok := actual.(ir.Float); ok {
			return float64(f) == float64(exp)
		}
	case ir.Float:
		if n, ok := actual.(ir.Int); ok {
			return float64(n) == float64(exp)
		}
	case ir.Array:
		act, ok := actual.(ir.Array)
		if !ok || len(act) != len(exp) {
			return false
		}
		for i := range exp {
			if !valuesEqual(act[i], exp[i]) {
				return false
			}
		}
		return true
	case ir.Object:
		act, ok := actual.(ir.Object)
		if !ok || len(act) != len(exp) {
			return false
		}
		for k, v := range exp {
			av, ok := act[k]
			if !ok || !valuesEqual(av, v) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(actual, expected)
}
