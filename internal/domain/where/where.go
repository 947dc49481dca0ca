// Package where builds and validates the filter expressions accepted by
// the vector-store collaborator's delete and query calls.
//
// The grammar: {field: value} equality, {field: {$op: value}} comparison
// with $eq/$ne/$gt/$gte/$lt/$lte, {field: {$in|$nin: [values]}} set
// membership, and {$and|$or: [clause, ...]} boolean composition. Every
// object carries exactly one top-level key; $and and $or require at
// least two children.
package where

import (
	"fmt"

	"github.com/kailas-cloud/vecsync/internal/domain"
)

// Clause is one filter expression node, shaped for direct JSON
// serialization onto the wire.
type Clause map[string]any

// Eq matches documents whose field equals value.
func Eq(field string, value any) Clause {
	return Clause{field: value}
}

// Ne matches documents whose field differs from value.
func Ne(field string, value any) Clause {
	return Clause{field: map[string]any{"$ne": value}}
}

// In matches documents whose field is one of values.
func In(field string, values []any) Clause {
	return Clause{field: map[string]any{"$in": values}}
}

// Nin matches documents whose field is none of values.
func Nin(field string, values []any) Clause {
	return Clause{field: map[string]any{"$nin": values}}
}

// And combines clauses conjunctively.
func And(clauses ...Clause) Clause {
	return Clause{"$and": clauses}
}

// Or combines clauses disjunctively.
func Or(clauses ...Clause) Clause {
	return Clause{"$or": clauses}
}

var comparisonOps = map[string]struct{}{
	"$gt": {}, "$gte": {}, "$lt": {}, "$lte": {}, "$ne": {}, "$eq": {}, "$in": {}, "$nin": {},
}

var numericOps = map[string]struct{}{
	"$gt": {}, "$gte": {}, "$lt": {}, "$lte": {},
}

// Validate checks a clause against the collaborator's rules. Sending an
// invalid clause would be rejected downstream, so the pipeline validates
// before issuing any delete call.
func Validate(c Clause) error {
	if len(c) != 1 {
		return fmt.Errorf("expected exactly one operator, got %d: %w", len(c), domain.ErrInvalidFilter)
	}

	for key, value := range c {
		if key == "$and" || key == "$or" {
			children, ok := childClauses(value)
			if !ok {
				return fmt.Errorf("%s value must be a list of clauses: %w", key, domain.ErrInvalidFilter)
			}
			if len(children) < 2 {
				return fmt.Errorf("%s requires at least 2 children, got %d: %w", key, len(children), domain.ErrInvalidFilter)
			}
			for _, child := range children {
				if err := Validate(child); err != nil {
					return err
				}
			}
			return nil
		}

		switch v := value.(type) {
		case string, bool, int, int64, float64:
			return nil
		case map[string]any:
			return validateOperator(v)
		default:
			return fmt.Errorf("field %q value must be a scalar or operator expression: %w", key, domain.ErrInvalidFilter)
		}
	}
	return nil
}

func validateOperator(expr map[string]any) error {
	if len(expr) != 1 {
		return fmt.Errorf("operator expression must have one operator, got %d: %w", len(expr), domain.ErrInvalidFilter)
	}

	for op, operand := range expr {
		if _, ok := comparisonOps[op]; !ok {
			return fmt.Errorf("unknown operator %q: %w", op, domain.ErrInvalidFilter)
		}

		if _, numeric := numericOps[op]; numeric {
			if !isNumber(operand) {
				return fmt.Errorf("operator %s requires a numeric operand: %w", op, domain.ErrInvalidFilter)
			}
			return nil
		}

		if op == "$in" || op == "$nin" {
			values, ok := operand.([]any)
			if !ok {
				return fmt.Errorf("operator %s requires an array operand: %w", op, domain.ErrInvalidFilter)
			}
			if len(values) == 0 {
				return fmt.Errorf("operator %s requires a non-empty array: %w", op, domain.ErrInvalidFilter)
			}
			for _, v := range values {
				if !isScalar(v) {
					return fmt.Errorf("operator %s operand values must be scalars: %w", op, domain.ErrInvalidFilter)
				}
			}
			return nil
		}

		// $eq / $ne
		if !isScalar(operand) {
			return fmt.Errorf("operator %s requires a scalar operand: %w", op, domain.ErrInvalidFilter)
		}
	}
	return nil
}

// childClauses normalizes the children of $and/$or, which appear as
// []Clause when built locally and []any after a JSON round trip.
func childClauses(value any) ([]Clause, bool) {
	switch v := value.(type) {
	case []Clause:
		return v, true
	case []any:
		out := make([]Clause, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			out = append(out, Clause(m))
		}
		return out, true
	default:
		return nil, false
	}
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int64, float64:
		return true
	default:
		return false
	}
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int64, float64:
		return true
	default:
		return false
	}
}
