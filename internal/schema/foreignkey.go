package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ResolutionErrorCode categorizes foreign-key resolution failures.
type ResolutionErrorCode string

const (
	// ErrCodeAmbiguousForeignKey indicates several declared foreign keys
	// match the request. The caller must disambiguate with explicit columns.
	ErrCodeAmbiguousForeignKey ResolutionErrorCode = "FK_AMBIGUOUS"

	// ErrCodeForeignKeyNotFound indicates no foreign key could be inferred.
	ErrCodeForeignKeyNotFound ResolutionErrorCode = "FK_NOT_FOUND"

	// ErrCodeColumnCountMismatch indicates explicit column lists of unequal
	// length.
	ErrCodeColumnCountMismatch ResolutionErrorCode = "FK_COLUMN_COUNT_MISMATCH"
)

// ResolutionError is an unrecoverable configuration error: the request
// must be fixed, not retried. It carries enough context (tables, columns)
// for the caller to disambiguate.
type ResolutionError struct {
	Code        ResolutionErrorCode
	Message     string
	Origin      string
	Destination string
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s: %s (origin=%s, destination=%s)", e.Code, e.Message, e.Origin, e.Destination)
}

// IsAmbiguityError reports whether err is an ambiguous-foreign-key error.
// Uses errors.As to handle wrapped errors.
func IsAmbiguityError(err error) bool {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Code == ErrCodeAmbiguousForeignKey
	}
	return false
}

// ForeignKeyRequest asks for the join column mapping between two tables.
//
// Fully explicit column lists resolve positionally with zero schema access.
// Partial or absent lists resolve against the schema's declared foreign
// keys, falling back to primary-key inference.
type ForeignKeyRequest struct {
	Origin      string
	Destination string

	// OriginColumns constrains the foreign key columns on the origin table.
	// Optional.
	OriginColumns []string

	// DestinationColumns constrains the referenced columns. Optional.
	DestinationColumns []string
}

// Equal reports whether two requests are structurally identical.
// Merging relation children requires equal conditions.
func (r ForeignKeyRequest) Equal(other ForeignKeyRequest) bool {
	return r.Origin == other.Origin &&
		r.Destination == other.Destination &&
		equalStrings(r.OriginColumns, other.OriginColumns) &&
		equalStrings(r.DestinationColumns, other.DestinationColumns)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Resolve determines the ordered (origin, destination) column pairs.
//
// Resolution order:
//  1. Both column lists explicit: positional pairing, no schema access.
//  2. Declared foreign keys of the origin table, filtered to the
//     destination table and any partial column constraints
//     (case-insensitively). Exactly one survivor wins; several is an
//     unrecoverable ambiguity.
//  3. No survivor but partial origin columns given: pair them positionally
//     against the destination's primary key when the counts match.
//
// Anything else is an unrecoverable "cannot infer foreign key" error.
// The result depends on the schema snapshot and must not be cached across
// schema changes.
func (r ForeignKeyRequest) Resolve(ctx context.Context, db Introspecter) ([]ColumnPair, error) {
	if len(r.OriginColumns) > 0 && len(r.DestinationColumns) > 0 {
		if len(r.OriginColumns) != len(r.DestinationColumns) {
			return nil, &ResolutionError{
				Code:        ErrCodeColumnCountMismatch,
				Message:     fmt.Sprintf("%d origin columns vs %d destination columns", len(r.OriginColumns), len(r.DestinationColumns)),
				Origin:      r.Origin,
				Destination: r.Destination,
			}
		}
		pairs := make([]ColumnPair, len(r.OriginColumns))
		for i := range r.OriginColumns {
			pairs[i] = ColumnPair{Origin: r.OriginColumns[i], Destination: r.DestinationColumns[i]}
		}
		return pairs, nil
	}

	declared, err := db.ForeignKeys(ctx, r.Origin)
	if err != nil {
		return nil, fmt.Errorf("foreign keys of %q: %w", r.Origin, err)
	}

	var candidates []ForeignKey
	for _, fk := range declared {
		if !strings.EqualFold(fk.DestinationTable, r.Destination) {
			continue
		}
		if !matchesColumns(fk, r.OriginColumns, r.DestinationColumns) {
			continue
		}
		candidates = append(candidates, fk)
	}

	switch len(candidates) {
	case 1:
		return candidates[0].Mapping, nil
	case 0:
		// Fall through to primary-key inference.
	default:
		return nil, &ResolutionError{
			Code: ErrCodeAmbiguousForeignKey,
			Message: fmt.Sprintf("%d foreign keys from %s to %s; disambiguate with explicit columns",
				len(candidates), r.Origin, r.Destination),
			Origin:      r.Origin,
			Destination: r.Destination,
		}
	}

	if len(r.OriginColumns) > 0 {
		pk, err := db.PrimaryKey(ctx, r.Destination)
		if err != nil {
			return nil, fmt.Errorf("primary key of %q: %w", r.Destination, err)
		}
		if len(pk.Columns) == len(r.OriginColumns) {
			pairs := make([]ColumnPair, len(r.OriginColumns))
			for i := range r.OriginColumns {
				pairs[i] = ColumnPair{Origin: r.OriginColumns[i], Destination: pk.Columns[i]}
			}
			return pairs, nil
		}
	}

	return nil, &ResolutionError{
		Code:        ErrCodeForeignKeyNotFound,
		Message:     "cannot infer foreign key; declare one in the schema or provide explicit columns",
		Origin:      r.Origin,
		Destination: r.Destination,
	}
}

// matchesColumns checks a declared foreign key against partial column
// constraints, case-insensitively.
func matchesColumns(fk ForeignKey, originColumns, destinationColumns []string) bool {
	if len(originColumns) > 0 {
		if len(originColumns) != len(fk.Mapping) {
			return false
		}
		for i, pair := range fk.Mapping {
			if !strings.EqualFold(pair.Origin, originColumns[i]) {
				return false
			}
		}
	}
	if len(destinationColumns) > 0 {
		if len(destinationColumns) != len(fk.Mapping) {
			return false
		}
		for i, pair := range fk.Mapping {
			if !strings.EqualFold(pair.Destination, destinationColumns[i]) {
				return false
			}
		}
	}
	return true
}
