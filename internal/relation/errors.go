package relation

import (
	"errors"
	"fmt"
)

// MergeErrorCode categorizes structural merge failures.
type MergeErrorCode string

const (
	// ErrCodeTableMismatch indicates two relations read different tables.
	ErrCodeTableMismatch MergeErrorCode = "TABLE_MISMATCH"

	// ErrCodeAliasConflict indicates two aliases for the same source carry
	// conflicting names or table bindings.
	ErrCodeAliasConflict MergeErrorCode = "ALIAS_CONFLICT"

	// ErrCodeKindMismatch indicates children with irreconcilable join kinds
	// (a joined child against a prefetched one).
	ErrCodeKindMismatch MergeErrorCode = "KIND_MISMATCH"

	// ErrCodeConditionMismatch indicates children with different join
	// conditions.
	ErrCodeConditionMismatch MergeErrorCode = "CONDITION_MISMATCH"

	// ErrCodeKeyAmbiguous indicates two associations landed on the same
	// child key and could not merge. The caller must disambiguate with an
	// explicit key.
	ErrCodeKeyAmbiguous MergeErrorCode = "KEY_AMBIGUOUS"

	// ErrCodePrefetchBridgeMerge indicates overlapping direct and indirect
	// prefetch paths. Reconciling them is not implemented.
	ErrCodePrefetchBridgeMerge MergeErrorCode = "PREFETCH_BRIDGE_UNSUPPORTED"

	// ErrCodeChildModifiers indicates a joined child relation carrying
	// DISTINCT, GROUP BY or LIMIT, which a flattened SELECT cannot express.
	ErrCodeChildModifiers MergeErrorCode = "CHILD_MODIFIERS"
)

// MergeError is an unrecoverable structural error: two requests were
// composed in a way that has no meaning. The request must be fixed, not
// retried.
type MergeError struct {
	Code    MergeErrorCode
	Message string

	// Key is the child key involved, when the failure concerns a child.
	Key string
}

// Error implements the error interface.
func (e *MergeError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s (key=%s)", e.Code, e.Message, e.Key)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsAmbiguousKeyError reports whether err is a child key ambiguity.
// Uses errors.As to handle wrapped errors.
func IsAmbiguousKeyError(err error) bool {
	var me *MergeError
	if errors.As(err, &me) {
		return me.Code == ErrCodeKeyAmbiguous
	}
	return false
}

// IsMergeError reports whether err is any structural merge failure.
func IsMergeError(err error) bool {
	var me *MergeError
	return errors.As(err, &me)
}
