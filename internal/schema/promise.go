package schema

import "context"

// Promise is a deferred computation keyed on a future schema connection.
//
// Relation fields that depend on runtime schema introspection (primary keys,
// foreign keys) are stored as promises and resolved in a single explicit
// pass once a connection is available. Resolution is one-shot and never
// cached: a promise must be re-resolved after schema changes.
//
// The zero Promise resolves to the zero value of T.
type Promise[T any] struct {
	fn func(ctx context.Context, db Introspecter) (T, error)
}

// NewPromise wraps a deferred computation.
func NewPromise[T any](fn func(ctx context.Context, db Introspecter) (T, error)) Promise[T] {
	return Promise[T]{fn: fn}
}

// Fixed wraps an already-known value. Resolution never touches the schema.
func Fixed[T any](value T) Promise[T] {
	return Promise[T]{fn: func(context.Context, Introspecter) (T, error) {
		return value, nil
	}}
}

// IsZero reports whether the promise carries no computation.
func (p Promise[T]) IsZero() bool {
	return p.fn == nil
}

// Resolve runs the deferred computation against a schema connection.
func (p Promise[T]) Resolve(ctx context.Context, db Introspecter) (T, error) {
	if p.fn == nil {
		var zero T
		return zero, nil
	}
	return p.fn(ctx, db)
}

// Map derives a promise by transforming the resolved value.
func Map[T, U any](p Promise[T], transform func(T) (U, error)) Promise[U] {
	return Promise[U]{fn: func(ctx context.Context, db Introspecter) (U, error) {
		value, err := p.Resolve(ctx, db)
		if err != nil {
			var zero U
			return zero, err
		}
		return transform(value)
	}}
}
