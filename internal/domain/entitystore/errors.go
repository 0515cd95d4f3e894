// Package entitystore defines the error vocabulary every repository speaks,
// whatever the backing store. Use cases match on these, never on driver codes.
package entitystore

import "github.com/cockroachdb/errors"

var (
	// ErrDuplicate is a unique-constraint violation.
	ErrDuplicate = errors.New("entitystore: duplicate row")
	// ErrNotFound means the addressed row does not exist.
	ErrNotFound = errors.New("entitystore: row not found")
	// ErrConstraint is any other integrity violation, e.g. a dangling foreign key.
	ErrConstraint = errors.New("entitystore: constraint violation")
	// ErrStale means a conditional write lost against a concurrent change.
	ErrStale = errors.New("entitystore: row changed concurrently")
	// ErrUnavailable wraps transport and driver failures.
	ErrUnavailable = errors.New("entitystore: store unavailable")
)

// Unavailable marks err as a store outage while keeping it as the cause.
func Unavailable(err error, op string) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrap(err, op), ErrUnavailable)
}

// Classified reports whether err already carries one of the store kinds.
func Classified(err error) bool {
	return errors.IsAny(err, ErrDuplicate, ErrNotFound, ErrConstraint, ErrStale, ErrUnavailable)
}
