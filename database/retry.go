package database

import (
	"context"
	"errors"
	"fmt"

	"bookstore/apperror"
)

// MaxConflictAttempts bounds how often a read-validate-write is re-run after a version conflict.
const MaxConflictAttempts = 3

// RetryOnConflict runs fn until it stops returning ErrVersionConflict. Any other error ends the
// loop immediately. Running out of attempts is reported as a persistence failure.
func RetryOnConflict(ctx context.Context, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if !errors.Is(err, ErrVersionConflict) {
			return err
		}
		if attempt == MaxConflictAttempts {
			return fmt.Errorf("%w: gave up after %d attempts: %w", apperror.ErrPersistence, attempt, err)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", apperror.ErrPersistence, ctx.Err())
		}
	}
}
