package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	ErrWorkerPanic          = fmt.Errorf("worker panic")
	ErrEmptyPolicy          = fmt.Errorf("no blocked words nor blacklisted domains have been found")
	ErrInvalidPayload       = fmt.Errorf("invalid event payload")
	ErrUnknownStorageDriver = fmt.Errorf("unknown storage driver")

	ErrContactUnreachable     = fmt.Errorf("user cannot be contacted")
	ErrRemovalFailed          = fmt.Errorf("platform rejected the removal")
	ErrPersistenceUnavailable = fmt.Errorf("persistence unavailable")
	ErrValidationFailed       = fmt.Errorf("validation failed")
	ErrUnauthorized           = fmt.Errorf("unauthorized")

	ErrUserNotFound     = fmt.Errorf("user not found")
	ErrNoPendingRequest = fmt.Errorf("no pending field request")
	ErrPhoneMissing     = fmt.Errorf("phone number is missing")
	ErrForeignContact   = fmt.Errorf("contact does not belong to the sender")
)

// Is and As are re-exported so callers importing this package don't shadow the standard library.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

// Persistence wraps a storage failure so callers can match ErrPersistenceUnavailable.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistenceUnavailable, op, err)
}
