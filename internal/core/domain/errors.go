package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the store and the services wraps one
// of these so the HTTP layer can map it to a status code with errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrForbidden     = errors.New("access forbidden")
	ErrUnauthorized  = errors.New("unauthorized")
)

var (
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrProjectNotFound      = fmt.Errorf("project %w", ErrNotFound)
	ErrMemberNotFound       = fmt.Errorf("member %w", ErrNotFound)
	ErrTaskNotFound         = fmt.Errorf("task %w", ErrNotFound)
	ErrStageNotFound        = fmt.Errorf("stage %w", ErrNotFound)
	ErrTargetNotFound       = fmt.Errorf("target %w", ErrNotFound)
	ErrCellNotFound         = fmt.Errorf("matrix cell %w", ErrNotFound)
	ErrInvitationNotFound   = fmt.Errorf("invitation %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)
	ErrTenantNotFound       = fmt.Errorf("tenant %w", ErrNotFound)
	ErrTenantMemberNotFound = fmt.Errorf("tenant member %w", ErrNotFound)
	ErrActionNotFound       = fmt.Errorf("action %w", ErrNotFound)

	ErrUserExists      = fmt.Errorf("user %w", ErrAlreadyExists)
	ErrMemberExists    = fmt.Errorf("member %w", ErrAlreadyExists)
	ErrActionExists    = fmt.Errorf("action %w", ErrAlreadyExists)
	ErrTenantNotEmpty  = fmt.Errorf("%w: tenant still has projects", ErrConflict)
	ErrActionInUse     = fmt.Errorf("%w: action is used by matrix cells", ErrConflict)
	ErrOwnerImmutable  = fmt.Errorf("%w: the project owner cannot be changed through membership", ErrValidation)
	ErrInvitationGone  = fmt.Errorf("%w: invitation is no longer pending", ErrConflict)
	ErrInvalidToken    = fmt.Errorf("%w: invitation token does not match", ErrForbidden)
	ErrIdempotencyBusy = fmt.Errorf("%w: request with this idempotency key is still in progress", ErrConflict)
)

// Validationf builds an ErrValidation with a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
