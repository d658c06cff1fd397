package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ValidationError signals a missing or malformed field in a client request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s is required", e.Field)
}

// NotFoundError signals that a referenced resource does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// InvalidOperationError signals a structurally disallowed mutation,
// e.g. deleting the last remaining snippet of a journal entry.
type InvalidOperationError struct {
	Reason string
}

func (e *InvalidOperationError) Error() string {
	return e.Reason
}

// ConflictError signals a uniqueness-constraint race, recoverable by
// re-resolving the conflicting document.
type ConflictError struct {
	Key string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s", e.Key)
}

// UpstreamError signals that a remote collaborator (user service, genai
// service) is unreachable or returned a server error.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// StatusCode maps an error to the HTTP status the handlers respond with.
// Unknown errors map to 500.
func StatusCode(err error) int {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		invalidOp  *InvalidOperationError
		conflict   *ConflictError
		upstream   *UpstreamError
	)
	switch {
	case errors.As(err, &validation):
		return fiber.StatusBadRequest
	case errors.As(err, &notFound):
		return fiber.StatusNotFound
	case errors.As(err, &invalidOp):
		return fiber.StatusBadRequest
	case errors.As(err, &conflict):
		return fiber.StatusConflict
	case errors.As(err, &upstream):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// IsConflict reports whether err wraps a ConflictError.
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}

// IsInvalidOperation reports whether err wraps an InvalidOperationError.
func IsInvalidOperation(err error) bool {
	var invalidOp *InvalidOperationError
	return errors.As(err, &invalidOp)
}
