package task

import "errors"

var (
	// ErrNotFound indicates no task matches the given id.
	ErrNotFound = errors.New("task not found")
	// ErrValidation indicates malformed input; the request is not applied.
	ErrValidation = errors.New("invalid input")
	// ErrPermission indicates the actor may not perform the change.
	ErrPermission = errors.New("permission denied")
	// ErrPersistence indicates a storage invariant was violated.
	ErrPersistence = errors.New("persistence failure")
)

// Error codes used when errors cross a request-reply boundary.
const (
	CodeNotFound    = "not_found"
	CodeValidation  = "validation"
	CodePermission  = "permission"
	CodePersistence = "persistence"
	CodeInternal    = "internal"
)

// ErrorCode maps an error to its wire code. A nil error maps to "".
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrPermission):
		return CodePermission
	case errors.Is(err, ErrPersistence):
		return CodePersistence
	default:
		return CodeInternal
	}
}

// ErrorFromCode rebuilds an error from a wire code and message.
func ErrorFromCode(code, message string) error {
	var base error
	switch code {
	case "":
		return nil
	case CodeNotFound:
		base = ErrNotFound
	case CodeValidation:
		base = ErrValidation
	case CodePermission:
		base = ErrPermission
	case CodePersistence:
		base = ErrPersistence
	default:
		return errors.New(message)
	}
	if message == "" || message == base.Error() {
		return base
	}
	return &codedError{base: base, message: message}
}

type codedError struct {
	base    error
	message string
}

func (e *codedError) Error() string { return e.message }

func (e *codedError) Unwrap() error { return e.base }
