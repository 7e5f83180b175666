package errors

import "fmt"

// ErrorCode represents a Lattice error code.
type ErrorCode string

const (
	ErrNotFound        ErrorCode = "NOT_FOUND"        // 404
	ErrConstraint      ErrorCode = "CONSTRAINT"       // 409
	ErrInvalidRelation ErrorCode = "INVALID_RELATION" // 400
	ErrValidation      ErrorCode = "VALIDATION"       // 422
	ErrUnknownVariant  ErrorCode = "UNKNOWN_VARIANT"  // 500
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"  // 400
	ErrInternal        ErrorCode = "INTERNAL"         // 500
)

// LatticeError represents a structured error with code, status, and details.
type LatticeError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *LatticeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewNotFound creates a 404 error for a missing node or edge endpoint.
func NewNotFound(identifier string) *LatticeError {
	return &LatticeError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("node not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewConstraint creates a 409 error for uniqueness or FK violations.
func NewConstraint(msg string) *LatticeError {
	return &LatticeError{
		Code:    ErrConstraint,
		Status:  409,
		Message: msg,
	}
}

// NewInvalidRelation creates a 400 error for a rejected edge.
func NewInvalidRelation(msg string) *LatticeError {
	return &LatticeError{
		Code:    ErrInvalidRelation,
		Status:  400,
		Message: msg,
	}
}

// NewValidation creates a 422 error when a payload fails its variant schema check.
func NewValidation(msg string) *LatticeError {
	return &LatticeError{
		Code:    ErrValidation,
		Status:  422,
		Message: msg,
	}
}

// NewUnknownVariant creates a 500 error for a record tag outside the dispatch
// mapping. Should be unreachable given closed variants; fails loudly instead
// of silently coercing.
func NewUnknownVariant(kind string) *LatticeError {
	return &LatticeError{
		Code:    ErrUnknownVariant,
		Status:  500,
		Message: fmt.Sprintf("unknown node variant: %s", kind),
		Details: map[string]any{"kind": kind},
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *LatticeError {
	return &LatticeError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *LatticeError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &LatticeError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a LatticeError with the given code.
func Is(err error, code ErrorCode) bool {
	if lErr, ok := err.(*LatticeError); ok {
		return lErr.Code == code
	}
	return false
}
