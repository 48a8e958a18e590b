package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches domain errors by code, so a wrapped copy with a different
// message still satisfies errors.Is against the sentinel.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Wrap returns a copy of e with a specific message and cause
func (e *DomainError) Wrap(message string, cause error) *DomainError {
	return &DomainError{Code: e.Code, Message: message, Err: cause}
}

// WithMessage returns a copy of e with a specific message
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{Code: e.Code, Message: message}
}

// Common domain errors
var (
	ErrNotFound       = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists  = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput   = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrUnauthorized   = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrConflict       = NewDomainError("CONFLICT", "Operation conflicts with current state")
	ErrUpstream       = NewDomainError("UPSTREAM_ERROR", "Upstream statistics service failed")
	ErrEmptyDataset   = NewDomainError("EMPTY_DATASET", "Dataset is empty or not found upstream")
	ErrEmptyCatalogue = NewDomainError("EMPTY_CATALOGUE", "Catalogue contains no structure")
)

// CodeOf returns the domain error code carried by err, or "" when err is
// not a DomainError.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
