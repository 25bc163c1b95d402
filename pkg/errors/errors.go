package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind categorizes pipeline failures. Every error that crosses a service
// boundary carries exactly one Kind so callers can branch on the failure
// class without string matching.
type Kind string

const (
	// KindValidation indicates a record violated its schema
	KindValidation Kind = "VALIDATION_ERROR"

	// KindSanitization indicates content that cannot be sanitized
	KindSanitization Kind = "SANITIZATION_ERROR"

	// KindIntegrity indicates an HMAC mismatch: tampering or wrong key material
	KindIntegrity Kind = "INTEGRITY_VIOLATION"

	// KindDecryption indicates authentication passed but the plaintext is invalid
	KindDecryption Kind = "DECRYPTION_FAILURE"

	// KindRepair indicates no repair rule applies to a reported issue
	KindRepair Kind = "REPAIR_UNRESOLVABLE"

	// KindInvalidInput indicates a malformed argument (empty password, bad hex, ...)
	KindInvalidInput Kind = "INVALID_INPUT"

	// KindInternal indicates an unexpected infrastructure-level failure
	KindInternal Kind = "INTERNAL_ERROR"
)

// DomainError represents a pipeline error with rich context
type DomainError struct {
	Kind    Kind           `json:"kind"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

// New creates a new domain error
func New(kind Kind, code string, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Code, e.Message)
}

// WithCause returns a copy of the error with an underlying cause attached.
// Sentinel values stay immutable.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := e.clone()
	c.Cause = cause
	return c
}

// WithDetail returns a copy of the error with an extra context entry
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	c := e.clone()
	c.Details[key] = value
	return c
}

func (e *DomainError) clone() *DomainError {
	details := make(map[string]any, len(e.Details))
	for k, v := range e.Details {
		details[k] = v
	}
	return &DomainError{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// Is reports whether target matches this error's kind and code
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Common pipeline errors - pre-defined values matched with errors.Is

var (
	// Encryption errors
	ErrIntegrityViolation = New(
		KindIntegrity,
		"HMAC_MISMATCH",
		"Encrypted payload failed integrity verification",
	)

	ErrDecryptionFailed = New(
		KindDecryption,
		"INVALID_PLAINTEXT",
		"Decryption produced invalid or empty plaintext",
	)

	ErrMalformedEnvelope = New(
		KindInvalidInput,
		"MALFORMED_ENVELOPE",
		"Encrypted payload fields are not valid hex of the expected length",
	)

	ErrEmptyPassword = New(
		KindInvalidInput,
		"EMPTY_PASSWORD",
		"Password must not be empty",
	)

	// Validation errors
	ErrTitleRequired = New(
		KindValidation,
		"TITLE_REQUIRED",
		"Memory title is required",
	)

	ErrInvalidMemoryType = New(
		KindValidation,
		"INVALID_MEMORY_TYPE",
		"Memory type is not a recognized value",
	)

	ErrNilMemory = New(
		KindInvalidInput,
		"NIL_MEMORY",
		"Memory record must not be nil",
	)

	// Sanitization errors
	ErrCyclicReference = New(
		KindSanitization,
		"CYCLIC_REFERENCE",
		"Object graph contains a cycle and cannot be sanitized",
	)

	ErrMaxDepthExceeded = New(
		KindSanitization,
		"MAX_DEPTH_EXCEEDED",
		"Object nesting exceeds the maximum sanitization depth",
	)

	// Repair errors
	ErrRepairUnresolvable = New(
		KindRepair,
		"NO_APPLICABLE_RULE",
		"No repair rule applies to the reported issue",
	)
)

// GetDomainError extracts a DomainError from an error chain
func GetDomainError(err error) *DomainError {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de
	}
	return nil
}

// KindOf returns the Kind carried by err, or KindInternal for untyped errors
func KindOf(err error) Kind {
	if de := GetDomainError(err); de != nil {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ValidationErrors aggregates multiple field-level validation errors
type ValidationErrors struct {
	Errors []*DomainError `json:"errors"`
}

// NewValidationErrors creates a new validation errors collection
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]*DomainError, 0),
	}
}

// Add adds a field-level validation error
func (v *ValidationErrors) Add(field string, code string, message string) {
	err := New(KindValidation, code, message).WithDetail("field", field)
	v.Errors = append(v.Errors, err)
}

// AddError adds a pre-existing domain error
func (v *ValidationErrors) AddError(err *DomainError) {
	v.Errors = append(v.Errors, err)
}

// HasErrors returns true if there are validation errors
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error implements the error interface
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}

	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Message
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// ToMap converts validation errors to a field → messages map for display
func (v *ValidationErrors) ToMap() map[string][]string {
	result := make(map[string][]string)

	for _, err := range v.Errors {
		field, ok := err.Details["field"].(string)
		if !ok {
			field = "general"
		}
		result[field] = append(result[field], err.Message)
	}

	return result
}
