// Package domainerrors defines the registry's domain error taxonomy. Every failure
// a caller can observe carries one of these codes; stores return sentinel
// errors instead and services translate them here.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeUnauthorized: the caller lacks the role required by the operation.
	CodeUnauthorized Code = "unauthorized"
	// CodeZeroHash: proof creation with an all-zero hash.
	CodeZeroHash Code = "zero_hash"
	// CodeDuplicateHash: an active proof already carries the hash.
	CodeDuplicateHash Code = "duplicate_hash"
	// CodeNotFound: the proof id (or other entity) does not exist.
	CodeNotFound Code = "not_found"
	// CodeNotOwnerOrApproved: the caller is neither owner nor delegate nor
	// operator for the proof.
	CodeNotOwnerOrApproved Code = "not_owner_or_approved"
	// CodeAlreadyConfirmed: the caller already confirmed this proof.
	CodeAlreadyConfirmed Code = "already_confirmed"
	// CodeOutOfRange: enumeration index beyond the owner's balance.
	CodeOutOfRange Code = "out_of_range"
	// CodeUnsafeRecipient: the recipient refused (or cannot negotiate) a safe
	// transfer.
	CodeUnsafeRecipient Code = "unsafe_recipient"

	CodeBadRequest Code = "bad_request"
	CodeTimeout    Code = "timeout"
	CodeInternal   Code = "internal"
)

// RegistryError is the concrete error type surfaced by domain services.
type RegistryError struct {
	Code    Code
	Message string
	cause   error
}

func (e *RegistryError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RegistryError) Unwrap() error {
	return e.cause
}

// New builds a domain error from a code and message.
func New(code Code, message string) error {
	return &RegistryError{Code: code, Message: message}
}

// Newf builds a domain error with a formatted message so call sites can embed
// the offending id, hash, or role.
func Newf(code Code, format string, args ...any) error {
	return &RegistryError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a domain code to an underlying infrastructure error.
func Wrap(err error, code Code, message string) error {
	return &RegistryError{Code: code, Message: message, cause: err}
}

// HasCode reports whether err carries the given domain code.
func HasCode(err error, code Code) bool {
	var re *RegistryError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// Is is a readability alias for HasCode used at handler call sites.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the domain code, defaulting to CodeInternal for foreign
// errors so transport never leaks infrastructure detail.
func CodeOf(err error) Code {
	var re *RegistryError
	if errors.As(err, &re) {
		return re.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain code to its transport status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized, CodeNotOwnerOrApproved:
		return http.StatusForbidden
	case CodeZeroHash:
		return http.StatusUnprocessableEntity
	case CodeDuplicateHash, CodeAlreadyConfirmed:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeOutOfRange:
		return http.StatusRequestedRangeNotSatisfiable
	case CodeUnsafeRecipient, CodeBadRequest:
		return http.StatusBadRequest
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
