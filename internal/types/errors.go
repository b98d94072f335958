package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Complete error code constants.
// All packages MUST use these constants instead of hardcoded strings.
const (
	// Validation: caller-correctable constructor precondition failures.
	ErrCodeValidationSummary      ErrorCode = "validation_invalid_summary"
	ErrCodeValidationMessageID    ErrorCode = "validation_invalid_message_id"
	ErrCodeValidationObjectList   ErrorCode = "validation_unknown_object_list"
	ErrCodeValidationObject       ErrorCode = "validation_invalid_object"
	ErrCodeValidationSubscription ErrorCode = "validation_invalid_subscription"
	ErrCodeValidationMessage      ErrorCode = "validation_invalid_message"

	// Contract: internal invariant breaches. Fatal, never retried.
	ErrCodeContractStoreKey ErrorCode = "contract_invalid_store_key"

	// Decode: malformed input to the identifier-part codec.
	ErrCodeDecodeIDPart ErrorCode = "decode_invalid_id_part"

	// Internal/Upstream
	ErrCodeInternalDB         ErrorCode = "internal_database_error"
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
	ErrCodeUpstreamQueue      ErrorCode = "upstream_queue_unavailable"
	ErrCodeUpstreamSecrets    ErrorCode = "upstream_secrets_unavailable"
)

// IsValidationCode reports whether the code describes a caller-correctable
// input error, as opposed to a contract violation or infrastructure failure.
func (c ErrorCode) IsValidationCode() bool {
	return strings.HasPrefix(string(c), "validation_")
}

// IsContractCode reports whether the code describes an internal invariant
// breach. Contract errors must not be caught and retried by calling code,
// only logged and escalated.
func (c ErrorCode) IsContractCode() bool {
	return strings.HasPrefix(string(c), "contract_")
}

// AppError is the standard application error type used throughout the
// pipeline. All domain errors should be expressed as AppError to enable
// consistent error formatting, categorization, and error chain support.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError with the given code, message, and
// optional underlying error. This is the standard constructor for domain
// errors.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf extracts the ErrorCode from an error chain. Returns
// ErrCodeInternalUnexpected for errors that do not carry an AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalUnexpected
}

// IsValidation reports whether any error in the chain is a validation error.
func IsValidation(err error) bool {
	return CodeOf(err).IsValidationCode()
}

// IsContract reports whether any error in the chain is a contract violation.
func IsContract(err error) bool {
	return CodeOf(err).IsContractCode()
}
