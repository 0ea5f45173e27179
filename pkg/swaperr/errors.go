// Package swaperr defines the error taxonomy used by the swap engine.
//
// Every failure surfaced by the engine carries a code identifying its class
// and a flag saying whether restarting the whole swap may succeed. Transport
// errors never escape raw; they are wrapped as the cause of a classified error.
package swaperr

import (
	"errors"
	"fmt"
)

// Error codes for the swap engine.
const (
	CodeUpstreamUnavailable   = "UPSTREAM_UNAVAILABLE"
	CodeRateLimited           = "RATE_LIMITED"
	CodeInvalidRoute          = "INVALID_ROUTE"
	CodeInsufficientBalance   = "INSUFFICIENT_BALANCE"
	CodeAccountCreationFailed = "ACCOUNT_CREATION_FAILED"
	CodeAssemblyFailed        = "ASSEMBLY_FAILED"
	CodeSigningFailed         = "SIGNING_FAILED"
	CodeBroadcastFailed       = "BROADCAST_FAILED"
	CodeNetworkError          = "NETWORK_ERROR"
	CodeExpired               = "EXPIRED"
	CodeExecutionFailed       = "ONCHAIN_EXECUTION_FAILED"
)

// Error is a classified swap engine error.
type Error struct {
	// Code is the taxonomy code for this error class.
	Code string

	// Message is a human-readable description.
	Message string

	// Cause is the underlying error, if any.
	Cause error

	// Retriable reports whether restarting the swap from a fresh quote
	// may succeed.
	Retriable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether the target is an Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause attaches a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// New creates an Error with the given code and message.
func New(code, message string, retriable bool) *Error {
	return &Error{Code: code, Message: message, Retriable: retriable}
}

// UpstreamUnavailable creates a retriable error for a failed aggregator or
// RPC round-trip.
func UpstreamUnavailable(message string, cause error) *Error {
	return New(CodeUpstreamUnavailable, message, true).WithCause(cause)
}

// RateLimited creates a retriable error for an exhausted rate-limit budget.
func RateLimited(message string, cause error) *Error {
	return New(CodeRateLimited, message, true).WithCause(cause)
}

// NetworkError creates a retriable error for a transient ledger failure.
func NetworkError(message string, cause error) *Error {
	return New(CodeNetworkError, message, true).WithCause(cause)
}

// Expired creates a retriable error for a lapsed blockhash validity window.
func Expired(message string) *Error {
	return New(CodeExpired, message, true)
}

// InvalidRoute creates a fatal error for a pair the aggregator cannot route.
func InvalidRoute(message string) *Error {
	return New(CodeInvalidRoute, message, false)
}

// InsufficientBalance creates a fatal error for a signer that cannot fund
// the swap.
func InsufficientBalance(message string) *Error {
	return New(CodeInsufficientBalance, message, false)
}

// AccountCreationFailed creates a fatal error for a failed associated
// account creation.
func AccountCreationFailed(message string, cause error) *Error {
	return New(CodeAccountCreationFailed, message, false).WithCause(cause)
}

// AssemblyFailed creates a fatal error for an undecodable transaction payload.
func AssemblyFailed(message string, cause error) *Error {
	return New(CodeAssemblyFailed, message, false).WithCause(cause)
}

// SigningFailed creates a fatal error for a transaction the signer rejected.
func SigningFailed(message string, cause error) *Error {
	return New(CodeSigningFailed, message, false).WithCause(cause)
}

// BroadcastFailed creates a fatal error for a submission the network
// entry point rejected.
func BroadcastFailed(message string, cause error) *Error {
	return New(CodeBroadcastFailed, message, false).WithCause(cause)
}

// ExecutionFailed creates a fatal error for a landed transaction the ledger
// reports as failed. The program-level error code is carried verbatim in
// the message.
func ExecutionFailed(message string) *Error {
	return New(CodeExecutionFailed, message, false)
}

// CodeOf returns the taxonomy code of err, or empty if err is not classified.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsRetriable reports whether err is classified as retriable. Unclassified
// errors are not retriable.
func IsRetriable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retriable
	}
	return false
}
