/*
Copyright 2025 The Inkwell Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package errors provides structured errors for the orchestrator core.
// Every error that crosses a package boundary is an *AppError carrying a
// classification the retry policy and circuit breaker act on.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrorType classifies an error for retry, breaker, and fallback decisions.
type ErrorType string

const (
	// ErrorTypeInput marks malformed tasks or missing required fields.
	// Never retried, never counted against a provider's breaker.
	ErrorTypeInput ErrorType = "input"
	// ErrorTypeTransient marks network faults, timeouts on the wire, and 5xx
	// responses. Retried with standard backoff.
	ErrorTypeTransient ErrorType = "transient"
	// ErrorTypeRateLimit marks 429 responses and breaker-denied acquisitions.
	// Retried with a longer backoff base.
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeProviderDown marks a provider whose breaker is open with no
	// successful probe. Short-circuits to fallback.
	ErrorTypeProviderDown ErrorType = "provider_down"
	// ErrorTypeParse marks a provider response that arrived but could not be
	// decoded. Handled per item, never retried.
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypePersistence marks database write failures. Logged; does not
	// change the outcome of the AI work.
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeTimeout marks a caller deadline hit. No retry, no fallback.
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeInternal marks everything else.
	ErrorTypeInternal ErrorType = "internal"
)

// AppError is the structured error type used throughout the orchestrator.
type AppError struct {
	Type       ErrorType
	Message    string
	Details    string
	StatusCode int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails attaches free-form detail text, modifying the error in place.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithDetailsf attaches formatted detail text, modifying the error in place.
func (e *AppError) WithDetailsf(format string, args ...interface{}) *AppError {
	e.Details = fmt.Sprintf(format, args...)
	return e
}

// WithStatusCode records the upstream HTTP status the error originated from.
func (e *AppError) WithStatusCode(code int) *AppError {
	e.StatusCode = code
	return e
}

// New creates an AppError of the given type.
func New(errorType ErrorType, message string) *AppError {
	return &AppError{
		Type:       errorType,
		Message:    message,
		StatusCode: httpStatusFor(errorType),
	}
}

// Newf creates an AppError with a formatted message.
func Newf(errorType ErrorType, format string, args ...interface{}) *AppError {
	return New(errorType, fmt.Sprintf(format, args...))
}

// Wrap wraps an underlying error with a type and message.
func Wrap(cause error, errorType ErrorType, message string) *AppError {
	return &AppError{
		Type:       errorType,
		Message:    message,
		StatusCode: httpStatusFor(errorType),
		Cause:      cause,
	}
}

// Wrapf wraps an underlying error with a formatted message.
func Wrapf(cause error, errorType ErrorType, format string, args ...interface{}) *AppError {
	return Wrap(cause, errorType, fmt.Sprintf(format, args...))
}

func httpStatusFor(errorType ErrorType) int {
	switch errorType {
	case ErrorTypeInput:
		return http.StatusBadRequest
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case ErrorTypeTimeout:
		return http.StatusRequestTimeout
	case ErrorTypeProviderDown:
		return http.StatusServiceUnavailable
	case ErrorTypeParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// FromStatusCode maps an upstream HTTP status to an error type.
func FromStatusCode(code int) ErrorType {
	switch {
	case code == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case code == http.StatusRequestTimeout, code == http.StatusGatewayTimeout:
		return ErrorTypeTransient
	case code >= 500:
		return ErrorTypeTransient
	case code == http.StatusBadRequest, code == http.StatusUnauthorized,
		code == http.StatusForbidden, code == http.StatusNotFound,
		code == http.StatusUnprocessableEntity:
		return ErrorTypeInput
	default:
		return ErrorTypeInternal
	}
}

// transientPatterns are substrings of error text that indicate a fault worth
// retrying when no structured classification is available.
var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"connection lost",
	"broken pipe",
	"i/o timeout",
	"timeout exceeded",
	"temporary failure",
	"network is unreachable",
	"no route to host",
	"server closed the connection",
	"eof",
}

// Classify determines the ErrorType of an arbitrary error. Structured
// AppErrors report their own type; context errors map to timeout; everything
// unrecognized defaults to transient so that unknown faults are retried
// rather than dropped.
func Classify(err error) ErrorType {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorTypeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorTypeTransient
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return ErrorTypeTransient
		}
	}
	return ErrorTypeTransient
}

// AsAppError unwraps err into target, reporting whether the chain contains
// a structured AppError.
func AsAppError(err error, target **AppError) bool {
	return errors.As(err, target)
}

// IsRetryable reports whether the retry policy may re-attempt an operation
// that failed with this error.
func IsRetryable(err error) bool {
	switch Classify(err) {
	case ErrorTypeTransient, ErrorTypeRateLimit:
		return true
	default:
		return false
	}
}

// CountsAgainstProvider reports whether a failure is attributable to the
// provider and therefore drives its circuit breaker. Client-side logic
// errors must not trip the breaker.
func CountsAgainstProvider(err error) bool {
	switch Classify(err) {
	case ErrorTypeTransient, ErrorTypeRateLimit, ErrorTypeTimeout, ErrorTypeProviderDown:
		return true
	default:
		return false
	}
}

// Convenience constructors for the common cases.

// NewInputError creates an input validation error.
func NewInputError(message string) *AppError {
	return New(ErrorTypeInput, message)
}

// NewTransientError wraps a provider-side transient fault.
func NewTransientError(cause error, message string) *AppError {
	return Wrap(cause, ErrorTypeTransient, message)
}

// NewRateLimitError creates a quota rejection error.
func NewRateLimitError(message string) *AppError {
	return New(ErrorTypeRateLimit, message)
}

// NewProviderDownError creates a breaker-open error for the named provider.
func NewProviderDownError(provider string) *AppError {
	return Newf(ErrorTypeProviderDown, "provider %s unavailable: circuit breaker open", provider)
}

// NewParseError wraps a response-decoding failure.
func NewParseError(cause error, message string) *AppError {
	return Wrap(cause, ErrorTypeParse, message)
}

// NewTimeoutError creates a caller-deadline error.
func NewTimeoutError(message string) *AppError {
	return New(ErrorTypeTimeout, message)
}
