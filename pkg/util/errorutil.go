package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes used across the chain.
const (
	CodeUpstreamRejected  = "UPSTREAM_REJECTED"
	CodePersistenceFailed = "PERSISTENCE_FAILED"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeMalformedResponse = "MALFORMED_RESPONSE"
	CodeTransportFailed   = "TRANSPORT_FAILED"
	CodeInternalError     = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	Stage      string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	msg := e.Message
	if e.Stage != "" {
		msg = e.Stage + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, 0, details)
}

// NewUpstreamRejection reports a non-200 answer from an upstream stage.
func NewUpstreamRejection(stage string, status int, body string) error {
	details := map[string]any{}
	if body != "" {
		details["body"] = body
	}
	return &DomainError{
		Code:       CodeUpstreamRejected,
		Message:    fmt.Sprintf("upstream answered with status %d", status),
		Stage:      stage,
		HTTPStatus: status,
		Details:    details,
	}
}

func NewMalformedResponse(stage string, err error) error {
	return &DomainError{Code: CodeMalformedResponse, Message: "malformed response body", Stage: stage, Err: err}
}

func NewTransportError(stage string, err error) error {
	return &DomainError{Code: CodeTransportFailed, Message: "request failed", Stage: stage, Err: err}
}

func NewPersistenceError(stage string, err error) error {
	return &DomainError{Code: CodePersistenceFailed, Message: "failed to persist payload", Stage: stage, Err: err}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewBadRequest(message string) error {
	return NewDomainError("BAD_REQUEST", message, http.StatusBadRequest, nil)
}

// NewForcedFailure is returned by the stub when a stage is rigged to fail.
func NewForcedFailure(stage string, status int) error {
	return &DomainError{Code: "FORCED_FAILURE", Message: "stage rigged to fail", Stage: stage, HTTPStatus: status}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:    CodeInternalError,
		Message: "internal error",
		Err:     err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:    CodeInternalError,
		Message: "internal error",
		Err:     err,
	}
}

// HasCode reports whether err carries the given DomainError code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
