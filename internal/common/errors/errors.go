// Package errors provides the structured error kinds shared across the
// application wizard. Every rejected operation carries a kind, a code and a
// human-readable reason; validation failures additionally enumerate the
// offending fields.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind classifies an error by how the caller recovers from it.
type Kind string

const (
	// KindValidation blocks a transition until the caller corrects input.
	KindValidation Kind = "VALIDATION_ERROR"
	// KindSequence marks an operation attempted out of required order.
	KindSequence Kind = "SEQUENCE_ERROR"
	// KindCollaborator marks an external service failure or timeout. The
	// application state is untouched and the operation may be retried.
	KindCollaborator Kind = "EXTERNAL_COLLABORATOR_ERROR"
)

// Code identifies the specific failure within a kind.
type Code string

const (
	CodeMissingRequiredField Code = "MISSING_REQUIRED_FIELD"
	CodeInvalidFieldValue    Code = "INVALID_FIELD_VALUE"
	CodeProductNotSelected   Code = "PRODUCT_NOT_SELECTED"
	CodeUnknownProduct       Code = "UNKNOWN_PRODUCT"
	CodeUnknownDocument      Code = "UNKNOWN_DOCUMENT"
	CodeInactiveRole         Code = "INACTIVE_APPLICANT_ROLE"
	CodeDocumentsIncomplete  Code = "DOCUMENTS_INCOMPLETE"
	CodeIllegalTransition    Code = "ILLEGAL_TRANSITION"
	CodeAmortizationInput    Code = "AMORTIZATION_INPUT_INVALID"

	CodeTransitionInProgress Code = "TRANSITION_IN_PROGRESS"
	CodeSignatureOrder       Code = "SIGNATURE_ORDER_VIOLATION"
	CodeDecisionAlreadyMade  Code = "DECISION_ALREADY_MADE"
	CodeDecisionNotMade      Code = "DECISION_NOT_MADE"
	CodeApplicationDenied    Code = "APPLICATION_DENIED"
	CodeSignaturesIncomplete Code = "SIGNATURES_INCOMPLETE"

	CodeExtractionFailed      Code = "EXTRACTION_FAILED"
	CodeSignatureDispatchFail Code = "SIGNATURE_DISPATCH_FAILED"
	CodeDecisionServiceFailed Code = "DECISION_SERVICE_FAILED"
	CodeCollaboratorTimeout   Code = "COLLABORATOR_TIMEOUT"
)

// WizardError is the structured error returned by every rejected wizard
// operation.
type WizardError struct {
	Kind      Kind      `json:"kind"`
	Code      Code      `json:"code"`
	Message   string    `json:"message"`
	Fields    []string  `json:"fields,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
	cause     error
}

func (e *WizardError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s[%s]: %s (fields: %s)", e.Kind, e.Code, e.Message, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("%s[%s]: %s", e.Kind, e.Code, e.Message)
}

func (e *WizardError) Unwrap() error {
	return e.cause
}

// NewValidation creates a recoverable input error. fields names the
// missing/invalid fields, if any.
func NewValidation(code Code, message string, fields ...string) *WizardError {
	return &WizardError{
		Kind:      KindValidation,
		Code:      code,
		Message:   message,
		Fields:    fields,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSequence creates an out-of-order operation error.
func NewSequence(code Code, message string) *WizardError {
	return &WizardError{
		Kind:      KindSequence,
		Code:      code,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCollaborator wraps an external service failure. The wrapped cause is
// preserved for errors.Is/As.
func NewCollaborator(code Code, service string, cause error) *WizardError {
	msg := fmt.Sprintf("external service '%s' failed", service)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &WizardError{
		Kind:      KindCollaborator,
		Code:      code,
		Message:   msg,
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewCollaboratorTimeout marks an awaited external operation that did not
// resolve within its deadline.
func NewCollaboratorTimeout(service string, cause error) *WizardError {
	msg := fmt.Sprintf("external service '%s' timed out", service)
	return &WizardError{
		Kind:      KindCollaborator,
		Code:      CodeCollaboratorTimeout,
		Message:   msg,
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func isKind(err error, kind Kind) bool {
	var we *WizardError
	if errors.As(err, &we) {
		return we.Kind == kind
	}
	return false
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return isKind(err, KindValidation) }

// IsSequence reports whether err is a sequence error.
func IsSequence(err error) bool { return isKind(err, KindSequence) }

// IsCollaborator reports whether err is an external collaborator error.
func IsCollaborator(err error) bool { return isKind(err, KindCollaborator) }

// CodeOf returns the code of a wizard error, or empty for other errors.
func CodeOf(err error) Code {
	var we *WizardError
	if errors.As(err, &we) {
		return we.Code
	}
	return ""
}
