package services

import (
	"errors"
	"fmt"
)

// FailureKind classifies every failure the gateway can surface. Handlers map
// kinds to HTTP statuses; callers decide retry policy from the kind alone.
type FailureKind string

const (
	// FailureValidation - malformed caller input, rejected before any network call.
	FailureValidation FailureKind = "VALIDATION_ERROR"
	// FailureAttestationUnavailable - transport failure reaching the execution
	// authority. Retryable by the caller: the attestation call requests a
	// computation, it does not mutate state.
	FailureAttestationUnavailable FailureKind = "ATTESTATION_UNAVAILABLE"
	// FailureAttestationMalformed - the authority answered but the envelope is
	// structurally invalid under both accepted key conventions. Not retryable.
	FailureAttestationMalformed FailureKind = "ATTESTATION_MALFORMED"
	// FailureEnvelopeIncomplete - normalization produced an envelope missing a
	// canonical field. Treated as a bug and surfaced loudly.
	FailureEnvelopeIncomplete FailureKind = "ENVELOPE_INCOMPLETE"
	// FailureSubmissionRejected - the signer or the ledger refused the
	// transaction before inclusion. The ledger-reported message is preserved.
	FailureSubmissionRejected FailureKind = "SUBMISSION_REJECTED"
	// FailureConfirmationTimeout - the transaction was broadcast but no receipt
	// arrived within the caller's deadline. Inclusion status is unknown; the
	// caller must check out-of-band before resubmitting.
	FailureConfirmationTimeout FailureKind = "CONFIRMATION_TIMEOUT"
)

// GatewayError is the typed failure every gateway component returns. Lower
// errors are wrapped, never reinterpreted; components only add step context.
type GatewayError struct {
	Kind   FailureKind
	Detail string
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NewGatewayError wraps err (may be nil) with a failure kind and detail.
func NewGatewayError(kind FailureKind, detail string, err error) *GatewayError {
	return &GatewayError{Kind: kind, Detail: detail, Err: err}
}

// FailureKindOf extracts the failure kind from an error chain. The second
// return is false when the error is not a GatewayError.
func FailureKindOf(err error) (FailureKind, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Kind, true
	}
	return "", false
}

// DetailOf returns the human-readable detail of a GatewayError, or the plain
// error text for anything else.
func DetailOf(err error) string {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Detail
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
