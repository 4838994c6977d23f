package graph

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Classification buckets a failed send by the remediation it requires. None
// of these are retried by the client itself: every class needs an
// out-of-band fix (credential rotation, allow-listing, permission change)
// rather than a transient retry.
type Classification string

const (
	// ClassExpiredCredential means the access token has expired and must be
	// regenerated out-of-band. Upstream code 190.
	ClassExpiredCredential Classification = "expired_credential"
	// ClassRecipientNotAllowlisted means the recipient must be added to the
	// allow list before retrying. Upstream code 131031.
	ClassRecipientNotAllowlisted Classification = "recipient_not_allowlisted"
	// ClassInsufficientPermissions means the token scope is inadequate.
	// Upstream code 100.
	ClassInsufficientPermissions Classification = "insufficient_permissions"
	// ClassInvalidRecipient means the recipient identifier is malformed or
	// unknown; do not retry. Upstream code 33.
	ClassInvalidRecipient Classification = "invalid_recipient"
	// ClassUpstreamRejected is the passthrough bucket for codes the bridge
	// does not recognise.
	ClassUpstreamRejected Classification = "upstream_rejected"
	// ClassTransport covers network failures, timeouts, and responses whose
	// error envelope could not be decoded.
	ClassTransport Classification = "transport_failure"
)

// SendError is the typed failure returned for an unsuccessful Graph API
// call. It carries the decoded upstream error envelope alongside the
// classification so operators get actionable diagnostics from a single log
// line.
type SendError struct {
	Classification Classification
	HTTPStatus     int
	Code           int
	Subcode        int
	Message        string
	TraceID        string
	cause          error
}

// Error implements the error interface.
func (e *SendError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("graph client: %s: %v", e.Classification, e.cause)
	}
	return fmt.Sprintf("graph client: %s: upstream code %d: %s", e.Classification, e.Code, e.Message)
}

// Unwrap exposes the underlying transport error when there is one.
func (e *SendError) Unwrap() error { return e.cause }

// RemediationHint returns a short operator-facing description of how to fix
// the failure class.
func (e *SendError) RemediationHint() string {
	switch e.Classification {
	case ClassExpiredCredential:
		return "access token expired; regenerate the credential"
	case ClassRecipientNotAllowlisted:
		return "recipient is not allow-listed; add the number before retrying"
	case ClassInsufficientPermissions:
		return "token lacks required permissions; regenerate with the correct scope"
	case ClassInvalidRecipient:
		return "recipient id is malformed or unknown; do not retry"
	case ClassTransport:
		return "transport failure talking to the Graph API; check connectivity"
	default:
		return "upstream rejected the message; inspect code and message"
	}
}

// errorEnvelope mirrors the Graph API error body:
// {"error":{"message","type","code","error_subcode","fbtrace_id"}}.
type errorEnvelope struct {
	Error *struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		Code      int    `json:"code"`
		Subcode   int    `json:"error_subcode"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

func classifyCode(code int) Classification {
	switch code {
	case 190:
		return ClassExpiredCredential
	case 131031:
		return ClassRecipientNotAllowlisted
	case 100:
		return ClassInsufficientPermissions
	case 33:
		return ClassInvalidRecipient
	default:
		return ClassUpstreamRejected
	}
}

// decodeSendError turns a non-2xx response body into a SendError. When the
// body does not decode as a Graph error envelope the failure is treated as a
// transport-level problem rather than guessed at.
func decodeSendError(httpStatus int, body string) *SendError {
	var envelope errorEnvelope
	if err := json.Unmarshal([]byte(body), &envelope); err != nil || envelope.Error == nil {
		return &SendError{
			Classification: ClassTransport,
			HTTPStatus:     httpStatus,
			Message:        strings.TrimSpace(body),
			cause:          fmt.Errorf("undecodable error body (http %d)", httpStatus),
		}
	}
	return &SendError{
		Classification: classifyCode(envelope.Error.Code),
		HTTPStatus:     httpStatus,
		Code:           envelope.Error.Code,
		Subcode:        envelope.Error.Subcode,
		Message:        envelope.Error.Message,
		TraceID:        envelope.Error.FBTraceID,
	}
}

func transportError(err error) *SendError {
	return &SendError{
		Classification: ClassTransport,
		cause:          err,
	}
}
