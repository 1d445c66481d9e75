package bidstate

import (
	"errors"
	"fmt"

	"github.com/bidwize/bw-gateway/go/clients"
)

// ValidationError is a local precondition failure (bad amount, wrong role,
// wrong state). It never results in a network call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// SubmissionError means the backend received the operation and rejected it.
// Reason is the server-supplied explanation when one was present.
type SubmissionError struct {
	Reason     string
	StatusCode int
}

func (e *SubmissionError) Error() string {
	return e.Reason
}

// ConcurrentSubmissionError is returned when a mutating operation is
// attempted while another is still in flight for the same view.
type ConcurrentSubmissionError struct {
	Op string
}

func (e *ConcurrentSubmissionError) Error() string {
	return fmt.Sprintf("%s rejected: another submission is already in flight", e.Op)
}

// TransportError means the network call never completed. The wrapped error
// carries the underlying cause; the message suggests a retry.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "request did not reach the server, please try again"
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

const genericSubmissionReason = "the server rejected the request"

// classifyBackendError converts a backend client error into the bidstate
// taxonomy: a completed-but-rejected exchange becomes SubmissionError, with
// the server reason when available; anything else is a transport failure.
func classifyBackendError(err error) error {
	var apiErr *clients.APIError
	if errors.As(err, &apiErr) {
		reason := apiErr.Detail
		if reason == "" {
			reason = genericSubmissionReason
		}
		return &SubmissionError{Reason: reason, StatusCode: apiErr.StatusCode}
	}
	return &TransportError{Err: err}
}
