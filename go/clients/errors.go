package clients

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is a completed HTTP exchange that the backend rejected. Detail
// carries the server-supplied reason when one was present in the body.
type APIError struct {
	StatusCode int
	Detail     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("API returned status code %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("API returned status code %d", e.StatusCode)
}

// newAPIError extracts a human-readable reason from an error response body.
// bw-core (FastAPI) uses {"detail": "..."}; the gateway's own error payloads
// use {"error": "..."}.
func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Body:       string(body),
	}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Err    string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case len(payload.Detail) > 0:
			var detail string
			if err := json.Unmarshal(payload.Detail, &detail); err == nil {
				apiErr.Detail = detail
			} else {
				// Validation errors arrive as structured objects; keep them
				// readable rather than dropping them.
				apiErr.Detail = strings.TrimSpace(string(payload.Detail))
			}
		case payload.Err != "":
			apiErr.Detail = payload.Err
		}
	}

	return apiErr
}
