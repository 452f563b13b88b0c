package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// UpstreamError is a failed exchange with the OCR service.
type UpstreamError struct {
	StatusCode int
	Message    string
	Details    string
	Retriable  bool
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("LLM Whisperer API error: %d %s", e.StatusCode, e.Message)
	}
	return "LLM Whisperer request failed: " + e.Message
}

// IngestionError is returned once the retry policy gives up. It carries the last upstream failure.
type IngestionError struct {
	Attempts int
	Err      error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("document ingestion failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// IsRetriable reports whether err may succeed on another attempt.
func IsRetriable(err error) bool {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Retriable
	}
	return false
}

// StatusCode picks the HTTP status a proxy should answer with for err.
func StatusCode(err error) int {
	var upstream *UpstreamError
	if errors.As(err, &upstream) && upstream.StatusCode >= 400 {
		return upstream.StatusCode
	}
	if errors.Is(err, ErrMissingInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// IsAuthError reports whether the OCR service rejected the server's own
// credentials. Callers that are not a plain proxy should not relay that status.
func IsAuthError(err error) bool {
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		return false
	}
	return upstream.StatusCode == http.StatusUnauthorized || upstream.StatusCode == http.StatusForbidden
}

// newUpstreamError classifies a non-2xx response. 5xx is retriable unless the
// body says otherwise; 4xx never is.
func newUpstreamError(status int, body []byte) *UpstreamError {
	e := &UpstreamError{
		StatusCode: status,
		Message:    http.StatusText(status),
		Details:    truncate(string(body), 2000),
		Retriable:  status >= 500,
	}

	var payload struct {
		Error     string `json:"error"`
		Message   string `json:"message"`
		Retriable *bool  `json:"retriable"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Error != "" {
			e.Message = payload.Error
		} else if payload.Message != "" {
			e.Message = payload.Message
		}
		if payload.Retriable != nil && !*payload.Retriable {
			e.Retriable = false
		}
	}
	return e
}
