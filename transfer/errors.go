package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
)

// RetrievalError means a file could not be fetched from its URL.
type RetrievalError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Cause      error
	Transient  bool
}

func (e *RetrievalError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("retrieve %s: status %d: %v", e.URL, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("retrieve %s: %v", e.URL, e.Cause)
}

func (e *RetrievalError) Unwrap() error {
	return e.Cause
}

// SubmissionError means the action endpoint or the transport rejected the upload.
type SubmissionError struct {
	Action     string
	StatusCode int
	Cause      error
	Transient  bool
}

func (e *SubmissionError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("submit to %s: status %d: %v", e.Action, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("submit to %s: %v", e.Action, e.Cause)
}

func (e *SubmissionError) Unwrap() error {
	return e.Cause
}

// IsTransient reports whether err is worth retrying.
// Classified errors decide for themselves; anything else falls back to network heuristics.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var retrievalErr *RetrievalError
	if errors.As(err, &retrievalErr) {
		return retrievalErr.Transient
	}
	var submissionErr *SubmissionError
	if errors.As(err, &submissionErr) {
		return submissionErr.Transient
	}
	return isTransientNetworkError(err)
}

// isTransientStatus treats 5xx, 408 and 429 as retryable; every other non-2xx status is permanent.
func isTransientStatus(code int) bool {
	switch {
	case code >= http.StatusInternalServerError:
		return true
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

func isTransientNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}

// AsRetrievalError classifies an error returned by a Fetcher that did not classify it itself.
func AsRetrievalError(rawURL string, err error) *RetrievalError {
	var retrievalErr *RetrievalError
	if errors.As(err, &retrievalErr) {
		return retrievalErr
	}
	return &RetrievalError{URL: rawURL, Cause: err, Transient: isTransientNetworkError(err)}
}

// AsSubmissionError classifies an error returned by a Submitter that did not classify it itself.
func AsSubmissionError(action string, err error) *SubmissionError {
	var submissionErr *SubmissionError
	if errors.As(err, &submissionErr) {
		return submissionErr
	}
	return &SubmissionError{Action: action, Cause: err, Transient: isTransientNetworkError(err)}
}
