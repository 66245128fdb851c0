package clients

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind is the normalized failure taxonomy for bureau calls. Every
// failure mode of the BCRA API collapses into one of these kinds so callers
// can decide on policy without inspecting transport details.
type ErrorKind string

const (
	// ErrInvalidIdentifier: the CUIT did not normalize to 11 digits, or the
	// bureau rejected it as malformed (HTTP-equivalent 400).
	ErrInvalidIdentifier ErrorKind = "invalid_identifier"

	// ErrNotFound: well-formed "no data for this taxpayer" response (404).
	ErrNotFound ErrorKind = "not_found"

	// ErrUpstreamUnavailable: the bureau reported a server failure (500).
	ErrUpstreamUnavailable ErrorKind = "upstream_unavailable"

	// ErrUnexpectedResponse: any other status, or a payload that failed
	// validation at the client boundary.
	ErrUnexpectedResponse ErrorKind = "unexpected_response"

	// ErrNetwork: no response was reachable (transport failure or timeout).
	ErrNetwork ErrorKind = "network_error"
)

// BureauError wraps a failed bureau call with its normalized kind, the
// HTTP-equivalent status reported by the bureau (0 when none was received)
// and any human-readable diagnostics the bureau supplied.
type BureauError struct {
	Kind       ErrorKind
	Status     int
	Messages   []string
	Underlying error
}

func (e *BureauError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "bcra [%s]", e.Kind)
	if e.Status != 0 {
		fmt.Fprintf(&b, " status=%d", e.Status)
	}
	if len(e.Messages) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Messages, "; "))
	}
	if e.Underlying != nil {
		fmt.Fprintf(&b, ": %v", e.Underlying)
	}
	return b.String()
}

func (e *BureauError) Unwrap() error { return e.Underlying }

func newBureauError(kind ErrorKind, status int, messages []string, underlying error) *BureauError {
	return &BureauError{Kind: kind, Status: status, Messages: messages, Underlying: underlying}
}

// KindOf extracts the normalized kind from an error chain.
func KindOf(err error) (ErrorKind, bool) {
	var be *BureauError
	if errors.As(err, &be) {
		return be.Kind, true
	}
	return "", false
}

// DiagnosticsOf returns the bureau-supplied diagnostic strings, if any.
func DiagnosticsOf(err error) []string {
	var be *BureauError
	if errors.As(err, &be) {
		return be.Messages
	}
	return nil
}
