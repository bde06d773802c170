package protocol

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotMapping marks a structural misuse: a non-mapping value was
	// passed where a payload mapping is required.
	ErrNotMapping = errors.New("protocol: payload is not a mapping")

	// ErrConnection marks an I/O failure on the stream. It is always fatal
	// to that connection; the layer performs no retries.
	ErrConnection = errors.New("protocol: connection failure")
)

// Issue describes one offending payload field.
type Issue struct {
	Field    string
	Got      string
	Expected string
}

func (i Issue) String() string {
	return fmt.Sprintf("invalid %s: %s (expected %s)", i.Field, i.Got, i.Expected)
}

// FieldError reports every field that fails schema, type, or range checks.
// Validation is exhaustive: a payload with three bad fields produces one
// FieldError carrying three issues.
type FieldError struct {
	MessageType MessageType
	Issues      []Issue
}

func (e *FieldError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	if e.MessageType != "" {
		return fmt.Sprintf("protocol: message_type=%s: %s", e.MessageType, strings.Join(parts, "; "))
	}
	return "protocol: " + strings.Join(parts, "; ")
}

func fieldError(field, got, expected string) *FieldError {
	return &FieldError{Issues: []Issue{{Field: field, Got: got, Expected: expected}}}
}

// DecodeError reports malformed inbound bytes. Peers producing one should be
// treated as untrusted or faulty; close the connection rather than retrying.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol: decode: %s: %v", e.Reason, e.Err)
	}
	return "protocol: decode: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
