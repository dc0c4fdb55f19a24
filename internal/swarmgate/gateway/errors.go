package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the gateway client can report. The set is
// closed: tool callers switch on it and nothing else crosses the boundary.
type Kind string

const (
	KindInvalidArgument    Kind = "InvalidArgument"
	KindNotFound           Kind = "NotFound"
	KindPayloadTooLarge    Kind = "PayloadTooLarge"
	KindGatewayUnavailable Kind = "GatewayUnavailable"
	KindUpstreamError      Kind = "UpstreamError"
)

// Error is the only error type returned by the gateway client. Message is
// safe for display: it carries gateway-provided text or a fixed phrase,
// never transport internals, URLs or credentials.
type Error struct {
	Kind    Kind
	Op      string
	Message string

	// status is the HTTP status that produced this error, 0 for
	// transport-level failures. Used by the retry policy only.
	status int
	cause  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the error kind, or "" when err did not come from the
// gateway client.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

// MessageOf extracts the display-safe message of a gateway error. For
// foreign errors it returns a fixed phrase rather than err.Error(), so raw
// transport text never leaks to callers.
func MessageOf(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Message
	}
	return "internal error"
}

// IsKind reports whether err is a gateway error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
