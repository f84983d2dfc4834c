package transfer

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is one of the user-facing failure categories.
type Kind int

const (
	KindNone Kind = iota
	KindInvalidInput
	KindServerUnavailable
	KindNetworkUnreachable
	KindServerRejected
	KindUnknownFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "InvalidInput"
	case KindServerUnavailable:
		return "ServerUnavailable"
	case KindNetworkUnreachable:
		return "NetworkUnreachable"
	case KindServerRejected:
		return "ServerRejected"
	case KindUnknownFailure:
		return "UnknownFailure"
	default:
		return ""
	}
}

// ErrInvalidCode is returned by Download before any request when the code is not a non-negative integer.
var ErrInvalidCode = errors.New("invalid code format: please enter a valid port number")

// OpError is a failed upload or download exchange.
type OpError struct {
	Op         string // "upload" or "download"
	StatusCode int
	Body       string
	Responded  bool // false when no response was received at all
	Err        error
}

func (e *OpError) Error() string {
	switch {
	case !e.Responded:
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s failed: %s", e.Op, e.Body)
	default:
		return fmt.Sprintf("%s failed: %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	}
}

func (e *OpError) Unwrap() error { return e.Err }

// Error is a classified, user-facing failure.
type Error struct {
	Kind   Kind
	Status int    // ServerRejected only
	Body   string // ServerRejected only
	Reason string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidInput:
		return "invalid input: " + e.Reason
	case KindServerUnavailable:
		if e.Reason == "" {
			return "backend server is not accessible"
		}
		return "backend server is not accessible: " + e.Reason
	case KindNetworkUnreachable:
		return "network error: cannot connect to backend server: " + e.Reason
	case KindServerRejected:
		if e.Body == "" {
			return fmt.Sprintf("server rejected the request: %d %s", e.Status, http.StatusText(e.Status))
		}
		return fmt.Sprintf("server rejected the request: %d %s", e.Status, e.Body)
	default:
		return "unknown failure: " + e.Reason
	}
}

func (e *Error) Unwrap() error { return e.Err }

// InvalidInput builds a failure for input rejected before any network call.
func InvalidInput(reason string) *Error {
	return &Error{Kind: KindInvalidInput, Reason: reason}
}

// ServerUnavailable builds a failure for a probe that did not report the service as running.
func ServerUnavailable(reason string) *Error {
	return &Error{Kind: KindServerUnavailable, Reason: reason}
}

// Classify maps any failure onto the closed taxonomy. Rules are applied in order:
// no response at all, a non-2xx response, local validation, anything else.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	var op *OpError
	if errors.As(err, &op) {
		if !op.Responded {
			return &Error{Kind: KindNetworkUnreachable, Reason: reason(op.Err), Err: err}
		}
		if op.StatusCode < http.StatusOK || op.StatusCode >= http.StatusMultipleChoices {
			return &Error{Kind: KindServerRejected, Status: op.StatusCode, Body: op.Body, Err: err}
		}
	}
	if errors.Is(err, ErrInvalidCode) {
		return &Error{Kind: KindInvalidInput, Reason: ErrInvalidCode.Error(), Err: err}
	}
	return &Error{Kind: KindUnknownFailure, Reason: reason(err), Err: err}
}

// KindOf returns the kind of a classified error, KindNone for nil.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	return Classify(err).Kind
}

func reason(err error) string {
	if err == nil {
		return "no diagnostic available"
	}
	return strings.TrimSpace(err.Error())
}
