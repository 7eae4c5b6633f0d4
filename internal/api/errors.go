package api

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed API call.
type ErrorKind int

const (
	// KindNone means the call succeeded.
	KindNone ErrorKind = iota
	// KindNetwork covers transport failures, timeouts and cancellation.
	KindNetwork
	// KindStatus is a non-2xx response.
	KindStatus
	// KindDecode is a response body that is not the expected JSON.
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNetwork:
		return "network"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// StatusError is returned when the API answers with a non-success status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	// Body is the start of the response body, for diagnostics.
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d on %s %s", e.StatusCode, e.Method, e.Path)
	}
	return fmt.Sprintf(
		"unexpected status %d on %s %s: %s",
		e.StatusCode, e.Method, e.Path, e.Body,
	)
}

// DecodeError is returned when a response body cannot be unmarshaled.
type DecodeError struct {
	Method string
	Path   string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unmarshaling response from %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Classify reports which kind of failure err is. Any error that is not a
// StatusError or DecodeError is treated as a network failure.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return KindStatus
	}
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return KindDecode
	}
	return KindNetwork
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}
