package hubspot

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindUnsupportedType      ErrorKind = "unsupported_type"
	KindMissingRequiredField ErrorKind = "missing_required_field"
	KindUpstreamFetchFailure ErrorKind = "upstream_fetch_failure"
	KindInvalidInput         ErrorKind = "invalid_input"
)

// HTTPStatus maps a kind to the status the API answers with.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindUnsupportedType, KindMissingRequiredField, KindInvalidInput:
		return http.StatusBadRequest
	case KindUpstreamFetchFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var (
	ErrUnsupportedType      = &Error{Kind: KindUnsupportedType}
	ErrMissingRequiredField = &Error{Kind: KindMissingRequiredField}
	ErrUpstreamFetchFailure = &Error{Kind: KindUpstreamFetchFailure}
	ErrInvalidInput         = &Error{Kind: KindInvalidInput}
)

// Error is a transform failure. Two Errors match under errors.Is when their
// kinds are equal, so the package-level sentinels can be used as targets.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func newError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or the empty
// kind when there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
