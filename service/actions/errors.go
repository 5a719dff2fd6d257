package actions

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an action error so handlers can map it to a status code
// and decide whether it may be shown to the caller.
type Kind int

const (
	// KindValidation covers malformed caller input: bad account strings,
	// unparsable query parameters, non-positive amounts.
	KindValidation Kind = iota

	// KindPrecondition covers requests that parse but cannot be satisfied,
	// such as a transfer below the destination's rent-exemption minimum.
	KindPrecondition

	// KindUpstream covers failures of outbound RPC calls.
	KindUpstream

	// KindInternal covers everything unexpected.
	KindInternal
)

// Error is a classified action error. The message is safe to return to the
// caller for every kind except KindUpstream and KindInternal, which handlers
// log and replace with a generic reason.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the error kind to a response status. Every caller-visible
// failure in the Actions contract is a 400; wallets only distinguish the
// plain-text reason.
func (e *Error) HTTPStatus() int {
	return http.StatusBadRequest
}

// Validationf builds a validation error from a format string.
func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Preconditionf builds a precondition error from a format string.
func Preconditionf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPrecondition, Msg: fmt.Sprintf(format, args...)}
}

// Upstreamf wraps an outbound call failure.
func Upstreamf(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindUpstream, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Internalf wraps an unexpected failure.
func Internalf(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInternal, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from an error chain, defaulting to KindInternal
// for unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}
