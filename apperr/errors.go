// Package apperr is the error taxonomy shared by the repositories and the
// HTTP layer. Every error that crosses a package boundary carries a Kind.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	Upstream Kind = iota
	Unauthenticated
	Forbidden
	NotFound
	Invalid
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not found"
	case Invalid:
		return "invalid"
	case Conflict:
		return "conflict"
	default:
		return "upstream"
	}
}

// Status maps a Kind onto its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Invalid:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Msg != "":
		return e.Msg + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Err.Error()
	case e.Msg != "":
		return e.Msg
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf reports the Kind of err. Errors without one are Upstream.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Upstream
}

func Is(err error, kind Kind) bool { return err != nil && KindOf(err) == kind }

// Public returns the message that may be shown to the caller. Upstream
// details stay in the logs.
func Public(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == Upstream {
		return "internal error"
	}
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind.String()
}

func Invalidf(format string, args ...any) error   { return New(Invalid, format, args...) }
func Conflictf(format string, args ...any) error  { return New(Conflict, format, args...) }
func NotFoundf(format string, args ...any) error  { return New(NotFound, format, args...) }
func Forbiddenf(format string, args ...any) error { return New(Forbidden, format, args...) }
