package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/automate/orgs-server/locks"
	"github.com/automate/orgs-server/repos"
)

// Kind classifies every failure a lifecycle operation can report.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalid
	KindAlreadyExists
	KindNotFound
	KindForbidden
	KindInvalidCredentials
	KindInternalInconsistency
	KindUnavailable
)

var kindNames = map[Kind]string{
	KindInternal:              "internal",
	KindInvalid:               "invalid",
	KindAlreadyExists:         "already_exists",
	KindNotFound:              "not_found",
	KindForbidden:             "forbidden",
	KindInvalidCredentials:    "invalid_credentials",
	KindInternalInconsistency: "internal_inconsistency",
	KindUnavailable:           "unavailable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the error type returned by Manager. Msg is safe to show to callers; Err keeps
// the underlying cause for logs.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so callers can write errors.Is(err, &lifecycle.Error{Kind: lifecycle.KindNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf classifies any error; errors that are not *Error are KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the caller-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "Internal server error"
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// storeError classifies a failure coming out of a store call made during op.
func storeError(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	wrapped := fmt.Errorf("%s: %w", op, err)
	switch {
	case errors.Is(err, repos.ErrUnavailable):
		return &Error{Kind: KindUnavailable, Msg: "Storage is unavailable", Err: wrapped}
	case errors.Is(err, locks.ErrLockTimeout):
		return &Error{Kind: KindUnavailable, Msg: "Organization is busy, try again later", Err: wrapped}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindUnavailable, Msg: "Operation timed out", Err: wrapped}
	case errors.Is(err, repos.ErrDuplicate):
		return &Error{Kind: KindAlreadyExists, Msg: "Record already exists", Err: wrapped}
	default:
		return &Error{Kind: KindInternal, Msg: "Internal server error", Err: wrapped}
	}
}
