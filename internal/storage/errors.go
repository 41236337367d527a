package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies storage failures so callers can choose messaging
// without matching backend error strings. The string matching happens once,
// here, against the driver.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindConflict
	KindSchemaMissing
	KindPermissionDenied
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindSchemaMissing:
		return "schema_missing"
	case KindPermissionDenied:
		return "permission_denied"
	}
	return "unknown"
}

// ErrReportLinked is returned when deleting a report that a deposit still
// references. The caller must unlink (edit or delete the deposit) first.
var ErrReportLinked = errors.New("report is linked to a bank deposit; unlink it before deleting")

// Error carries the operation name and the classified kind alongside the
// underlying cause.
type Error struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Kind extracts the classified kind from an error chain.
func Kind(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// wrap classifies a driver error and tags it with the operation name.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: classify(err), Err: err}
}

func classify(err error) ErrorKind {
	if errors.Is(err, sql.ErrNoRows) {
		return KindNotFound
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such table"), strings.Contains(msg, "no such column"):
		return KindSchemaMissing
	case strings.Contains(msg, "UNIQUE constraint failed"), strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return KindConflict
	case strings.Contains(msg, "readonly database"), strings.Contains(msg, "permission denied"), strings.Contains(msg, "access denied"):
		return KindPermissionDenied
	}
	return KindUnknown
}
