package join

import (
	"fmt"

	pingcaperrors "github.com/pingcap/errors"
)

// ErrorKind discriminates the engine's error conditions, ordered by
// criticality as in spec §7.
type ErrorKind int

const (
	// LogicError signals an invariant violation: uninitialized engine,
	// write during a probe-lock, or an unreachable dispatch branch.
	LogicError ErrorKind = iota
	// NotImplemented signals a combination the engine deliberately does
	// not support: non-Left/Inner asof, asof over a nullable right
	// column, or a build block with more than 2^32-1 rows.
	NotImplemented
	// SyntaxError signals a malformed join descriptor, e.g. Asof
	// strictness with no equi-join column.
	SyntaxError
	// TypeMismatch signals a JoinGet column whose type, after
	// Const/LowCardinality removal, differs between the right-side sample
	// block and the stored block. JoinGet receives its keys as raw bytes
	// and does not check their types.
	TypeMismatch
	// NoSuchColumnInTable signals a JoinGet column absent from the
	// right-side sample block.
	NoSuchColumnInTable
	// IncompatibleTypeOfJoin signals JoinGet called against a
	// (kind, strictness) it does not support.
	IncompatibleTypeOfJoin
	// UnsupportedJoinKeys signals a probe against a Method variant not
	// implemented for the configured (kind, strictness).
	UnsupportedJoinKeys
	// NumberOfArgumentsDoesntMatch signals a JoinGet call whose argument
	// count does not equal the number of right-side keys.
	NumberOfArgumentsDoesntMatch
	// SetSizeLimitExceeded signals the build side has exceeded its
	// configured row/byte limit. Unlike the other kinds, AddBlock does not
	// return it: it logs it and reports the breach as a plain false
	// (spec §7).
	SetSizeLimitExceeded
)

func (k ErrorKind) String() string {
	switch k {
	case LogicError:
		return "LogicError"
	case NotImplemented:
		return "NotImplemented"
	case SyntaxError:
		return "SyntaxError"
	case TypeMismatch:
		return "TypeMismatch"
	case NoSuchColumnInTable:
		return "NoSuchColumnInTable"
	case IncompatibleTypeOfJoin:
		return "IncompatibleTypeOfJoin"
	case UnsupportedJoinKeys:
		return "UnsupportedJoinKeys"
	case NumberOfArgumentsDoesntMatch:
		return "NumberOfArgumentsDoesntMatch"
	case SetSizeLimitExceeded:
		return "SetSizeLimitExceeded"
	default:
		return "UnknownError"
	}
}

// Error is the error type returned by every fallible operation in this
// package. It keeps a captured stack (via pingcap/errors) the way the
// teacher's executor layer wraps terror-class failures, without requiring a
// bespoke trace representation.
type Error struct {
	Kind  ErrorKind
	msg   string
	cause error
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...), cause: pingcaperrors.AddStack(fmt.Errorf(format, args...))}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// Unwrap exposes the stack-carrying cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

func errLogic(format string, args ...any) *Error {
	return newError(LogicError, format, args...)
}

func errNotImplemented(format string, args ...any) *Error {
	return newError(NotImplemented, format, args...)
}

func errSyntax(format string, args ...any) *Error {
	return newError(SyntaxError, format, args...)
}

func errTypeMismatch(format string, args ...any) *Error {
	return newError(TypeMismatch, format, args...)
}

func errNoSuchColumn(format string, args ...any) *Error {
	return newError(NoSuchColumnInTable, format, args...)
}

func errIncompatibleJoin(format string, args ...any) *Error {
	return newError(IncompatibleTypeOfJoin, format, args...)
}

func errUnsupportedKeys(format string, args ...any) *Error {
	return newError(UnsupportedJoinKeys, format, args...)
}

func errArgCount(format string, args ...any) *Error {
	return newError(NumberOfArgumentsDoesntMatch, format, args...)
}

func errSizeLimit(format string, args ...any) *Error {
	return newError(SetSizeLimitExceeded, format, args...)
}
