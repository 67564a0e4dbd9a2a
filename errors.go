package iqdb

import (
	"errors"
	"fmt"

	"github.com/r888888888/iqdb/internal/catalog"
	"github.com/r888888888/iqdb/internal/sig"
)

// Kind classifies an error by its recovery semantics, per spec.md §7. A
// fatal error poisons the database instance the caller should discard it.
// A recoverable error leaves the instance usable.
type Kind int

const (
	KindFatalIO Kind = iota
	KindFatalData
	KindFatalMemory
	KindFatalInternal
	KindRecoverableUsage
	KindRecoverableParam
	KindRecoverableImage
)

func (k Kind) String() string {
	switch k {
	case KindFatalIO:
		return "fatal/io"
	case KindFatalData:
		return "fatal/data"
	case KindFatalMemory:
		return "fatal/memory"
	case KindFatalInternal:
		return "fatal/internal"
	case KindRecoverableUsage:
		return "recoverable/usage"
	case KindRecoverableParam:
		return "recoverable/param"
	case KindRecoverableImage:
		return "recoverable/image"
	default:
		return "unknown"
	}
}

// Fatal reports whether errors of this kind should cause the caller to
// discard the database instance.
func (k Kind) Fatal() bool {
	return k == KindFatalIO || k == KindFatalData || k == KindFatalMemory || k == KindFatalInternal
}

// Error wraps an underlying error with the kind and operation spec.md §7
// requires the command server to surface.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("iqdb: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("iqdb: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// ErrModeUnsupported is returned when an operation is not valid in the
// database's current mode (spec.md §4.7's capability table).
var ErrModeUnsupported = errors.New("iqdb: operation not supported in this mode")

// translateError wraps err in an *Error for op: duplicate and unknown ids
// become recoverable/param, an invalid image plane recoverable/image,
// ErrModeUnsupported recoverable/usage, and anything else fatal/io.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}

	var dup *catalog.ErrDuplicateID
	if errors.As(err, &dup) {
		return newErr(KindRecoverableParam, op, err)
	}
	var unk *catalog.ErrUnknownID
	if errors.As(err, &unk) {
		return newErr(KindRecoverableParam, op, err)
	}
	var plane *sig.ErrInvalidPlane
	if errors.As(err, &plane) {
		return newErr(KindRecoverableImage, op, err)
	}
	if errors.Is(err, ErrModeUnsupported) {
		return newErr(KindRecoverableUsage, op, err)
	}
	return newErr(KindFatalIO, op, err)
}
