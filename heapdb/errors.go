package heapdb

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// ErrorKind is the closed set of error kinds the core surfaces to callers.
type ErrorKind int

const (
	// InvalidPage: requested page number exceeds file length, or a short read occurred.
	InvalidPage ErrorKind = iota
	// SlotFull: page has no free slot for insertion.
	SlotFull
	// TupleNotFound: delete target's record id does not refer to a set slot on the expected page.
	TupleNotFound
	// TxnAborted: lock acquisition timed out; the transaction is dead.
	TxnAborted
	// NoSpace: buffer pool is full and every resident page is dirty.
	NoSpace
	// SchemaMismatch: inserted tuple's descriptor disagrees with the target table's descriptor.
	SchemaMismatch
	// IoError: underlying disk read/write failure.
	IoError
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidPage:
		return "InvalidPage"
	case SlotFull:
		return "SlotFull"
	case TupleNotFound:
		return "TupleNotFound"
	case TxnAborted:
		return "TxnAborted"
	case NoSpace:
		return "NoSpace"
	case SchemaMismatch:
		return "SchemaMismatch"
	case IoError:
		return "IoError"
	default:
		return "Unknown"
	}
}

// EngineError is the concrete error type returned by the core. Kind is always
// one of the ErrorKind constants above; callers that care which one can use
// errors.As and compare Kind, or the IsKind helper.
type EngineError struct {
	Kind  ErrorKind
	Msg   string
	cause error
}

func (e EngineError) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e EngineError) Unwrap() error {
	return e.cause
}

// NewEngineError builds a closed-kind error with no underlying cause.
func NewEngineError(kind ErrorKind, msg string) error {
	return EngineError{Kind: kind, Msg: msg}
}

// WrapIOError wraps an underlying disk error as IoError, attaching a stack
// trace via github.com/pkg/errors so failures are diagnosable after they
// propagate out of the engine.
func WrapIOError(cause error, msg string) error {
	return EngineError{Kind: IoError, Msg: msg, cause: pkgerrors.Wrap(cause, msg)}
}

// IsKind reports whether err is a EngineError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e EngineError
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
