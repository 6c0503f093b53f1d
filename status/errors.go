package status

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidName is returned when a privilege or right name is not recognized by the system
	ErrInvalidName = errors.New("name not recognized")

	// ErrNotHeld is returned when an operation needs an item that is not currently held
	ErrNotHeld = errors.New("not held")

	// ErrAccessDenied is returned when the handle's access mask does not cover the operation
	ErrAccessDenied = errors.New("access denied")

	// ErrClosed is returned when a handle is used after it was closed
	ErrClosed = errors.New("handle is closed")
)

// NativeError is a native failure outside the recognized set of outcomes
type NativeError struct {
	Op     string
	Code   uint32
	Family Family
}

func (e *NativeError) Error() string {
	return fmt.Sprintf("%s failed with %s 0x%08X", e.Op, e.Family, e.Code)
}

// BufferProtocolError means the sizes reported across the probe, allocate and
// fill calls were inconsistent. It is never retried.
type BufferProtocolError struct {
	Op string
	// Probed is the size the probe asked for, zero if the probe reported none
	Probed uint32
	// Reported is the size the fill call reported
	Reported uint32
	Reason   string
}

func (e *BufferProtocolError) Error() string {
	return fmt.Sprintf("%s: buffer protocol violation: %s (probed %d, reported %d)", e.Op, e.Reason, e.Probed, e.Reported)
}

// IsBufferProtocolViolation reports whether err or any error it wraps is a *BufferProtocolError
func IsBufferProtocolViolation(err error) bool {
	var bpe *BufferProtocolError
	return errors.As(err, &bpe)
}

// IsNativeFailure reports whether err or any error it wraps is a *NativeError
func IsNativeFailure(err error) bool {
	var ne *NativeError
	return errors.As(err, &ne)
}

// Err converts the result to an error.
// Success is nil; NotFound of an unknown name is ErrInvalidName; Denied is
// ErrAccessDenied or ErrNotHeld; everything else is a *NativeError.
// Callers that accept an empty result must check for NotFound/NoEntries first.
func (r Result) Err() error {
	switch r.Outcome {
	case Success:
		return nil
	case RetryWithBuffer:
		return &BufferProtocolError{
			Op:       r.Op,
			Reported: r.Size,
			Reason:   "unexpected request for a larger buffer",
		}
	case NotFound:
		if r.Subject == NoSuchName {
			return errors.Wrapf(ErrInvalidName, "%s", r.Op)
		}
	case Denied:
		if r.Code == ERROR_PRIVILEGE_NOT_HELD || r.Code == STATUS_PRIVILEGE_NOT_HELD {
			return errors.Wrapf(ErrNotHeld, "%s (%s 0x%08X)", r.Op, r.Family, r.Code)
		}
		return errors.Wrapf(ErrAccessDenied, "%s (%s 0x%08X)", r.Op, r.Family, r.Code)
	}
	return &NativeError{Op: r.Op, Code: r.Code, Family: r.Family}
}
