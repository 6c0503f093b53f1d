// Package status normalizes the two result conventions of the Windows
// security APIs into a single outcome space.
//
// Functions returning BOOL report failure through the thread's last error
// (a Win32 error code). The LSA functions return an NTSTATUS where zero is
// success. Both are translated into a Result whose Outcome is one of a closed
// set, and a Result is turned into a Go error with Err.
package status

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Outcome is the normalized result of a native call
type Outcome int

const (
	// Success means the call did what was asked
	Success Outcome = iota
	// RetryWithBuffer means the output buffer was too small; Result.Size holds the required size
	RetryWithBuffer
	// NotFound means no matching entry or no such name; see Result.Subject
	NotFound
	// Denied means the caller's handle or token does not allow the operation
	Denied
	// Unknown is any code outside the recognized set
	Unknown
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case RetryWithBuffer:
		return "retry_with_buffer"
	case NotFound:
		return "not_found"
	case Denied:
		return "denied"
	}
	return "unknown"
}

// Subject tells the two NotFound cases apart
type Subject int

const (
	// NoSubject is used for every outcome other than NotFound
	NoSubject Subject = iota
	// NoEntries means the lookup was valid but nothing matched (an empty result)
	NoEntries
	// NoSuchName means the name itself is not known to the system
	NoSuchName
)

func (s Subject) String() string {
	switch s {
	case NoEntries:
		return "entries"
	case NoSuchName:
		return "name"
	}
	return ""
}

// Family is the numbering system of Result.Code
type Family int

const (
	Win32 Family = iota
	NTSTATUS
)

func (f Family) String() string {
	if f == NTSTATUS {
		return "NTSTATUS"
	}
	return "Win32 error"
}

// Result is a translated native call result
type Result struct {
	Outcome Outcome
	Subject Subject
	Family  Family
	// Op is the name of the native function that was called
	Op string
	// Code is the raw error code or status
	Code uint32
	// Size is the length the call reported: the required size for
	// RetryWithBuffer, the number of units written for Success
	Size uint32
	// Partial is set when the call succeeded without applying every change
	// (ERROR_NOT_ALL_ASSIGNED)
	Partial bool
}

func (r Result) String() string {
	switch r.Outcome {
	case Success:
		if r.Partial {
			return fmt.Sprintf("%s: success (not all assigned)", r.Op)
		}
		return fmt.Sprintf("%s: success", r.Op)
	case RetryWithBuffer:
		return fmt.Sprintf("%s: retry with buffer of %d", r.Op, r.Size)
	case NotFound:
		return fmt.Sprintf("%s: %s not found", r.Op, r.Subject)
	}
	return fmt.Sprintf("%s: %s (%s 0x%08X)", r.Op, r.Outcome, r.Family, r.Code)
}

// FromWin32 translates the result of a BOOL-returning function.
// errno is the last error observed after the call and length is the
// size output parameter, if the function has one.
func FromWin32(op string, ok bool, errno uint32, length uint32) Result {
	r := Result{Op: op, Family: Win32, Code: errno, Size: length}
	if ok {
		r.Outcome = Success
		// AdjustTokenPrivileges reports success but sets the last error
		// when some of the requested changes were not made
		r.Partial = errno == ERROR_NOT_ALL_ASSIGNED
		return observe(r)
	}
	switch errno {
	case ERROR_INSUFFICIENT_BUFFER, ERROR_MORE_DATA:
		r.Outcome = RetryWithBuffer
	case ERROR_NO_SUCH_PRIVILEGE, ERROR_NONE_MAPPED:
		r.Outcome = NotFound
		r.Subject = NoSuchName
	case ERROR_NO_MORE_ITEMS, ERROR_FILE_NOT_FOUND:
		r.Outcome = NotFound
		r.Subject = NoEntries
	case ERROR_ACCESS_DENIED, ERROR_PRIVILEGE_NOT_HELD:
		r.Outcome = Denied
	default:
		r.Outcome = Unknown
	}
	return observe(r)
}

// FromNTStatus translates an NTSTATUS returned by an LSA function
func FromNTStatus(op string, code uint32) Result {
	r := Result{Op: op, Family: NTSTATUS, Code: code}
	switch code {
	case STATUS_SUCCESS:
		r.Outcome = Success
	case STATUS_BUFFER_TOO_SMALL:
		r.Outcome = RetryWithBuffer
	case STATUS_NO_MORE_ENTRIES, STATUS_OBJECT_NAME_NOT_FOUND:
		r.Outcome = NotFound
		r.Subject = NoEntries
	case STATUS_NO_SUCH_PRIVILEGE:
		r.Outcome = NotFound
		r.Subject = NoSuchName
	case STATUS_ACCESS_DENIED, STATUS_PRIVILEGE_NOT_HELD:
		r.Outcome = Denied
	default:
		r.Outcome = Unknown
	}
	return observe(r)
}

// Observer receives every translated result
type Observer interface {
	OnResult(r Result)
}

type noopObserver struct{}

func (noopObserver) OnResult(Result) {}

type observerBox struct {
	o Observer
}

var globalObserverLock sync.Mutex
var globalObserver atomic.Value

func init() {
	SetObserver(noopObserver{})
}

// SetObserver installs o as the receiver of translated results.
// A nil observer disables observation.
func SetObserver(o Observer) {
	globalObserverLock.Lock()
	defer globalObserverLock.Unlock()
	if o == nil {
		o = noopObserver{}
	}
	globalObserver.Store(observerBox{o: o})
}

func observe(r Result) Result {
	globalObserver.Load().(observerBox).o.OnResult(r)
	return r
}
