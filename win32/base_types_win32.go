//go:build windows
// +build windows

package win32

import (
	"syscall"

	"golang.org/x/sys/windows"
)

var (
	advapi32DLL = windows.NewLazySystemDLL("advapi32.dll")
)

// Types Reference: https://docs.microsoft.com/en-us/windows/desktop/WinProg/windows-data-types
type (
	BOOL    uint32
	BOOLEAN byte
	DWORD   uint32
	LONG    int32
)

const (
	NULL uintptr = 0

	// Booleans
	FALSE BOOL = 0
	TRUE  BOOL = 1
)

// Advapi32 implements TokenAPI, PolicyAPI and AccountAPI with the functions of the
// system's advapi32.dll
type Advapi32 struct{}

var (
	_ TokenAPI   = Advapi32{}
	_ PolicyAPI  = Advapi32{}
	_ AccountAPI = Advapi32{}
)

func toBOOL(b bool) BOOL {
	if b {
		return TRUE
	}
	return FALSE
}

func toBOOLEAN(b bool) BOOLEAN {
	if b {
		return 1
	}
	return 0
}

// errnoOf extracts the last error code from the error returned by Proc.Call
// or by a golang.org/x/sys/windows wrapper
func errnoOf(err error) uint32 {
	if errno, ok := err.(syscall.Errno); ok {
		return uint32(errno)
	}
	if err != nil {
		return uint32(windows.ERROR_INVALID_PARAMETER)
	}
	return 0
}

// boolStatus builds the status of a BOOL function whose last error is only
// meaningful on failure
//
// Example:
//
//	r1, _, errno := procVar.Call(uintptr(x), uintptr(y))
//	st := boolStatus(r1, errno)
func boolStatus(r1 uintptr, err error) Win32Status {
	if r1 != 0 {
		return Win32Status{OK: true}
	}
	return Win32Status{Errno: errnoOf(err)}
}

// errStatus builds the status of an x/sys wrapper that returns nil on success
func errStatus(err error) Win32Status {
	if err == nil {
		return Win32Status{OK: true}
	}
	return Win32Status{Errno: errnoOf(err)}
}

func byteBuf(buf []byte) *byte {
	if len(buf) == 0 {
		return nil
	}
	return &buf[0]
}

func wcharBuf(buf []uint16) *uint16 {
	if len(buf) == 0 {
		return nil
	}
	return &buf[0]
}
