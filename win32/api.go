package win32

import (
	"github.com/jet/privy/tokenbuf"
)

// Handle is an opaque native handle (HANDLE or LSA_HANDLE)
type Handle uintptr

// InvalidHandle is the zero handle
const InvalidHandle Handle = 0

// Win32Status is the outcome of a function that returns BOOL:
// OK is the return value, Errno the thread's last error right after the call.
// Errno is also meaningful when OK is true (AdjustTokenPrivileges).
type Win32Status struct {
	OK    bool
	Errno uint32
}

// NTStatus is the raw status returned by an LSA function
type NTStatus uint32

// Process and token access rights
const (
	PROCESS_QUERY_INFORMATION         uint32 = 0x0400
	PROCESS_QUERY_LIMITED_INFORMATION uint32 = 0x1000

	TOKEN_QUERY             uint32 = 0x0008
	TOKEN_ADJUST_PRIVILEGES uint32 = 0x0020
)

// TokenAPI is the set of advapi32 calls used to read and change the
// privileges of a process token.
//
// Functions that fill a caller supplied buffer take the buffer as a slice
// (nil or empty is a size probe) and return the length the system reported:
// the required size when the call failed for lack of room, otherwise the
// number of bytes (or characters) written.
type TokenAPI interface {
	// CurrentProcess returns the pseudo handle of the calling process.
	// It never needs to be closed.
	CurrentProcess() Handle

	// OpenProcess opens another process by id
	OpenProcess(access uint32, pid uint32) (Handle, Win32Status)

	// OpenProcessToken opens the primary token of process
	OpenProcessToken(process Handle, access uint32) (Handle, Win32Status)

	// CloseHandle releases a handle returned by OpenProcess or OpenProcessToken
	CloseHandle(h Handle) error

	// GetTokenPrivileges is GetTokenInformation(TokenPrivileges); buf
	// receives a packed TOKEN_PRIVILEGES
	GetTokenPrivileges(token Handle, buf []byte) (uint32, Win32Status)

	// AdjustTokenPrivileges applies newState (a packed TOKEN_PRIVILEGES, or
	// nil with disableAll) and writes the prior state of every changed
	// privilege into previous. PreviousState is always passed, so an empty
	// previous is a size probe that changes nothing.
	AdjustTokenPrivileges(token Handle, disableAll bool, newState []byte, previous []byte) (uint32, Win32Status)

	// LookupPrivilegeValue resolves a privilege name to its LUID on system
	LookupPrivilegeValue(system string, name string) (tokenbuf.LUID, Win32Status)

	// LookupPrivilegeName writes the name of luid into buf. The length is in
	// characters and excludes the terminator on success.
	LookupPrivilegeName(system string, luid tokenbuf.LUID, buf []uint16) (uint32, Win32Status)

	// LookupPrivilegeDisplayName writes the description of the named
	// privilege into buf. The length is as for LookupPrivilegeName.
	LookupPrivilegeDisplayName(system string, name string, buf []uint16) (uint32, Win32Status)
}

// PolicyAPI is the set of LSA calls used to manage account rights.
//
// Output buffers allocated by the LSA are copied into Go values and freed
// with LsaFreeMemory before the call returns.
type PolicyAPI interface {
	LsaOpenPolicy(system string, access uint32) (Handle, NTStatus)
	LsaClose(policy Handle) NTStatus
	LsaEnumerateAccountRights(policy Handle, sid SID) ([]string, NTStatus)
	LsaEnumerateAccountsWithUserRight(policy Handle, right string) ([]SID, NTStatus)
	LsaAddAccountRights(policy Handle, sid SID, rights []string) NTStatus
	LsaRemoveAccountRights(policy Handle, sid SID, all bool, rights []string) NTStatus
}

// AccountAPI translates between account names and SIDs.
// Errors are returned as Go errors; there is no buffer protocol to drive.
type AccountAPI interface {
	LookupSID(system string, account string) (SID, error)
	LookupAccount(system string, sid SID) (string, error)
}
