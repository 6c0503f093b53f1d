//go:build windows
// +build windows

package win32

import (
	"unsafe"

	"github.com/jet/privy/tokenbuf"
	"golang.org/x/sys/windows"
)

var (
	procGetTokenInformation         = advapi32DLL.NewProc("GetTokenInformation")
	procAdjustTokenPrivileges       = advapi32DLL.NewProc("AdjustTokenPrivileges")
	procLookupPrivilegeValueW       = advapi32DLL.NewProc("LookupPrivilegeValueW")
	procLookupPrivilegeNameW        = advapi32DLL.NewProc("LookupPrivilegeNameW")
	procLookupPrivilegeDisplayNameW = advapi32DLL.NewProc("LookupPrivilegeDisplayNameW")
)

// typedef struct _LUID {
//   DWORD LowPart;
//   LONG  HighPart;
// } LUID, *PLUID;
type _LUID struct {
	LowPart  DWORD
	HighPart LONG
}

// CurrentProcess returns the pseudo handle of the calling process
func (Advapi32) CurrentProcess() Handle {
	return Handle(windows.CurrentProcess())
}

// OpenProcess opens a process by id
func (Advapi32) OpenProcess(access uint32, pid uint32) (Handle, Win32Status) {
	h, err := windows.OpenProcess(access, false, pid)
	return Handle(h), errStatus(err)
}

// OpenProcessToken opens the primary token of process
func (Advapi32) OpenProcessToken(process Handle, access uint32) (Handle, Win32Status) {
	var hToken windows.Token
	err := windows.OpenProcessToken(windows.Handle(process), access, &hToken)
	return Handle(hToken), errStatus(err)
}

// CloseHandle closes a process or token handle.
// The pseudo handle of the current process is ignored.
func (Advapi32) CloseHandle(h Handle) error {
	if windows.Handle(h) == windows.CurrentProcess() {
		return nil
	}
	return windows.CloseHandle(windows.Handle(h))
}

// BOOL GetTokenInformation(
//   HANDLE                  TokenHandle,
//   TOKEN_INFORMATION_CLASS TokenInformationClass,
//   LPVOID                  TokenInformation,
//   DWORD                   TokenInformationLength,
//   PDWORD                  ReturnLength
// );
// https://docs.microsoft.com/en-us/windows/desktop/api/securitybaseapi/nf-securitybaseapi-gettokeninformation
func (Advapi32) GetTokenPrivileges(token Handle, buf []byte) (uint32, Win32Status) {
	var n uint32
	ret, _, errno := procGetTokenInformation.Call(
		uintptr(token),
		uintptr(windows.TokenPrivileges),
		uintptr(unsafe.Pointer(byteBuf(buf))),
		uintptr(len(buf)),
		uintptr(unsafe.Pointer(&n)),
	)
	return n, boolStatus(ret, errno)
}

// BOOL AdjustTokenPrivileges(
//   HANDLE            TokenHandle,
//   BOOL              DisableAllPrivileges,
//   PTOKEN_PRIVILEGES NewState,
//   DWORD             BufferLength,
//   PTOKEN_PRIVILEGES PreviousState,
//   PDWORD            ReturnLength
// );
// https://docs.microsoft.com/en-us/windows/desktop/api/securitybaseapi/nf-securitybaseapi-adjusttokenprivileges
//
// The last error is set on success too: ERROR_NOT_ALL_ASSIGNED when some
// requested privileges are not on the token.
func (Advapi32) AdjustTokenPrivileges(token Handle, disableAll bool, newState []byte, previous []byte) (uint32, Win32Status) {
	var n uint32
	// PreviousState must never be NULL or a probe would apply the change
	var probe [tokenbuf.MinSize]byte
	prev := byteBuf(previous)
	if prev == nil {
		prev = &probe[0]
	}
	ret, _, errno := procAdjustTokenPrivileges.Call(
		uintptr(token),
		uintptr(toBOOL(disableAll)),
		uintptr(unsafe.Pointer(byteBuf(newState))),
		uintptr(len(previous)),
		uintptr(unsafe.Pointer(prev)),
		uintptr(unsafe.Pointer(&n)),
	)
	return n, Win32Status{OK: ret != 0, Errno: errnoOf(errno)}
}

// BOOL LookupPrivilegeValueW(
//   LPCWSTR lpSystemName,
//   LPCWSTR lpName,
//   PLUID   lpLuid
// );
// https://docs.microsoft.com/en-us/windows/desktop/api/winbase/nf-winbase-lookupprivilegevaluew
func (Advapi32) LookupPrivilegeValue(system string, name string) (tokenbuf.LUID, Win32Status) {
	var luid _LUID
	ret, _, errno := procLookupPrivilegeValueW.Call(
		uintptr(unsafe.Pointer(Text(system).WChars())),
		uintptr(unsafe.Pointer(Text(name).WChars())),
		uintptr(unsafe.Pointer(&luid)),
	)
	return tokenbuf.LUID{LowPart: uint32(luid.LowPart), HighPart: int32(luid.HighPart)}, boolStatus(ret, errno)
}

// BOOL LookupPrivilegeNameW(
//   LPCWSTR lpSystemName,
//   PLUID   lpLuid,
//   LPWSTR  lpName,
//   LPDWORD cchName
// );
// https://docs.microsoft.com/en-us/windows/win32/api/winbase/nf-winbase-lookupprivilegenamew
func (Advapi32) LookupPrivilegeName(system string, luid tokenbuf.LUID, buf []uint16) (uint32, Win32Status) {
	l := _LUID{LowPart: DWORD(luid.LowPart), HighPart: LONG(luid.HighPart)}
	n := uint32(len(buf))
	ret, _, errno := procLookupPrivilegeNameW.Call(
		uintptr(unsafe.Pointer(Text(system).WChars())),
		uintptr(unsafe.Pointer(&l)),
		uintptr(unsafe.Pointer(wcharBuf(buf))),
		uintptr(unsafe.Pointer(&n)),
	)
	return n, boolStatus(ret, errno)
}

// BOOL LookupPrivilegeDisplayNameW(
//   LPCWSTR lpSystemName,
//   LPCWSTR lpName,
//   LPWSTR  lpDisplayName,
//   LPDWORD cchDisplayName,
//   LPDWORD lpLanguageId
// );
// https://docs.microsoft.com/en-us/windows/win32/api/winbase/nf-winbase-lookupprivilegedisplaynamew
func (Advapi32) LookupPrivilegeDisplayName(system string, name string, buf []uint16) (uint32, Win32Status) {
	n := uint32(len(buf))
	var lang uint32
	ret, _, errno := procLookupPrivilegeDisplayNameW.Call(
		uintptr(unsafe.Pointer(Text(system).WChars())),
		uintptr(unsafe.Pointer(Text(name).WChars())),
		uintptr(unsafe.Pointer(wcharBuf(buf))),
		uintptr(unsafe.Pointer(&n)),
		uintptr(unsafe.Pointer(&lang)),
	)
	return n, boolStatus(ret, errno)
}
