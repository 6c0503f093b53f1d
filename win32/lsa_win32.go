//go:build windows
// +build windows

package win32

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	procLsaOpenPolicy                     = advapi32DLL.NewProc("LsaOpenPolicy")
	procLsaClose                          = advapi32DLL.NewProc("LsaClose")
	procLsaFreeMemory                     = advapi32DLL.NewProc("LsaFreeMemory")
	procLsaAddAccountRights               = advapi32DLL.NewProc("LsaAddAccountRights")
	procLsaEnumerateAccountRights         = advapi32DLL.NewProc("LsaEnumerateAccountRights")
	procLsaEnumerateAccountsWithUserRight = advapi32DLL.NewProc("LsaEnumerateAccountsWithUserRight")
	procLsaRemoveAccountRights            = advapi32DLL.NewProc("LsaRemoveAccountRights")
)

// typedef struct _LSA_OBJECT_ATTRIBUTES {
//   ULONG               Length;
//   HANDLE              RootDirectory;
//   PLSA_UNICODE_STRING ObjectName;
//   ULONG               Attributes;
//   PVOID               SecurityDescriptor;
//   PVOID               SecurityQualityOfService;
// } LSA_OBJECT_ATTRIBUTES, *PLSA_OBJECT_ATTRIBUTES;
type _LSA_OBJECT_ATTRIBUTES struct {
	Length                   uint32
	RootDirectory            windows.Handle
	ObjectName               uintptr
	Attributes               uint32
	SecurityDescriptor       uintptr
	SecurityQualityOfService uintptr
}

// typedef struct _LSA_UNICODE_STRING {
//   USHORT Length;
//   USHORT MaximumLength;
//   PWSTR  Buffer;
// } LSA_UNICODE_STRING, *PLSA_UNICODE_STRING;
// https://docs.microsoft.com/en-us/windows/desktop/api/lsalookup/ns-lsalookup-_lsa_unicode_string
type _LSA_UNICODE_STRING struct {
	Length        uint16
	MaximumLength uint16
	Buffer        unsafe.Pointer
}

// typedef struct _LSA_ENUMERATION_INFORMATION {
//   PSID Sid;
// } LSA_ENUMERATION_INFORMATION, *PLSA_ENUMERATION_INFORMATION;
type _LSA_ENUMERATION_INFORMATION struct {
	Sid unsafe.Pointer
}

func toLSAUnicodeString(str string) _LSA_UNICODE_STRING {
	wchars, err := windows.UTF16FromString(str)
	if err != nil {
		wchars = []uint16{0}
	}
	nc := len(wchars) - 1 // minus 1 to chop off the null termination
	sz := int(unsafe.Sizeof(uint16(0)))
	return _LSA_UNICODE_STRING{
		Length:        uint16(nc * sz),
		MaximumLength: uint16((nc + 1) * sz),
		Buffer:        unsafe.Pointer(&wchars[0]),
	}
}

// toLSAUnicodeStrings returns the array and a pointer to its first element,
// which is NULL for an empty list
func toLSAUnicodeStrings(strs []string) ([]_LSA_UNICODE_STRING, *_LSA_UNICODE_STRING) {
	if len(strs) == 0 {
		return nil, nil
	}
	lsaStrs := make([]_LSA_UNICODE_STRING, 0, len(strs))
	for _, s := range strs {
		lsaStrs = append(lsaStrs, toLSAUnicodeString(s))
	}
	return lsaStrs, &lsaStrs[0]
}

func sidPtr(sid SID) unsafe.Pointer {
	if len(sid) == 0 {
		return nil
	}
	return unsafe.Pointer(&sid[0])
}

// copySID copies an LSA owned SID into Go memory
func copySID(p unsafe.Pointer) SID {
	n := windows.GetLengthSid((*windows.SID)(p))
	return SID(unsafe.Slice((*byte)(p), n)).Copy()
}

// NTSTATUS LsaOpenPolicy(
// 	PLSA_UNICODE_STRING    SystemName,
// 	PLSA_OBJECT_ATTRIBUTES ObjectAttributes,
// 	ACCESS_MASK            DesiredAccess,
// 	PLSA_HANDLE            PolicyHandle
//   );
// https://docs.microsoft.com/en-us/windows/desktop/api/ntsecapi/nf-ntsecapi-lsaopenpolicy
func (Advapi32) LsaOpenPolicy(system string, access uint32) (Handle, NTStatus) {
	// Docs say this is not used, but the structure needs to be
	// initialized to zero values, and the length must be set to sizeof(_LSA_OBJECT_ATTRIBUTES)
	var pSystemName *_LSA_UNICODE_STRING
	if system != "" {
		lsaStr := toLSAUnicodeString(system)
		pSystemName = &lsaStr
	}
	var attrs _LSA_OBJECT_ATTRIBUTES
	attrs.Length = uint32(unsafe.Sizeof(attrs))
	var hPolicy windows.Handle
	status, _, _ := procLsaOpenPolicy.Call(
		uintptr(unsafe.Pointer(pSystemName)),
		uintptr(unsafe.Pointer(&attrs)),
		uintptr(access),
		uintptr(unsafe.Pointer(&hPolicy)),
	)
	return Handle(hPolicy), NTStatus(status)
}

// NTSTATUS LsaClose(
//   LSA_HANDLE ObjectHandle
// );
// https://docs.microsoft.com/en-us/windows/desktop/api/ntsecapi/nf-ntsecapi-lsaclose
func (Advapi32) LsaClose(policy Handle) NTStatus {
	status, _, _ := procLsaClose.Call(
		uintptr(policy),
	)
	return NTStatus(status)
}

// NTSTATUS LsaEnumerateAccountRights(
//   LSA_HANDLE          PolicyHandle,
//   PSID                AccountSid,
//   PLSA_UNICODE_STRING *UserRights,
//   PULONG              CountOfRights
// );
// https://docs.microsoft.com/en-us/windows/desktop/api/ntsecapi/nf-ntsecapi-lsaenumerateaccountrights
func (Advapi32) LsaEnumerateAccountRights(policy Handle, sid SID) ([]string, NTStatus) {
	var rights unsafe.Pointer
	var count uint32
	status, _, _ := procLsaEnumerateAccountRights.Call(
		uintptr(policy),
		uintptr(sidPtr(sid)),
		uintptr(unsafe.Pointer(&rights)),
		uintptr(unsafe.Pointer(&count)),
	)
	if status != 0 || rights == nil {
		return nil, NTStatus(status)
	}
	defer lsaFreeMemory(rights)
	userRights := make([]string, 0, count)
	for _, r := range unsafe.Slice((*_LSA_UNICODE_STRING)(rights), count) {
		userRights = append(userRights, UTF16PtrToStringN((*uint16)(r.Buffer), int(r.Length/2)))
	}
	return userRights, NTStatus(status)
}

// NTSTATUS LsaEnumerateAccountsWithUserRight(
//   LSA_HANDLE          PolicyHandle,
//   PLSA_UNICODE_STRING UserRight,
//   PVOID               *Buffer,
//   PULONG              CountReturned
// );
// https://docs.microsoft.com/en-us/windows/win32/api/ntsecapi/nf-ntsecapi-lsaenumerateaccountswithuserright
func (Advapi32) LsaEnumerateAccountsWithUserRight(policy Handle, right string) ([]SID, NTStatus) {
	userRight := toLSAUnicodeString(right)
	var buf unsafe.Pointer
	var count uint32
	status, _, _ := procLsaEnumerateAccountsWithUserRight.Call(
		uintptr(policy),
		uintptr(unsafe.Pointer(&userRight)),
		uintptr(unsafe.Pointer(&buf)),
		uintptr(unsafe.Pointer(&count)),
	)
	if status != 0 || buf == nil {
		return nil, NTStatus(status)
	}
	defer lsaFreeMemory(buf)
	sids := make([]SID, 0, count)
	for _, info := range unsafe.Slice((*_LSA_ENUMERATION_INFORMATION)(buf), count) {
		sids = append(sids, copySID(info.Sid))
	}
	return sids, NTStatus(status)
}

// NTSTATUS LsaAddAccountRights(
// 	LSA_HANDLE          PolicyHandle,
// 	PSID                AccountSid,
// 	PLSA_UNICODE_STRING UserRights,
// 	ULONG               CountOfRights
// );
// https://docs.microsoft.com/en-us/windows/desktop/api/ntsecapi/nf-ntsecapi-lsaaddaccountrights
func (Advapi32) LsaAddAccountRights(policy Handle, sid SID, rights []string) NTStatus {
	lsaRights, pRights := toLSAUnicodeStrings(rights)
	status, _, _ := procLsaAddAccountRights.Call(
		uintptr(policy),
		uintptr(sidPtr(sid)),
		uintptr(unsafe.Pointer(pRights)),
		uintptr(len(lsaRights)),
	)
	return NTStatus(status)
}

// NTSTATUS LsaRemoveAccountRights(
//   LSA_HANDLE          PolicyHandle,
//   PSID                AccountSid,
//   BOOLEAN             AllRights,
//   PLSA_UNICODE_STRING UserRights,
//   ULONG               CountOfRights
// );
// https://docs.microsoft.com/en-us/windows/desktop/api/ntsecapi/nf-ntsecapi-lsaremoveaccountrights
func (Advapi32) LsaRemoveAccountRights(policy Handle, sid SID, all bool, rights []string) NTStatus {
	var lsaRights []_LSA_UNICODE_STRING
	var pRights *_LSA_UNICODE_STRING
	if !all {
		lsaRights, pRights = toLSAUnicodeStrings(rights)
	}
	status, _, _ := procLsaRemoveAccountRights.Call(
		uintptr(policy),
		uintptr(sidPtr(sid)),
		uintptr(toBOOLEAN(all)),
		uintptr(unsafe.Pointer(pRights)),
		uintptr(len(lsaRights)),
	)
	return NTStatus(status)
}

// NTSTATUS LsaFreeMemory(
// 	PVOID Buffer
// );
// https://docs.microsoft.com/en-us/windows/desktop/api/ntsecapi/nf-ntsecapi-lsafreememory
func lsaFreeMemory(buf unsafe.Pointer) {
	status, _, _ := procLsaFreeMemory.Call(uintptr(buf))
	if status != 0 {
		Logf("win32: LsaFreeMemory failed with NTSTATUS 0x%08X", status)
	}
}
