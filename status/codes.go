package status

// Win32 error codes
// https://docs.microsoft.com/en-us/windows/desktop/Debug/system-error-codes
const (
	ERROR_SUCCESS             uint32 = 0
	ERROR_FILE_NOT_FOUND      uint32 = 2
	ERROR_ACCESS_DENIED       uint32 = 5
	ERROR_INVALID_HANDLE      uint32 = 6
	ERROR_INVALID_PARAMETER   uint32 = 87
	ERROR_INSUFFICIENT_BUFFER uint32 = 122
	ERROR_MORE_DATA           uint32 = 234
	ERROR_NO_MORE_ITEMS       uint32 = 259
	ERROR_NOT_ALL_ASSIGNED    uint32 = 1300
	ERROR_NO_SUCH_PRIVILEGE   uint32 = 1313
	ERROR_PRIVILEGE_NOT_HELD  uint32 = 1314
	ERROR_NONE_MAPPED         uint32 = 1332
)

// NTSTATUS values
// https://msdn.microsoft.com/en-us/library/cc704588.aspx
const (
	STATUS_SUCCESS               uint32 = 0x00000000
	STATUS_NO_MORE_ENTRIES       uint32 = 0x8000001A
	STATUS_INVALID_HANDLE        uint32 = 0xC0000008
	STATUS_NO_SUCH_FILE          uint32 = 0xC000000F
	STATUS_ACCESS_DENIED         uint32 = 0xC0000022
	STATUS_BUFFER_TOO_SMALL      uint32 = 0xC0000023
	STATUS_OBJECT_NAME_NOT_FOUND uint32 = 0xC0000034
	STATUS_NO_SUCH_PRIVILEGE     uint32 = 0xC0000060
	STATUS_PRIVILEGE_NOT_HELD    uint32 = 0xC0000061
)
