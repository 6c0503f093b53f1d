package privilege

import (
	"sort"
)

// Privilege name constants
// https://docs.microsoft.com/en-us/windows/win32/secauthz/privilege-constants
const (
	AssignPrimaryToken             = "SeAssignPrimaryTokenPrivilege"
	Audit                          = "SeAuditPrivilege"
	Backup                         = "SeBackupPrivilege"
	ChangeNotify                   = "SeChangeNotifyPrivilege"
	CreateGlobal                   = "SeCreateGlobalPrivilege"
	CreatePagefile                 = "SeCreatePagefilePrivilege"
	CreatePermanent                = "SeCreatePermanentPrivilege"
	CreateSymbolicLink             = "SeCreateSymbolicLinkPrivilege"
	CreateToken                    = "SeCreateTokenPrivilege"
	Debug                          = "SeDebugPrivilege"
	DelegateSessionUserImpersonate = "SeDelegateSessionUserImpersonatePrivilege"
	EnableDelegation               = "SeEnableDelegationPrivilege"
	Impersonate                    = "SeImpersonatePrivilege"
	IncreaseBasePriority           = "SeIncreaseBasePriorityPrivilege"
	IncreaseQuota                  = "SeIncreaseQuotaPrivilege"
	IncreaseWorkingSet             = "SeIncreaseWorkingSetPrivilege"
	LoadDriver                     = "SeLoadDriverPrivilege"
	LockMemory                     = "SeLockMemoryPrivilege"
	MachineAccount                 = "SeMachineAccountPrivilege"
	ManageVolume                   = "SeManageVolumePrivilege"
	ProfileSingleProcess           = "SeProfileSingleProcessPrivilege"
	Relabel                        = "SeRelabelPrivilege"
	RemoteShutdown                 = "SeRemoteShutdownPrivilege"
	Restore                        = "SeRestorePrivilege"
	Security                       = "SeSecurityPrivilege"
	Shutdown                       = "SeShutdownPrivilege"
	SyncAgent                      = "SeSyncAgentPrivilege"
	SystemEnvironment              = "SeSystemEnvironmentPrivilege"
	SystemProfile                  = "SeSystemProfilePrivilege"
	Systemtime                     = "SeSystemtimePrivilege"
	TakeOwnership                  = "SeTakeOwnershipPrivilege"
	Tcb                            = "SeTcbPrivilege"
	TimeZone                       = "SeTimeZonePrivilege"
	TrustedCredManAccess           = "SeTrustedCredManAccessPrivilege"
	Undock                         = "SeUndockPrivilege"
)

var allNames = []string{
	AssignPrimaryToken,
	Audit,
	Backup,
	ChangeNotify,
	CreateGlobal,
	CreatePagefile,
	CreatePermanent,
	CreateSymbolicLink,
	CreateToken,
	Debug,
	DelegateSessionUserImpersonate,
	EnableDelegation,
	Impersonate,
	IncreaseBasePriority,
	IncreaseQuota,
	IncreaseWorkingSet,
	LoadDriver,
	LockMemory,
	MachineAccount,
	ManageVolume,
	ProfileSingleProcess,
	Relabel,
	RemoteShutdown,
	Restore,
	Security,
	Shutdown,
	SyncAgent,
	SystemEnvironment,
	SystemProfile,
	Systemtime,
	TakeOwnership,
	Tcb,
	TimeZone,
	TrustedCredManAccess,
	Undock,
}

func init() {
	sort.Strings(allNames)
}

// Names returns the well-known privilege names, sorted.
// The slice is a copy.
func Names() []string {
	names := make([]string, len(allNames))
	copy(names, allNames)
	return names
}

// IsWellKnown reports whether name is in the well-known table.
// It does not ask the system; see Engine.CheckName.
func IsWellKnown(name string) bool {
	i := sort.SearchStrings(allNames, name)
	return i < len(allNames) && allNames[i] == name
}
