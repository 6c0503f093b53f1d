// Package win32test provides in-memory implementations of win32.TokenAPI
// and win32.PolicyAPI that follow the buffer and status conventions of the
// real functions, so that code built on them can be tested on any platform.
package win32test

import (
	"sort"

	"github.com/jet/privy/tokenbuf"
)

// LUIDs as assigned by Windows
var catalog = map[string]uint32{
	"SeCreateTokenPrivilege":                    2,
	"SeAssignPrimaryTokenPrivilege":             3,
	"SeLockMemoryPrivilege":                     4,
	"SeIncreaseQuotaPrivilege":                  5,
	"SeMachineAccountPrivilege":                 6,
	"SeTcbPrivilege":                            7,
	"SeSecurityPrivilege":                       8,
	"SeTakeOwnershipPrivilege":                  9,
	"SeLoadDriverPrivilege":                     10,
	"SeSystemProfilePrivilege":                  11,
	"SeSystemtimePrivilege":                     12,
	"SeProfileSingleProcessPrivilege":           13,
	"SeIncreaseBasePriorityPrivilege":           14,
	"SeCreatePagefilePrivilege":                 15,
	"SeCreatePermanentPrivilege":                16,
	"SeBackupPrivilege":                         17,
	"SeRestorePrivilege":                        18,
	"SeShutdownPrivilege":                       19,
	"SeDebugPrivilege":                          20,
	"SeAuditPrivilege":                          21,
	"SeSystemEnvironmentPrivilege":              22,
	"SeChangeNotifyPrivilege":                   23,
	"SeRemoteShutdownPrivilege":                 24,
	"SeUndockPrivilege":                         25,
	"SeSyncAgentPrivilege":                      26,
	"SeEnableDelegationPrivilege":               27,
	"SeManageVolumePrivilege":                   28,
	"SeImpersonatePrivilege":                    29,
	"SeCreateGlobalPrivilege":                   30,
	"SeTrustedCredManAccessPrivilege":           31,
	"SeRelabelPrivilege":                        32,
	"SeIncreaseWorkingSetPrivilege":             33,
	"SeTimeZonePrivilege":                       34,
	"SeCreateSymbolicLinkPrivilege":             35,
	"SeDelegateSessionUserImpersonatePrivilege": 36,
}

var displayNames = map[string]string{
	"SeBackupPrivilege":       "Back up files and directories",
	"SeChangeNotifyPrivilege": "Bypass traverse checking",
	"SeDebugPrivilege":        "Debug programs",
	"SeRestorePrivilege":      "Restore files and directories",
	"SeShutdownPrivilege":     "Shut down the system",
	"SeTimeZonePrivilege":     "Change the time zone",
	"SeUndockPrivilege":       "Remove computer from docking station",
}

var logonRights = []string{
	"SeBatchLogonRight",
	"SeDenyBatchLogonRight",
	"SeDenyInteractiveLogonRight",
	"SeDenyNetworkLogonRight",
	"SeDenyRemoteInteractiveLogonRight",
	"SeDenyServiceLogonRight",
	"SeInteractiveLogonRight",
	"SeNetworkLogonRight",
	"SeRemoteInteractiveLogonRight",
	"SeServiceLogonRight",
}

// LUID returns the locally unique id the fake assigns to a privilege name.
// It panics for names outside the catalog.
func LUID(name string) tokenbuf.LUID {
	low, ok := catalog[name]
	if !ok {
		panic("win32test: unknown privilege " + name)
	}
	return tokenbuf.LUID{LowPart: low}
}

func nameOf(luid tokenbuf.LUID) (string, bool) {
	if luid.HighPart != 0 {
		return "", false
	}
	for name, low := range catalog {
		if low == luid.LowPart {
			return name, true
		}
	}
	return "", false
}

// displayName falls back to the name when the fake has no description
func displayName(name string) string {
	if d, ok := displayNames[name]; ok {
		return d
	}
	return name
}

// PrivilegeNames returns every privilege name the fake knows, sorted
func PrivilegeNames() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
