package rights

import (
	"sort"
)

// Logon right constants
// https://docs.microsoft.com/en-us/windows/win32/secauthz/account-rights-constants
const (
	BatchLogon                 = "SeBatchLogonRight"
	DenyBatchLogon             = "SeDenyBatchLogonRight"
	DenyInteractiveLogon       = "SeDenyInteractiveLogonRight"
	DenyNetworkLogon           = "SeDenyNetworkLogonRight"
	DenyRemoteInteractiveLogon = "SeDenyRemoteInteractiveLogonRight"
	DenyServiceLogon           = "SeDenyServiceLogonRight"
	InteractiveLogon           = "SeInteractiveLogonRight"
	NetworkLogon               = "SeNetworkLogonRight"
	RemoteInteractiveLogon     = "SeRemoteInteractiveLogonRight"
	ServiceLogon               = "SeServiceLogonRight"
)

var logonRights = map[string]string{
	BatchLogon:                 "Log on as a batch job",
	DenyBatchLogon:             "Deny log on as a batch job",
	DenyInteractiveLogon:       "Deny log on locally",
	DenyNetworkLogon:           "Deny access to this computer from the network",
	DenyRemoteInteractiveLogon: "Deny log on through Remote Desktop Services",
	DenyServiceLogon:           "Deny log on as a service",
	InteractiveLogon:           "Allow log on locally",
	NetworkLogon:               "Access this computer from the network",
	RemoteInteractiveLogon:     "Allow log on through Remote Desktop Services",
	ServiceLogon:               "Log on as a service",
}

// LogonRights returns the logon rights with their descriptions.
// The map is a copy.
func LogonRights() map[string]string {
	m := make(map[string]string, len(logonRights))
	for k, v := range logonRights {
		m[k] = v
	}
	return m
}

// LogonRightNames returns the logon right names, sorted
func LogonRightNames() []string {
	names := make([]string, 0, len(logonRights))
	for name := range logonRights {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Description returns the description of a logon right
func Description(right string) (string, bool) {
	d, ok := logonRights[right]
	return d, ok
}
