//go:build windows
// +build windows

package win32

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// LookupAccountSID looks up the SID of an account name on system.
// The system name is optional.
func LookupAccountSID(system string, name string) (SID, error) {
	sid, _, _, err := windows.LookupSID(system, name)
	if err != nil {
		return nil, errors.Wrapf(err, "win32: LookupSID(%s)", name)
	}
	return copySID(unsafe.Pointer(sid)), nil
}

// LookupAccount returns the DOMAIN\name of the account with this SID on system
func (s SID) LookupAccount(system string) (string, error) {
	if !s.Valid() {
		return "", errors.Errorf("win32: invalid SID % x", []byte(s))
	}
	account, domain, _, err := (*windows.SID)(unsafe.Pointer(&s[0])).LookupAccount(system)
	if err != nil {
		return "", errors.Wrapf(err, "win32: LookupAccountSid(%s)", s)
	}
	if domain == "" {
		return account, nil
	}
	return domain + `\` + account, nil
}

func (Advapi32) LookupSID(system string, account string) (SID, error) {
	return LookupAccountSID(system, account)
}

func (Advapi32) LookupAccount(system string, sid SID) (string, error) {
	return sid.LookupAccount(system)
}
