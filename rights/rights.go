// Package rights manages the account rights stored in the LSA policy
// database: logon rights such as SeServiceLogonRight and the privileges
// granted to an account.
package rights

import (
	"sync"

	"github.com/jet/privy/status"
	"github.com/jet/privy/win32"
	"github.com/pkg/errors"
)

// AccessMask is the access requested on the policy object
type AccessMask uint32

// POLICY_* access rights
// https://docs.microsoft.com/en-us/windows/win32/secmgmt/policy-object-access-rights
const (
	ViewLocalInformation  AccessMask = 0x00000001
	ViewAuditInformation  AccessMask = 0x00000002
	GetPrivateInformation AccessMask = 0x00000004
	TrustAdmin            AccessMask = 0x00000008
	CreateAccount         AccessMask = 0x00000010
	CreateSecret          AccessMask = 0x00000020
	CreatePrivilege       AccessMask = 0x00000040
	SetDefaultQuotaLimits AccessMask = 0x00000080
	SetAuditRequirements  AccessMask = 0x00000100
	AuditLogAdmin         AccessMask = 0x00000200
	ServerAdmin           AccessMask = 0x00000400
	LookupNames           AccessMask = 0x00000800
	Notification          AccessMask = 0x00001000
	Read                  AccessMask = 0x00020006
	Write                 AccessMask = 0x000207F8
	Execute               AccessMask = 0x00020801
	AllAccess             AccessMask = 0x000F0FFF
)

// Access needed by each group of operations
const (
	EnumerateAccess = LookupNames | ViewLocalInformation
	AddAccess       = LookupNames | CreateAccount | ViewLocalInformation
	RemoveAccess    = LookupNames | ViewLocalInformation
)

// Policy is an open handle to the LSA policy of a system.
// It must be closed when done.
type Policy struct {
	api    win32.PolicyAPI
	system string
	access AccessMask

	mu     sync.Mutex
	handle win32.Handle
	closed bool
}

// Open opens the policy of system (empty is the local system) with access.
// The handle gets exactly the access asked for.
func Open(api win32.PolicyAPI, system string, access AccessMask) (*Policy, error) {
	h, st := api.LsaOpenPolicy(system, uint32(access))
	if err := status.FromNTStatus("LsaOpenPolicy", uint32(st)).Err(); err != nil {
		return nil, errors.Wrapf(err, "rights: open policy on %q", system)
	}
	return &Policy{
		api:    api,
		system: system,
		access: access,
		handle: h,
	}, nil
}

// System returns the system name the policy was opened on
func (p *Policy) System() string {
	return p.system
}

// Access returns the access the policy was opened with
func (p *Policy) Access() AccessMask {
	return p.access
}

// Close releases the handle. Closing more than once is a no-op.
func (p *Policy) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	st := p.api.LsaClose(p.handle)
	return errors.Wrap(status.FromNTStatus("LsaClose", uint32(st)).Err(), "rights: close policy")
}

// call runs fn with the handle unless the policy was closed
func (p *Policy) call(fn func(h win32.Handle) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return status.ErrClosed
	}
	return fn(p.handle)
}

func checkSID(sid win32.SID) error {
	if !sid.Valid() {
		return errors.Errorf("rights: invalid SID % x", []byte(sid))
	}
	return nil
}

// EnumerateRightsForAccount returns the rights assigned directly to sid.
// An account without rights yields an empty list.
func (p *Policy) EnumerateRightsForAccount(sid win32.SID) ([]string, error) {
	if err := checkSID(sid); err != nil {
		return nil, err
	}
	var rights []string
	err := p.call(func(h win32.Handle) error {
		list, st := p.api.LsaEnumerateAccountRights(h, sid)
		res := status.FromNTStatus("LsaEnumerateAccountRights", uint32(st))
		if res.Outcome == status.NotFound && res.Subject == status.NoEntries {
			return nil
		}
		if err := res.Err(); err != nil {
			return errors.Wrapf(err, "rights: enumerate rights of %s", sid)
		}
		rights = list
		return nil
	})
	if rights == nil && err == nil {
		rights = []string{}
	}
	return rights, err
}

// EnumerateAccountsForRight returns the accounts that hold right.
// A right nobody holds yields an empty list; an unknown right is
// status.ErrInvalidName.
func (p *Policy) EnumerateAccountsForRight(right string) ([]win32.SID, error) {
	var sids []win32.SID
	err := p.call(func(h win32.Handle) error {
		list, st := p.api.LsaEnumerateAccountsWithUserRight(h, right)
		res := status.FromNTStatus("LsaEnumerateAccountsWithUserRight", uint32(st))
		if res.Outcome == status.NotFound && res.Subject == status.NoEntries {
			return nil
		}
		if err := res.Err(); err != nil {
			return errors.Wrapf(err, "rights: enumerate accounts with %s", right)
		}
		sids = list
		return nil
	})
	if sids == nil && err == nil {
		sids = []win32.SID{}
	}
	return sids, err
}

// AddRights assigns rights to sid in one call.
// Rights the account already has are left as they are.
func (p *Policy) AddRights(sid win32.SID, rights []string) error {
	if err := checkSID(sid); err != nil {
		return err
	}
	if len(rights) == 0 {
		return nil
	}
	return p.call(func(h win32.Handle) error {
		st := p.api.LsaAddAccountRights(h, sid, rights)
		err := status.FromNTStatus("LsaAddAccountRights", uint32(st)).Err()
		return errors.Wrapf(err, "rights: add %v to %s", rights, sid)
	})
}

// RemoveRights removes rights from sid in one call.
// Removing rights the account does not have succeeds.
func (p *Policy) RemoveRights(sid win32.SID, rights []string) error {
	if err := checkSID(sid); err != nil {
		return err
	}
	if len(rights) == 0 {
		return nil
	}
	return p.remove(sid, false, rights)
}

// RemoveAllRights removes every right from sid
func (p *Policy) RemoveAllRights(sid win32.SID) error {
	if err := checkSID(sid); err != nil {
		return err
	}
	return p.remove(sid, true, nil)
}

func (p *Policy) remove(sid win32.SID, all bool, rights []string) error {
	return p.call(func(h win32.Handle) error {
		st := p.api.LsaRemoveAccountRights(h, sid, all, rights)
		res := status.FromNTStatus("LsaRemoveAccountRights", uint32(st))
		if res.Outcome == status.NotFound && res.Subject == status.NoEntries {
			return nil
		}
		if all {
			return errors.Wrapf(res.Err(), "rights: remove all rights of %s", sid)
		}
		return errors.Wrapf(res.Err(), "rights: remove %v from %s", rights, sid)
	})
}
