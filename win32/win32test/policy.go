package win32test

import (
	"sort"
	"sync"

	"github.com/jet/privy/status"
	"github.com/jet/privy/win32"
)

// POLICY_* access rights checked by the fake
const (
	policyViewLocalInformation uint32 = 0x0001
	policyCreateAccount        uint32 = 0x0010
	policyLookupNames          uint32 = 0x0800
)

const statusInvalidParameter win32.NTStatus = 0xC000000D

// Policy is a fake win32.PolicyAPI over an in-memory account rights database
type Policy struct {
	mu      sync.Mutex
	rights  map[string]map[string]bool
	known   map[string]bool
	handles map[win32.Handle]uint32
	next    win32.Handle

	// Fail makes the named function return the given status
	Fail map[string]win32.NTStatus

	// Calls records every call by function name, in order
	Calls []string
}

var _ win32.PolicyAPI = (*Policy)(nil)

// NewPolicy returns an empty database that knows every privilege in the
// catalog and the logon rights
func NewPolicy() *Policy {
	p := &Policy{
		rights:  make(map[string]map[string]bool),
		known:   make(map[string]bool),
		handles: make(map[win32.Handle]uint32),
		next:    0x200,
		Fail:    make(map[string]win32.NTStatus),
	}
	for name := range catalog {
		p.known[name] = true
	}
	for _, name := range logonRights {
		p.known[name] = true
	}
	return p
}

// Assign gives sid the rights directly, bypassing access checks
func (p *Policy) Assign(sid win32.StringSID, rights ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	set, ok := p.rights[string(sid)]
	if !ok {
		set = make(map[string]bool)
		p.rights[string(sid)] = set
	}
	for _, r := range rights {
		set[r] = true
	}
}

// Rights returns the rights of sid, sorted
func (p *Policy) Rights(sid win32.StringSID) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return sortedKeys(p.rights[string(sid)])
}

// OpenHandles is the number of policy handles not yet closed
func (p *Policy) OpenHandles() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handles)
}

// CallCount returns how many times op was called
func (p *Policy) CallCount(op string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	var n int
	for _, c := range p.Calls {
		if c == op {
			n++
		}
	}
	return n
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// enter records the call and checks the handle and its access
func (p *Policy) enter(op string, policy win32.Handle, access uint32) (win32.NTStatus, bool) {
	p.Calls = append(p.Calls, op)
	if st, ok := p.Fail[op]; ok {
		return st, false
	}
	granted, ok := p.handles[policy]
	if !ok {
		return win32.NTStatus(status.STATUS_INVALID_HANDLE), false
	}
	if granted&access != access {
		return win32.NTStatus(status.STATUS_ACCESS_DENIED), false
	}
	return 0, true
}

func (p *Policy) LsaOpenPolicy(system string, access uint32) (win32.Handle, win32.NTStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, "LsaOpenPolicy")
	if st, ok := p.Fail["LsaOpenPolicy"]; ok {
		return win32.InvalidHandle, st
	}
	p.next++
	p.handles[p.next] = access
	return p.next, 0
}

func (p *Policy) LsaClose(policy win32.Handle) win32.NTStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, "LsaClose")
	if st, ok := p.Fail["LsaClose"]; ok {
		return st
	}
	if _, ok := p.handles[policy]; !ok {
		return win32.NTStatus(status.STATUS_INVALID_HANDLE)
	}
	delete(p.handles, policy)
	return 0
}

func (p *Policy) LsaEnumerateAccountRights(policy win32.Handle, sid win32.SID) ([]string, win32.NTStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.enter("LsaEnumerateAccountRights", policy, policyLookupNames); !ok {
		return nil, st
	}
	if !sid.Valid() {
		return nil, statusInvalidParameter
	}
	set := p.rights[sid.String()]
	if len(set) == 0 {
		return nil, win32.NTStatus(status.STATUS_OBJECT_NAME_NOT_FOUND)
	}
	return sortedKeys(set), 0
}

func (p *Policy) LsaEnumerateAccountsWithUserRight(policy win32.Handle, right string) ([]win32.SID, win32.NTStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.enter("LsaEnumerateAccountsWithUserRight", policy, policyLookupNames|policyViewLocalInformation); !ok {
		return nil, st
	}
	if !p.known[right] {
		return nil, win32.NTStatus(status.STATUS_NO_SUCH_PRIVILEGE)
	}
	var holders []string
	for sid, set := range p.rights {
		if set[right] {
			holders = append(holders, sid)
		}
	}
	if len(holders) == 0 {
		return nil, win32.NTStatus(status.STATUS_NO_MORE_ENTRIES)
	}
	sort.Strings(holders)
	sids := make([]win32.SID, 0, len(holders))
	for _, s := range holders {
		sid, err := win32.ParseSID(s)
		if err != nil {
			panic(err)
		}
		sids = append(sids, sid)
	}
	return sids, 0
}

func (p *Policy) LsaAddAccountRights(policy win32.Handle, sid win32.SID, rights []string) win32.NTStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.enter("LsaAddAccountRights", policy, policyLookupNames); !ok {
		return st
	}
	if !sid.Valid() || len(rights) == 0 {
		return statusInvalidParameter
	}
	for _, r := range rights {
		if !p.known[r] {
			return win32.NTStatus(status.STATUS_NO_SUCH_PRIVILEGE)
		}
	}
	key := sid.String()
	set, ok := p.rights[key]
	if !ok {
		// the account object is created on first use
		if p.handles[policy]&policyCreateAccount == 0 {
			return win32.NTStatus(status.STATUS_ACCESS_DENIED)
		}
		set = make(map[string]bool)
		p.rights[key] = set
	}
	for _, r := range rights {
		set[r] = true
	}
	return 0
}

func (p *Policy) LsaRemoveAccountRights(policy win32.Handle, sid win32.SID, all bool, rights []string) win32.NTStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.enter("LsaRemoveAccountRights", policy, policyLookupNames); !ok {
		return st
	}
	if !sid.Valid() || (!all && len(rights) == 0) {
		return statusInvalidParameter
	}
	for _, r := range rights {
		if !p.known[r] {
			return win32.NTStatus(status.STATUS_NO_SUCH_PRIVILEGE)
		}
	}
	key := sid.String()
	set, ok := p.rights[key]
	if !ok || len(set) == 0 {
		return win32.NTStatus(status.STATUS_OBJECT_NAME_NOT_FOUND)
	}
	if all {
		delete(p.rights, key)
		return 0
	}
	for _, r := range rights {
		delete(set, r)
	}
	if len(set) == 0 {
		delete(p.rights, key)
	}
	return 0
}
