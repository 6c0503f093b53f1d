package win32test

import (
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/jet/privy/win32"
)

// Accounts is a fake win32.AccountAPI over a table of account names
type Accounts struct {
	mu    sync.Mutex
	names map[string]account
}

type account struct {
	name string
	sid  win32.StringSID
}

var _ win32.AccountAPI = (*Accounts)(nil)

// NewAccounts returns a table with the built-in groups
func NewAccounts() *Accounts {
	a := &Accounts{names: make(map[string]account)}
	a.Add(`BUILTIN\Administrators`, win32.SIDAdministrators)
	a.Add(`BUILTIN\Users`, win32.SIDUsers)
	a.Add(`BUILTIN\Guests`, win32.SIDGuests)
	a.Add(`BUILTIN\Backup Operators`, win32.SIDBackupOperators)
	a.Add(`Everyone`, win32.SIDEveryone)
	a.Add(`NT AUTHORITY\SYSTEM`, win32.SIDLocalSystem)
	return a
}

// Add maps name to sid
func (a *Accounts) Add(name string, sid win32.StringSID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.names[strings.ToLower(name)] = account{name: name, sid: sid}
}

// LookupSID resolves DOMAIN\name or a bare name; names are case-insensitive
func (a *Accounts) LookupSID(system string, name string) (win32.SID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	want := strings.ToLower(name)
	for key, acct := range a.names {
		if key == want || key[strings.LastIndex(key, `\`)+1:] == want {
			return acct.sid.ConvertToSID()
		}
	}
	return nil, errors.Errorf("win32test: no mapping for account %q", name)
}

// LookupAccount returns the name sid was added with
func (a *Accounts) LookupAccount(system string, sid win32.SID) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := sid.String()
	for _, acct := range a.names {
		if string(acct.sid) == s {
			return acct.name, nil
		}
	}
	return "", errors.Errorf("win32test: no mapping for SID %s", s)
}
