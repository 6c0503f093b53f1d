package commands

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/jet/privy/win32"
)

// Natives are the native APIs the commands run against
type Natives struct {
	Tokens   win32.TokenAPI
	Policy   win32.PolicyAPI
	Accounts win32.AccountAPI
}

// ResolveAccount turns an account argument into a SID.
// S-1-... strings are parsed; anything else is looked up on system.
func ResolveAccount(api win32.AccountAPI, system string, account string) (win32.SID, error) {
	if strings.HasPrefix(strings.ToUpper(account), "S-1-") {
		return win32.ParseSID(account)
	}
	if api == nil {
		return nil, errors.Errorf("unable to translate account %q to a SID: no account API available", account)
	}
	sid, err := api.LookupSID(system, account)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to translate account %q to a SID", account)
	}
	return sid, nil
}
