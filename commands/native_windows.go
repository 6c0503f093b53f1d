//go:build windows
// +build windows

package commands

import (
	"github.com/jet/privy/win32"
)

// SystemNatives returns the natives backed by advapi32.dll
func SystemNatives() (Natives, error) {
	api := win32.Advapi32{}
	return Natives{
		Tokens:   api,
		Policy:   api,
		Accounts: api,
	}, nil
}
