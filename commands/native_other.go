//go:build !windows
// +build !windows

package commands

import (
	"runtime"

	"github.com/pkg/errors"
)

// SystemNatives fails: token privileges and account rights exist only on windows
func SystemNatives() (Natives, error) {
	return Natives{}, errors.Errorf("privy: not supported on %s", runtime.GOOS)
}
