//go:build windows
// +build windows

package win32

import (
	"os"
	"testing"
)

// SetupTestAccount returns the account named by TEST_WIN32_USER_NAME
func SetupTestAccount(t *testing.T) string {
	t.Helper()
	name := os.Getenv("TEST_WIN32_USER_NAME")
	if name == "" {
		t.Skip("TEST_WIN32_USER_NAME is empty")
	}
	if domain := os.Getenv("TEST_WIN32_USER_DOMAIN"); domain != "" {
		return domain + `\` + name
	}
	return name
}

func LogTestError(t *testing.T, err error) {
	if err != nil {
		t.Error(err)
	}
}
