//go:build windows
// +build windows

package win32

import (
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Text is a Go string on its way to a wide-character API
type Text string

func (t Text) String() string {
	return string(t)
}

// WChars returns a NULL-terminated UTF-16 copy of the text,
// or nil for the empty string so optional parameters are left out
func (t Text) WChars() *uint16 {
	if t == "" {
		return nil
	}
	bs, err := windows.UTF16FromString(string(t))
	if err != nil {
		// embedded NUL
		bs = []uint16{0}
	}
	return &bs[0]
}

// UTF16PtrToStringN converts a UTF-16 encoded C-String
// into a Go string. The n specifies the length of the string in characters.
// The memory is copied; the result does not reference wstr.
func UTF16PtrToStringN(wstr *uint16, n int) string {
	if wstr == nil || n <= 0 {
		return ""
	}
	return string(utf16.Decode(unsafe.Slice(wstr, n)))
}
