// Package privilege reads and adjusts the privileges of a process token.
//
// The privileges on a token move between Disabled and Enabled any number of
// times; Removed is final for that token. A token can never gain a privilege
// it does not already hold.
package privilege

import (
	"unicode/utf16"

	"github.com/jet/privy/status"
	"github.com/jet/privy/tokenbuf"
	"github.com/jet/privy/win32"
	"github.com/pkg/errors"
)

// Engine performs privilege operations through a TokenAPI
type Engine struct {
	api win32.TokenAPI

	// System is the name of the system used to resolve privilege names.
	// Empty is the local system.
	System string
}

// New returns an engine for the local system
func New(api win32.TokenAPI) *Engine {
	return &Engine{api: api}
}

// CurrentProcess returns the handle of the calling process
func (e *Engine) CurrentProcess() win32.Handle {
	return e.api.CurrentProcess()
}

// OpenProcess opens the process pid for token access.
// Close the handle with CloseProcess.
func (e *Engine) OpenProcess(pid uint32) (win32.Handle, error) {
	h, st := e.api.OpenProcess(win32.PROCESS_QUERY_INFORMATION, pid)
	if err := status.FromWin32("OpenProcess", st.OK, st.Errno, 0).Err(); err != nil {
		return win32.InvalidHandle, errors.Wrapf(err, "privilege: open process %d", pid)
	}
	return h, nil
}

// CloseProcess closes a handle returned by OpenProcess
func (e *Engine) CloseProcess(process win32.Handle) error {
	return errors.Wrap(e.api.CloseHandle(process), "privilege: close process")
}

func (e *Engine) openToken(process win32.Handle, access uint32) (win32.Handle, error) {
	token, st := e.api.OpenProcessToken(process, access)
	if err := status.FromWin32("OpenProcessToken", st.OK, st.Errno, 0).Err(); err != nil {
		return win32.InvalidHandle, errors.Wrap(err, "privilege: open token")
	}
	return token, nil
}

func (e *Engine) closeToken(token win32.Handle) {
	win32.LogError(e.api.CloseHandle(token), "privilege: failed to close token handle")
}

// QueryAll returns every privilege held by the token of process, by name
func (e *Engine) QueryAll(process win32.Handle) (map[string]Record, error) {
	token, err := e.openToken(process, win32.TOKEN_QUERY)
	if err != nil {
		return nil, err
	}
	defer e.closeToken(token)

	var buf []byte
	res, err := status.Sized(func(size uint32) status.Result {
		buf = make([]byte, size)
		n, st := e.api.GetTokenPrivileges(token, buf)
		return status.FromWin32("GetTokenInformation", st.OK, st.Errno, n)
	})
	if err != nil {
		return nil, errors.Wrap(err, "privilege: query token")
	}
	records, err := decode(res, buf)
	if err != nil {
		return nil, err
	}
	held := make(map[string]Record, len(records))
	for _, r := range records {
		name, err := e.Name(r.LUID)
		if err != nil {
			return nil, err
		}
		held[name] = Record{Name: name, Attributes: r.Attributes}
	}
	return held, nil
}

// decode reads the TOKEN_PRIVILEGES the system wrote into buf
func decode(res status.Result, buf []byte) ([]tokenbuf.Privilege, error) {
	records, err := tokenbuf.Decode(buf[:res.Size])
	if err != nil {
		return nil, &status.BufferProtocolError{
			Op:       res.Op,
			Probed:   uint32(len(buf)),
			Reported: res.Size,
			Reason:   err.Error(),
		}
	}
	return records, nil
}

// Apply makes every change in state with a single adjustment of the token.
//
// Names the system does not know are reported in Change.Failed and the rest
// are still applied. If no name resolves the token is not touched.
func (e *Engine) Apply(process win32.Handle, state DesiredState) (*Change, error) {
	change := newChange()
	var records []tokenbuf.Privilege
	for _, name := range state.Names() {
		attrs, ok := state[name].attributes()
		if !ok {
			change.Failed[name] = errors.Errorf("privilege: %s: unknown intent %d", name, state[name])
			continue
		}
		luid, err := e.Lookup(name)
		if err != nil {
			if errors.Is(err, status.ErrInvalidName) {
				change.Failed[name] = err
				continue
			}
			return nil, err
		}
		records = append(records, tokenbuf.Privilege{LUID: luid, Attributes: attrs})
	}
	if len(records) == 0 {
		return change, nil
	}
	return e.adjust(process, false, tokenbuf.Encode(records), change)
}

// DisableAll disables every privilege on the token of process
func (e *Engine) DisableAll(process win32.Handle) (*Change, error) {
	return e.adjust(process, true, nil, newChange())
}

// Enable enables one privilege
func (e *Engine) Enable(process win32.Handle, name string) (*Change, error) {
	return e.single(process, name, Enable)
}

// Disable disables one privilege
func (e *Engine) Disable(process win32.Handle, name string) (*Change, error) {
	return e.single(process, name, Disable)
}

// Remove removes one privilege from the token for good
func (e *Engine) Remove(process win32.Handle, name string) (*Change, error) {
	return e.single(process, name, Remove)
}

func (e *Engine) single(process win32.Handle, name string, intent Intent) (*Change, error) {
	change, err := e.Apply(process, DesiredState{name: intent})
	if err != nil {
		return nil, err
	}
	if err := change.Failed[name]; err != nil {
		return nil, err
	}
	return change, nil
}

func (e *Engine) adjust(process win32.Handle, disableAll bool, newState []byte, change *Change) (*Change, error) {
	token, err := e.openToken(process, win32.TOKEN_QUERY|win32.TOKEN_ADJUST_PRIVILEGES)
	if err != nil {
		return nil, err
	}
	defer e.closeToken(token)

	var prev []byte
	res, err := status.Sized(func(size uint32) status.Result {
		prev = make([]byte, size)
		n, st := e.api.AdjustTokenPrivileges(token, disableAll, newState, prev)
		return status.FromWin32("AdjustTokenPrivileges", st.OK, st.Errno, n)
	})
	if err != nil {
		return nil, errors.Wrap(err, "privilege: adjust token")
	}
	change.NotAllAssigned = res.Partial
	if res.Size == 0 {
		return change, nil
	}
	records, err := decode(res, prev)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		name, err := e.Name(r.LUID)
		if err != nil {
			return nil, err
		}
		change.Previous[name] = r.Attributes.Has(tokenbuf.Enabled)
	}
	return change, nil
}

// Lookup resolves a privilege name to its LUID.
// An unknown name is status.ErrInvalidName.
func (e *Engine) Lookup(name string) (tokenbuf.LUID, error) {
	luid, st := e.api.LookupPrivilegeValue(e.System, name)
	if err := status.FromWin32("LookupPrivilegeValue", st.OK, st.Errno, 0).Err(); err != nil {
		return tokenbuf.LUID{}, errors.Wrapf(err, "privilege: %s", name)
	}
	return luid, nil
}

// CheckName reports whether the system knows the privilege name
func (e *Engine) CheckName(name string) (bool, error) {
	_, err := e.Lookup(name)
	if errors.Is(err, status.ErrInvalidName) {
		return false, nil
	}
	return err == nil, err
}

// Name resolves a LUID to its privilege name
func (e *Engine) Name(luid tokenbuf.LUID) (string, error) {
	name, err := e.lookupString("LookupPrivilegeName", func(buf []uint16) (uint32, win32.Win32Status) {
		return e.api.LookupPrivilegeName(e.System, luid, buf)
	})
	return name, errors.Wrapf(err, "privilege: name of LUID %s", luid)
}

// DisplayName returns the description of a privilege, such as
// "Shut down the system" for SeShutdownPrivilege
func (e *Engine) DisplayName(name string) (string, error) {
	display, err := e.lookupString("LookupPrivilegeDisplayName", func(buf []uint16) (uint32, win32.Win32Status) {
		return e.api.LookupPrivilegeDisplayName(e.System, name, buf)
	})
	return display, errors.Wrapf(err, "privilege: display name of %s", name)
}

func (e *Engine) lookupString(op string, call func(buf []uint16) (uint32, win32.Win32Status)) (string, error) {
	var buf []uint16
	res, err := status.Sized(func(size uint32) status.Result {
		buf = make([]uint16, size)
		n, st := call(buf)
		return status.FromWin32(op, st.OK, st.Errno, n)
	})
	if err != nil {
		return "", err
	}
	return string(utf16.Decode(buf[:res.Size])), nil
}
