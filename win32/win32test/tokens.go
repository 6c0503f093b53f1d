package win32test

import (
	"sort"
	"sync"
	"unicode/utf16"

	"github.com/jet/privy/status"
	"github.com/jet/privy/tokenbuf"
	"github.com/jet/privy/win32"
	"github.com/pkg/errors"
)

// CurrentProcessID is the id of the process returned by CurrentProcess
const CurrentProcessID uint32 = 4242

const currentProcessHandle win32.Handle = 0xFFFFFFFF

type handleKind int

const (
	processHandle handleKind = iota
	tokenHandle
)

type handle struct {
	kind   handleKind
	pid    uint32
	access uint32
}

// Tokens is a fake win32.TokenAPI holding one token per process
type Tokens struct {
	mu      sync.Mutex
	procs   map[uint32]map[tokenbuf.LUID]tokenbuf.Attributes
	handles map[win32.Handle]handle
	next    win32.Handle

	// Fail makes the named function fail with the given Win32 error code
	Fail map[string]uint32

	// OnSizeProbe runs after a sized call reported that the buffer was too
	// small, before the caller retries. The lock is not held.
	OnSizeProbe func(op string)

	// Calls counts the calls per function name
	Calls map[string]int
}

var _ win32.TokenAPI = (*Tokens)(nil)

// NewTokens returns a fake whose current process token holds held.
// Attributes of zero mean held but disabled.
func NewTokens(held map[string]tokenbuf.Attributes) *Tokens {
	t := &Tokens{
		procs:   make(map[uint32]map[tokenbuf.LUID]tokenbuf.Attributes),
		handles: make(map[win32.Handle]handle),
		next:    0x100,
		Fail:    make(map[string]uint32),
		Calls:   make(map[string]int),
	}
	t.AddProcess(CurrentProcessID, held)
	return t
}

// AddProcess adds a process whose token holds held
func (t *Tokens) AddProcess(pid uint32, held map[string]tokenbuf.Attributes) {
	t.mu.Lock()
	defer t.mu.Unlock()
	token := make(map[tokenbuf.LUID]tokenbuf.Attributes, len(held))
	for name, attrs := range held {
		token[LUID(name)] = attrs
	}
	t.procs[pid] = token
}

// Grant adds or replaces a privilege on the token of pid
func (t *Tokens) Grant(pid uint32, name string, attrs tokenbuf.Attributes) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.procs[pid][LUID(name)] = attrs
}

// Held returns the privileges on the token of pid by name
func (t *Tokens) Held(pid uint32) map[string]tokenbuf.Attributes {
	t.mu.Lock()
	defer t.mu.Unlock()
	held := make(map[string]tokenbuf.Attributes)
	for luid, attrs := range t.procs[pid] {
		name, _ := nameOf(luid)
		held[name] = attrs
	}
	return held
}

// OpenHandles is the number of handles not yet closed
func (t *Tokens) OpenHandles() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handles)
}

func (t *Tokens) enter(op string) (uint32, bool) {
	t.Calls[op]++
	errno, ok := t.Fail[op]
	return errno, ok
}

func failed(errno uint32) win32.Win32Status {
	return win32.Win32Status{Errno: errno}
}

var succeeded = win32.Win32Status{OK: true}

func (t *Tokens) sizeProbe(op string) {
	if t.OnSizeProbe != nil {
		t.OnSizeProbe(op)
	}
}

func (t *Tokens) CurrentProcess() win32.Handle {
	return currentProcessHandle
}

func (t *Tokens) OpenProcess(access uint32, pid uint32) (win32.Handle, win32.Win32Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if errno, ok := t.enter("OpenProcess"); ok {
		return win32.InvalidHandle, failed(errno)
	}
	if _, ok := t.procs[pid]; !ok {
		return win32.InvalidHandle, failed(status.ERROR_INVALID_PARAMETER)
	}
	return t.newHandle(handle{kind: processHandle, pid: pid, access: access}), succeeded
}

func (t *Tokens) newHandle(h handle) win32.Handle {
	t.next++
	t.handles[t.next] = h
	return t.next
}

func (t *Tokens) OpenProcessToken(process win32.Handle, access uint32) (win32.Handle, win32.Win32Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if errno, ok := t.enter("OpenProcessToken"); ok {
		return win32.InvalidHandle, failed(errno)
	}
	pid := CurrentProcessID
	if process != currentProcessHandle {
		h, ok := t.handles[process]
		if !ok || h.kind != processHandle {
			return win32.InvalidHandle, failed(status.ERROR_INVALID_HANDLE)
		}
		if h.access&(win32.PROCESS_QUERY_INFORMATION|win32.PROCESS_QUERY_LIMITED_INFORMATION) == 0 {
			return win32.InvalidHandle, failed(status.ERROR_ACCESS_DENIED)
		}
		pid = h.pid
	}
	return t.newHandle(handle{kind: tokenHandle, pid: pid, access: access}), succeeded
}

func (t *Tokens) CloseHandle(h win32.Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if errno, ok := t.enter("CloseHandle"); ok {
		return errors.Errorf("CloseHandle: error %d", errno)
	}
	if h == currentProcessHandle {
		return nil
	}
	if _, ok := t.handles[h]; !ok {
		return errors.Errorf("CloseHandle: invalid handle 0x%x", uintptr(h))
	}
	delete(t.handles, h)
	return nil
}

func (t *Tokens) token(h win32.Handle, access uint32) (map[tokenbuf.LUID]tokenbuf.Attributes, uint32) {
	th, ok := t.handles[h]
	if !ok || th.kind != tokenHandle {
		return nil, status.ERROR_INVALID_HANDLE
	}
	if th.access&access != access {
		return nil, status.ERROR_ACCESS_DENIED
	}
	return t.procs[th.pid], 0
}

func sortedRecords(m map[tokenbuf.LUID]tokenbuf.Attributes) []tokenbuf.Privilege {
	records := make([]tokenbuf.Privilege, 0, len(m))
	for luid, attrs := range m {
		records = append(records, tokenbuf.Privilege{LUID: luid, Attributes: attrs})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].LUID.LowPart < records[j].LUID.LowPart
	})
	return records
}

func (t *Tokens) GetTokenPrivileges(token win32.Handle, buf []byte) (uint32, win32.Win32Status) {
	t.mu.Lock()
	if errno, ok := t.enter("GetTokenInformation"); ok {
		t.mu.Unlock()
		return 0, failed(errno)
	}
	held, errno := t.token(token, win32.TOKEN_QUERY)
	if errno != 0 {
		t.mu.Unlock()
		return 0, failed(errno)
	}
	data := tokenbuf.Encode(sortedRecords(held))
	need := uint32(len(data))
	if uint32(len(buf)) < need {
		t.mu.Unlock()
		t.sizeProbe("GetTokenInformation")
		return need, failed(status.ERROR_INSUFFICIENT_BUFFER)
	}
	copy(buf, data)
	t.mu.Unlock()
	return need, succeeded
}

func (t *Tokens) AdjustTokenPrivileges(token win32.Handle, disableAll bool, newState []byte, previous []byte) (uint32, win32.Win32Status) {
	t.mu.Lock()
	if errno, ok := t.enter("AdjustTokenPrivileges"); ok {
		t.mu.Unlock()
		return 0, failed(errno)
	}
	held, errno := t.token(token, win32.TOKEN_ADJUST_PRIVILEGES)
	if errno != 0 {
		t.mu.Unlock()
		return 0, failed(errno)
	}

	// changes holds the new attributes by LUID; prior their attributes before the call
	changes := make(map[tokenbuf.LUID]tokenbuf.Attributes)
	var notAll bool
	if disableAll {
		for luid, attrs := range held {
			if attrs.Has(tokenbuf.Enabled) {
				changes[luid] = attrs &^ tokenbuf.Enabled
			}
		}
	} else {
		if newState == nil {
			t.mu.Unlock()
			return 0, failed(status.ERROR_INVALID_PARAMETER)
		}
		requested, err := tokenbuf.Decode(newState)
		if err != nil {
			t.mu.Unlock()
			return 0, failed(status.ERROR_INVALID_PARAMETER)
		}
		for _, r := range requested {
			if _, known := nameOf(r.LUID); !known {
				t.mu.Unlock()
				return 0, failed(status.ERROR_NO_SUCH_PRIVILEGE)
			}
			attrs, ok := held[r.LUID]
			if !ok {
				notAll = true
				continue
			}
			switch {
			case r.Attributes.Has(tokenbuf.Removed):
				changes[r.LUID] = tokenbuf.Removed
			case r.Attributes.Has(tokenbuf.Enabled):
				if !attrs.Has(tokenbuf.Enabled) {
					changes[r.LUID] = attrs | tokenbuf.Enabled
				}
			default:
				if attrs.Has(tokenbuf.Enabled) {
					changes[r.LUID] = attrs &^ tokenbuf.Enabled
				}
			}
		}
	}

	prior := make(map[tokenbuf.LUID]tokenbuf.Attributes, len(changes))
	for luid := range changes {
		prior[luid] = held[luid]
	}
	data := tokenbuf.Encode(sortedRecords(prior))
	need := uint32(len(data))
	if uint32(len(previous)) < need {
		t.mu.Unlock()
		t.sizeProbe("AdjustTokenPrivileges")
		return need, failed(status.ERROR_INSUFFICIENT_BUFFER)
	}
	for luid, attrs := range changes {
		if attrs.Has(tokenbuf.Removed) {
			delete(held, luid)
			continue
		}
		held[luid] = attrs
	}
	copy(previous, data)
	t.mu.Unlock()
	if notAll {
		return need, win32.Win32Status{OK: true, Errno: status.ERROR_NOT_ALL_ASSIGNED}
	}
	return need, succeeded
}

func (t *Tokens) LookupPrivilegeValue(system string, name string) (tokenbuf.LUID, win32.Win32Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if errno, ok := t.enter("LookupPrivilegeValue"); ok {
		return tokenbuf.LUID{}, failed(errno)
	}
	low, ok := catalog[name]
	if !ok {
		return tokenbuf.LUID{}, failed(status.ERROR_NO_SUCH_PRIVILEGE)
	}
	return tokenbuf.LUID{LowPart: low}, succeeded
}

// writeString follows the cch convention of the LookupPrivilege*Name functions
func (t *Tokens) writeString(op string, str string, buf []uint16) (uint32, win32.Win32Status) {
	chars := utf16.Encode([]rune(str))
	need := uint32(len(chars) + 1)
	if uint32(len(buf)) < need {
		t.mu.Unlock()
		t.sizeProbe(op)
		t.mu.Lock()
		return need, failed(status.ERROR_INSUFFICIENT_BUFFER)
	}
	copy(buf, chars)
	buf[len(chars)] = 0
	return uint32(len(chars)), succeeded
}

func (t *Tokens) LookupPrivilegeName(system string, luid tokenbuf.LUID, buf []uint16) (uint32, win32.Win32Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if errno, ok := t.enter("LookupPrivilegeName"); ok {
		return 0, failed(errno)
	}
	name, ok := nameOf(luid)
	if !ok {
		return 0, failed(status.ERROR_NO_SUCH_PRIVILEGE)
	}
	return t.writeString("LookupPrivilegeName", name, buf)
}

func (t *Tokens) LookupPrivilegeDisplayName(system string, name string, buf []uint16) (uint32, win32.Win32Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if errno, ok := t.enter("LookupPrivilegeDisplayName"); ok {
		return 0, failed(errno)
	}
	if _, ok := catalog[name]; !ok {
		return 0, failed(status.ERROR_NO_SUCH_PRIVILEGE)
	}
	return t.writeString("LookupPrivilegeDisplayName", displayName(name), buf)
}
