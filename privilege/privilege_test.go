package privilege

import (
	"testing"

	"github.com/jet/privy/status"
	"github.com/jet/privy/tokenbuf"
	"github.com/jet/privy/win32"
	"github.com/jet/privy/win32/win32test"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, held map[string]tokenbuf.Attributes) (*Engine, *win32test.Tokens) {
	t.Helper()
	api := win32test.NewTokens(held)
	t.Cleanup(func() {
		require.Equal(t, 0, api.OpenHandles(), "every handle must be closed")
	})
	return New(api), api
}

func TestQueryAll(t *testing.T) {
	e, _ := setup(t, map[string]tokenbuf.Attributes{
		Shutdown:     0,
		ChangeNotify: tokenbuf.Enabled | tokenbuf.EnabledByDefault,
	})
	held, err := e.QueryAll(e.CurrentProcess())
	require.NoError(t, err)
	require.Equal(t, map[string]Record{
		Shutdown:     {Name: Shutdown},
		ChangeNotify: {Name: ChangeNotify, Attributes: tokenbuf.Enabled | tokenbuf.EnabledByDefault},
	}, held)
	require.True(t, held[ChangeNotify].Enabled())
	require.True(t, held[ChangeNotify].EnabledByDefault())
	require.False(t, held[Shutdown].Enabled())
}

func TestQueryAllEmptyToken(t *testing.T) {
	e, _ := setup(t, nil)
	held, err := e.QueryAll(e.CurrentProcess())
	require.NoError(t, err)
	require.Empty(t, held)
}

func TestEnableThenQuery(t *testing.T) {
	e, _ := setup(t, map[string]tokenbuf.Attributes{
		Shutdown: 0,
		Undock:   tokenbuf.Enabled,
	})
	proc := e.CurrentProcess()
	before, err := e.QueryAll(proc)
	require.NoError(t, err)

	change, err := e.Enable(proc, Shutdown)
	require.NoError(t, err)
	require.False(t, change.NotAllAssigned)
	require.Equal(t, Snapshot{Shutdown: before[Shutdown].Enabled()}, change.Previous)

	after, err := e.QueryAll(proc)
	require.NoError(t, err)
	require.True(t, after[Shutdown].Enabled())
	require.Equal(t, before[Undock], after[Undock])
}

func TestApplyBatch(t *testing.T) {
	e, api := setup(t, map[string]tokenbuf.Attributes{
		Shutdown: 0,
		Undock:   tokenbuf.Enabled,
		Backup:   tokenbuf.Enabled,
	})
	proc := e.CurrentProcess()
	change, err := e.Apply(proc, DesiredState{
		Shutdown: Enable,
		Undock:   Disable,
		Backup:   Remove,
	})
	require.NoError(t, err)
	require.Empty(t, change.Failed)
	require.Equal(t, Snapshot{Shutdown: false, Undock: true, Backup: true}, change.Previous)
	require.Equal(t, 2, api.Calls["AdjustTokenPrivileges"], "one probe and one fill")

	held := api.Held(win32test.CurrentProcessID)
	require.Equal(t, tokenbuf.Enabled, held[Shutdown])
	require.Equal(t, tokenbuf.Attributes(0), held[Undock])
	require.NotContains(t, held, Backup)
}

func TestApplyAlreadyInState(t *testing.T) {
	e, _ := setup(t, map[string]tokenbuf.Attributes{Shutdown: tokenbuf.Enabled})
	change, err := e.Enable(e.CurrentProcess(), Shutdown)
	require.NoError(t, err)
	require.Empty(t, change.Previous, "nothing changed")
	require.False(t, change.NotAllAssigned)
}

func TestRemoveAbsentPrivilege(t *testing.T) {
	e, api := setup(t, map[string]tokenbuf.Attributes{Shutdown: tokenbuf.Enabled})
	before := api.Held(win32test.CurrentProcessID)

	change, err := e.Remove(e.CurrentProcess(), Debug)
	require.NoError(t, err)
	require.True(t, change.NotAllAssigned)
	require.Empty(t, change.Previous)
	require.Equal(t, before, api.Held(win32test.CurrentProcessID))
}

func TestRemovedIsFinal(t *testing.T) {
	e, _ := setup(t, map[string]tokenbuf.Attributes{Shutdown: tokenbuf.Enabled})
	proc := e.CurrentProcess()

	change, err := e.Remove(proc, Shutdown)
	require.NoError(t, err)
	require.Equal(t, Snapshot{Shutdown: true}, change.Previous)

	change, err = e.Enable(proc, Shutdown)
	require.NoError(t, err)
	require.True(t, change.NotAllAssigned)

	held, err := e.QueryAll(proc)
	require.NoError(t, err)
	require.NotContains(t, held, Shutdown)
}

func TestDisableAll(t *testing.T) {
	e, _ := setup(t, map[string]tokenbuf.Attributes{Shutdown: tokenbuf.Enabled})
	proc := e.CurrentProcess()

	change, err := e.DisableAll(proc)
	require.NoError(t, err)
	require.Equal(t, Snapshot{Shutdown: true}, change.Previous)

	held, err := e.QueryAll(proc)
	require.NoError(t, err)
	require.False(t, held[Shutdown].Enabled())
}

func TestUndo(t *testing.T) {
	e, api := setup(t, map[string]tokenbuf.Attributes{
		Shutdown: 0,
		Undock:   tokenbuf.Enabled,
	})
	proc := e.CurrentProcess()
	before := api.Held(win32test.CurrentProcessID)

	change, err := e.Apply(proc, DesiredState{Shutdown: Enable, Undock: Disable})
	require.NoError(t, err)
	require.Equal(t, DesiredState{Shutdown: Disable, Undock: Enable}, change.Previous.Undo())

	_, err = e.Apply(proc, change.Previous.Undo())
	require.NoError(t, err)
	require.Equal(t, before, api.Held(win32test.CurrentProcessID))
}

func TestApplyInvalidName(t *testing.T) {
	e, api := setup(t, map[string]tokenbuf.Attributes{Shutdown: 0})
	proc := e.CurrentProcess()

	change, err := e.Apply(proc, DesiredState{"SeNotARealPrivilege": Enable, Shutdown: Enable})
	require.NoError(t, err)
	require.Len(t, change.Failed, 1)
	require.True(t, errors.Is(change.Failed["SeNotARealPrivilege"], status.ErrInvalidName))
	require.Equal(t, Snapshot{Shutdown: false}, change.Previous)

	_, err = e.Enable(proc, "SeNotARealPrivilege")
	require.True(t, errors.Is(err, status.ErrInvalidName))
	require.Equal(t, 2, api.Calls["AdjustTokenPrivileges"], "no call when nothing resolves")
}

func TestApplyEmpty(t *testing.T) {
	e, api := setup(t, nil)
	change, err := e.Apply(e.CurrentProcess(), DesiredState{})
	require.NoError(t, err)
	require.Empty(t, change.Previous)
	require.Zero(t, api.Calls["OpenProcessToken"])
}

func TestBufferGrowsBetweenProbeAndFill(t *testing.T) {
	e, api := setup(t, map[string]tokenbuf.Attributes{Shutdown: 0})
	api.OnSizeProbe = func(op string) {
		if op == "GetTokenInformation" {
			api.Grant(win32test.CurrentProcessID, Debug, 0)
		}
	}
	_, err := e.QueryAll(e.CurrentProcess())
	require.Error(t, err)
	require.True(t, status.IsBufferProtocolViolation(err))
	require.Equal(t, 2, api.Calls["GetTokenInformation"], "never retried")
}

// truncatedTokens reports a filled length too short for the records the
// buffer claims to hold
type truncatedTokens struct {
	*win32test.Tokens
}

func truncate(n uint32, st win32.Win32Status) (uint32, win32.Win32Status) {
	if st.OK && n > 6 {
		return 6, st
	}
	return n, st
}

func (t truncatedTokens) GetTokenPrivileges(token win32.Handle, buf []byte) (uint32, win32.Win32Status) {
	return truncate(t.Tokens.GetTokenPrivileges(token, buf))
}

func (t truncatedTokens) AdjustTokenPrivileges(token win32.Handle, disableAll bool, newState []byte, previous []byte) (uint32, win32.Win32Status) {
	return truncate(t.Tokens.AdjustTokenPrivileges(token, disableAll, newState, previous))
}

func TestDecodeFailureClosesToken(t *testing.T) {
	_, api := setup(t, map[string]tokenbuf.Attributes{
		Shutdown: tokenbuf.Enabled,
		Undock:   0,
	})
	e := New(truncatedTokens{api})

	_, err := e.QueryAll(e.CurrentProcess())
	require.Error(t, err)
	require.True(t, status.IsBufferProtocolViolation(err))
	require.Equal(t, 0, api.OpenHandles())

	_, err = e.DisableAll(e.CurrentProcess())
	require.Error(t, err)
	require.True(t, status.IsBufferProtocolViolation(err))
	require.Equal(t, 0, api.OpenHandles())

	_, err = e.Enable(e.CurrentProcess(), Undock)
	require.Error(t, err)
	require.True(t, status.IsBufferProtocolViolation(err))
	require.Equal(t, 0, api.OpenHandles())
}

func TestOpenTokenDenied(t *testing.T) {
	e, api := setup(t, nil)
	api.Fail["OpenProcessToken"] = status.ERROR_ACCESS_DENIED
	_, err := e.QueryAll(e.CurrentProcess())
	require.True(t, errors.Is(err, status.ErrAccessDenied))

	_, err = e.DisableAll(e.CurrentProcess())
	require.True(t, errors.Is(err, status.ErrAccessDenied))
}

func TestAdjustFailureClosesToken(t *testing.T) {
	e, api := setup(t, map[string]tokenbuf.Attributes{Shutdown: 0})
	api.Fail["AdjustTokenPrivileges"] = status.ERROR_INVALID_HANDLE
	_, err := e.Enable(e.CurrentProcess(), Shutdown)
	require.True(t, status.IsNativeFailure(err))
}

func TestNameLookupFailureClosesToken(t *testing.T) {
	e, api := setup(t, map[string]tokenbuf.Attributes{Shutdown: 0})
	api.Fail["LookupPrivilegeName"] = status.ERROR_NONE_MAPPED
	_, err := e.QueryAll(e.CurrentProcess())
	require.True(t, errors.Is(err, status.ErrInvalidName))
}

func TestOtherProcess(t *testing.T) {
	e, api := setup(t, nil)
	api.AddProcess(1234, map[string]tokenbuf.Attributes{Debug: tokenbuf.Enabled})

	proc, err := e.OpenProcess(1234)
	require.NoError(t, err)
	held, err := e.QueryAll(proc)
	require.NoError(t, err)
	require.Contains(t, held, Debug)
	require.NoError(t, e.CloseProcess(proc))

	_, err = e.OpenProcess(999)
	require.True(t, status.IsNativeFailure(err))
}

func TestDisplayName(t *testing.T) {
	e, _ := setup(t, nil)
	name, err := e.DisplayName(Shutdown)
	require.NoError(t, err)
	require.Equal(t, "Shut down the system", name)

	_, err = e.DisplayName("SeNotARealPrivilege")
	require.True(t, errors.Is(err, status.ErrInvalidName))
}

func TestCheckName(t *testing.T) {
	e, api := setup(t, nil)
	ok, err := e.CheckName(Backup)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = e.CheckName("SeNotARealPrivilege")
	require.NoError(t, err)
	require.False(t, ok)

	api.Fail["LookupPrivilegeValue"] = status.ERROR_INVALID_HANDLE
	_, err = e.CheckName(Backup)
	require.Error(t, err)
}

func TestNames(t *testing.T) {
	names := Names()
	require.Contains(t, names, Shutdown)
	require.True(t, IsWellKnown(Debug))
	require.False(t, IsWellKnown("SeBatchLogonRight"))
	for _, name := range names {
		require.NotZero(t, win32test.LUID(name).LowPart, name)
	}

	names[0] = "changed"
	require.NotEqual(t, "changed", Names()[0])
}
