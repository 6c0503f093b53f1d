package rights

import (
	"testing"

	"github.com/jet/privy/status"
	"github.com/jet/privy/win32"
	"github.com/jet/privy/win32/win32test"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T, access AccessMask) (*Policy, *win32test.Policy) {
	t.Helper()
	api := win32test.NewPolicy()
	p, err := Open(api, "", access)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, p.Close())
		require.Equal(t, 0, api.OpenHandles(), "the policy handle must be released")
	})
	return p, api
}

func sid(t *testing.T, s win32.StringSID) win32.SID {
	t.Helper()
	v, err := s.ConvertToSID()
	require.NoError(t, err)
	return v
}

func TestEnumerateRightsForAccountEmpty(t *testing.T) {
	p, _ := open(t, EnumerateAccess)
	rights, err := p.EnumerateRightsForAccount(sid(t, win32.SIDGuests))
	require.NoError(t, err)
	require.NotNil(t, rights)
	require.Empty(t, rights)
}

func TestEnumerateRightsForAccount(t *testing.T) {
	p, api := open(t, EnumerateAccess)
	api.Assign(win32.SIDBackupOperators, BatchLogon, "SeBackupPrivilege")
	rights, err := p.EnumerateRightsForAccount(sid(t, win32.SIDBackupOperators))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{BatchLogon, "SeBackupPrivilege"}, rights)
}

func TestEnumerateAccountsForRight(t *testing.T) {
	p, api := open(t, EnumerateAccess)

	sids, err := p.EnumerateAccountsForRight("SeBackupPrivilege")
	require.NoError(t, err)
	require.Empty(t, sids, "nobody holds it yet")

	_, err = p.EnumerateAccountsForRight("NotARealRight")
	require.True(t, errors.Is(err, status.ErrInvalidName))

	api.Assign(win32.SIDAdministrators, "SeBackupPrivilege")
	api.Assign(win32.SIDBackupOperators, "SeBackupPrivilege")
	sids, err = p.EnumerateAccountsForRight("SeBackupPrivilege")
	require.NoError(t, err)
	require.Len(t, sids, 2)
	require.Equal(t, string(win32.SIDAdministrators), sids[0].String())
	require.Equal(t, string(win32.SIDBackupOperators), sids[1].String())
}

func TestAddRights(t *testing.T) {
	p, api := open(t, AddAccess)
	users := sid(t, win32.SIDUsers)

	require.NoError(t, p.AddRights(users, []string{ServiceLogon, BatchLogon}))
	require.Equal(t, []string{BatchLogon, ServiceLogon}, api.Rights(win32.SIDUsers))
	require.Equal(t, 1, api.CallCount("LsaAddAccountRights"))

	require.NoError(t, p.AddRights(users, nil))
	require.Equal(t, 1, api.CallCount("LsaAddAccountRights"), "an empty list makes no call")

	err := p.AddRights(users, []string{"NotARealRight"})
	require.True(t, errors.Is(err, status.ErrInvalidName))
}

func TestAddRightsNeedsCreateAccount(t *testing.T) {
	p, _ := open(t, RemoveAccess)
	err := p.AddRights(sid(t, win32.SIDUsers), []string{ServiceLogon})
	require.True(t, errors.Is(err, status.ErrAccessDenied))
}

func TestRemoveRights(t *testing.T) {
	p, api := open(t, RemoveAccess)
	api.Assign(win32.SIDUsers, ServiceLogon, BatchLogon)
	users := sid(t, win32.SIDUsers)

	require.NoError(t, p.RemoveRights(users, []string{ServiceLogon}))
	require.Equal(t, []string{BatchLogon}, api.Rights(win32.SIDUsers))

	require.NoError(t, p.RemoveRights(users, []string{BatchLogon}))
	require.Empty(t, api.Rights(win32.SIDUsers))

	// nothing left to remove
	require.NoError(t, p.RemoveRights(users, []string{BatchLogon}))
}

func TestRemoveAllRights(t *testing.T) {
	p, api := open(t, RemoveAccess)
	guests := sid(t, win32.SIDGuests)

	require.NoError(t, p.RemoveAllRights(guests), "an account without rights")
	require.Empty(t, api.Rights(win32.SIDGuests))

	api.Assign(win32.SIDGuests, DenyNetworkLogon, InteractiveLogon)
	require.NoError(t, p.RemoveAllRights(guests))
	require.Empty(t, api.Rights(win32.SIDGuests))
}

func TestAccessNotWidened(t *testing.T) {
	p, _ := open(t, LookupNames)
	require.Equal(t, LookupNames, p.Access())
	_, err := p.EnumerateAccountsForRight(ServiceLogon)
	require.True(t, errors.Is(err, status.ErrAccessDenied))
}

func TestClosedPolicy(t *testing.T) {
	api := win32test.NewPolicy()
	p, err := Open(api, "", AllAccess)
	require.NoError(t, err)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	require.Equal(t, 1, api.CallCount("LsaClose"))

	users := sid(t, win32.SIDUsers)
	_, err = p.EnumerateRightsForAccount(users)
	require.Equal(t, status.ErrClosed, err)
	_, err = p.EnumerateAccountsForRight(ServiceLogon)
	require.Equal(t, status.ErrClosed, err)
	require.Equal(t, status.ErrClosed, p.AddRights(users, []string{ServiceLogon}))
	require.Equal(t, status.ErrClosed, p.RemoveRights(users, []string{ServiceLogon}))
	require.Equal(t, status.ErrClosed, p.RemoveAllRights(users))
	require.Equal(t, 0, api.CallCount("LsaAddAccountRights"))
}

func TestOpenFails(t *testing.T) {
	api := win32test.NewPolicy()
	api.Fail["LsaOpenPolicy"] = win32.NTStatus(status.STATUS_ACCESS_DENIED)
	_, err := Open(api, "", AllAccess)
	require.True(t, errors.Is(err, status.ErrAccessDenied))
}

func TestInvalidSID(t *testing.T) {
	p, api := open(t, AllAccess)
	require.Error(t, p.AddRights(win32.SID{1, 2, 3}, []string{ServiceLogon}))
	require.Equal(t, 0, api.CallCount("LsaAddAccountRights"))
}

func TestLogonRights(t *testing.T) {
	rights := LogonRights()
	require.Len(t, rights, 10)
	require.Equal(t, "Log on as a service", rights[ServiceLogon])
	rights[ServiceLogon] = "changed"
	d, ok := Description(ServiceLogon)
	require.True(t, ok)
	require.Equal(t, "Log on as a service", d)
	require.Len(t, LogonRightNames(), 10)
}
