package win32

import (
	"testing"
)

func TestSIDs(t *testing.T) {
	sidStrings := []StringSID{
		SIDEveryone,
		SIDAuthenticatedUsers,
		SIDLocalSystem,
		SIDLocalService,
		SIDNetworkService,
		SIDAdministrators,
		SIDUsers,
		SIDGuests,
		SIDPowerUsers,
		SIDAccountOperators,
		SIDServerOperators,
		SIDPrintOperators,
		SIDBackupOperators,
		SIDReplicators,
		SIDRemoteDesktopUsers,
		SIDAllServices,
		SIDNTVirtualMachines,
		StringSID("S-1-5-21-3623811015-3361044348-30300820-1013"),
		StringSID("S-1-0x1A2B3C4D5E6F-1"),
	}
	for _, s := range sidStrings {
		t.Run(string(s), func(t *testing.T) {
			sid, err := s.ConvertToSID()
			if err != nil {
				t.Fatal("ConvertToSID failed", err)
			}
			if !sid.Valid() {
				t.Error("expected a valid SID")
			}
			sidCopy := sid.Copy()
			if &sidCopy[0] == &sid[0] {
				t.Error("expected sidCopy not to share memory with sid")
			}
			if !sidCopy.Equal(sid) {
				t.Error("expected sidCopy to equal sid")
			}
			if str := sidCopy.String(); str != string(s) {
				t.Errorf("sidCopy.String(): expected '%s', actual '%s'", string(s), str)
			}
		})
	}
}

func TestSIDBinaryForm(t *testing.T) {
	sid, err := SIDAdministrators.ConvertToSID()
	if err != nil {
		t.Fatal(err)
	}
	expected := []byte{1, 2, 0, 0, 0, 0, 0, 5, 32, 0, 0, 0, 0x20, 0x02, 0, 0}
	if string(sid) != string(expected) {
		t.Errorf("expected % x, actual % x", expected, []byte(sid))
	}
}

func TestParseSIDBad(t *testing.T) {
	for _, s := range []string{"", "S", "S-1", "X-1-5-32", "S-2-5-32", "S-1-5-x", "S-1-5-1-2-3-4-5-6-7-8-9-10-11-12-13-14-15-16", "S-1-5-4294967296"} {
		if _, err := ParseSID(s); err == nil {
			t.Errorf("ParseSID(%q): expected error", s)
		}
	}
}

func TestSIDInvalid(t *testing.T) {
	tests := []SID{
		nil,
		{1, 1, 0, 0, 0, 0, 0, 5},
		{2, 0, 0, 0, 0, 0, 0, 5},
		{1, 0, 0, 0, 0, 0, 0, 5, 0},
	}
	for _, sid := range tests {
		if sid.Valid() {
			t.Errorf("% x: expected invalid", []byte(sid))
		}
		if sid.String() != "" {
			t.Errorf("% x: expected empty string", []byte(sid))
		}
	}
}
