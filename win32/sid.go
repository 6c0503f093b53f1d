package win32

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// https://support.microsoft.com/en-us/help/243330/well-known-security-identifiers-in-windows-operating-systems

const (
	// SIDEveryone is a group that includes all users
	SIDEveryone = StringSID("S-1-1-0")

	// SIDAuthenticatedUsers is a group that includes all users whose identities were authenticated when they logged on
	SIDAuthenticatedUsers = StringSID("S-1-5-11")

	// SIDLocalSystem is the service account used by the operating system
	SIDLocalSystem = StringSID("S-1-5-18")

	// SIDLocalService is a service account with the same privileges as a member of the Users group
	SIDLocalService = StringSID("S-1-5-19")

	// SIDNetworkService is a service account that authenticates to remote servers with the computer's credentials
	SIDNetworkService = StringSID("S-1-5-20")

	// SIDAdministrators is a built-in group. After the initial installation of the operating system, the only member of the group is the Administrator account.
	SIDAdministrators = StringSID("S-1-5-32-544")

	// SIDUsers is a built-in group. After the initial installation of the operating system, the only member is the Authenticated Users group.
	SIDUsers = StringSID("S-1-5-32-545")

	// SIDGuests is a built-in group. By default, the only member is the Guest account.
	SIDGuests = StringSID("S-1-5-32-546")

	// SIDPowerUsers is a built-in group. By default, the group has no members.
	SIDPowerUsers = StringSID("S-1-5-32-547")

	// SIDAccountOperators is a built-in group that exists only on domain controllers.
	SIDAccountOperators = StringSID("S-1-5-32-548")

	// SIDServerOperators is a built-in group that exists only on domain controllers.
	SIDServerOperators = StringSID("S-1-5-32-549")

	// SIDPrintOperators is a built-in group that exists only on domain controllers.
	SIDPrintOperators = StringSID("S-1-5-32-550")

	// SIDBackupOperators is a built-in group. Backup Operators can back up and restore all files on a computer, regardless of the permissions that protect those files.
	SIDBackupOperators = StringSID("S-1-5-32-551")

	// SIDReplicators is a built-in group that is used by the File Replication service on domain controllers.
	SIDReplicators = StringSID("S-1-5-32-552")

	// SIDRemoteDesktopUsers is a built-in group whose members are granted the right to log on remotely.
	SIDRemoteDesktopUsers = StringSID("S-1-5-32-555")

	// SIDAllServices is a group that includes all service processes that are configured on the system.
	SIDAllServices = StringSID("S-1-5-80-0")

	// SIDNTVirtualMachines is a built-in group created when the Hyper-V role is installed. It requires the "Log on as a Service" right (SeServiceLogonRight).
	SIDNTVirtualMachines = StringSID("S-1-5-83-0")
)

const (
	sidRevision          = 1
	sidMaxSubAuthorities = 15
	sidHeaderSize        = 8
)

// StringSID is a string representation of a SID
type StringSID string

// ConvertToSID converts this string SID into a SID
func (s StringSID) ConvertToSID() (SID, error) {
	return ParseSID(string(s))
}

// SID is a windows security identifier in its binary, self-relative form:
//
//	typedef struct _SID {
//	  BYTE                     Revision;
//	  BYTE                     SubAuthorityCount;
//	  SID_IDENTIFIER_AUTHORITY IdentifierAuthority;
//	  DWORD                    SubAuthority[ANYSIZE_ARRAY];
//	} SID, *PISID;
type SID []byte

// ParseSID parses the S-R-I-S-S... string form
func ParseSID(str string) (SID, error) {
	parts := strings.Split(str, "-")
	if len(parts) < 3 || !strings.EqualFold(parts[0], "S") {
		return nil, errors.Errorf("win32: invalid SID %q", str)
	}
	rev, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil || rev != sidRevision {
		return nil, errors.Errorf("win32: invalid SID revision in %q", str)
	}
	auth, err := strconv.ParseUint(parts[2], 0, 48)
	if err != nil {
		return nil, errors.Wrapf(err, "win32: invalid SID authority in %q", str)
	}
	subs := parts[3:]
	if len(subs) > sidMaxSubAuthorities {
		return nil, errors.Errorf("win32: too many sub authorities in %q", str)
	}
	sid := make(SID, sidHeaderSize+4*len(subs))
	sid[0] = sidRevision
	sid[1] = byte(len(subs))
	for i := 0; i < 6; i++ {
		sid[2+i] = byte(auth >> (8 * uint(5-i)))
	}
	for i, sub := range subs {
		v, err := strconv.ParseUint(sub, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "win32: invalid sub authority in %q", str)
		}
		binary.LittleEndian.PutUint32(sid[sidHeaderSize+4*i:], uint32(v))
	}
	return sid, nil
}

// Valid checks the revision and that the length matches the sub authority count
func (s SID) Valid() bool {
	if len(s) < sidHeaderSize || s[0] != sidRevision || s[1] > sidMaxSubAuthorities {
		return false
	}
	return len(s) == sidHeaderSize+4*int(s[1])
}

// Equal reports whether both SIDs have the same binary form
func (s SID) Equal(o SID) bool {
	return bytes.Equal(s, o)
}

// Copy returns a SID that does not share memory with s
func (s SID) Copy() SID {
	c := make(SID, len(s))
	copy(c, s)
	return c
}

// String gets the string representation of the SID
// If the SID is not valid, then it will return an empty string
func (s SID) String() string {
	if !s.Valid() {
		return ""
	}
	var auth uint64
	for i := 0; i < 6; i++ {
		auth = auth<<8 | uint64(s[2+i])
	}
	var b strings.Builder
	b.WriteString("S-1-")
	if auth >= 1<<32 {
		b.WriteString("0x")
		b.WriteString(strings.ToUpper(strconv.FormatUint(auth, 16)))
	} else {
		b.WriteString(strconv.FormatUint(auth, 10))
	}
	for i := 0; i < int(s[1]); i++ {
		b.WriteByte('-')
		b.WriteString(strconv.FormatUint(uint64(binary.LittleEndian.Uint32(s[sidHeaderSize+4*i:])), 10))
	}
	return b.String()
}
