// Package tokenbuf converts between privilege records and the packed
// TOKEN_PRIVILEGES layout: a 4-byte count followed by count
// LUID_AND_ATTRIBUTES records.
//
//	typedef struct _TOKEN_PRIVILEGES {
//	  DWORD               PrivilegeCount;
//	  LUID_AND_ATTRIBUTES Privileges[ANYSIZE_ARRAY];
//	} TOKEN_PRIVILEGES, *PTOKEN_PRIVILEGES;
//
// The codec works on Go byte slices only and never touches native memory.
package tokenbuf

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/lkarlslund/binstruct"
	"github.com/pkg/errors"
)

const (
	// HeaderSize is the size of PrivilegeCount
	HeaderSize = 4
	// RecordStride is the size of one LUID_AND_ATTRIBUTES
	RecordStride = 12
	// MinSize is sizeof(TOKEN_PRIVILEGES), which embeds the first record
	MinSize = HeaderSize + RecordStride
)

// ErrTruncated is returned when the buffer is shorter than its count says
var ErrTruncated = errors.New("tokenbuf: buffer truncated")

// LUID is a locally unique identifier
type LUID struct {
	LowPart  uint32
	HighPart int32
}

func (l LUID) String() string {
	return fmt.Sprintf("%d:%d", l.HighPart, l.LowPart)
}

// Attributes are the SE_PRIVILEGE_* flags of a privilege
type Attributes uint32

const (
	EnabledByDefault Attributes = 0x00000001
	Enabled          Attributes = 0x00000002
	Removed          Attributes = 0x00000004
	UsedForAccess    Attributes = 0x80000000
)

// Has reports whether every bit of flag is set
func (a Attributes) Has(flag Attributes) bool {
	return a&flag == flag
}

func (a Attributes) String() string {
	if a == 0 {
		return "Disabled"
	}
	var parts []string
	if a.Has(EnabledByDefault) {
		parts = append(parts, "EnabledByDefault")
	}
	if a.Has(Enabled) {
		parts = append(parts, "Enabled")
	}
	if a.Has(Removed) {
		parts = append(parts, "Removed")
	}
	if a.Has(UsedForAccess) {
		parts = append(parts, "UsedForAccess")
	}
	if rest := a &^ (EnabledByDefault | Enabled | Removed | UsedForAccess); rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// MarshalText writes the flag names, as String does
func (a Attributes) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Privilege is one LUID_AND_ATTRIBUTES record
type Privilege struct {
	LUID       LUID
	Attributes Attributes
}

// Size returns the number of bytes needed to hold count records.
// A buffer is never smaller than the native struct.
func Size(count int) int {
	n := HeaderSize + count*RecordStride
	if n < MinSize {
		return MinSize
	}
	return n
}

// Encode packs records into a TOKEN_PRIVILEGES buffer.
// An empty slice still produces a header with a zero count.
func Encode(records []Privilege) []byte {
	buf := make([]byte, Size(len(records)))
	binary.LittleEndian.PutUint32(buf, uint32(len(records)))
	off := HeaderSize
	for _, r := range records {
		binary.LittleEndian.PutUint32(buf[off:], r.LUID.LowPart)
		binary.LittleEndian.PutUint32(buf[off+4:], uint32(r.LUID.HighPart))
		binary.LittleEndian.PutUint32(buf[off+8:], uint32(r.Attributes))
		off += RecordStride
	}
	return buf
}

type header struct {
	Count uint32
}

type record struct {
	LowPart    uint32
	HighPart   int32
	Attributes uint32
}

// Decode reads the records of a TOKEN_PRIVILEGES buffer
func Decode(buf []byte) ([]Privilege, error) {
	return DecodeStride(buf, RecordStride)
}

// DecodeStride reads count records spaced stride bytes apart.
// Bytes past the last record are ignored.
func DecodeStride(buf []byte, stride int) ([]Privilege, error) {
	if stride < RecordStride {
		return nil, errors.Errorf("tokenbuf: stride %d is smaller than a record", stride)
	}
	if len(buf) < HeaderSize {
		return nil, errors.Wrapf(ErrTruncated, "%d bytes, no room for the count", len(buf))
	}
	var h header
	if err := binstruct.UnmarshalLE(buf[:HeaderSize], &h); err != nil {
		return nil, errors.Wrap(err, "tokenbuf: decode header")
	}
	need := uint64(HeaderSize) + uint64(h.Count)*uint64(stride)
	if need > uint64(len(buf)) {
		return nil, errors.Wrapf(ErrTruncated, "count %d needs %d bytes, have %d", h.Count, need, len(buf))
	}
	records := make([]Privilege, 0, h.Count)
	for i := 0; i < int(h.Count); i++ {
		off := HeaderSize + i*stride
		var r record
		if err := binstruct.UnmarshalLE(buf[off:off+RecordStride], &r); err != nil {
			return nil, errors.Wrapf(err, "tokenbuf: decode record %d", i)
		}
		records = append(records, Privilege{
			LUID:       LUID{LowPart: r.LowPart, HighPart: r.HighPart},
			Attributes: Attributes(r.Attributes),
		})
	}
	return records, nil
}
