package tokenbuf

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	tests := [][]Privilege{
		{},
		{{LUID: LUID{LowPart: 19}, Attributes: Enabled}},
		{
			{LUID: LUID{LowPart: 17}, Attributes: 0},
			{LUID: LUID{LowPart: 20, HighPart: 1}, Attributes: Enabled | EnabledByDefault},
			{LUID: LUID{LowPart: 23, HighPart: -1}, Attributes: Removed},
			{LUID: LUID{LowPart: 0xFFFFFFFF}, Attributes: UsedForAccess | Enabled},
		},
	}
	for _, records := range tests {
		t.Run(fmt.Sprintf("%d records", len(records)), func(t *testing.T) {
			buf := Encode(records)
			require.Equal(t, Size(len(records)), len(buf))
			require.Equal(t, uint32(len(records)), binary.LittleEndian.Uint32(buf))

			decoded, err := Decode(buf)
			require.NoError(t, err)
			require.Equal(t, records, decoded)
		})
	}
}

func TestSize(t *testing.T) {
	require.Equal(t, MinSize, Size(0))
	require.Equal(t, MinSize, Size(1))
	require.Equal(t, 28, Size(2))
	require.Equal(t, 4+35*12, Size(35))
}

func TestEncodeLayout(t *testing.T) {
	buf := Encode([]Privilege{
		{LUID: LUID{LowPart: 0x01020304, HighPart: 0x05}, Attributes: Enabled},
	})
	require.Equal(t, []byte{
		1, 0, 0, 0,
		4, 3, 2, 1,
		5, 0, 0, 0,
		2, 0, 0, 0,
	}, buf)
}

func TestDecodeTruncated(t *testing.T) {
	buf := Encode([]Privilege{{LUID: LUID{LowPart: 1}}, {LUID: LUID{LowPart: 2}}})

	for _, n := range []int{0, 3, HeaderSize + RecordStride, len(buf) - 1} {
		_, err := Decode(buf[:n])
		require.Error(t, err, "length %d", n)
		require.True(t, errors.Is(err, ErrTruncated), "length %d", n)
	}
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	records := []Privilege{{LUID: LUID{LowPart: 8}, Attributes: Enabled}}
	buf := append(Encode(records), 0xAA, 0xBB, 0xCC, 0xDD, 0xEE)
	decoded, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, records, decoded)
}

func TestDecodeHeaderOnly(t *testing.T) {
	decoded, err := Decode([]byte{0, 0, 0, 0})
	require.NoError(t, err)
	require.Empty(t, decoded)
}

func TestDecodeStride(t *testing.T) {
	buf := make([]byte, HeaderSize+2*16)
	binary.LittleEndian.PutUint32(buf, 2)
	binary.LittleEndian.PutUint32(buf[4:], 7)
	binary.LittleEndian.PutUint32(buf[12:], uint32(Enabled))
	binary.LittleEndian.PutUint32(buf[20:], 9)

	decoded, err := DecodeStride(buf, 16)
	require.NoError(t, err)
	require.Equal(t, []Privilege{
		{LUID: LUID{LowPart: 7}, Attributes: Enabled},
		{LUID: LUID{LowPart: 9}},
	}, decoded)

	_, err = DecodeStride(buf, 8)
	require.Error(t, err)
}

func TestAttributesString(t *testing.T) {
	require.Equal(t, "Disabled", Attributes(0).String())
	require.Equal(t, "EnabledByDefault|Enabled", (Enabled | EnabledByDefault).String())
	require.Equal(t, "Removed", Removed.String())
	require.Equal(t, "Enabled|0x10", (Enabled | 0x10).String())
}
