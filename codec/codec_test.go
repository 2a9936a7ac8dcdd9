package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/papyrus-core/common"
)

func TestCursorPrimitivesRoundTrip(t *testing.T) {
	w := NewWriter(0)
	w.WriteU8(0xAB)
	w.WriteU16(0x1234)
	w.WriteU32(0xDEADBEEF)
	w.WriteU64(0x0102030405060708)
	w.WriteF32(3.5)
	w.WriteWString("hello")
	w.WriteLString("world")

	c := NewCursor(w.Bytes())
	u8, err := c.ReadU8("u8")
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAB), u8)

	u16, err := c.ReadU16("u16")
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	u32, err := c.ReadU32("u32")
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), u32)

	u64, err := c.ReadU64("u64")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), u64)

	f32, err := c.ReadF32("f32")
	require.NoError(t, err)
	assert.Equal(t, float32(3.5), f32)

	ws, err := c.ReadWString("ws")
	require.NoError(t, err)
	assert.Equal(t, "hello", ws)

	ls, err := c.ReadLString("ls")
	require.NoError(t, err)
	assert.Equal(t, "world", ls)

	assert.Equal(t, 0, c.Remaining())
}

func TestCursorTruncated(t *testing.T) {
	c := NewCursor([]byte{0x01, 0x02})
	_, err := c.ReadU32("field")
	require.Error(t, err)

	trunc, ok := err.(*common.Truncated)
	require.True(t, ok)
	assert.Equal(t, "field", trunc.Where)
}

func TestSizeHelpersMatchEncodedLength(t *testing.T) {
	w := NewWriter(0)
	w.WriteWString("abcdef")
	assert.Equal(t, SizeOfWString("abcdef"), w.Len())

	w2 := NewWriter(0)
	w2.WriteLString("abcdef")
	assert.Equal(t, SizeOfLString("abcdef"), w2.Len())
}
