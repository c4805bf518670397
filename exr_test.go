package uhdravif

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHalfBits(t *testing.T) {
	cases := []struct {
		in   float32
		want uint16
	}{
		{0, 0x0000},
		{1, 0x3C00},
		{-1, 0xBC00},
		{0.5, 0x3800},
		{2, 0x4000},
		{65504, 0x7BFF},        // largest finite half
		{100000, 0x7C00},       // overflows to +Inf
		{5.9604645e-8, 0x0001}, // smallest subnormal
	}
	for _, c := range cases {
		assert.Equal(t, c.want, halfBits(c.in), "input %v", c.in)
	}
}

func TestWriteEXRStructure(t *testing.T) {
	img := uniformImage(6, 4, 1.5, 0.5, 0.25)

	var buf bytes.Buffer
	require.NoError(t, WriteEXR(&buf, img))
	data := buf.Bytes()

	require.Greater(t, len(data), 8)
	assert.Equal(t, uint32(0x01312f76), binary.LittleEndian.Uint32(data), "magic")
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[4:]), "version")

	for _, attr := range []string{"channels", "chromaticities", "compression", "dataWindow", "lineOrder"} {
		assert.True(t, bytes.Contains(data, append([]byte(attr), 0)), "attribute %s", attr)
	}

	// The offset table sits right before the first chunk, which starts
	// with y coordinate 0. Walk the chunks from there and verify they
	// tile the rest of the file exactly.
	le := binary.LittleEndian
	idx := bytes.Index(data, []byte("screenWindowWidth"))
	require.Greater(t, idx, 0)
	// name, NUL, type "float", NUL, size word, 4 value bytes.
	offTable := idx + len("screenWindowWidth") + 1 + len("float") + 1 + 4 + 4 + 1
	firstOff := le.Uint64(data[offTable:])
	assert.Equal(t, uint64(offTable+8*img.Height), firstOff)

	pos := firstOff
	for y := 0; y < img.Height; y++ {
		assert.Equal(t, uint64(le.Uint64(data[offTable+8*y:])), pos, "offset of row %d", y)
		assert.Equal(t, uint32(y), le.Uint32(data[pos:]), "chunk y")
		size := le.Uint32(data[pos+4:])
		pos += 8 + uint64(size)
	}
	assert.Equal(t, uint64(len(data)), pos, "chunks tile the file")
}

func TestWriteEXRRejectsEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := WriteEXR(&buf, &HDRImage{})
	assert.ErrorIs(t, err, ErrPacking)
}

func TestEXRCompressRoundTripSize(t *testing.T) {
	// Uniform data compresses well below raw size.
	raw := bytes.Repeat([]byte{0x3C, 0x00}, 512)
	out := exrCompress(raw)
	assert.Less(t, len(out), len(raw))

	// Tiny incompressible data falls back to raw storage.
	out = exrCompress([]byte{1})
	assert.Equal(t, []byte{1}, out)
}
