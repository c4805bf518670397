package uhdravif

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isoPayloadSingle builds a minimal single-channel payload with per-field
// denominators, integer content boost max and matching HDR capacity.
func isoPayloadSingle(t *testing.T, gainMapMax int32) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	w32 := func(v int32) { _ = binary.Write(buf, binary.BigEndian, v) }

	_ = binary.Write(buf, binary.BigEndian, uint16(0)) // min version
	_ = binary.Write(buf, binary.BigEndian, uint16(0)) // writer version
	buf.WriteByte(0)                                   // flags: single channel, per-field denominators

	w32(0) // capacity min
	w32(1)
	w32(gainMapMax) // capacity max
	w32(1)

	w32(0) // gain map min
	w32(1)
	w32(gainMapMax)
	w32(1)
	w32(1) // gamma
	w32(1)
	w32(0) // offset sdr
	w32(1)
	w32(0) // offset hdr
	w32(1)
	return buf.Bytes()
}

func TestDecodeMetadataISOSingleChannel(t *testing.T) {
	meta, err := decodeMetadataISO(isoPayloadSingle(t, 2))
	require.NoError(t, err)

	assert.Equal(t, GainMapChannelsSingle, meta.Channels)
	assert.Equal(t, [3]float32{2, 2, 2}, meta.GainMapMax, "single channel broadcast")
	assert.Equal(t, [3]float32{1, 1, 1}, meta.Gamma)
	assert.Equal(t, float32(2), meta.HDRCapacityMax)
	require.NoError(t, meta.Validate())
}

func TestDecodeMetadataISOCommonDenominator(t *testing.T) {
	buf := &bytes.Buffer{}
	w32 := func(v int32) { _ = binary.Write(buf, binary.BigEndian, v) }

	_ = binary.Write(buf, binary.BigEndian, uint16(0))
	_ = binary.Write(buf, binary.BigEndian, uint16(0))
	buf.WriteByte(isoCommonDenomMask | isoUseBaseColorMask)

	w32(4)  // common denominator
	w32(0)  // capacity min
	w32(8)  // capacity max -> 2.0
	w32(-2) // gain map min -> -0.5
	w32(8)  // gain map max -> 2.0
	w32(4)  // gamma -> 1.0
	w32(0)  // offset sdr
	w32(0)  // offset hdr

	meta, err := decodeMetadataISO(buf.Bytes())
	require.NoError(t, err)

	assert.True(t, meta.UseBaseCG)
	assert.InDelta(t, -0.5, meta.GainMapMin[0], 1e-6)
	assert.InDelta(t, 2.0, meta.GainMapMax[0], 1e-6)
	assert.InDelta(t, 2.0, meta.HDRCapacityMax, 1e-6)
	require.NoError(t, meta.Validate())
}

func TestDecodeMetadataISOMultiChannel(t *testing.T) {
	buf := &bytes.Buffer{}
	w32 := func(v int32) { _ = binary.Write(buf, binary.BigEndian, v) }

	_ = binary.Write(buf, binary.BigEndian, uint16(0))
	_ = binary.Write(buf, binary.BigEndian, uint16(0))
	buf.WriteByte(isoMultiChannelMask | isoCommonDenomMask)

	w32(2) // common denominator
	w32(0)
	w32(6) // capacity max -> 3.0
	for c := int32(0); c < 3; c++ {
		w32(0)       // gain map min
		w32(2 + 2*c) // gain map max -> 1, 2, 3
		w32(2)       // gamma -> 1.0
		w32(0)       // offset sdr
		w32(0)       // offset hdr
	}

	meta, err := decodeMetadataISO(buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, GainMapChannelsMulti, meta.Channels)
	assert.Equal(t, [3]float32{1, 2, 3}, meta.GainMapMax)
}

func TestDecodeMetadataISORejects(t *testing.T) {
	_, err := decodeMetadataISO([]byte{0, 0})
	assert.ErrorIs(t, err, ErrMetadata, "truncated")

	bad := isoPayloadSingle(t, 2)
	bad[1] = 1 // min version
	_, err = decodeMetadataISO(bad)
	assert.ErrorIs(t, err, ErrMetadata, "unsupported version")

	bad = isoPayloadSingle(t, 2)
	bad[4] |= isoBackwardMask
	_, err = decodeMetadataISO(bad)
	assert.ErrorIs(t, err, ErrMetadata, "backward direction")

	_, err = decodeMetadataISO(isoPayloadSingle(t, 2)[:20])
	assert.ErrorIs(t, err, ErrMetadata, "truncated fields")

	// Zero denominator produces Inf, which Validate rejects.
	zero := isoPayloadSingle(t, 2)
	meta, err := decodeMetadataISO(zeroDenom(zero))
	require.NoError(t, err)
	assert.ErrorIs(t, meta.Validate(), ErrMetadata)
}

// zeroDenom clears the gamma denominator (bytes 37-40 of the single
// channel layout).
func zeroDenom(p []byte) []byte {
	out := append([]byte(nil), p...)
	off := 2 + 2 + 1 + 4*4 + 4*4 // header, flags, capacity, gain min/max
	for i := 0; i < 4; i++ {
		out[off+4+i] = 0 // gamma denominator
	}
	return out
}
