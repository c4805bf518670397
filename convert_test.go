package uhdravif

import (
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureEncoder struct {
	planes *OutputPlanes
	sig    ColorSignaling
	err    error
}

func (e *captureEncoder) Encode(p *OutputPlanes, sig ColorSignaling) ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.planes, e.sig = p, sig
	return []byte("avif"), nil
}

func TestReconstructHDRFromContainer(t *testing.T) {
	data := testContainer(t, 16, 12, 8, 6)

	hdr, res, err := ReconstructHDR(data, Options{MaxDisplayBoost: 4})
	require.NoError(t, err)

	assert.Equal(t, 16, hdr.Width)
	assert.Equal(t, 12, hdr.Height)
	assert.Equal(t, GamutSRGB, hdr.Gamut)
	assert.Zero(t, res.FaultyPixels)
	assert.InDelta(t, 1.0, res.WeightFactor, 1e-6)

	// Mid-gray base (128/255 encoded, ~0.216 linear) with a full-gain map
	// and log range [0,2] quadruples every channel.
	want := srgbInvOETF(128.0/255) * 4
	r, g, b := hdr.at(8, 6)
	assert.InDelta(t, float64(want), float64(r), 0.1)
	assert.InDelta(t, float64(want), float64(g), 0.1)
	assert.InDelta(t, float64(want), float64(b), 0.1)
}

func TestReconstructHDRDefaultOptions(t *testing.T) {
	data := testContainer(t, 8, 8, 8, 8)

	_, res, err := ReconstructHDR(data, Options{})
	require.NoError(t, err)

	// Default boost 10 exceeds capacity max 4, so the full range applies.
	assert.InDelta(t, 1.0, res.WeightFactor, 1e-6)
}

func TestReconstructHDRGainmapColorSpace(t *testing.T) {
	primary := encodeJPEG(t, 8, 6, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	gm := encodeGrayJPEG(t, 8, 6, 128)
	// ISO flags byte 0: map authored in its own color space, not the base's.
	iso := append(append([]byte(nil), isoPrefix...), isoPayloadSingle(t, 2)...)
	gm = withSegment(gm, markerAPP2, iso)

	plain := append(append([]byte(nil), primary...), gm...)
	hdrSRGB, _, err := ReconstructHDR(plain, Options{MaxDisplayBoost: 4})
	require.NoError(t, err)
	assert.Equal(t, GamutSRGB, hdrSRGB.Gamut, "no gain-map profile keeps the base gamut")

	profile := append(append([]byte(nil), iccSig...), 1, 1)
	profile = append(profile, "Display P3 gainmap"...)
	gmP3 := withSegment(gm, markerAPP2, profile)
	data := append(append([]byte(nil), primary...), gmP3...)

	hdrP3, _, err := ReconstructHDR(data, Options{MaxDisplayBoost: 4})
	require.NoError(t, err)
	assert.Equal(t, GamutDisplayP3, hdrP3.Gamut)

	// The single-channel boost commutes with the linear gamut matrix, so
	// converting after reconstruction predicts the in-pipeline conversion.
	r, g, b := hdrSRGB.at(4, 3)
	wr, wg, wb := convertLinearGamut(r, g, b, GamutSRGB, GamutDisplayP3)
	gr, gg, gb := hdrP3.at(4, 3)
	assert.InDelta(t, float64(wr), float64(gr), 1e-4)
	assert.InDelta(t, float64(wg), float64(gg), 1e-4)
	assert.InDelta(t, float64(wb), float64(gb), 1e-4)
}

func TestConvertEndToEnd(t *testing.T) {
	data := testContainer(t, 16, 12, 8, 6)

	enc := &captureEncoder{}
	out, res, err := Convert(data, enc, Options{MaxDisplayBoost: 4})
	require.NoError(t, err)

	assert.Equal(t, []byte("avif"), out)
	assert.Zero(t, res.FaultyPixels)

	require.NotNil(t, enc.planes)
	assert.Equal(t, 16, enc.planes.Width)
	assert.Equal(t, 12, enc.planes.Height)
	assert.Equal(t, 10, enc.planes.BitDepth)
	assert.Len(t, enc.planes.Y, 16*12)
	assert.Equal(t, hdrSignaling(), enc.sig)

	// Boosted mid-gray is brighter than its SDR rendering.
	sdrY := quantize(pqEncode(srgbInvOETF(128.0/255)*80), 10)
	assert.Greater(t, enc.planes.Y[0], sdrY)
}

func TestConvertScaled(t *testing.T) {
	data := testContainer(t, 16, 12, 8, 6)

	enc := &captureEncoder{}
	_, _, err := Convert(data, enc, Options{Width: 8})
	require.NoError(t, err)

	assert.Equal(t, 8, enc.planes.Width)
	assert.Equal(t, 6, enc.planes.Height, "height derived from aspect ratio")
}

func TestConvertEncoderFailure(t *testing.T) {
	data := testContainer(t, 8, 8, 4, 4)

	enc := &captureEncoder{err: errors.New("boom")}
	_, _, err := Convert(data, enc, Options{})
	assert.ErrorIs(t, err, ErrEncoder)
}

func TestConvertBadContainer(t *testing.T) {
	_, _, err := Convert([]byte("not a jpeg"), &captureEncoder{}, Options{})
	assert.ErrorIs(t, err, ErrContainer)
}
