package uhdravif

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformImage(w, h int, r, g, b float32) *HDRImage {
	img := &HDRImage{Width: w, Height: h, Stride: w, Pix: make([]float32, w*h*3), Gamut: GamutSRGB}
	for i := 0; i < w*h; i++ {
		img.Pix[i*3] = r
		img.Pix[i*3+1] = g
		img.Pix[i*3+2] = b
	}
	return img
}

func uniformGain(w, h int, g float32) *gainPlane {
	gp := &gainPlane{width: w, height: h, channels: 1, pix: make([]float32, w*h)}
	for i := range gp.pix {
		gp.pix[i] = g
	}
	return gp
}

// fullBoostMeta applies the full authored range at boost >= 4:
// log2 content boost interpolates 0..2, no offsets, gamma 1.
func fullBoostMeta() *GainMapMetadata {
	m := &GainMapMetadata{
		Version:        "1.0",
		GainMapMax:     [3]float32{2, 2, 2},
		Gamma:          [3]float32{1, 1, 1},
		HDRCapacityMax: 2,
	}
	return m
}

func TestReconstructFullBoost(t *testing.T) {
	base := uniformImage(8, 8, 0.5, 0.25, 0.125)
	gm := uniformGain(8, 8, 1) // max gain everywhere

	out, faulty, err := reconstructHDR(base, gm, fullBoostMeta(), 4)
	require.NoError(t, err)
	assert.Zero(t, faulty)

	// Weight 1, log boost 2 -> every channel multiplied by 4.
	r, g, b := out.at(3, 3)
	assert.InDelta(t, 2.0, r, 1e-5)
	assert.InDelta(t, 1.0, g, 1e-5)
	assert.InDelta(t, 0.5, b, 1e-5)
}

func TestReconstructZeroGain(t *testing.T) {
	base := uniformImage(8, 8, 0.5, 0.5, 0.5)
	gm := uniformGain(8, 8, 0) // min gain, log boost 0

	out, _, err := reconstructHDR(base, gm, fullBoostMeta(), 4)
	require.NoError(t, err)

	r, _, _ := out.at(0, 0)
	assert.InDelta(t, 0.5, r, 1e-5, "unboosted pixel keeps base value")
}

func TestReconstructSDRDisplay(t *testing.T) {
	base := uniformImage(8, 8, 0.5, 0.5, 0.5)
	gm := uniformGain(8, 8, 1)

	// Display boost 1 with capacity min 0 means weight 0.
	out, _, err := reconstructHDR(base, gm, fullBoostMeta(), 1)
	require.NoError(t, err)

	r, g, b := out.at(7, 7)
	assert.InDelta(t, 0.5, r, 1e-5)
	assert.InDelta(t, 0.5, g, 1e-5)
	assert.InDelta(t, 0.5, b, 1e-5)
}

func TestReconstructHalfWeight(t *testing.T) {
	base := uniformImage(4, 4, 0.5, 0.5, 0.5)
	gm := uniformGain(4, 4, 1)

	// Boost 2 on capacity [0,2] gives weight 0.5; applied log boost is 1.
	out, _, err := reconstructHDR(base, gm, fullBoostMeta(), 2)
	require.NoError(t, err)

	r, _, _ := out.at(0, 0)
	assert.InDelta(t, 1.0, r, 1e-5)
}

func TestReconstructGamma(t *testing.T) {
	meta := fullBoostMeta()
	meta.Gamma = [3]float32{2, 2, 2}

	base := uniformImage(4, 4, 0.5, 0.5, 0.5)
	gm := uniformGain(4, 4, 0.25) // g^(1/2) = 0.5, log boost 1

	out, _, err := reconstructHDR(base, gm, meta, 4)
	require.NoError(t, err)

	r, _, _ := out.at(1, 1)
	assert.InDelta(t, 1.0, r, 1e-5)
}

func TestReconstructOffsets(t *testing.T) {
	meta := fullBoostMeta()
	for c := 0; c < 3; c++ {
		meta.OffsetSDR[c] = 1.0 / 64
		meta.OffsetHDR[c] = 1.0 / 64
	}

	base := uniformImage(4, 4, 0, 0, 0)
	gm := uniformGain(4, 4, 1)

	out, _, err := reconstructHDR(base, gm, meta, 4)
	require.NoError(t, err)

	// (0 + 1/64) * 4 - 1/64 = 3/64.
	r, _, _ := out.at(0, 0)
	assert.InDelta(t, 3.0/64, r, 1e-5)
}

func TestReconstructClampsNegative(t *testing.T) {
	meta := fullBoostMeta()
	for c := 0; c < 3; c++ {
		meta.OffsetHDR[c] = 0.5
	}

	base := uniformImage(4, 4, 0, 0, 0)
	gm := uniformGain(4, 4, 0)

	out, _, err := reconstructHDR(base, gm, meta, 4)
	require.NoError(t, err)

	r, g, b := out.at(0, 0)
	assert.Equal(t, float32(0), r)
	assert.Equal(t, float32(0), g)
	assert.Equal(t, float32(0), b)
}

func TestReconstructNonFiniteSubstitution(t *testing.T) {
	meta := fullBoostMeta()
	meta.GainMapMax = [3]float32{1e30, 1e30, 1e30} // exp2 overflows to +Inf

	base := uniformImage(4, 4, 0.25, 0.25, 0.25)
	gm := uniformGain(4, 4, 1)

	out, faulty, err := reconstructHDR(base, gm, meta, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, int64(16), faulty, "every pixel substituted")

	r, _, _ := out.at(2, 2)
	assert.Equal(t, float32(0.25), r, "base value substituted")
	for _, v := range out.Pix {
		assert.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0))
	}
}

func TestReconstructLowResGainMap(t *testing.T) {
	base := uniformImage(16, 16, 0.5, 0.5, 0.5)
	gm := uniformGain(4, 4, 1) // quarter resolution, uniform

	out, faulty, err := reconstructHDR(base, gm, fullBoostMeta(), 4)
	require.NoError(t, err)
	assert.Zero(t, faulty)

	// A uniform map must boost uniformly regardless of resolution.
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			r, _, _ := out.at(x, y)
			assert.InDelta(t, 2.0, r, 1e-5, "pixel %d,%d", x, y)
		}
	}
}

func TestReconstructZeroAreaGainMap(t *testing.T) {
	base := uniformImage(4, 4, 0.5, 0.5, 0.5)
	gm := &gainPlane{width: 0, height: 0, channels: 1}

	_, _, err := reconstructHDR(base, gm, fullBoostMeta(), 4)
	assert.ErrorIs(t, err, ErrReconstruction)
}

func TestSampleBilinearInterpolates(t *testing.T) {
	// 2x1 plane: 0 on the left, 1 on the right.
	gp := &gainPlane{width: 2, height: 1, channels: 1, pix: []float32{0, 1}}

	l, _, _ := gp.sampleBilinear(0.25, 0.5) // left texel center
	r, _, _ := gp.sampleBilinear(0.75, 0.5) // right texel center
	m, _, _ := gp.sampleBilinear(0.5, 0.5)

	assert.InDelta(t, 0.0, l, 1e-6)
	assert.InDelta(t, 1.0, r, 1e-6)
	assert.InDelta(t, 0.5, m, 1e-6)

	// Clamp addressing at the edges.
	e, _, _ := gp.sampleBilinear(0, 0.5)
	assert.InDelta(t, 0.0, e, 1e-6)
	e, _, _ = gp.sampleBilinear(1, 0.5)
	assert.InDelta(t, 1.0, e, 1e-6)
}
