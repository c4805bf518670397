package uhdravif

import "math"

// SMPTE ST 2084 perceptual quantizer constants.
const (
	pqM1 = 2610.0 / 16384.0
	pqM2 = 2523.0 / 4096.0 * 128.0
	pqC1 = 3424.0 / 4096.0
	pqC2 = 2413.0 / 4096.0 * 32.0
	pqC3 = 2392.0 / 4096.0 * 32.0
)

// pqEncode maps an absolute luminance in nits to a PQ signal value in [0, 1].
// Input is clamped to [0, 10000] before the transfer.
func pqEncode(nits float32) float32 {
	if nits <= 0 {
		return 0
	}
	if nits > pqMaxNits {
		nits = pqMaxNits
	}
	y := float64(nits) / pqMaxNits
	ym := math.Pow(y, pqM1)
	return float32(math.Pow((pqC1+pqC2*ym)/(1.0+pqC3*ym), pqM2))
}

// pqDecode is the inverse of pqEncode, returning nits.
func pqDecode(s float32) float32 {
	if s < 0 {
		s = 0
	} else if s > 1 {
		s = 1
	}
	e := math.Pow(float64(s), 1.0/pqM2)
	num := e - pqC1
	if num < 0 {
		num = 0
	}
	den := pqC2 - pqC3*e
	return float32(pqMaxNits * math.Pow(num/den, 1.0/pqM1))
}

// quantize maps a [0, 1] signal to an unsigned code of the given bit depth
// using round-half-to-even, so quantization error carries no directional
// bias across large smooth gradients.
func quantize(s float32, bitDepth int) uint16 {
	maxCode := float64(int(1)<<bitDepth - 1)
	v := math.RoundToEven(float64(s) * maxCode)
	if v < 0 {
		v = 0
	} else if v > maxCode {
		v = maxCode
	}
	return uint16(v)
}
