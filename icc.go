package uhdravif

import (
	"bytes"
	"encoding/binary"

	"seehuhn.de/go/icc"
)

// ColorPipeline is a pure, profile-driven pair of transfer transforms plus
// the gamut of the profile. Linearize maps encoded sample values in [0,1]
// to linear light; Encode is its inverse.
type ColorPipeline struct {
	Gamut ColorGamut

	red   *icc.Curve
	green *icc.Curve
	blue  *icc.Curve
}

// Linearize applies the profile's transfer curves (EOTF direction) to an
// encoded RGB triple.
func (p *ColorPipeline) Linearize(r, g, b float32) (float32, float32, float32) {
	return float32(p.red.Evaluate(float64(r))),
		float32(p.green.Evaluate(float64(g))),
		float32(p.blue.Evaluate(float64(b)))
}

// Encode maps linear RGB back to the profile's encoded domain.
func (p *ColorPipeline) Encode(r, g, b float32) (float32, float32, float32) {
	return float32(p.red.Invert(float64(r))),
		float32(p.green.Invert(float64(g))),
		float32(p.blue.Invert(float64(b)))
}

// lut256 bakes Linearize into a lookup table for 8-bit samples.
func (p *ColorPipeline) lut256() *[256]float32 {
	var lut [256]float32
	for i := range lut {
		v, _, _ := p.Linearize(float32(i)/255.0, 0, 0)
		lut[i] = v
	}
	return &lut
}

// srgbCurve is the sRGB EOTF as an ICC type 3 parametric curve:
// y = (ax+b)^g for x >= d, else y = cx.
func srgbCurve() *icc.Curve {
	return &icc.Curve{
		FuncType: 3,
		Params:   []float64{2.4, 1.0 / 1.055, 0.055 / 1.055, 1.0 / 12.92, 0.04045},
	}
}

// resolveColorPipeline builds a ColorPipeline from raw ICC profile bytes.
// An empty profile selects a built-in sRGB transfer with the given
// fallback gamut. A malformed or non-RGB/Gray profile is fatal; a visually
// wrong silent fallback is worse than a failed job.
func resolveColorPipeline(profile []byte, fallback ColorGamut) (*ColorPipeline, error) {
	if len(profile) == 0 {
		// Curves cache inverse tables, so each channel gets its own.
		return &ColorPipeline{
			Gamut: fallback,
			red:   srgbCurve(),
			green: srgbCurve(),
			blue:  srgbCurve(),
		}, nil
	}

	parsed, err := icc.Decode(profile)
	if err != nil {
		return nil, colorProfileErr("decode: %v", err)
	}
	switch parsed.ColorSpace {
	case icc.RGBSpace, icc.GraySpace:
	default:
		return nil, colorProfileErr("unsupported color space %v", parsed.ColorSpace)
	}

	p := &ColorPipeline{Gamut: detectGamut(profile, fallback)}

	if parsed.ColorSpace == icc.GraySpace {
		curve, err := trcCurve(profile, "kTRC")
		if err != nil {
			return nil, err
		}
		p.red, p.green, p.blue = curve, curve, curve
		return p, nil
	}

	if p.red, err = trcCurve(profile, "rTRC"); err != nil {
		return nil, err
	}
	if p.green, err = trcCurve(profile, "gTRC"); err != nil {
		return nil, err
	}
	if p.blue, err = trcCurve(profile, "bTRC"); err != nil {
		return nil, err
	}
	return p, nil
}

const iccHeaderSize = 128

// trcCurve locates a TRC tag in the profile's tag table and decodes it.
func trcCurve(profile []byte, sig string) (*icc.Curve, error) {
	data, err := findTag(profile, sig)
	if err != nil {
		return nil, err
	}
	curve, err := icc.DecodeCurve(data)
	if err != nil {
		return nil, colorProfileErr("%s: %v", sig, err)
	}
	return curve, nil
}

// findTag returns the payload of a tag from the ICC tag table: a 128-byte
// header, a uint32 count, then 12-byte entries of (signature, offset, size).
func findTag(profile []byte, sig string) ([]byte, error) {
	if len(profile) < iccHeaderSize+4 {
		return nil, colorProfileErr("profile too short")
	}
	count := int(binary.BigEndian.Uint32(profile[iccHeaderSize:]))
	pos := iccHeaderSize + 4
	for i := 0; i < count; i++ {
		if pos+12 > len(profile) {
			return nil, colorProfileErr("tag table truncated")
		}
		tagSig := string(profile[pos : pos+4])
		offset := int(binary.BigEndian.Uint32(profile[pos+4:]))
		size := int(binary.BigEndian.Uint32(profile[pos+8:]))
		if tagSig == sig {
			if offset < 0 || size < 0 || offset+size > len(profile) {
				return nil, colorProfileErr("tag %s out of bounds", sig)
			}
			return profile[offset : offset+size], nil
		}
		pos += 12
	}
	return nil, colorProfileErr("tag %s missing", sig)
}

// detectGamut classifies the profile's gamut from its description text.
// Enough for common camera/phone workflows; unknown profiles keep the
// fallback gamut.
func detectGamut(profile []byte, fallback ColorGamut) ColorGamut {
	lower := bytes.ToLower(profile)
	switch {
	case bytes.Contains(lower, []byte("display p3")) || bytes.Contains(lower, []byte("dci-p3")):
		return GamutDisplayP3
	case bytes.Contains(lower, []byte("adobe rgb")) || bytes.Contains(lower, []byte("adobergb")):
		return GamutAdobeRGB
	case bytes.Contains(lower, []byte("bt.2020")) || bytes.Contains(lower, []byte("rec2020")):
		return GamutBT2020
	case bytes.Contains(lower, []byte("srgb")):
		return GamutSRGB
	}
	return fallback
}
