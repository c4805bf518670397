package uhdravif

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"math"
)

// OpenEXR scanline output for inspecting reconstructed linear images.
// Single part, three half-float channels, one zlib-compressed chunk per
// scanline, with the working gamut recorded as a chromaticities attribute.

const (
	exrMagic       = 0x01312f76
	exrVersion     = 2
	exrPixelHalf   = 1
	exrCompression = 2 // ZIPS, one scanline per chunk
)

type exrChroma struct {
	rx, ry, gx, gy, bx, by, wx, wy float32
}

func gamutChromaticities(g ColorGamut) exrChroma {
	c := exrChroma{wx: 0.3127, wy: 0.3290}
	switch g {
	case GamutDisplayP3:
		c.rx, c.ry, c.gx, c.gy, c.bx, c.by = 0.680, 0.320, 0.265, 0.690, 0.150, 0.060
	case GamutAdobeRGB:
		c.rx, c.ry, c.gx, c.gy, c.bx, c.by = 0.640, 0.330, 0.210, 0.710, 0.150, 0.060
	case GamutBT2020:
		c.rx, c.ry, c.gx, c.gy, c.bx, c.by = 0.708, 0.292, 0.170, 0.797, 0.131, 0.046
	default:
		c.rx, c.ry, c.gx, c.gy, c.bx, c.by = 0.640, 0.330, 0.300, 0.600, 0.150, 0.060
	}
	return c
}

// WriteEXR writes img as an OpenEXR image. Values are written as stored,
// linear and relative to SDR white.
func WriteEXR(w io.Writer, img *HDRImage) error {
	if img.Width <= 0 || img.Height <= 0 {
		return packingErr("empty image (%dx%d)", img.Width, img.Height)
	}

	var hdr bytes.Buffer
	le := binary.LittleEndian

	var b4 [4]byte
	le.PutUint32(b4[:], exrMagic)
	hdr.Write(b4[:])
	le.PutUint32(b4[:], exrVersion)
	hdr.Write(b4[:])

	writeAttr := func(name, typ string, value []byte) {
		hdr.WriteString(name)
		hdr.WriteByte(0)
		hdr.WriteString(typ)
		hdr.WriteByte(0)
		le.PutUint32(b4[:], uint32(len(value)))
		hdr.Write(b4[:])
		hdr.Write(value)
	}

	// Channels in the required alphabetical order.
	var chlist bytes.Buffer
	for _, name := range []string{"B", "G", "R"} {
		chlist.WriteString(name)
		chlist.WriteByte(0)
		le.PutUint32(b4[:], exrPixelHalf)
		chlist.Write(b4[:])
		le.PutUint32(b4[:], 0) // pLinear + reserved
		chlist.Write(b4[:])
		le.PutUint32(b4[:], 1) // xSampling
		chlist.Write(b4[:])
		le.PutUint32(b4[:], 1) // ySampling
		chlist.Write(b4[:])
	}
	chlist.WriteByte(0)
	writeAttr("channels", "chlist", chlist.Bytes())

	cc := gamutChromaticities(img.Gamut)
	var chroma bytes.Buffer
	for _, v := range []float32{cc.rx, cc.ry, cc.gx, cc.gy, cc.bx, cc.by, cc.wx, cc.wy} {
		le.PutUint32(b4[:], math.Float32bits(v))
		chroma.Write(b4[:])
	}
	writeAttr("chromaticities", "chromaticities", chroma.Bytes())

	writeAttr("compression", "compression", []byte{exrCompression})

	var box [16]byte
	le.PutUint32(box[8:], uint32(img.Width-1))
	le.PutUint32(box[12:], uint32(img.Height-1))
	writeAttr("dataWindow", "box2i", box[:])
	writeAttr("displayWindow", "box2i", box[:])

	writeAttr("lineOrder", "lineOrder", []byte{0}) // increasing Y

	le.PutUint32(b4[:], math.Float32bits(1.0))
	writeAttr("pixelAspectRatio", "float", b4[:])
	writeAttr("screenWindowCenter", "v2f", make([]byte, 8))
	le.PutUint32(b4[:], math.Float32bits(1.0))
	writeAttr("screenWindowWidth", "float", b4[:])

	hdr.WriteByte(0) // end of header

	// One chunk per scanline. Offsets are absolute file positions.
	chunks := make([][]byte, img.Height)
	raw := make([]byte, img.Width*3*2)
	for y := 0; y < img.Height; y++ {
		// Per scanline the channels are stored planar, B then G then R.
		for x := 0; x < img.Width; x++ {
			r, g, bl := img.at(x, y)
			le.PutUint16(raw[x*2:], halfBits(bl))
			le.PutUint16(raw[(img.Width+x)*2:], halfBits(g))
			le.PutUint16(raw[(2*img.Width+x)*2:], halfBits(r))
		}
		chunks[y] = exrCompress(raw)
	}

	dataStart := hdr.Len() + 8*img.Height
	var off [8]byte
	pos := dataStart
	for y := 0; y < img.Height; y++ {
		le.PutUint64(off[:], uint64(pos))
		hdr.Write(off[:])
		pos += 8 + len(chunks[y])
	}

	if _, err := w.Write(hdr.Bytes()); err != nil {
		return err
	}
	var chunkHdr [8]byte
	for y := 0; y < img.Height; y++ {
		le.PutUint32(chunkHdr[:4], uint32(y))
		le.PutUint32(chunkHdr[4:], uint32(len(chunks[y])))
		if _, err := w.Write(chunkHdr[:]); err != nil {
			return err
		}
		if _, err := w.Write(chunks[y]); err != nil {
			return err
		}
	}
	return nil
}

// exrCompress applies the OpenEXR ZIP pre-filter (byte interleave split
// followed by a delta predictor) and deflates the result. When deflate
// does not help the raw bytes are stored, as the format allows.
func exrCompress(raw []byte) []byte {
	tmp := make([]byte, len(raw))
	half := (len(raw) + 1) / 2
	t1, t2 := 0, half
	for i := 0; i < len(raw); i++ {
		if i%2 == 0 {
			tmp[t1] = raw[i]
			t1++
		} else {
			tmp[t2] = raw[i]
			t2++
		}
	}
	p := int(tmp[0])
	for i := 1; i < len(tmp); i++ {
		d := int(tmp[i]) - p + (128 + 256)
		p = int(tmp[i])
		tmp[i] = byte(d)
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write(tmp) //nolint:errcheck // bytes.Buffer does not fail
	zw.Close()    //nolint:errcheck
	if buf.Len() >= len(raw) {
		return append([]byte(nil), raw...)
	}
	return buf.Bytes()
}

// halfBits converts a float32 to IEEE 754 half-precision bits with
// round-to-nearest-even.
func halfBits(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & 0x8000
	exp := int(bits>>23&0xFF) - 127
	mant := bits & 0x007FFFFF

	switch {
	case exp == 128: // Inf or NaN
		if mant != 0 {
			return sign | 0x7E00
		}
		return sign | 0x7C00
	case exp > 15: // overflow
		return sign | 0x7C00
	case exp >= -14: // normal
		m := mant >> 13
		if mant&0x1FFF > 0x1000 || (mant&0x1FFF == 0x1000 && m&1 == 1) {
			m++ // may carry into the exponent, which is correct
		}
		return sign | uint16(exp+15)<<10 | uint16(m)
	case exp >= -24: // subnormal
		mant |= 0x00800000
		shift := uint(-1 - exp) // 14 at exp=-15, up to 23 at exp=-24
		h := uint16(mant >> shift)
		rem := mant & (1<<shift - 1)
		hb := uint32(1) << (shift - 1)
		if rem > hb || (rem == hb && h&1 == 1) {
			h++
		}
		return sign | h
	default: // underflow to zero
		return sign
	}
}
