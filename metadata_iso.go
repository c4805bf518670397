package uhdravif

import "encoding/binary"

const (
	isoMultiChannelMask = 1 << 7
	isoUseBaseColorMask = 1 << 6
	isoBackwardMask     = 1 << 2
	isoCommonDenomMask  = 1 << 3
)

type isoReader struct {
	in  []byte
	pos int
	bad bool
}

func (r *isoReader) u8() uint8 {
	if r.pos+1 > len(r.in) {
		r.bad = true
		return 0
	}
	v := r.in[r.pos]
	r.pos++
	return v
}

func (r *isoReader) u16() uint16 {
	if r.pos+2 > len(r.in) {
		r.bad = true
		return 0
	}
	v := binary.BigEndian.Uint16(r.in[r.pos:])
	r.pos += 2
	return v
}

func (r *isoReader) u32() uint32 {
	if r.pos+4 > len(r.in) {
		r.bad = true
		return 0
	}
	v := binary.BigEndian.Uint32(r.in[r.pos:])
	r.pos += 4
	return v
}

func (r *isoReader) s32() int32 { return int32(r.u32()) }

// frac converts a signed numerator / unsigned denominator pair to float32.
// A zero denominator yields ±Inf, which Validate rejects downstream.
func frac(n int32, d uint32) float32 {
	return float32(n) / float32(d)
}

func ufrac(n, d uint32) float32 {
	return float32(n) / float32(d)
}

// decodeMetadataISO parses an ISO 21496-1 gain map metadata payload (the
// bytes following the namespace prefix). Values on the wire are rational
// log2 boosts and are kept in the log2 domain.
func decodeMetadataISO(data []byte) (*GainMapMetadata, error) {
	r := &isoReader{in: data}

	minVersion := r.u16()
	_ = r.u16() // writer version, informational
	if r.bad {
		return nil, metadataErr("iso metadata truncated")
	}
	if minVersion != 0 {
		return nil, metadataErr("unsupported iso min_version %d", minVersion)
	}

	flags := r.u8()
	channels := 1
	if flags&isoMultiChannelMask != 0 {
		channels = 3
	}
	if flags&isoBackwardMask != 0 {
		return nil, metadataErr("backward-direction gain map not supported")
	}

	meta := &GainMapMetadata{
		Version:   "1.0",
		Channels:  GainMapChannelsSingle,
		UseBaseCG: flags&isoUseBaseColorMask != 0,
	}
	if channels == 3 {
		meta.Channels = GainMapChannelsMulti
	}

	type rational struct {
		n int32
		d uint32
	}
	var (
		capMinN, capMinD, capMaxN, capMaxD uint32
		gmMin, gmMax, offS, offH           [3]rational
		gammaN, gammaD                     [3]uint32
	)

	if flags&isoCommonDenomMask != 0 {
		common := r.u32()
		capMinN, capMinD = r.u32(), common
		capMaxN, capMaxD = r.u32(), common
		for c := 0; c < channels; c++ {
			gmMin[c] = rational{r.s32(), common}
			gmMax[c] = rational{r.s32(), common}
			gammaN[c], gammaD[c] = r.u32(), common
			offS[c] = rational{r.s32(), common}
			offH[c] = rational{r.s32(), common}
		}
	} else {
		capMinN, capMinD = r.u32(), r.u32()
		capMaxN, capMaxD = r.u32(), r.u32()
		for c := 0; c < channels; c++ {
			gmMin[c] = rational{r.s32(), r.u32()}
			gmMax[c] = rational{r.s32(), r.u32()}
			gammaN[c], gammaD[c] = r.u32(), r.u32()
			offS[c] = rational{r.s32(), r.u32()}
			offH[c] = rational{r.s32(), r.u32()}
		}
	}
	if r.bad {
		return nil, metadataErr("iso metadata truncated")
	}

	meta.HDRCapacityMin = ufrac(capMinN, capMinD)
	meta.HDRCapacityMax = ufrac(capMaxN, capMaxD)
	for c := 0; c < channels; c++ {
		meta.GainMapMin[c] = frac(gmMin[c].n, gmMin[c].d)
		meta.GainMapMax[c] = frac(gmMax[c].n, gmMax[c].d)
		meta.Gamma[c] = ufrac(gammaN[c], gammaD[c])
		meta.OffsetSDR[c] = frac(offS[c].n, offS[c].d)
		meta.OffsetHDR[c] = frac(offH[c].n, offH[c].d)
	}
	if channels == 1 {
		meta.broadcastChannel()
	}
	return meta, nil
}
