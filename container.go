package uhdravif

import (
	"bytes"
	"encoding/binary"
	"sort"
)

const (
	markerStart = 0xFF
	markerSOI   = 0xD8
	markerEOI   = 0xD9
	markerSOS   = 0xDA
	markerAPP1  = 0xE1
	markerAPP2  = 0xE2
)

const (
	mpfEntryTag      = 0xB002
	mpfTypeUndefined = 0x7
	mpfEntrySize     = 16
	mpfNumPictures   = 2

	mpfAttrTypePrimary = 0x030000
)

var (
	mpfSig  = []byte{'M', 'P', 'F', 0}
	exifSig = []byte{'E', 'x', 'i', 'f', 0, 0}
	iccSig  = []byte{'I', 'C', 'C', '_', 'P', 'R', 'O', 'F', 'I', 'L', 'E', 0}

	xmpPrefix = append([]byte(xmpNamespace), 0)
	isoPrefix = append([]byte(isoNamespace), 0)
)

// walkSegments calls fn for each marker segment of the JPEG starting at
// data[0] (which must be an SOI), stopping at SOS or EOI. fn returning
// false stops the walk early.
func walkSegments(data []byte, fn func(marker byte, payload []byte) bool) error {
	if len(data) < 4 || data[0] != markerStart || data[1] != markerSOI {
		return containerErr("not a JPEG stream")
	}
	pos := 2
	for pos+3 < len(data) {
		if data[pos] != markerStart {
			pos++
			continue
		}
		for pos < len(data) && data[pos] == markerStart {
			pos++
		}
		if pos >= len(data) {
			break
		}
		marker := data[pos]
		pos++
		if marker == markerSOS || marker == markerEOI {
			return nil
		}
		if marker == markerSOI || marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			continue
		}
		if pos+1 >= len(data) {
			return containerErr("truncated marker segment")
		}
		segLen := int(binary.BigEndian.Uint16(data[pos:]))
		if segLen < 2 || pos+segLen > len(data) {
			return containerErr("invalid segment length")
		}
		if !fn(marker, data[pos+2:pos+segLen]) {
			return nil
		}
		pos += segLen
	}
	return nil
}

// appSegments collects copies of the APP1 and APP2 payloads of a JPEG.
func appSegments(data []byte) (app1, app2 [][]byte, err error) {
	err = walkSegments(data, func(marker byte, payload []byte) bool {
		switch marker {
		case markerAPP1:
			app1 = append(app1, append([]byte(nil), payload...))
		case markerAPP2:
			app2 = append(app2, append([]byte(nil), payload...))
		}
		return true
	})
	return app1, app2, err
}

// locateImages returns the [start,end) byte ranges of the individual JPEG
// images inside a JPEG/R container. The MPF index is authoritative when
// present; otherwise the container is scanned for SOI markers.
func locateImages(data []byte) ([][2]int, error) {
	if ranges, ok := locateImagesByMPF(data); ok {
		return ranges, nil
	}
	var ranges [][2]int
	i := 0
	for i+1 < len(data) {
		if data[i] == markerStart && data[i+1] == markerSOI {
			end, err := findImageEnd(data, i)
			if err != nil {
				return nil, err
			}
			ranges = append(ranges, [2]int{i, end})
			i = end
			continue
		}
		i++
	}
	if len(ranges) == 0 {
		return nil, containerErr("no JPEG images found")
	}
	return ranges, nil
}

func locateImagesByMPF(data []byte) ([][2]int, bool) {
	if len(data) < 4 || data[0] != markerStart || data[1] != markerSOI {
		return nil, false
	}
	var info *mpfIndex
	_ = walkSegments(data, func(marker byte, payload []byte) bool {
		if marker != markerAPP2 || !bytes.HasPrefix(payload, mpfSig) {
			return true
		}
		parsed, err := parseMPF(payload[len(mpfSig):])
		if err != nil {
			return false
		}
		// Image offsets are relative to the MPF TIFF header.
		tiffHeaderAbs := offsetOf(data, payload) + len(mpfSig)
		parsed.secondaryOffset += tiffHeaderAbs
		info = parsed
		return false
	})
	if info == nil {
		return nil, false
	}
	primaryEnd := info.primarySize
	secondaryEnd := info.secondaryOffset + info.secondarySize
	if info.primarySize <= 0 || info.secondarySize <= 0 ||
		primaryEnd > len(data) || info.secondaryOffset < 0 || secondaryEnd > len(data) {
		return nil, false
	}
	if info.secondaryOffset+1 >= len(data) ||
		data[info.secondaryOffset] != markerStart || data[info.secondaryOffset+1] != markerSOI {
		return nil, false
	}
	return [][2]int{{0, primaryEnd}, {info.secondaryOffset, secondaryEnd}}, true
}

// offsetOf returns the position of sub within data. The payloads handed out
// by walkSegments alias data, so the first element addresses match.
func offsetOf(data, sub []byte) int {
	if len(sub) == 0 {
		return 0
	}
	for i := 0; i+len(sub) <= len(data); i++ {
		if &data[i] == &sub[0] {
			return i
		}
	}
	return 0
}

type mpfIndex struct {
	primarySize     int
	secondarySize   int
	secondaryOffset int
}

// parseMPF reads the MP index IFD of an MPF TIFF block (CIPA DC-007).
func parseMPF(tiff []byte) (*mpfIndex, error) {
	if len(tiff) < 8 {
		return nil, containerErr("mpf tiff header too small")
	}
	var order binary.ByteOrder
	switch {
	case tiff[0] == 0x4D && tiff[1] == 0x4D:
		order = binary.BigEndian
	case tiff[0] == 0x49 && tiff[1] == 0x49:
		order = binary.LittleEndian
	default:
		return nil, containerErr("mpf endianness invalid")
	}
	if order.Uint16(tiff[2:4]) != 0x002A {
		return nil, containerErr("mpf tiff magic invalid")
	}
	ifdPos := int(order.Uint32(tiff[4:8]))
	if ifdPos < 0 || ifdPos+2 > len(tiff) {
		return nil, containerErr("mpf ifd offset invalid")
	}
	tagCount := int(order.Uint16(tiff[ifdPos : ifdPos+2]))
	ifdPos += 2
	entryOffset := -1
	for i := 0; i < tagCount; i++ {
		if ifdPos+12 > len(tiff) {
			return nil, containerErr("mpf ifd truncated")
		}
		tag := order.Uint16(tiff[ifdPos : ifdPos+2])
		typ := order.Uint16(tiff[ifdPos+2 : ifdPos+4])
		count := order.Uint32(tiff[ifdPos+4 : ifdPos+8])
		value := order.Uint32(tiff[ifdPos+8 : ifdPos+12])
		if tag == mpfEntryTag && typ == mpfTypeUndefined && count >= mpfEntrySize {
			entryOffset = int(value)
			break
		}
		ifdPos += 12
	}
	if entryOffset < 0 || entryOffset+mpfEntrySize*mpfNumPictures > len(tiff) {
		return nil, containerErr("mpf entry offset invalid")
	}
	idx := &mpfIndex{}
	pos := entryOffset
	for i := 0; i < mpfNumPictures; i++ {
		attr := order.Uint32(tiff[pos : pos+4])
		size := int(order.Uint32(tiff[pos+4 : pos+8]))
		offset := int(order.Uint32(tiff[pos+8 : pos+12]))
		if attr&mpfAttrTypePrimary != 0 {
			idx.primarySize = size
		} else {
			idx.secondarySize = size
			idx.secondaryOffset = offset
		}
		pos += mpfEntrySize
	}
	if idx.primarySize == 0 || idx.secondarySize == 0 {
		return nil, containerErr("mpf image sizes missing")
	}
	return idx, nil
}

// findImageEnd returns the offset just past the EOI of the JPEG starting at
// start, walking entropy-coded scan data.
func findImageEnd(data []byte, start int) (int, error) {
	if start+1 >= len(data) || data[start] != markerStart || data[start+1] != markerSOI {
		return 0, containerErr("not a JPEG SOI")
	}
	pos := start + 2
	inScan := false
	for pos+1 < len(data) {
		if !inScan {
			if data[pos] != markerStart {
				pos++
				continue
			}
			for pos < len(data) && data[pos] == markerStart {
				pos++
			}
			if pos >= len(data) {
				break
			}
			marker := data[pos]
			pos++
			switch {
			case marker == markerSOI || marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7):
				continue
			case marker == markerEOI:
				return pos, nil
			case marker == markerSOS:
				if pos+1 >= len(data) {
					return 0, containerErr("truncated SOS")
				}
				pos += int(binary.BigEndian.Uint16(data[pos:]))
				inScan = true
				continue
			}
			if pos+1 >= len(data) {
				return 0, containerErr("truncated marker segment")
			}
			segLen := int(binary.BigEndian.Uint16(data[pos:]))
			if segLen < 2 {
				return 0, containerErr("invalid marker length")
			}
			pos += segLen
			continue
		}

		if data[pos] != markerStart {
			pos++
			continue
		}
		if pos+1 >= len(data) {
			return 0, containerErr("truncated scan data")
		}
		next := data[pos+1]
		switch {
		case next == 0x00 || (next >= 0xD0 && next <= 0xD7):
			pos += 2
		case next == markerEOI:
			return pos + 2, nil
		default:
			pos += 2
			if pos+1 >= len(data) {
				return 0, containerErr("truncated marker in scan")
			}
			segLen := int(binary.BigEndian.Uint16(data[pos:]))
			if segLen < 2 {
				return 0, containerErr("invalid marker length in scan")
			}
			pos += segLen
		}
	}
	return 0, containerErr("no EOI found")
}

func findXMP(app1 [][]byte) []byte {
	for _, seg := range app1 {
		if bytes.HasPrefix(seg, xmpPrefix) {
			return seg
		}
	}
	return nil
}

func findISO(app2 [][]byte) []byte {
	for _, seg := range app2 {
		if bytes.HasPrefix(seg, isoPrefix) {
			return seg
		}
	}
	return nil
}

func findEXIF(app1 [][]byte) []byte {
	for _, seg := range app1 {
		if bytes.HasPrefix(seg, exifSig) {
			return seg
		}
	}
	return nil
}

// collectICCProfile reassembles a possibly chunked ICC profile from APP2
// payloads, ordered by sequence number.
func collectICCProfile(app2 [][]byte) []byte {
	type chunk struct {
		seq  int
		data []byte
	}
	var chunks []chunk
	for _, p := range app2 {
		// ICC APP2 payload: "ICC_PROFILE\0" + seq + total + profile bytes.
		if len(p) > len(iccSig)+2 && bytes.HasPrefix(p, iccSig) {
			chunks = append(chunks, chunk{seq: int(p[len(iccSig)]), data: p[len(iccSig)+2:]})
		}
	}
	if len(chunks) == 0 {
		return nil
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].seq < chunks[j].seq })
	var out []byte
	for _, c := range chunks {
		out = append(out, c.data...)
	}
	return out
}
