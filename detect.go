package uhdravif

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// DetectReader reports whether r carries an UltraHDR (JPEG/R) container.
// It sniffs marker segments only: the primary image is skipped without
// decoding its scan data, and reading stops as soon as gain-map metadata
// shows up on the secondary image.
func DetectReader(r io.Reader) (bool, error) {
	br := bufio.NewReader(r)

	found, err := seekSOI(br)
	if err != nil || !found {
		return false, err
	}
	if err := skipImage(br); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, err
	}
	found, err = seekSOI(br)
	if err != nil || !found {
		return false, err
	}
	found, err = sniffGainMetadata(br)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return false, nil
	}
	return found, err
}

// Detect reports whether data looks like an UltraHDR container.
// It is the whole-buffer form of DetectReader.
func Detect(data []byte) bool {
	found, err := DetectReader(bytes.NewReader(data))
	return err == nil && found
}

// seekSOI scans forward to the next SOI marker. A clean EOF before one is
// found reports false without an error.
func seekSOI(br *bufio.Reader) (bool, error) {
	var prev byte

	for {
		b, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, nil
			}

			return false, err
		}

		if prev == markerStart && b == markerSOI {
			return true, nil
		}

		prev = b
	}
}

// skipImage consumes marker segments of the current JPEG up to and including
// its EOI, entering entropy-coded scan data at SOS without decoding it.
func skipImage(br *bufio.Reader) error {
	for {
		marker, err := nextMarker(br)
		if err != nil {
			return err
		}

		switch marker {
		case markerEOI:
			return nil
		case markerSOS:
			return skipScan(br)
		default:
			if err := discardSegment(br); err != nil {
				return err
			}
		}
	}
}

// sniffGainMetadata walks the APP segments of the secondary image and
// reports whether one of them starts with the XMP or ISO 21496-1 prefix.
// It stops at the first match, at SOS, or at EOI.
func sniffGainMetadata(br *bufio.Reader) (bool, error) {
	for {
		marker, err := nextMarker(br)
		if err != nil {
			return false, err
		}

		switch marker {
		case markerEOI, markerSOS:
			return false, nil
		case markerAPP1, markerAPP2:
			prefix := isoPrefix
			if marker == markerAPP1 {
				prefix = xmpPrefix
			}

			match, err := segmentHasPrefix(br, prefix)
			if err != nil || match {
				return match, err
			}
		default:
			if err := discardSegment(br); err != nil {
				return false, err
			}
		}
	}
}

// nextMarker returns the next marker byte, tolerating fill bytes.
func nextMarker(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}

		if b != markerStart {
			continue
		}

		for b == markerStart {
			b, err = br.ReadByte()
			if err != nil {
				return 0, err
			}
		}

		return b, nil
	}
}

func segmentLen(br *bufio.Reader) (int, error) {
	hi, err := br.ReadByte()
	if err != nil {
		return 0, err
	}

	lo, err := br.ReadByte()
	if err != nil {
		return 0, err
	}

	length := int(hi)<<8 | int(lo)
	if length < 2 {
		return 0, errors.New("invalid segment length")
	}

	return length - 2, nil
}

func discardSegment(br *bufio.Reader) error {
	n, err := segmentLen(br)
	if err != nil {
		return err
	}

	return discardN(br, n)
}

// segmentHasPrefix checks the segment payload against prefix and consumes
// the rest of the segment so the walk can continue on a miss.
func segmentHasPrefix(br *bufio.Reader, prefix []byte) (bool, error) {
	n, err := segmentLen(br)
	if err != nil {
		return false, err
	}

	readLen := n
	if readLen > len(prefix) {
		readLen = len(prefix)
	}

	buf := make([]byte, readLen)
	if _, err := io.ReadFull(br, buf); err != nil {
		return false, err
	}

	if bytes.HasPrefix(buf, prefix) {
		return true, nil
	}

	return false, discardN(br, n-readLen)
}

func discardN(br *bufio.Reader, n int) error {
	if n <= 0 {
		return nil
	}

	_, err := io.CopyN(io.Discard, br, int64(n))

	return err
}

// skipScan consumes entropy-coded data up to the image's EOI, treating
// stuffed 0xFF00 and restart markers as scan content.
func skipScan(br *bufio.Reader) error {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return err
		}

		if b != markerStart {
			continue
		}

		m, err := br.ReadByte()
		if err != nil {
			return err
		}

		for m == markerStart {
			m, err = br.ReadByte()
			if err != nil {
				return err
			}
		}

		switch {
		case m == 0x00:
		case m >= 0xD0 && m <= 0xD7:
		case m == markerEOI:
			return nil
		}
	}
}
