// Package y4m writes single-frame YUV4MPEG2 streams for piping raw planes
// into an external video encoder.
package y4m

import (
	"fmt"
	"io"
)

// Write emits a YUV4MPEG2 header followed by one FRAME of planar 4:4:4
// data. Samples above 8 bits are written little-endian, the layout an
// avifenc/aomenc stdin pipe expects. Planes are written in Y, Cb, Cr
// order and must each hold w*h samples.
func Write(w io.Writer, width, height, bitDepth int, y, cb, cr []uint16) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("y4m: bad dimensions %dx%d", width, height)
	}
	n := width * height
	if len(y) < n || len(cb) < n || len(cr) < n {
		return fmt.Errorf("y4m: plane too short for %dx%d", width, height)
	}

	cs := "444"
	if bitDepth > 8 {
		cs = fmt.Sprintf("444p%d", bitDepth)
	}
	_, err := fmt.Fprintf(w, "YUV4MPEG2 W%d H%d F30:1 Ip A1:1 C%s XCOLORRANGE=FULL\nFRAME\n",
		width, height, cs)
	if err != nil {
		return err
	}

	if bitDepth <= 8 {
		buf := make([]byte, n)
		for _, plane := range [][]uint16{y, cb, cr} {
			for i := 0; i < n; i++ {
				buf[i] = byte(plane[i])
			}
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
		return nil
	}

	buf := make([]byte, n*2)
	for _, plane := range [][]uint16{y, cb, cr} {
		for i := 0; i < n; i++ {
			buf[i*2] = byte(plane[i])
			buf[i*2+1] = byte(plane[i] >> 8)
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
