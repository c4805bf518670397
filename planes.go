package uhdravif

// transferEncode converts scene-referred linear HDR values to 10-bit
// full-range BT.2100 PQ YCbCr planes suitable for an AV1 encoder.
//
// Per pixel: convert the working gamut to BT.2020 primaries, scale to
// absolute luminance with the SDR white anchor, apply the PQ transfer,
// rotate through the BT.2100 non-constant-luminance matrix and quantize.
func transferEncode(img *HDRImage, sdrWhiteNits float32, bitDepth int) (*OutputPlanes, error) {
	if img.Width <= 0 || img.Height <= 0 {
		return nil, packingErr("empty image (%dx%d)", img.Width, img.Height)
	}
	if bitDepth != 10 && bitDepth != 12 {
		return nil, packingErr("unsupported bit depth %d", bitDepth)
	}

	out := &OutputPlanes{
		Width:    img.Width,
		Height:   img.Height,
		Stride:   img.Width,
		BitDepth: bitDepth,
		Y:        make([]uint16, img.Width*img.Height),
		Cb:       make([]uint16, img.Width*img.Height),
		Cr:       make([]uint16, img.Width*img.Height),
	}

	convert := img.Gamut != GamutBT2020

	parallelRows(img.Height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < img.Width; x++ {
				i := (y*img.Stride + x) * 3
				r, g, b := img.Pix[i], img.Pix[i+1], img.Pix[i+2]
				if convert {
					r, g, b = convertLinearGamut(r, g, b, img.Gamut, GamutBT2020)
					if r < 0 {
						r = 0
					}
					if g < 0 {
						g = 0
					}
					if b < 0 {
						b = 0
					}
				}

				pr := pqEncode(r * sdrWhiteNits)
				pg := pqEncode(g * sdrWhiteNits)
				pb := pqEncode(b * sdrWhiteNits)

				// BT.2100 NCL, full range.
				yy := 0.2627*pr + 0.6780*pg + 0.0593*pb
				cb := (pb-yy)/1.8814 + 0.5
				cr := (pr-yy)/1.4746 + 0.5

				o := y*out.Stride + x
				out.Y[o] = quantize(yy, bitDepth)
				out.Cb[o] = quantize(clamp01(cb), bitDepth)
				out.Cr[o] = quantize(clamp01(cr), bitDepth)
			}
		}
	})

	return out, nil
}

// hdrSignaling returns the CICP color description for the packed planes:
// BT.2020 primaries, PQ transfer, BT.2020 non-constant-luminance matrix,
// full range.
func hdrSignaling() ColorSignaling {
	return ColorSignaling{
		Transfer:  TransferPQ,
		Primaries: GamutBT2020,
		Matrix:    MatrixBT2020NCL,
		FullRange: true,
	}
}
