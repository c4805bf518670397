package uhdravif

import (
	"bytes"
	"image"
	_ "image/jpeg" // register JPEG decoder
)

// decodeJPEG decodes one component JPEG payload.
func decodeJPEG(data []byte, what string) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, containerErr("decode %s: %v", what, err)
	}
	return img, nil
}

// linearizeBase converts the decoded primary image through the resolved
// color pipeline. The returned image holds linear RGB relative to SDR
// white in the profile's gamut.
func linearizeBase(img image.Image, pipeline *ColorPipeline) (*HDRImage, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, containerErr("primary image is empty")
	}

	// JPEG samples are 8-bit; bake the transfer curve into a table.
	lut := pipeline.lut256()

	out := &HDRImage{
		Width:  w,
		Height: h,
		Stride: w,
		Pix:    make([]float32, w*h*3),
		Gamut:  pipeline.Gamut,
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			out.Pix[i] = lut[r>>8]
			out.Pix[i+1] = lut[g>>8]
			out.Pix[i+2] = lut[bl>>8]
			i += 3
		}
	}
	return out, nil
}

// gainPlane holds the gain-map samples normalized from their storage bit
// depth to [0,1], still in the stored (perceptual) domain.
type gainPlane struct {
	width    int
	height   int
	channels int
	pix      []float32
}

// decodeGainPlane converts the decoded gain-map image into a normalized
// plane. A grayscale map yields one channel; anything else three.
func decodeGainPlane(img image.Image) *gainPlane {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	gp := &gainPlane{width: w, height: h}
	switch src := img.(type) {
	case *image.Gray:
		gp.channels = 1
		gp.pix = make([]float32, w*h)
		for y := 0; y < h; y++ {
			row := src.Pix[(y)*src.Stride : (y)*src.Stride+w]
			for x, v := range row {
				gp.pix[y*w+x] = float32(v) / 255.0
			}
		}
	case *image.Gray16:
		gp.channels = 1
		gp.pix = make([]float32, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := uint16(src.Pix[y*src.Stride+x*2])<<8 | uint16(src.Pix[y*src.Stride+x*2+1])
				gp.pix[y*w+x] = float32(v) / 65535.0
			}
		}
	default:
		gp.channels = 3
		gp.pix = make([]float32, w*h*3)
		i := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := img.At(x, y).RGBA()
				gp.pix[i] = float32(r>>8) / 255.0
				gp.pix[i+1] = float32(g>>8) / 255.0
				gp.pix[i+2] = float32(bl>>8) / 255.0
				i += 3
			}
		}
	}
	return gp
}

// sampleBilinear samples the plane at normalized coordinates (u, v) in
// [0,1], using texel centers and clamp addressing. For an equal-resolution
// plane sampled at base texel centers this degenerates to the identity.
func (gp *gainPlane) sampleBilinear(u, v float32) (float32, float32, float32) {
	fx := u*float32(gp.width) - 0.5
	fy := v*float32(gp.height) - 0.5

	x0 := int(floorf(fx))
	y0 := int(floorf(fy))
	s := fx - float32(x0)
	t := fy - float32(y0)

	x1 := clampInt(x0+1, 0, gp.width-1)
	y1 := clampInt(y0+1, 0, gp.height-1)
	x0 = clampInt(x0, 0, gp.width-1)
	y0 = clampInt(y0, 0, gp.height-1)

	if gp.channels == 1 {
		g := lerp(
			lerp(gp.pix[y0*gp.width+x0], gp.pix[y0*gp.width+x1], s),
			lerp(gp.pix[y1*gp.width+x0], gp.pix[y1*gp.width+x1], s),
			t)
		return g, g, g
	}

	idx := func(x, y int) int { return (y*gp.width + x) * 3 }
	i00, i10, i01, i11 := idx(x0, y0), idx(x1, y0), idx(x0, y1), idx(x1, y1)
	var out [3]float32
	for c := 0; c < 3; c++ {
		out[c] = lerp(
			lerp(gp.pix[i00+c], gp.pix[i10+c], s),
			lerp(gp.pix[i01+c], gp.pix[i11+c], s),
			t)
	}
	return out[0], out[1], out[2]
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
