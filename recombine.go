package uhdravif

import (
	"runtime"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// boostComputer holds the per-job constants of the recombination formula so
// the per-pixel path does no metadata lookups.
type boostComputer struct {
	invGamma  [3]float32
	gmMin     [3]float32 // log2 min content boost
	gmMax     [3]float32 // log2 max content boost
	offsetSDR [3]float32
	offsetHDR [3]float32
	weight    float32
}

func newBoostComputer(meta *GainMapMetadata, maxDisplayBoost float32) boostComputer {
	bc := boostComputer{
		gmMin:     meta.GainMapMin,
		gmMax:     meta.GainMapMax,
		offsetSDR: meta.OffsetSDR,
		offsetHDR: meta.OffsetHDR,
		weight:    meta.WeightFactor(maxDisplayBoost),
	}
	for i := 0; i < 3; i++ {
		bc.invGamma[i] = 1.0 / meta.Gamma[i]
	}
	return bc
}

// boostChannel reconstructs one channel: decode the stored gain sample from
// its perceptual gamma, interpolate the log2 boost between the authored
// min and max, scale by the display weight, and apply to the linear base
// value with the authored offsets. The result is clamped to >= 0 and is
// unbounded above.
func (bc *boostComputer) boostChannel(base, gain float32, c int) float32 {
	lr := gain
	if bc.invGamma[c] != 1 {
		lr = powf(gain, bc.invGamma[c])
	}
	logBoost := bc.gmMin[c]*(1.0-lr) + bc.gmMax[c]*lr
	v := (base+bc.offsetSDR[c])*exp2f(logBoost*bc.weight) - bc.offsetHDR[c]
	if v < 0 {
		return 0
	}
	return v
}

// reconstructHDR recombines the linearized base image with the gain map at
// the requested display boost, producing scene-referred linear HDR values
// (1.0 = SDR white, unbounded above).
//
// Rows are processed by a data-parallel worker pool; each worker owns a
// disjoint row range of the output. Non-finite results are replaced with
// the unboosted base value and counted; an isolated arithmetic fault must
// not discard an otherwise-correct multi-megapixel reconstruction.
func reconstructHDR(base *HDRImage, gm *gainPlane, meta *GainMapMetadata, maxDisplayBoost float32) (*HDRImage, int64, error) {
	if gm.width <= 0 || gm.height <= 0 {
		return nil, 0, reconstructionErr("gain map has zero area (%dx%d)", gm.width, gm.height)
	}

	bc := newBoostComputer(meta, maxDisplayBoost)
	out := &HDRImage{
		Width:  base.Width,
		Height: base.Height,
		Stride: base.Width,
		Pix:    make([]float32, base.Width*base.Height*3),
		Gamut:  base.Gamut,
	}

	invW := 1.0 / float32(base.Width)
	invH := 1.0 / float32(base.Height)

	var faulty int64
	parallelRows(base.Height, func(y0, y1 int) {
		var local int64
		for y := y0; y < y1; y++ {
			v := (float32(y) + 0.5) * invH
			for x := 0; x < base.Width; x++ {
				u := (float32(x) + 0.5) * invW
				g0, g1, g2 := gm.sampleBilinear(u, v)

				i := (y*out.Stride + x) * 3
				br, bg, bb := base.Pix[i], base.Pix[i+1], base.Pix[i+2]
				r := bc.boostChannel(br, g0, 0)
				g := bc.boostChannel(bg, g1, 1)
				b := bc.boostChannel(bb, g2, 2)

				if !isFinite(r) || !isFinite(g) || !isFinite(b) {
					r, g, b = br, bg, bb
					local++
				}
				out.Pix[i] = r
				out.Pix[i+1] = g
				out.Pix[i+2] = b
			}
		}
		if local > 0 {
			atomic.AddInt64(&faulty, local)
		}
	})

	if faulty > 0 {
		log.Warnf("recombination produced %d non-finite pixels, substituted base values", faulty)
	}
	return out, faulty, nil
}

// parallelRows splits [0, height) into contiguous ranges, one per worker.
func parallelRows(height int, fn func(y0, y1 int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > height {
		workers = height
	}
	if workers <= 1 {
		fn(0, height)
		return
	}
	chunk := (height + workers - 1) / workers
	var wg sync.WaitGroup
	for y0 := 0; y0 < height; y0 += chunk {
		y1 := y0 + chunk
		if y1 > height {
			y1 = height
		}
		wg.Add(1)
		go func(a, b int) {
			defer wg.Done()
			fn(a, b)
		}(y0, y1)
	}
	wg.Wait()
}
