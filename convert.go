package uhdravif

import (
	log "github.com/sirupsen/logrus"
)

// ReconstructHDR decodes a JPEG/R container and recombines the primary
// image with its gain map at the display boost from opts. The result is a
// scene-referred linear image (1.0 = SDR white) in the base image's gamut,
// or in the gain map's gamut when the metadata marks the map as authored
// there.
func ReconstructHDR(data []byte, opts Options) (*HDRImage, Result, error) {
	opts = opts.withDefaults()

	var res Result

	sr, err := Split(data)
	if err != nil {
		return nil, res, err
	}
	res.WeightFactor = sr.Meta.WeightFactor(opts.MaxDisplayBoost)
	log.Debugf("gain map: %s, weight %.3f", sr.Meta, res.WeightFactor)

	pipeline, err := resolveColorPipeline(sr.ICC, opts.BaseGamutFallback)
	if err != nil {
		return nil, res, err
	}

	primary, err := decodeJPEG(sr.PrimaryJPEG, "primary")
	if err != nil {
		return nil, res, err
	}
	gainmap, err := decodeJPEG(sr.GainmapJPEG, "gainmap")
	if err != nil {
		return nil, res, err
	}
	primary, gainmap = scaleImages(primary, gainmap, opts.Width, opts.Height)

	base, err := linearizeBase(primary, pipeline)
	if err != nil {
		return nil, res, err
	}
	if !sr.Meta.UseBaseCG {
		// The map was authored in the gain-map image's color space; the
		// base moves there before the boost is applied.
		convertImageGamut(base, detectGamut(sr.GainmapICC, base.Gamut))
	}
	gp := decodeGainPlane(gainmap)

	hdr, faulty, err := reconstructHDR(base, gp, sr.Meta, opts.MaxDisplayBoost)
	if err != nil {
		return nil, res, err
	}
	res.FaultyPixels = faulty

	return hdr, res, nil
}

// Convert runs the full pipeline: reconstruct linear HDR, transfer-encode
// to full-range BT.2100 PQ planes and hand them to enc together with the
// matching color signaling. It returns whatever byte stream enc produced.
func Convert(data []byte, enc Encoder, opts Options) ([]byte, Result, error) {
	opts = opts.withDefaults()

	hdr, res, err := ReconstructHDR(data, opts)
	if err != nil {
		return nil, res, err
	}

	planes, err := transferEncode(hdr, opts.TargetSDRWhiteNits, opts.BitDepth)
	if err != nil {
		return nil, res, err
	}

	out, err := enc.Encode(planes, hdrSignaling())
	if err != nil {
		return nil, res, encoderErr(err)
	}
	return out, res, nil
}
