package uhdravif

// ColorGamut identifies a supported set of RGB primaries.
type ColorGamut int

const (
	GamutSRGB ColorGamut = iota
	GamutDisplayP3
	GamutAdobeRGB
	GamutBT2020
)

// ColorTransfer identifies a transfer function for output signaling.
type ColorTransfer int

const (
	TransferSRGB ColorTransfer = iota
	TransferLinear
	TransferPQ
)

// GainMapChannels tells whether the gain map carries one shared channel or
// three independent ones. It is resolved once at metadata-parse time.
type GainMapChannels int

const (
	GainMapChannelsSingle GainMapChannels = iota
	GainMapChannelsMulti
)

// GainMapMetadata holds the recovered gain-map parameters. Boost and
// capacity fields are in the log2 domain, matching their on-wire encoding:
// GainMapMin/GainMapMax are log2 of the min/max content boost,
// HDRCapacityMin/HDRCapacityMax are log2 of the display-boost range the map
// was authored for.
type GainMapMetadata struct {
	Version        string
	GainMapMin     [3]float32
	GainMapMax     [3]float32
	Gamma          [3]float32
	OffsetSDR      [3]float32
	OffsetHDR      [3]float32
	HDRCapacityMin float32
	HDRCapacityMax float32
	Channels       GainMapChannels
	// UseBaseCG marks the map as authored in the base image's color space.
	// When false the base is moved to the gain-map image's gamut before the
	// boost is applied.
	UseBaseCG bool
}

// HDRImage stores a linear-light HDR image in RGB float32.
// Pixel values are relative to SDR white (1.0 = SDR white) and unbounded
// above; boosted highlights exceed 1.0.
type HDRImage struct {
	Width  int
	Height int
	Stride int // pixels per row, in RGB triplets
	Pix    []float32
	Gamut  ColorGamut
}

func (h *HDRImage) at(x, y int) (r, g, b float32) {
	i := (y*h.Stride + x) * 3
	return h.Pix[i], h.Pix[i+1], h.Pix[i+2]
}

// MetadataSegments holds raw APP payloads for XMP/ISO blocks as found in
// the container. Payloads include the namespace prefix and null terminator.
type MetadataSegments struct {
	PrimaryXMP   []byte
	PrimaryISO   []byte
	SecondaryXMP []byte
	SecondaryISO []byte
}

// SplitResult contains the component JPEG payloads and metadata extracted
// from a JPEG/R container.
type SplitResult struct {
	PrimaryJPEG []byte
	GainmapJPEG []byte
	Meta        *GainMapMetadata
	Segs        *MetadataSegments
	EXIF        []byte
	ICC         []byte // assembled primary profile bytes, nil if absent
	GainmapICC  []byte // assembled gain-map profile bytes, nil if absent
}

// ColorSignaling describes the HDR color configuration handed to the
// external encoder alongside the packed planes.
type ColorSignaling struct {
	Transfer  ColorTransfer
	Primaries ColorGamut
	Matrix    MatrixCoefficients
	FullRange bool
}

// MatrixCoefficients identifies the Y'CbCr derivation matrix.
type MatrixCoefficients int

const (
	MatrixBT709 MatrixCoefficients = iota
	MatrixBT2020NCL
)

// OutputPlanes holds the final quantized planes at the target bit depth.
// Samples are stored in uint16 regardless of depth; values occupy the low
// BitDepth bits. The planes are produced once per job and must not be
// mutated after handoff to an encoder.
type OutputPlanes struct {
	Width    int
	Height   int
	Stride   int // samples per row
	BitDepth int
	Y        []uint16
	Cb       []uint16
	Cr       []uint16
}

// Encoder consumes finished planes and signaling and returns an encoded
// AVIF byte stream. Implementations must treat the planes as immutable.
type Encoder interface {
	Encode(p *OutputPlanes, sig ColorSignaling) ([]byte, error)
}

// Options controls a single conversion job. The zero value selects the
// documented defaults.
type Options struct {
	// MaxDisplayBoost is the multiplicative headroom of the target display
	// above SDR white, >= 1. Default 10.
	MaxDisplayBoost float32
	// TargetSDRWhiteNits maps reconstructed linear 1.0 to absolute
	// luminance. Default 80 nits.
	TargetSDRWhiteNits float32
	// BitDepth of the output planes. Default 10.
	BitDepth int
	// Width/Height request output scaling before conversion; zero keeps
	// the container dimensions.
	Width  int
	Height int
	// BaseGamutFallback is assumed for a primary image without an embedded
	// ICC profile. Default GamutSRGB.
	BaseGamutFallback ColorGamut
}

func (o Options) withDefaults() Options {
	if o.MaxDisplayBoost <= 0 {
		o.MaxDisplayBoost = defaultMaxDisplayBoost
	}
	if o.TargetSDRWhiteNits <= 0 {
		o.TargetSDRWhiteNits = defaultSDRWhiteNits
	}
	if o.BitDepth <= 0 {
		o.BitDepth = defaultBitDepth
	}
	return o
}

// Result carries per-job diagnostics.
type Result struct {
	// FaultyPixels counts pixels where the recombination arithmetic
	// produced a non-finite value and the unboosted base value was
	// substituted.
	FaultyPixels int64
	// WeightFactor actually applied for the requested display boost.
	WeightFactor float32
}
