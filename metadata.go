package uhdravif

import "fmt"

// Adobe-documented defaults for optional XMP fields. Required fields
// (GainMapMax, HDRCapacityMax) have no default and fail parsing if absent.
const (
	defaultGainMapMin     = 0.0
	defaultGamma          = 1.0
	defaultOffset         = 1.0 / 64.0
	defaultHDRCapacityMin = 0.0
)

// Validate checks the invariants of the metadata: finite values,
// min <= max for content boost and HDR capacity, positive gamma.
func (m *GainMapMetadata) Validate() error {
	fields := []struct {
		name string
		vals [3]float32
	}{
		{"GainMapMin", m.GainMapMin},
		{"GainMapMax", m.GainMapMax},
		{"Gamma", m.Gamma},
		{"OffsetSDR", m.OffsetSDR},
		{"OffsetHDR", m.OffsetHDR},
	}
	for _, f := range fields {
		for i, v := range f.vals {
			if !isFinite(v) {
				return metadataErr("%s[%d] is not finite", f.name, i)
			}
		}
	}
	for i := 0; i < 3; i++ {
		if m.GainMapMin[i] > m.GainMapMax[i] {
			return metadataErr("GainMapMin[%d] %v exceeds GainMapMax[%d] %v",
				i, m.GainMapMin[i], i, m.GainMapMax[i])
		}
		if m.Gamma[i] <= 0 {
			return metadataErr("Gamma[%d] must be positive, got %v", i, m.Gamma[i])
		}
	}
	if !isFinite(m.HDRCapacityMin) || !isFinite(m.HDRCapacityMax) {
		return metadataErr("HDR capacity is not finite")
	}
	if m.HDRCapacityMin > m.HDRCapacityMax {
		return metadataErr("HDRCapacityMin %v exceeds HDRCapacityMax %v",
			m.HDRCapacityMin, m.HDRCapacityMax)
	}
	return nil
}

// WeightFactor returns the [0,1] scalar governing how much of the authored
// gain range is applied for the requested display boost. It is monotonically
// non-decreasing in maxDisplayBoost.
func (m *GainMapMetadata) WeightFactor(maxDisplayBoost float32) float32 {
	logBoost := log2f(maxDisplayBoost)
	if m.HDRCapacityMax <= m.HDRCapacityMin {
		if logBoost >= m.HDRCapacityMin {
			return 1
		}
		return 0
	}
	return clamp01((logBoost - m.HDRCapacityMin) / (m.HDRCapacityMax - m.HDRCapacityMin))
}

// broadcastChannel copies channel 0 to channels 1 and 2 for single-channel
// metadata, so reconstruction never branches on the channel mode.
func (m *GainMapMetadata) broadcastChannel() {
	for i := 1; i < 3; i++ {
		m.GainMapMin[i] = m.GainMapMin[0]
		m.GainMapMax[i] = m.GainMapMax[0]
		m.Gamma[i] = m.Gamma[0]
		m.OffsetSDR[i] = m.OffsetSDR[0]
		m.OffsetHDR[i] = m.OffsetHDR[0]
	}
}

func (m *GainMapMetadata) String() string {
	return fmt.Sprintf("gainmap min=%v max=%v gamma=%v capacity=[%v,%v] channels=%d",
		m.GainMapMin, m.GainMapMax, m.Gamma, m.HDRCapacityMin, m.HDRCapacityMax, m.Channels)
}
