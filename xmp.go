package uhdravif

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reVersion    = regexp.MustCompile(`hdrgm:Version="([^"]+)"`)
	reGainMapMin = regexp.MustCompile(`hdrgm:GainMapMin="([^"]+)"`)
	reGainMapMax = regexp.MustCompile(`hdrgm:GainMapMax="([^"]+)"`)
	reGamma      = regexp.MustCompile(`hdrgm:Gamma="([^"]+)"`)
	reOffsetSDR  = regexp.MustCompile(`hdrgm:OffsetSDR="([^"]+)"`)
	reOffsetHDR  = regexp.MustCompile(`hdrgm:OffsetHDR="([^"]+)"`)
	reHDRCapMin  = regexp.MustCompile(`hdrgm:HDRCapacityMin="([^"]+)"`)
	reHDRCapMax  = regexp.MustCompile(`hdrgm:HDRCapacityMax="([^"]+)"`)
	reBaseIsHDR  = regexp.MustCompile(`hdrgm:BaseRenditionIsHDR="([^"]+)"`)

	// Per-channel values are written as rdf:Seq elements instead of
	// attributes.
	reSeq = regexp.MustCompile(`(?s)<hdrgm:(\w+)>\s*<rdf:Seq>(.*?)</rdf:Seq>`)
	reLi  = regexp.MustCompile(`(?s)<rdf:li>([^<]+)</rdf:li>`)
)

// parseXMP decodes hdrgm gain-map metadata from an XMP APP1 payload.
// Boost and capacity values are stored in XMP already in the log2 domain
// and are kept as such. Unknown fields are ignored.
func parseXMP(app1 []byte) (*GainMapMetadata, error) {
	if len(app1) < len(xmpPrefix)+1 {
		return nil, metadataErr("xmp block too small")
	}
	if !strings.HasPrefix(string(app1), xmpNamespace+"\x00") {
		return nil, metadataErr("xmp namespace mismatch")
	}
	xml := string(app1[len(xmpPrefix):])

	meta := &GainMapMetadata{
		Channels:       GainMapChannelsSingle,
		HDRCapacityMin: defaultHDRCapacityMin,
		UseBaseCG:      true,
	}
	for i := 0; i < 3; i++ {
		meta.GainMapMin[i] = defaultGainMapMin
		meta.Gamma[i] = defaultGamma
		meta.OffsetSDR[i] = defaultOffset
		meta.OffsetHDR[i] = defaultOffset
	}

	seqs, err := parseSeqValues(xml)
	if err != nil {
		return nil, err
	}
	if len(seqs) > 0 {
		meta.Channels = GainMapChannelsMulti
	}

	getStr := func(re *regexp.Regexp) (string, bool) {
		m := re.FindStringSubmatch(xml)
		if len(m) != 2 {
			return "", false
		}
		return m[1], true
	}
	// getField reads a scalar attribute, broadcast over all channels, or
	// an rdf:Seq triple. found is false when neither form is present.
	getField := func(name string, re *regexp.Regexp, dst *[3]float32) (found bool, err error) {
		if vals, ok := seqs[name]; ok {
			*dst = vals
			return true, nil
		}
		str, ok := getStr(re)
		if !ok {
			return false, nil
		}
		v, err := parseFinite(str)
		if err != nil {
			return true, metadataErr("xmp %s: %v", name, err)
		}
		dst[0], dst[1], dst[2] = v, v, v
		return true, nil
	}
	getScalar := func(name string, re *regexp.Regexp, dst *float32) (bool, error) {
		str, ok := getStr(re)
		if !ok {
			return false, nil
		}
		v, err := parseFinite(str)
		if err != nil {
			return true, metadataErr("xmp %s: %v", name, err)
		}
		*dst = v
		return true, nil
	}

	if v, ok := getStr(reVersion); ok {
		meta.Version = v
	} else {
		return nil, metadataErr("xmp missing hdrgm:Version")
	}

	if ok, err := getField("GainMapMax", reGainMapMax, &meta.GainMapMax); err != nil {
		return nil, err
	} else if !ok {
		return nil, metadataErr("xmp missing hdrgm:GainMapMax")
	}
	if ok, err := getScalar("HDRCapacityMax", reHDRCapMax, &meta.HDRCapacityMax); err != nil {
		return nil, err
	} else if !ok {
		return nil, metadataErr("xmp missing hdrgm:HDRCapacityMax")
	}

	if _, err := getField("GainMapMin", reGainMapMin, &meta.GainMapMin); err != nil {
		return nil, err
	}
	if _, err := getField("Gamma", reGamma, &meta.Gamma); err != nil {
		return nil, err
	}
	if _, err := getField("OffsetSDR", reOffsetSDR, &meta.OffsetSDR); err != nil {
		return nil, err
	}
	if _, err := getField("OffsetHDR", reOffsetHDR, &meta.OffsetHDR); err != nil {
		return nil, err
	}
	if _, err := getScalar("HDRCapacityMin", reHDRCapMin, &meta.HDRCapacityMin); err != nil {
		return nil, err
	}

	if v, ok := getStr(reBaseIsHDR); ok && v == "True" {
		return nil, metadataErr("base rendition HDR not supported")
	}

	if meta.Channels == GainMapChannelsSingle {
		meta.broadcastChannel()
	}
	return meta, nil
}

// parseSeqValues collects all per-channel rdf:Seq fields by name.
func parseSeqValues(xml string) (map[string][3]float32, error) {
	matches := reSeq.FindAllStringSubmatch(xml, -1)
	if len(matches) == 0 {
		return nil, nil
	}
	out := make(map[string][3]float32, len(matches))
	for _, m := range matches {
		name := m[1]
		items := reLi.FindAllStringSubmatch(m[2], -1)
		if len(items) != 3 {
			return nil, metadataErr("xmp %s: expected 3 rdf:li values, got %d", name, len(items))
		}
		var vals [3]float32
		for i, it := range items {
			v, err := parseFinite(strings.TrimSpace(it[1]))
			if err != nil {
				return nil, metadataErr("xmp %s[%d]: %v", name, i, err)
			}
			vals[i] = v
		}
		out[name] = vals
	}
	return out, nil
}

func parseFinite(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return float32(v), nil
}
