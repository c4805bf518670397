package uhdravif

// Split extracts the primary and gain-map JPEG payloads, the gain-map
// metadata, and the raw metadata segments from a JPEG/R container.
func Split(data []byte) (*SplitResult, error) {
	ranges, err := locateImages(data)
	if err != nil {
		return nil, err
	}
	if len(ranges) < 2 {
		return nil, containerErr("gainmap image not found")
	}

	res := &SplitResult{
		PrimaryJPEG: append([]byte(nil), data[ranges[0][0]:ranges[0][1]]...),
		GainmapJPEG: append([]byte(nil), data[ranges[1][0]:ranges[1][1]]...),
		Segs:        &MetadataSegments{},
	}

	pApp1, pApp2, err := appSegments(res.PrimaryJPEG)
	if err != nil {
		return nil, err
	}
	res.Segs.PrimaryXMP = findXMP(pApp1)
	res.Segs.PrimaryISO = findISO(pApp2)
	res.EXIF = findEXIF(pApp1)
	res.ICC = collectICCProfile(pApp2)

	gApp1, gApp2, err := appSegments(res.GainmapJPEG)
	if err != nil {
		return nil, err
	}
	res.Segs.SecondaryXMP = findXMP(gApp1)
	res.Segs.SecondaryISO = findISO(gApp2)
	res.GainmapICC = collectICCProfile(gApp2)

	// ISO 21496-1 metadata wins over XMP when both are present.
	switch {
	case res.Segs.SecondaryISO != nil:
		res.Meta, err = decodeMetadataISO(res.Segs.SecondaryISO[len(isoPrefix):])
	case res.Segs.SecondaryXMP != nil:
		res.Meta, err = parseXMP(res.Segs.SecondaryXMP)
	default:
		return nil, metadataErr("no gainmap metadata found")
	}
	if err != nil {
		return nil, err
	}
	if err := res.Meta.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}
