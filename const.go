package uhdravif

const (
	pqMaxNits = 10000.0

	defaultMaxDisplayBoost = 10.0
	defaultSDRWhiteNits    = 80.0
	defaultBitDepth        = 10
)

const (
	xmpNamespace = "http://ns.adobe.com/xap/1.0/"
	isoNamespace = "urn:iso:std:iso:ts:21496:-1"
)
