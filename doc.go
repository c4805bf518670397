// Package uhdravif reconstructs the HDR rendition of an UltraHDR (gain-map)
// JPEG and transfer-encodes it for AVIF output.
//
// The pipeline parses the JPEG/R multi-picture container, recombines the
// primary SDR image with its gain map at a requested display boost, and
// produces PQ-encoded 10-bit planes plus HDR color signaling for an external
// AV1 encoder. JPEG decoding uses the standard image/jpeg package; ICC
// profiles are interpreted with seehuhn.de/go/icc.
package uhdravif
