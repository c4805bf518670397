package uhdravif

import (
	"errors"
	"fmt"
)

// Error kinds, one per pipeline stage. Every failure returned by this
// package wraps exactly one of these, so callers can map them to distinct
// exit codes with errors.Is.
var (
	// ErrContainer reports a malformed JPEG/R container: missing secondary
	// picture, undecodable payload, or absent metadata segment.
	ErrContainer = errors.New("uhdr container")
	// ErrMetadata reports missing required gain-map metadata fields,
	// non-finite values, or invariant violations.
	ErrMetadata = errors.New("gainmap metadata")
	// ErrColorProfile reports a malformed or unsupported ICC profile.
	ErrColorProfile = errors.New("color profile")
	// ErrReconstruction reports an irreconcilable gain-map geometry.
	ErrReconstruction = errors.New("hdr reconstruction")
	// ErrPacking reports a plane buffer/stride mismatch before encoder handoff.
	ErrPacking = errors.New("plane packing")
	// ErrEncoder wraps an opaque failure surfaced from the external encoder.
	ErrEncoder = errors.New("avif encoder")
)

func containerErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrContainer, fmt.Sprintf(format, args...))
}

func metadataErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMetadata, fmt.Sprintf(format, args...))
}

func colorProfileErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrColorProfile, fmt.Sprintf(format, args...))
}

func reconstructionErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrReconstruction, fmt.Sprintf(format, args...))
}

func packingErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrPacking, fmt.Sprintf(format, args...))
}

func encoderErr(err error) error {
	return fmt.Errorf("%w: %v", ErrEncoder, err)
}
