// Package avifenc drives the external avifenc binary (libavif) to produce
// AVIF files from packed plane data.
package avifenc

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/vearutop/uhdravif"
	"github.com/vearutop/uhdravif/internal/y4m"
)

// CICP code points signaled to the encoder.
const (
	primariesBT2020 = 9
	transferPQ      = 16
	matrixBT2020NCL = 9
)

// Encoder shells out to avifenc, feeding planes over stdin as y4m.
type Encoder struct {
	// Binary is the avifenc executable, "avifenc" when empty.
	Binary string
	// Quality in the 0-100 libavif scale, 100 lossless-ish. Negative
	// selects the default of 60; 0 is the valid worst-quality extreme.
	Quality int
	// Speed 0-10, higher is faster. Negative selects the default of 6;
	// 0 is the valid slowest extreme.
	Speed int
}

func (e *Encoder) args(p *uhdravif.OutputPlanes, sig uhdravif.ColorSignaling) []string {
	quality := e.Quality
	if quality < 0 {
		quality = 60
	}
	speed := e.Speed
	if speed < 0 {
		speed = 6
	}

	prim, tc, mc := primariesBT2020, transferPQ, matrixBT2020NCL
	if sig.Primaries != uhdravif.GamutBT2020 || sig.Transfer != uhdravif.TransferPQ {
		// Only the BT.2100 PQ configuration is produced upstream.
		log.Warnf("unexpected signaling %+v, forcing BT.2020 PQ", sig)
	}

	rng := "limited"
	if sig.FullRange {
		rng = "full"
	}

	return []string{
		"--stdin",
		"-d", strconv.Itoa(p.BitDepth),
		"-y", "444",
		"-r", rng,
		"--cicp", fmt.Sprintf("%d/%d/%d", prim, tc, mc),
		"-q", strconv.Itoa(quality),
		"-s", strconv.Itoa(speed),
		"--jobs", "all",
	}
}

// Encode runs avifenc and returns the bytes of the resulting AVIF file.
func (e *Encoder) Encode(p *uhdravif.OutputPlanes, sig uhdravif.ColorSignaling) ([]byte, error) {
	bin := e.Binary
	if bin == "" {
		bin = "avifenc"
	}

	tmp, err := os.MkdirTemp("", "uhdravif")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp) //nolint:errcheck

	outFile := filepath.Join(tmp, "out.avif")

	var in bytes.Buffer
	if err := y4m.Write(&in, p.Width, p.Height, p.BitDepth, p.Y, p.Cb, p.Cr); err != nil {
		return nil, err
	}

	args := append(e.args(p, sig), "-o", outFile, "-")

	cmd := exec.Command(bin, args...)
	cmd.Stdin = &in
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log.Debugf("running %s %v", bin, args)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w (%s)", bin, err, bytes.TrimSpace(stderr.Bytes()))
	}

	return os.ReadFile(outFile)
}
