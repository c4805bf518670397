package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"

	"github.com/vearutop/uhdravif"
	"github.com/vearutop/uhdravif/internal/avifenc"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "convert":
		if err := runConvert(os.Args[2:]); err != nil {
			fail(err)
		}
	case "detect":
		if err := runDetect(os.Args[2:]); err != nil {
			fail(err)
		}
	case "split":
		if err := runSplit(os.Args[2:]); err != nil {
			fail(err)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: uhdr2avif <command> [args]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  convert -in input.jpg -out output.avif [-boost 10] [-sdr-white 80] [-w W] [-h H] [-q 60] [-s 6] [-avifenc path] [-exr output.exr] [-v] [-profile]")
	fmt.Fprintln(os.Stderr, "  detect  -in input.jpg")
	fmt.Fprintln(os.Stderr, "  split   -in input.jpg -primary-out primary.jpg -gainmap-out gainmap.jpg [-meta-out meta.json]")
}

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	inPath := fs.String("in", "", "input UltraHDR JPEG")
	outPath := fs.String("out", "", "output AVIF")
	boost := fs.Float64("boost", 0, "max display boost over SDR white (default 10)")
	sdrWhite := fs.Float64("sdr-white", 0, "SDR white in nits (default 80)")
	width := fs.Int("w", 0, "output width, 0 keeps source")
	height := fs.Int("h", 0, "output height, 0 keeps source")
	q := fs.Int("q", 60, "avif quality 0-100")
	speed := fs.Int("s", 6, "avif encoder speed 0-10")
	encBin := fs.String("avifenc", "", "avifenc binary path")
	exrPath := fs.String("exr", "", "also write linear HDR as OpenEXR")
	verbose := fs.Bool("v", false, "debug logging")
	prof := fs.Bool("profile", false, "write cpu profile")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" || (*outPath == "" && *exrPath == "") {
		return errors.New("missing required arguments")
	}
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if *prof {
		defer profile.Start(profile.ProfilePath(".")).Stop()
	}

	data, err := os.ReadFile(filepath.Clean(*inPath))
	if err != nil {
		return err
	}

	opts := uhdravif.Options{
		MaxDisplayBoost:    float32(*boost),
		TargetSDRWhiteNits: float32(*sdrWhite),
		Width:              *width,
		Height:             *height,
	}

	if *exrPath != "" {
		hdr, res, err := uhdravif.ReconstructHDR(data, opts)
		if err != nil {
			return err
		}
		log.Debugf("reconstructed %dx%d, weight %.3f", hdr.Width, hdr.Height, res.WeightFactor)
		f, err := os.Create(filepath.Clean(*exrPath))
		if err != nil {
			return err
		}
		if err := uhdravif.WriteEXR(f, hdr); err != nil {
			f.Close() //nolint:errcheck
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	if *outPath == "" {
		return nil
	}

	enc := &avifenc.Encoder{Binary: *encBin, Quality: *q, Speed: *speed}
	avif, res, err := uhdravif.Convert(data, enc, opts)
	if err != nil {
		return err
	}
	if res.FaultyPixels > 0 {
		log.Warnf("%d faulty pixels substituted", res.FaultyPixels)
	}
	return os.WriteFile(filepath.Clean(*outPath), avif, 0o644)
}

func runDetect(args []string) error {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	inPath := fs.String("in", "", "input JPEG")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" {
		return errors.New("missing required arguments")
	}
	f, err := os.Open(filepath.Clean(*inPath))
	if err != nil {
		return err
	}
	defer f.Close()

	found, err := uhdravif.DetectReader(f)
	if err != nil {
		return err
	}
	if found {
		fmt.Fprintln(os.Stdout, "ultrahdr")
	} else {
		fmt.Fprintln(os.Stdout, "not ultrahdr")
	}
	return nil
}

func runSplit(args []string) error {
	fs := flag.NewFlagSet("split", flag.ContinueOnError)
	inPath := fs.String("in", "", "input UltraHDR JPEG")
	primaryOut := fs.String("primary-out", "", "primary output JPEG")
	gainmapOut := fs.String("gainmap-out", "", "gainmap output JPEG")
	metaOut := fs.String("meta-out", "", "metadata json output")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" || *primaryOut == "" || *gainmapOut == "" {
		return errors.New("missing required arguments")
	}
	data, err := os.ReadFile(filepath.Clean(*inPath))
	if err != nil {
		return err
	}
	split, err := uhdravif.Split(data)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Clean(*primaryOut), split.PrimaryJPEG, 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Clean(*gainmapOut), split.GainmapJPEG, 0o644); err != nil {
		return err
	}
	if *metaOut != "" {
		payload, err := json.MarshalIndent(split.Meta, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Clean(*metaOut), payload, 0o644)
	}
	return nil
}

// fail maps the failure to a stable exit code per pipeline stage.
func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	switch {
	case errors.Is(err, uhdravif.ErrContainer):
		os.Exit(2)
	case errors.Is(err, uhdravif.ErrMetadata):
		os.Exit(3)
	case errors.Is(err, uhdravif.ErrColorProfile):
		os.Exit(4)
	case errors.Is(err, uhdravif.ErrReconstruction):
		os.Exit(5)
	case errors.Is(err, uhdravif.ErrPacking):
		os.Exit(6)
	case errors.Is(err, uhdravif.ErrEncoder):
		os.Exit(7)
	}
	os.Exit(1)
}
