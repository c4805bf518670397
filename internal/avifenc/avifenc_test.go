package avifenc

import (
	"strings"
	"testing"

	"github.com/vearutop/uhdravif"
)

func TestArgs(t *testing.T) {
	e := &Encoder{Quality: 80, Speed: 4}
	p := &uhdravif.OutputPlanes{Width: 4, Height: 4, Stride: 4, BitDepth: 10}

	args := e.args(p, uhdravif.ColorSignaling{
		Transfer:  uhdravif.TransferPQ,
		Primaries: uhdravif.GamutBT2020,
		Matrix:    uhdravif.MatrixBT2020NCL,
		FullRange: true,
	})
	joined := " " + strings.Join(args, " ") + " "

	for _, want := range []string{" --stdin ", " -d 10 ", " -y 444 ", " -r full ", " --cicp 9/16/9 ", " -q 80 ", " -s 4 "} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
}

func TestArgsDefaults(t *testing.T) {
	e := &Encoder{Quality: -1, Speed: -1}
	p := &uhdravif.OutputPlanes{Width: 4, Height: 4, Stride: 4, BitDepth: 10}

	args := e.args(p, uhdravif.ColorSignaling{
		Transfer:  uhdravif.TransferPQ,
		Primaries: uhdravif.GamutBT2020,
		Matrix:    uhdravif.MatrixBT2020NCL,
	})
	joined := " " + strings.Join(args, " ") + " "

	for _, want := range []string{" -q 60 ", " -s 6 ", " -r limited "} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
}

func TestArgsZeroExtremes(t *testing.T) {
	e := &Encoder{}
	p := &uhdravif.OutputPlanes{Width: 4, Height: 4, Stride: 4, BitDepth: 10}

	args := e.args(p, uhdravif.ColorSignaling{
		Transfer:  uhdravif.TransferPQ,
		Primaries: uhdravif.GamutBT2020,
	})
	joined := " " + strings.Join(args, " ") + " "

	for _, want := range []string{" -q 0 ", " -s 0 "} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
}
