package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cocosip/go-jpeg-fuzz/codec"
	"github.com/cocosip/go-jpeg-fuzz/fuzz"

	_ "github.com/cocosip/go-jpeg-fuzz/jpeg"
)

// random-jpeg generates one randomized, structurally legal JPEG file.
// The RNG seed is printed first so any run can be replayed.

func main() {
	os.Exit(run(os.Args[1:], fuzz.NewSource(), os.Stdout, os.Stderr))
}

func run(args []string, src *fuzz.Source, stdout, stderr io.Writer) int {
	if len(args) != 3 {
		fmt.Fprintln(stderr, "Usage: random-jpeg <pixel width> <pixel height> <file>")
		return 1
	}

	maxWidth, errW := strconv.Atoi(args[0])
	maxHeight, errH := strconv.Atoi(args[1])
	filename := args[2]

	if errW != nil || errH != nil || maxWidth <= 0 || maxHeight <= 0 {
		fmt.Fprintln(stderr, "Invalid pixel width or height")
		return 1
	}

	fmt.Fprintf(stdout, "RNG seed: %d\n", src.Seed())

	c, err := codec.Get("jpeg")
	if err != nil {
		fmt.Fprintf(stderr, "Codec unavailable: %v\n", err)
		return 1
	}

	outfile, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(stderr, "Can't open output file %s: %v\n", filename, err)
		return 1
	}

	cfg, err := fuzz.Generate(src, maxWidth, maxHeight, c.NewCompressor(outfile))
	closeErr := outfile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintf(stderr, "Encode failed: %v\n", err)
		os.Remove(filename)
		return 1
	}

	fmt.Fprintf(stdout, "Size: %dx%d\n", cfg.Width, cfg.Height)
	fmt.Fprintf(stdout, "Quality: %d (force baseline: %t)\n", cfg.Options.Quality, cfg.Options.ForceBaseline)
	fmt.Fprintf(stdout, "Arithmetic: %t Optimize: %t Progressive: %t\n",
		cfg.Options.Arithmetic, cfg.Options.OptimizeCoding, cfg.Options.Progressive)
	fmt.Fprintf(stdout, "Restart interval: %d\n", cfg.Options.RestartInterval)
	for i, s := range cfg.Sampling {
		fmt.Fprintf(stdout, "Sampling %d: %dx%d\n", i, s.H, s.V)
	}
	return 0
}
