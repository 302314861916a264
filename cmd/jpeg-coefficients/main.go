package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/cocosip/go-jpeg-fuzz/codec"

	_ "github.com/cocosip/go-jpeg-fuzz/jpeg"
)

// jpeg-coefficients prints the quantized DCT coefficients of a JPEG
// file as a nested JSON array: one array per component, one 64-entry
// array per block, blocks in row-major order.

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: jpeg-coefficients <filename>")
		os.Exit(1)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Can't read %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}

	c, err := codec.Get("jpeg")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Codec unavailable: %v\n", err)
		os.Exit(1)
	}

	coefs, err := c.ReadCoefficients(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Decode failed: %v\n", err)
		os.Exit(1)
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	fmt.Fprintln(out, "[")
	for ci, comp := range coefs.Components {
		fmt.Fprintln(out, "  [")
		for bi, block := range comp.Blocks {
			fmt.Fprint(out, "    [")
			for i, v := range block {
				fmt.Fprintf(out, "%d", v)
				if i+1 < 64 {
					fmt.Fprint(out, ", ")
				}
			}
			fmt.Fprint(out, "]")
			if bi+1 < len(comp.Blocks) {
				fmt.Fprint(out, ",")
			}
			fmt.Fprintln(out)
		}
		fmt.Fprint(out, "  ]")
		if ci+1 < len(coefs.Components) {
			fmt.Fprint(out, ",")
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, "]")
}
