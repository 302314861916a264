package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/cocosip/go-jpeg-fuzz/codec"

	_ "github.com/cocosip/go-jpeg-fuzz/jpeg"
)

// decode-jpeg decodes a JPEG file and prints the color samples as a
// JSON array, one pixel row per output line.

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: decode-jpeg <filename>")
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

	res, err := c.Decode(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Decode failed: %v\n", err)
		os.Exit(1)
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	rowLen := res.Width * res.Components
	fmt.Fprint(out, "[")
	for y := 0; y < res.Height; y++ {
		row := res.PixelData[y*rowLen : (y+1)*rowLen]
		last := y+1 == res.Height
		for i, s := range row {
			fmt.Fprintf(out, "%d", s)
			if i+1 < len(row) || !last {
				fmt.Fprint(out, ",")
			}
		}
		if !last {
			fmt.Fprintln(out)
		}
	}
	fmt.Fprintln(out, "]")
}
