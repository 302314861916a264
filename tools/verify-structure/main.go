package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/garyhouston/jpegsegs"
	"github.com/gen2brain/jpegn"
)

// verify-structure inspects the marker structure of a generated JPEG
// file and cross-checks it against the configuration printed by
// random-jpeg. Structural checks (one frame header, block budget,
// decodability) always run; flags add expectations for the randomized
// options.

var (
	expectDRI         = flag.Int("dri", -1, "expected restart interval (-1 to skip)")
	expectProgressive = flag.Bool("progressive", false, "expect a progressive frame")
	expectArithmetic  = flag.Bool("arithmetic", false, "expect arithmetic entropy coding")
	expectSampling    = flag.String("sampling", "", "expected sampling factors, e.g. 2x2,1x1,1x1")
)

type frameInfo struct {
	marker   byte
	width    int
	height   int
	sampling [][2]int
	dri      int
	hasDAC   bool
	hasDHT   bool
	scans    int
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: verify-structure [flags] <file>")
		os.Exit(1)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Can't read %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}

	info, err := scanStructure(data)
	if err != nil {
		fail("marker scan: %v", err)
	}

	report(info)
	check(info, data)
	fmt.Println("OK")
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// scanStructure walks the segments up to the first scan and collects
// the frame parameters. Scans after the first only bump the counter.
func scanStructure(data []byte) (*frameInfo, error) {
	scanner, err := jpegsegs.NewScanner(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	info := &frameInfo{dri: 0}
	for {
		marker, buf, err := scanner.Scan()
		if err != nil {
			return nil, err
		}
		switch byte(marker) {
		case 0xC0, 0xC1, 0xC2, 0xC9, 0xCA:
			if info.marker != 0 {
				return nil, fmt.Errorf("multiple frame headers")
			}
			if err := parseFrame(info, byte(marker), buf); err != nil {
				return nil, err
			}
		case 0xC4:
			info.hasDHT = true
		case 0xCC:
			info.hasDAC = true
		case 0xDD:
			if len(buf) != 2 {
				return nil, fmt.Errorf("bad DRI length %d", len(buf))
			}
			info.dri = int(buf[0])<<8 | int(buf[1])
		}
		if byte(marker) == 0xDA {
			info.scans++
			// Remaining scans are covered by the full decode below.
			return info, nil
		}
	}
}

func parseFrame(info *frameInfo, marker byte, buf []byte) error {
	if len(buf) < 6 {
		return fmt.Errorf("frame header too short")
	}
	info.marker = marker
	info.height = int(buf[1])<<8 | int(buf[2])
	info.width = int(buf[3])<<8 | int(buf[4])
	ncomp := int(buf[5])
	if len(buf) != 6+3*ncomp {
		return fmt.Errorf("frame header length mismatch")
	}
	for i := 0; i < ncomp; i++ {
		hv := buf[6+3*i+1]
		info.sampling = append(info.sampling, [2]int{int(hv >> 4), int(hv & 0x0F)})
	}
	return nil
}

func report(info *frameInfo) {
	kind := map[byte]string{
		0xC0: "baseline",
		0xC1: "extended sequential",
		0xC2: "progressive",
		0xC9: "arithmetic sequential",
		0xCA: "arithmetic progressive",
	}[info.marker]
	fmt.Printf("Frame: SOF%d (%s), %dx%d, %d components\n",
		info.marker-0xC0, kind, info.width, info.height, len(info.sampling))
	for i, s := range info.sampling {
		fmt.Printf("Sampling %d: %dx%d\n", i, s[0], s[1])
	}
	fmt.Printf("Restart interval: %d\n", info.dri)
}

func check(info *frameInfo, data []byte) {
	if info.marker == 0 {
		fail("no frame header before first scan")
	}

	blocks := 0
	for _, s := range info.sampling {
		if s[0] < 1 || s[0] > 4 || s[1] < 1 || s[1] > 4 {
			fail("sampling factor out of range: %dx%d", s[0], s[1])
		}
		blocks += s[0] * s[1]
	}
	if len(info.sampling) > 1 && blocks > 10 {
		fail("block budget exceeded: %d", blocks)
	}

	arithmetic := info.marker == 0xC9 || info.marker == 0xCA
	progressive := info.marker == 0xC2 || info.marker == 0xCA
	if arithmetic && info.hasDHT {
		fail("DHT emitted in an arithmetic stream")
	}
	if !arithmetic && !info.hasDHT {
		fail("no DHT in a Huffman stream")
	}
	if arithmetic != info.hasDAC {
		fail("DAC presence %t does not match frame type", info.hasDAC)
	}

	if *expectArithmetic != arithmetic {
		fail("arithmetic: got %t, expected %t", arithmetic, *expectArithmetic)
	}
	if *expectProgressive != progressive {
		fail("progressive: got %t, expected %t", progressive, *expectProgressive)
	}
	if *expectDRI >= 0 && info.dri != *expectDRI {
		fail("restart interval: got %d, expected %d", info.dri, *expectDRI)
	}
	if *expectSampling != "" {
		var got []string
		for _, s := range info.sampling {
			got = append(got, fmt.Sprintf("%dx%d", s[0], s[1]))
		}
		if strings.Join(got, ",") != *expectSampling {
			fail("sampling: got %s, expected %s", strings.Join(got, ","), *expectSampling)
		}
	}

	// Arithmetic streams are outside jpegn's scope; the marker checks
	// above are the whole story for those.
	if arithmetic {
		return
	}
	img, err := jpegn.Decode(bytes.NewReader(data))
	if err != nil {
		fail("full decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != info.width || b.Dy() != info.height {
		fail("decoded size %dx%d does not match frame header %dx%d",
			b.Dx(), b.Dy(), info.width, info.height)
	}
}
