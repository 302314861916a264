package jpeg

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/dlecorfec/progjpeg"
	"github.com/gen2brain/jpegn"

	"github.com/cocosip/go-jpeg-fuzz/codec"
)

func gradientImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(Clamp8(x * 256 / width)),
				G: uint8(Clamp8(y * 256 / height)),
				B: uint8(Clamp8((x + y) * 128 / (width + height))),
				A: 255,
			})
		}
	}
	return img
}

// comparePixels checks our decoder's output against a reference image
// of the same stream, sample by sample.
func comparePixels(t *testing.T, res *codec.DecodeResult, ref image.Image, tolerance int) {
	t.Helper()
	b := ref.Bounds()
	if res.Width != b.Dx() || res.Height != b.Dy() {
		t.Fatalf("dimensions: got %dx%d, reference %dx%d", res.Width, res.Height, b.Dx(), b.Dy())
	}
	maxErr := 0
	for y := 0; y < res.Height; y++ {
		for x := 0; x < res.Width; x++ {
			r, g, bl, _ := ref.At(b.Min.X+x, b.Min.Y+y).RGBA()
			off := (y*res.Width + x) * 3
			for i, want := range []int{int(r >> 8), int(g >> 8), int(bl >> 8)} {
				diff := int(res.PixelData[off+i]) - want
				if diff < 0 {
					diff = -diff
				}
				if diff > maxErr {
					maxErr = diff
				}
			}
		}
	}
	t.Logf("max pixel difference vs reference: %d", maxErr)
	if maxErr > tolerance {
		t.Errorf("max pixel difference %d exceeds %d", maxErr, tolerance)
	}
}

func TestDecodeThirdPartyBaseline(t *testing.T) {
	img := gradientImage(64, 48)
	var buf bytes.Buffer
	if err := progjpeg.Encode(&buf, img, &progjpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("reference encode failed: %v", err)
	}

	res, err := NewCodec().Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	ref, err := jpegn.Decode(bytes.NewReader(buf.Bytes()), &jpegn.Options{ToRGBA: true, UpsampleMethod: jpegn.NearestNeighbor})
	if err != nil {
		t.Fatalf("reference decode failed: %v", err)
	}
	comparePixels(t, res, ref, 24)
}

func TestDecodeThirdPartyProgressive(t *testing.T) {
	img := gradientImage(80, 60)
	var buf bytes.Buffer
	err := progjpeg.Encode(&buf, img, &progjpeg.Options{
		Quality:     85,
		Progressive: true,
		ScanScript:  progjpeg.DefaultColorScanScript(),
	})
	if err != nil {
		t.Fatalf("reference encode failed: %v", err)
	}

	res, err := NewCodec().Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	ref, err := jpegn.Decode(bytes.NewReader(buf.Bytes()), &jpegn.Options{ToRGBA: true, UpsampleMethod: jpegn.NearestNeighbor})
	if err != nil {
		t.Fatalf("reference decode failed: %v", err)
	}
	comparePixels(t, res, ref, 24)
}

func TestDecodeThirdPartyRefinementScans(t *testing.T) {
	// Successive approximation splits each coefficient across scans;
	// our encoder never emits it, so a third-party stream is the only
	// way to exercise the refinement paths.
	script := progjpeg.ScanScript{
		{Component: -1, SpectralStart: 0, SpectralEnd: 0, SuccessiveApproxHigh: 0, SuccessiveApproxLow: 1},
		{Component: 0, SpectralStart: 1, SpectralEnd: 63, SuccessiveApproxHigh: 0, SuccessiveApproxLow: 1},
		{Component: 1, SpectralStart: 1, SpectralEnd: 63, SuccessiveApproxHigh: 0, SuccessiveApproxLow: 1},
		{Component: 2, SpectralStart: 1, SpectralEnd: 63, SuccessiveApproxHigh: 0, SuccessiveApproxLow: 1},
		{Component: -1, SpectralStart: 0, SpectralEnd: 0, SuccessiveApproxHigh: 1, SuccessiveApproxLow: 0},
		{Component: 0, SpectralStart: 1, SpectralEnd: 63, SuccessiveApproxHigh: 1, SuccessiveApproxLow: 0},
		{Component: 1, SpectralStart: 1, SpectralEnd: 63, SuccessiveApproxHigh: 1, SuccessiveApproxLow: 0},
		{Component: 2, SpectralStart: 1, SpectralEnd: 63, SuccessiveApproxHigh: 1, SuccessiveApproxLow: 0},
	}

	img := gradientImage(56, 56)
	var buf bytes.Buffer
	err := progjpeg.Encode(&buf, img, &progjpeg.Options{
		Quality:     85,
		Progressive: true,
		ScanScript:  script,
	})
	if err != nil {
		t.Fatalf("reference encode failed: %v", err)
	}

	res, err := NewCodec().Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	ref, err := jpegn.Decode(bytes.NewReader(buf.Bytes()), &jpegn.Options{ToRGBA: true, UpsampleMethod: jpegn.NearestNeighbor})
	if err != nil {
		t.Fatalf("reference decode failed: %v", err)
	}
	comparePixels(t, res, ref, 24)
}

func TestThirdPartyDecodesOurStream(t *testing.T) {
	samplings := map[string][3]codec.SamplingFactor{
		"1x1":   {{H: 1, V: 1}, {H: 1, V: 1}, {H: 1, V: 1}},
		"4:2:0": {{H: 2, V: 2}, {H: 1, V: 1}, {H: 1, V: 1}},
	}

	tolerances := map[string]int{"1x1": 8, "4:2:0": 24}

	for name, sampling := range samplings {
		t.Run(name, func(t *testing.T) {
			cfg := codec.Config{
				Width: 64, Height: 48,
				Options:  codec.EncodingOptions{Quality: 90, ForceBaseline: true},
				Sampling: sampling,
			}
			pixels := gradientRGB(64, 48)
			data := encodeImage(t, cfg, pixels)

			ref, err := jpegn.Decode(bytes.NewReader(data), &jpegn.Options{ToRGBA: true, UpsampleMethod: jpegn.NearestNeighbor})
			if err != nil {
				t.Fatalf("third-party decode of our stream failed: %v", err)
			}

			res, err := NewCodec().Decode(data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			comparePixels(t, res, ref, tolerances[name])
		})
	}
}
