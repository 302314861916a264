package jpeg

import (
	"bytes"
	"testing"

	"github.com/cocosip/go-jpeg-fuzz/codec"
	"github.com/cocosip/go-jpeg-fuzz/fuzz"
)

// gradientRGB builds a smooth color ramp, which survives quantization
// well enough for tolerance checks.
func gradientRGB(width, height int) []byte {
	pixels := make([]byte, 3*width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			off := (y*width + x) * 3
			pixels[off+0] = byte(Clamp8(x * 256 / width))
			pixels[off+1] = byte(Clamp8(y * 256 / height))
			pixels[off+2] = byte(Clamp8((x + y) * 128 / (width + height)))
		}
	}
	return pixels
}

func Clamp8(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func encodeImage(t *testing.T, cfg codec.Config, pixels []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	comp := NewCodec().NewCompressor(&buf)
	if err := comp.Start(cfg); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	for y := 0; y < cfg.Height; y++ {
		row := pixels[y*3*cfg.Width : (y+1)*3*cfg.Width]
		if err := comp.WriteScanline(row); err != nil {
			t.Fatalf("WriteScanline row %d failed: %v", y, err)
		}
	}
	if err := comp.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	return buf.Bytes()
}

func maxPixelError(a, b []byte) int {
	maxErr := 0
	for i := range a {
		diff := int(a[i]) - int(b[i])
		if diff < 0 {
			diff = -diff
		}
		if diff > maxErr {
			maxErr = diff
		}
	}
	return maxErr
}

func TestRoundTripConfigurations(t *testing.T) {
	all11 := [3]codec.SamplingFactor{{H: 1, V: 1}, {H: 1, V: 1}, {H: 1, V: 1}}
	sub420 := [3]codec.SamplingFactor{{H: 2, V: 2}, {H: 1, V: 1}, {H: 1, V: 1}}
	sub422 := [3]codec.SamplingFactor{{H: 2, V: 1}, {H: 1, V: 1}, {H: 1, V: 1}}
	sub31 := [3]codec.SamplingFactor{{H: 3, V: 1}, {H: 1, V: 1}, {H: 1, V: 1}}
	bigChroma := [3]codec.SamplingFactor{{H: 1, V: 1}, {H: 2, V: 2}, {H: 1, V: 1}}

	cases := []struct {
		name     string
		width    int
		height   int
		opts     codec.EncodingOptions
		sampling [3]codec.SamplingFactor
		maxErr   int
	}{
		{"baseline 1x1", 64, 64, codec.EncodingOptions{Quality: 90}, all11, 50},
		{"baseline 4:2:0", 64, 48, codec.EncodingOptions{Quality: 85}, sub420, 50},
		{"baseline 4:2:2", 48, 64, codec.EncodingOptions{Quality: 85}, sub422, 50},
		{"sampling 3x1", 51, 40, codec.EncodingOptions{Quality: 85}, sub31, 50},
		{"chroma above luma", 40, 40, codec.EncodingOptions{Quality: 85}, bigChroma, 50},
		{"odd dimensions", 17, 13, codec.EncodingOptions{Quality: 85}, sub420, 50},
		{"single pixel", 1, 1, codec.EncodingOptions{Quality: 90}, sub420, 50},
		{"optimized tables", 64, 64, codec.EncodingOptions{Quality: 90, OptimizeCoding: true}, sub420, 50},
		{"restart interval", 64, 64, codec.EncodingOptions{Quality: 85, RestartInterval: 3}, sub420, 50},
		{"progressive", 64, 64, codec.EncodingOptions{Quality: 90, Progressive: true}, sub420, 50},
		{"progressive optimized", 64, 64, codec.EncodingOptions{Quality: 90, Progressive: true, OptimizeCoding: true}, sub420, 50},
		{"progressive restarts", 40, 56, codec.EncodingOptions{Quality: 85, Progressive: true, RestartInterval: 2}, sub420, 50},
		{"arithmetic sequential", 64, 64, codec.EncodingOptions{Quality: 90, Arithmetic: true}, sub420, 50},
		{"arithmetic 1x1", 32, 32, codec.EncodingOptions{Quality: 90, Arithmetic: true}, all11, 50},
		{"arithmetic progressive", 64, 64, codec.EncodingOptions{Quality: 90, Arithmetic: true, Progressive: true}, sub420, 50},
		{"arithmetic restarts", 48, 48, codec.EncodingOptions{Quality: 85, Arithmetic: true, RestartInterval: 1}, sub420, 50},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := codec.Config{Width: c.width, Height: c.height, Options: c.opts, Sampling: c.sampling}
			pixels := gradientRGB(c.width, c.height)
			data := encodeImage(t, cfg, pixels)

			res, err := NewCodec().Decode(data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if res.Width != c.width || res.Height != c.height {
				t.Fatalf("dimensions: got %dx%d, want %dx%d", res.Width, res.Height, c.width, c.height)
			}
			if res.Components != 3 {
				t.Fatalf("components: got %d, want 3", res.Components)
			}
			if len(res.PixelData) != 3*c.width*c.height {
				t.Fatalf("pixel buffer: got %d bytes, want %d", len(res.PixelData), 3*c.width*c.height)
			}

			maxErr := maxPixelError(pixels, res.PixelData)
			t.Logf("encoded %d bytes, max pixel error %d", len(data), maxErr)
			if maxErr > c.maxErr {
				t.Errorf("max pixel error %d exceeds %d", maxErr, c.maxErr)
			}
		})
	}
}

func TestRoundTripLowQuality16BitTables(t *testing.T) {
	// Quality 1 without the baseline cap needs 16-bit DQT entries and an
	// extended sequential frame. The image is all but destroyed; the
	// stream still has to parse and reproduce the geometry.
	cfg := codec.Config{
		Width: 32, Height: 32,
		Options:  codec.EncodingOptions{Quality: 1},
		Sampling: [3]codec.SamplingFactor{{H: 2, V: 2}, {H: 1, V: 1}, {H: 1, V: 1}},
	}
	data := encodeImage(t, cfg, gradientRGB(32, 32))

	res, err := NewCodec().Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if res.Width != 32 || res.Height != 32 {
		t.Errorf("dimensions: got %dx%d", res.Width, res.Height)
	}
}

func TestReadCoefficientsFlatImage(t *testing.T) {
	// A flat mid-gray image sits exactly at the level-shift zero point,
	// so every quantized coefficient is zero.
	width, height := 16, 16
	pixels := make([]byte, 3*width*height)
	for i := range pixels {
		pixels[i] = 128
	}
	cfg := codec.Config{
		Width: width, Height: height,
		Options:  codec.EncodingOptions{Quality: 50},
		Sampling: [3]codec.SamplingFactor{{H: 1, V: 1}, {H: 1, V: 1}, {H: 1, V: 1}},
	}
	data := encodeImage(t, cfg, pixels)

	coefs, err := NewCodec().ReadCoefficients(data)
	if err != nil {
		t.Fatalf("ReadCoefficients failed: %v", err)
	}
	if len(coefs.Components) != 3 {
		t.Fatalf("components: got %d, want 3", len(coefs.Components))
	}
	for ci, comp := range coefs.Components {
		if comp.WidthInBlocks != 2 || comp.HeightInBlocks != 2 {
			t.Errorf("component %d: %dx%d blocks, want 2x2", ci, comp.WidthInBlocks, comp.HeightInBlocks)
		}
		if len(comp.Blocks) != 4 {
			t.Fatalf("component %d: %d blocks, want 4", ci, len(comp.Blocks))
		}
		for bi, blk := range comp.Blocks {
			for i, v := range blk {
				if v != 0 {
					t.Fatalf("component %d block %d coefficient %d = %d, want 0", ci, bi, i, v)
				}
			}
		}
	}
}

func TestReadCoefficientsSubsampledLayout(t *testing.T) {
	cfg := codec.Config{
		Width: 20, Height: 12,
		Options:  codec.EncodingOptions{Quality: 80},
		Sampling: [3]codec.SamplingFactor{{H: 2, V: 2}, {H: 1, V: 1}, {H: 1, V: 1}},
	}
	data := encodeImage(t, cfg, gradientRGB(20, 12))

	coefs, err := NewCodec().ReadCoefficients(data)
	if err != nil {
		t.Fatalf("ReadCoefficients failed: %v", err)
	}

	// Luma covers 20x12 samples, chroma 10x6.
	want := [3][2]int{{3, 2}, {2, 1}, {2, 1}}
	for ci, comp := range coefs.Components {
		if comp.WidthInBlocks != want[ci][0] || comp.HeightInBlocks != want[ci][1] {
			t.Errorf("component %d: %dx%d blocks, want %dx%d",
				ci, comp.WidthInBlocks, comp.HeightInBlocks, want[ci][0], want[ci][1])
		}
		if len(comp.Blocks) != want[ci][0]*want[ci][1] {
			t.Errorf("component %d: %d blocks", ci, len(comp.Blocks))
		}
	}

	// A gradient has DC energy everywhere.
	nonzero := false
	for _, blk := range coefs.Components[0].Blocks {
		if blk[0] != 0 {
			nonzero = true
		}
	}
	if !nonzero {
		t.Error("luma DC coefficients all zero for a gradient image")
	}
}

func TestCoefficientsMatchAcrossEntropyCoders(t *testing.T) {
	// Entropy coding is lossless: Huffman and arithmetic streams built
	// from the same input carry identical quantized coefficients.
	pixels := gradientRGB(24, 24)
	base := codec.Config{
		Width: 24, Height: 24,
		Options:  codec.EncodingOptions{Quality: 75},
		Sampling: [3]codec.SamplingFactor{{H: 2, V: 1}, {H: 1, V: 1}, {H: 1, V: 1}},
	}

	variants := []codec.EncodingOptions{
		{Quality: 75},
		{Quality: 75, OptimizeCoding: true},
		{Quality: 75, Arithmetic: true},
		{Quality: 75, Progressive: true},
		{Quality: 75, Arithmetic: true, Progressive: true},
		{Quality: 75, RestartInterval: 2},
	}

	var want *codec.CoefficientData
	for i, opts := range variants {
		cfg := base
		cfg.Options = opts
		data := encodeImage(t, cfg, pixels)
		got, err := NewCodec().ReadCoefficients(data)
		if err != nil {
			t.Fatalf("variant %d: ReadCoefficients failed: %v", i, err)
		}
		if i == 0 {
			want = got
			continue
		}
		for ci := range want.Components {
			wc, gc := want.Components[ci], got.Components[ci]
			if len(wc.Blocks) != len(gc.Blocks) {
				t.Fatalf("variant %d component %d: block count %d != %d", i, ci, len(gc.Blocks), len(wc.Blocks))
			}
			for bi := range wc.Blocks {
				if wc.Blocks[bi] != gc.Blocks[bi] {
					t.Fatalf("variant %d component %d block %d differs", i, ci, bi)
				}
			}
		}
	}
}

func TestGeneratedStreamsDecode(t *testing.T) {
	// Drive the whole pipeline with randomized configurations: every
	// stream the generator produces must decode back to its geometry.
	for seed := int64(0); seed < 60; seed++ {
		var buf bytes.Buffer
		src := fuzz.NewSourceSeed(seed)
		cfg, err := fuzz.Generate(src, 40, 40, NewCodec().NewCompressor(&buf))
		if err != nil {
			t.Fatalf("seed %d: Generate failed: %v (config %+v)", seed, err, cfg)
		}

		res, err := NewCodec().Decode(buf.Bytes())
		if err != nil {
			t.Fatalf("seed %d: Decode failed: %v (config %+v)", seed, err, cfg)
		}
		if res.Width != cfg.Width || res.Height != cfg.Height {
			t.Errorf("seed %d: got %dx%d, want %dx%d", seed, res.Width, res.Height, cfg.Width, cfg.Height)
		}

		if _, err := NewCodec().ReadCoefficients(buf.Bytes()); err != nil {
			t.Errorf("seed %d: ReadCoefficients failed: %v", seed, err)
		}
	}
}

func TestDecodeRejectsTruncatedStream(t *testing.T) {
	cfg := codec.Config{
		Width: 16, Height: 16,
		Options:  codec.EncodingOptions{Quality: 80},
		Sampling: [3]codec.SamplingFactor{{H: 1, V: 1}, {H: 1, V: 1}, {H: 1, V: 1}},
	}
	data := encodeImage(t, cfg, gradientRGB(16, 16))

	if _, err := NewCodec().Decode(data[:8]); err == nil {
		t.Error("expected an error for a stream cut inside the headers")
	}
	if _, err := NewCodec().Decode(nil); err == nil {
		t.Error("expected an error for an empty stream")
	}
	if _, err := NewCodec().Decode([]byte{0x00, 0x01}); err == nil {
		t.Error("expected an error without an SOI marker")
	}
}
