package fuzz

import "github.com/cocosip/go-jpeg-fuzz/codec"

// Generate runs one full randomized encode: resolve a legal
// configuration, then stream random scanlines through the compressor.
// The draw order is fixed (dimensions, options, sampling factors, pixel
// rows) so a seed identifies the run completely.
//
// The resolved configuration is returned for logging even when the
// compressor fails partway.
func Generate(src *Source, maxWidth, maxHeight int, comp codec.Compressor) (codec.Config, error) {
	dims, err := PickDimensions(src, maxWidth, maxHeight)
	if err != nil {
		return codec.Config{}, err
	}
	opts := PickOptions(src)
	sampling, _ := ResolveSamplingFactors(src)

	cfg := codec.Config{
		Width:    dims.Width,
		Height:   dims.Height,
		Options:  opts,
		Sampling: sampling,
	}
	if err := comp.Start(cfg); err != nil {
		return cfg, err
	}

	row := make([]byte, 3*cfg.Width)
	for y := 0; y < cfg.Height; y++ {
		FillScanline(src, row)
		if err := comp.WriteScanline(row); err != nil {
			return cfg, err
		}
	}
	return cfg, comp.Finish()
}
