package fuzz

import "github.com/cocosip/go-jpeg-fuzz/codec"

// PickOptions draws every encoding option independently and uniformly
// over its domain. Quality lands in [0,99]; the encoder treats 0 as 1.
func PickOptions(src *Source) codec.EncodingOptions {
	return codec.EncodingOptions{
		Quality:         src.Intn(100),
		ForceBaseline:   src.Intn(2) == 1,
		Arithmetic:      src.Intn(2) == 1,
		OptimizeCoding:  src.Intn(2) == 1,
		RestartInterval: src.Intn(8),
		Progressive:     src.Intn(2) == 1,
	}
}
