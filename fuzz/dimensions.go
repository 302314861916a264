package fuzz

import "github.com/cocosip/go-jpeg-fuzz/codec"

// Dimensions is one resolved width/height pair.
type Dimensions struct {
	Width  int
	Height int
}

// PickDimensions draws uniformly in [1,maxWidth] x [1,maxHeight].
func PickDimensions(src *Source, maxWidth, maxHeight int) (Dimensions, error) {
	if maxWidth < 1 || maxHeight < 1 {
		return Dimensions{}, codec.ErrInvalidDimensions
	}
	return Dimensions{
		Width:  src.IntInRange(1, maxWidth),
		Height: src.IntInRange(1, maxHeight),
	}, nil
}
