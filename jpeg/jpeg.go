// Package jpeg bundles the encode and decode engines into a registered
// codec.Codec.
package jpeg

import (
	"io"

	"github.com/cocosip/go-jpeg-fuzz/codec"
	"github.com/cocosip/go-jpeg-fuzz/jpeg/decode"
	"github.com/cocosip/go-jpeg-fuzz/jpeg/encode"
)

// Codec implements codec.Codec for JFIF streams.
type Codec struct{}

// NewCodec creates a new JPEG codec
func NewCodec() *Codec {
	return &Codec{}
}

// Name returns the registry key
func (c *Codec) Name() string {
	return "jpeg"
}

// NewCompressor returns a Compressor writing a JPEG stream to w
func (c *Codec) NewCompressor(w io.Writer) codec.Compressor {
	return encode.New(w)
}

// Decode decodes a complete JPEG stream to pixels
func (c *Codec) Decode(data []byte) (*codec.DecodeResult, error) {
	return decode.Decode(data)
}

// ReadCoefficients returns the quantized DCT coefficients of a complete
// JPEG stream without reconstructing pixels
func (c *Codec) ReadCoefficients(data []byte) (*codec.CoefficientData, error) {
	return decode.ReadCoefficients(data)
}

// Register registers this codec with the global registry
func init() {
	codec.Register(NewCodec())
}
