package common

import "errors"

// Common errors
var (
	ErrInvalidMarker     = errors.New("invalid JPEG marker")
	ErrInvalidSOI        = errors.New("missing SOI marker")
	ErrInvalidSOF        = errors.New("invalid Start of Frame")
	ErrInvalidDHT        = errors.New("invalid Huffman table")
	ErrInvalidDQT        = errors.New("invalid Quantization table")
	ErrInvalidDAC        = errors.New("invalid arithmetic conditioning")
	ErrInvalidSOS        = errors.New("invalid Start of Scan")
	ErrInvalidDRI        = errors.New("invalid restart interval")
	ErrMissingRestart    = errors.New("expected restart marker")
	ErrUnsupportedFormat = errors.New("unsupported JPEG format")
	ErrInvalidData       = errors.New("invalid JPEG data")
	ErrUnexpectedEOF     = errors.New("unexpected end of data")
	ErrInvalidDimensions = errors.New("invalid image dimensions")
	ErrInvalidComponents = errors.New("invalid number of components")
	ErrInvalidQuality    = errors.New("invalid quality factor")
	ErrInvalidSampling   = errors.New("invalid sampling factors")
	ErrHuffmanDecode     = errors.New("Huffman decode error")
	ErrBufferTooSmall    = errors.New("buffer too small")
)
