package common

import "io"

// BitWriter writes entropy-coded data with JPEG byte stuffing: every
// 0xFF data byte is followed by a 0x00.
type BitWriter struct {
	w     io.Writer
	buf   [2]byte
	bits  uint32 // Bit buffer
	nBits int    // Number of bits in buffer
}

// NewBitWriter creates a new BitWriter
func NewBitWriter(w io.Writer) *BitWriter {
	return &BitWriter{w: w}
}

// WriteBits writes the least significant n bits of bits
func (e *BitWriter) WriteBits(bits uint32, n int) error {
	if n == 0 {
		return nil
	}

	e.bits = (e.bits << uint(n)) | (bits & ((1 << uint(n)) - 1))
	e.nBits += n

	for e.nBits >= 8 {
		b := byte(e.bits >> uint(e.nBits-8))
		if err := e.writeByte(b); err != nil {
			return err
		}
		e.nBits -= 8
	}

	return nil
}

// writeByte writes a byte with byte stuffing
func (e *BitWriter) writeByte(b byte) error {
	e.buf[0] = b
	n := 1
	if b == 0xFF {
		e.buf[1] = 0x00
		n = 2
	}
	_, err := e.w.Write(e.buf[:n])
	return err
}

// FlushAlign pads the current byte with 1-bits and writes it out. It is
// a no-op at a byte boundary. Required before any in-scan marker.
func (e *BitWriter) FlushAlign() error {
	if e.nBits > 0 {
		b := byte((e.bits << uint(8-e.nBits)) | ((1 << uint(8-e.nBits)) - 1))
		if err := e.writeByte(b); err != nil {
			return err
		}
		e.nBits = 0
		e.bits = 0
	}
	return nil
}

// HuffmanCode represents a single assigned Huffman code
type HuffmanCode struct {
	Code uint16 // The Huffman code
	Len  int    // Code length in bits
}

// BuildHuffmanCodes assigns canonical codes to every value of a table,
// indexed by symbol value.
func BuildHuffmanCodes(table *HuffmanTable) []HuffmanCode {
	codes := make([]HuffmanCode, 256)

	code := uint16(0)
	p := 0
	for l := 0; l < 16; l++ {
		for i := 0; i < table.Bits[l]; i++ {
			if p < len(table.Values) {
				codes[table.Values[p]] = HuffmanCode{
					Code: code,
					Len:  l + 1,
				}
				code++
				p++
			}
		}
		code <<= 1
	}

	return codes
}

// EncodeCategory computes the bit category of a coefficient value and
// the magnitude bits that follow the category's Huffman code.
func EncodeCategory(val int) (cat int, bits uint32) {
	if val == 0 {
		return 0, 0
	}

	absVal := val
	if absVal < 0 {
		absVal = -absVal
	}

	cat = 1
	for (1 << uint(cat)) <= absVal {
		cat++
	}

	if val > 0 {
		bits = uint32(val)
	} else {
		bits = uint32((1 << uint(cat)) + val - 1)
	}

	return cat, bits
}
