package common

// HuffmanTable represents a Huffman coding table
type HuffmanTable struct {
	// Number of codes of each length (1-16 bits)
	Bits [16]int
	// Values for each code, in order of code length
	Values []byte
	// Lookup tables for fast decoding
	minCode [16]int32
	maxCode [16]int32
	valPtr  [16]int32
	// Lookup table for fast decoding of short codes
	lookupTable [256]int16 // (nbits << 8) | value, -1 if not found
}

// Build builds lookup tables for fast Huffman decoding
func (h *HuffmanTable) Build() error {
	total := 0
	for _, n := range h.Bits {
		total += n
	}
	if total > len(h.Values) {
		return ErrInvalidDHT
	}

	// Build fast lookup table for codes up to 8 bits
	for i := range h.lookupTable {
		h.lookupTable[i] = -1
	}

	p := 0
	code := 0
	for l := 0; l < 8; l++ {
		for i := 0; i < h.Bits[l]; i++ {
			ext := code << uint(7-l)
			for j := 0; j < (1 << uint(7-l)); j++ {
				h.lookupTable[ext+j] = int16((l+1)<<8 | int(h.Values[p]))
			}
			code++
			p++
		}
		code <<= 1
	}

	// Build min/max codes and value pointers for the bit-serial path
	c := int32(0)
	p = 0
	for l := 0; l < 16; l++ {
		if h.Bits[l] == 0 {
			h.maxCode[l] = -1
		} else {
			h.valPtr[l] = int32(p)
			h.minCode[l] = c
			p += h.Bits[l]
			c += int32(h.Bits[l])
			h.maxCode[l] = c - 1
		}
		c <<= 1
	}

	return nil
}

// MaxEOBRunSymbol returns the largest EOBn run-length exponent the AC
// table can express (the largest r for symbol r<<4 present with size 0).
// Progressive encoders must not accumulate EOB runs beyond 2^r - 1.
func (h *HuffmanTable) MaxEOBRunSymbol() int {
	maxRun := 0
	for _, v := range h.Values {
		if v&0x0F == 0 && v != 0xF0 {
			r := int(v >> 4)
			if r > maxRun {
				maxRun = r
			}
		}
	}
	return maxRun
}
