package common

// BitReader reads entropy-coded data from a JPEG stream held in memory.
// It unstuffs 0xFF 0x00 sequences and stops feeding real data when a
// marker is reached; past a marker it supplies zero bits so a decoder
// that knows its symbol counts terminates cleanly at the scan boundary.
type BitReader struct {
	data   []byte
	pos    int
	bits   uint32
	nBits  int
	marker uint16 // marker hit during refill, 0 if none
}

// NewBitReader creates a BitReader over data starting at pos.
func NewBitReader(data []byte, pos int) *BitReader {
	return &BitReader{data: data, pos: pos}
}

// Pos returns the current byte offset into the underlying data. Buffered
// but unconsumed bits are not accounted for; call only at byte-aligned
// boundaries (after ExpectRestart or NextMarker).
func (r *BitReader) Pos() int {
	return r.pos
}

func (r *BitReader) fill() error {
	if r.marker != 0 {
		// Zero padding past the marker.
		r.bits <<= 8
		r.nBits += 8
		return nil
	}
	if r.pos >= len(r.data) {
		return ErrUnexpectedEOF
	}
	b := r.data[r.pos]
	r.pos++
	if b == 0xFF {
		if r.pos >= len(r.data) {
			return ErrUnexpectedEOF
		}
		if r.data[r.pos] == 0x00 {
			r.pos++ // stuffed byte
		} else {
			// Marker: leave pos at the 0xFF and pad with zeros.
			r.pos--
			r.marker = 0xFF00 | uint16(r.data[r.pos+1])
			r.bits <<= 8
			r.nBits += 8
			return nil
		}
	}
	r.bits = r.bits<<8 | uint32(b)
	r.nBits += 8
	return nil
}

// ReadBit reads a single bit
func (r *BitReader) ReadBit() (int, error) {
	if r.nBits == 0 {
		if err := r.fill(); err != nil {
			return 0, err
		}
	}
	r.nBits--
	return int(r.bits>>uint(r.nBits)) & 1, nil
}

// ReadBits reads n bits (n <= 16) as an unsigned integer
func (r *BitReader) ReadBits(n int) (uint32, error) {
	for r.nBits < n {
		if err := r.fill(); err != nil {
			return 0, err
		}
	}
	r.nBits -= n
	return (r.bits >> uint(r.nBits)) & ((1 << uint(n)) - 1), nil
}

// Decode decodes the next Huffman symbol
func (r *BitReader) Decode(table *HuffmanTable) (byte, error) {
	code := int32(0)
	for l := 0; l < 16; l++ {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		code = code<<1 | int32(bit)
		if table.maxCode[l] >= 0 && code >= table.minCode[l] && code <= table.maxCode[l] {
			idx := table.valPtr[l] + code - table.minCode[l]
			if idx < 0 || int(idx) >= len(table.Values) {
				return 0, ErrHuffmanDecode
			}
			return table.Values[idx], nil
		}
	}
	return 0, ErrHuffmanDecode
}

// ReceiveExtend reads ssss magnitude bits and sign-extends them into a
// coefficient value (the RECEIVE and EXTEND procedures combined).
func (r *BitReader) ReceiveExtend(ssss int) (int, error) {
	if ssss == 0 {
		return 0, nil
	}
	bits, err := r.ReadBits(ssss)
	if err != nil {
		return 0, err
	}
	val := int(bits)
	if val < 1<<uint(ssss-1) {
		val += (-1 << uint(ssss)) + 1
	}
	return val, nil
}

// ExpectRestart discards padding bits up to the byte boundary and
// consumes the next restart marker, which must be RSTn for n = index mod 8.
func (r *BitReader) ExpectRestart(index int) error {
	r.bits, r.nBits = 0, 0
	r.marker = 0
	if r.pos+2 > len(r.data) {
		return ErrUnexpectedEOF
	}
	if r.data[r.pos] != 0xFF {
		return ErrMissingRestart
	}
	m := 0xFF00 | uint16(r.data[r.pos+1])
	if !IsRST(m) || int(m-MarkerRST0) != index%8 {
		return ErrMissingRestart
	}
	r.pos += 2
	return nil
}

// NextMarker discards any buffered bits and returns the next marker in
// the stream, skipping 0xFF fill bytes.
func (r *BitReader) NextMarker() (uint16, error) {
	r.bits, r.nBits = 0, 0
	r.marker = 0
	for r.pos+1 < len(r.data) {
		if r.data[r.pos] != 0xFF {
			// Stray byte between scan data and marker; tolerate it the
			// way libjpeg does when resyncing.
			r.pos++
			continue
		}
		b := r.data[r.pos+1]
		if b == 0xFF {
			r.pos++ // fill byte
			continue
		}
		if b == 0x00 {
			r.pos += 2
			continue
		}
		r.pos += 2
		return 0xFF00 | uint16(b), nil
	}
	return 0, ErrUnexpectedEOF
}
