package arith

// Decoder is the QM arithmetic bit decoder. It consumes entropy-coded
// bytes from data starting at pos, undoing the zero-byte stuffing after
// 0xFF. Hitting a marker is legal mid-segment: the decoder supplies
// zero bytes from then on and leaves pos at the 0xFF for the caller.
type Decoder struct {
	data []byte
	pos  int
	done bool // marker or end of data reached

	a uint32
	c uint32 // code offset within the current interval
	b uint32 // buffered input bits
	nb int

	corrupt bool
}

func NewDecoder(data []byte, pos int) *Decoder {
	d := &Decoder{data: data, pos: pos}
	d.Reset()
	return d
}

// Reset reinitializes the interval registers from the next input bytes.
// Used at the start of the segment and after each restart marker.
func (d *Decoder) Reset() {
	d.b = 0
	d.nb = 0
	d.c = uint32(d.readByte())<<8 | uint32(d.readByte())
	d.a = 0x10000
}

// Pos returns the current input offset. After a marker has been seen it
// points at the marker's 0xFF byte.
func (d *Decoder) Pos() int {
	return d.pos
}

// Corrupt reports whether the code offset ever escaped the coding
// interval, which only happens on damaged input.
func (d *Decoder) Corrupt() bool {
	return d.corrupt
}

func (d *Decoder) readByte() int {
	if d.done || d.pos >= len(d.data) {
		d.done = true
		return 0
	}
	b := d.data[d.pos]
	if b != 0xFF {
		d.pos++
		return int(b)
	}
	// 0xFF 0x00 is a stuffed data byte, anything else is a marker.
	if d.pos+1 < len(d.data) && d.data[d.pos+1] == 0x00 {
		d.pos += 2
		return 0xFF
	}
	d.done = true
	return 0
}

func (d *Decoder) nextBit() uint32 {
	if d.nb == 0 {
		d.b = uint32(d.readByte())
		d.nb = 8
	}
	d.nb--
	return (d.b >> uint(d.nb)) & 1
}

// DecodeBit decodes one binary decision in the context st.
func (d *Decoder) DecodeBit(st *byte) int {
	sv := *st
	s := &states[sv&0x7F]
	mps := int(sv >> 7)

	am := d.a - s.qe
	var bit int
	if am < s.qe {
		// Interval sizes crossed over: the LPS subinterval is the
		// lower one here.
		if d.c < am {
			bit = mps ^ 1
			d.a = am
			if s.sw {
				mps ^= 1
			}
			*st = byte(mps<<7) | s.nlps
		} else {
			bit = mps
			d.c -= am
			d.a = s.qe
			*st = byte(mps<<7) | s.nmps
		}
	} else {
		if d.c < am {
			bit = mps
			d.a = am
			if d.a >= 0x8000 {
				return bit
			}
			*st = byte(mps<<7) | s.nmps
		} else {
			bit = mps ^ 1
			d.c -= am
			d.a = s.qe
			if s.sw {
				mps ^= 1
			}
			*st = byte(mps<<7) | s.nlps
		}
	}

	for d.a < 0x8000 {
		d.a <<= 1
		d.c = d.c<<1 | d.nextBit()
	}
	if d.c >= d.a {
		d.c = d.a - 1
		d.corrupt = true
	}
	return bit
}
