package arith

import "io"

// Encoder is the QM arithmetic bit encoder. Output bytes are stuffed
// with a zero byte after each 0xFF so the entropy stream never forms a
// marker. Trailing zero bytes are withheld until a nonzero byte forces
// them out; the decoder supplies zeros past the end of the stream.
type Encoder struct {
	w  io.Writer
	a  uint32
	c  uint32
	ct int

	buffer int // pending output byte, -1 before the first
	sc     int // run of stacked 0xFF bytes awaiting carry resolution
	zc     int // run of withheld 0x00 bytes

	scratch [1]byte
	err     error
}

func NewEncoder(w io.Writer) *Encoder {
	e := &Encoder{w: w}
	e.Reset()
	return e
}

// Reset reinitializes the interval registers. Coding contexts are owned
// by the caller and reset separately.
func (e *Encoder) Reset() {
	e.a = 0x10000
	e.c = 0
	e.ct = 11
	e.buffer = -1
	e.sc = 0
	e.zc = 0
}

func (e *Encoder) emit(b byte) {
	if e.err != nil {
		return
	}
	e.scratch[0] = b
	_, e.err = e.w.Write(e.scratch[:])
}

func (e *Encoder) emitPending() {
	for e.zc > 0 {
		e.emit(0x00)
		e.zc--
	}
}

// EncodeBit codes one binary decision in the context st.
func (e *Encoder) EncodeBit(st *byte, bit int) {
	sv := *st
	s := &states[sv&0x7F]
	mps := int(sv >> 7)

	e.a -= s.qe
	if bit != mps {
		// Less probable symbol. The LPS subinterval sits above the
		// MPS one unless the sizes have crossed over.
		if e.a >= s.qe {
			e.c += e.a
			e.a = s.qe
		}
		if s.sw {
			mps ^= 1
		}
		*st = byte(mps<<7) | s.nlps
	} else {
		if e.a >= 0x8000 {
			return
		}
		if e.a < s.qe {
			e.c += e.a
			e.a = s.qe
		}
		*st = byte(mps<<7) | s.nmps
	}

	for {
		e.a <<= 1
		e.c <<= 1
		e.ct--
		if e.ct == 0 {
			e.byteOut()
			e.ct = 8
		}
		if e.a >= 0x8000 {
			break
		}
	}
}

func (e *Encoder) byteOut() {
	temp := e.c >> 19
	if temp > 0xFF {
		// Carry propagates into the pending byte and turns any
		// stacked 0xFF bytes into zeros.
		if e.buffer >= 0 {
			e.emitPending()
			e.emit(byte(e.buffer + 1))
			if e.buffer+1 == 0xFF {
				e.emit(0x00)
			}
		}
		e.zc += e.sc
		e.sc = 0
		e.buffer = int(temp & 0xFF)
	} else if temp == 0xFF {
		e.sc++
	} else {
		if e.buffer == 0 {
			e.zc++
		} else if e.buffer > 0 {
			e.emitPending()
			e.emit(byte(e.buffer))
		}
		if e.sc > 0 {
			e.emitPending()
			for ; e.sc > 0; e.sc-- {
				e.emit(0xFF)
				e.emit(0x00)
			}
		}
		e.buffer = int(temp)
	}
	e.c &= 0x7FFFF
}

// Flush terminates the entropy segment, choosing the code value in the
// final interval with the most trailing zero bits and emitting what
// remains of the C register.
func (e *Encoder) Flush() error {
	temp := (e.a - 1 + e.c) &^ 0xFFFF
	if temp < e.c {
		e.c = temp + 0x8000
	} else {
		e.c = temp
	}
	e.c <<= uint(e.ct)

	if e.c&0xF8000000 != 0 {
		if e.buffer >= 0 {
			e.emitPending()
			e.emit(byte(e.buffer + 1))
			if e.buffer+1 == 0xFF {
				e.emit(0x00)
			}
		}
		e.zc += e.sc
		e.sc = 0
	} else {
		if e.buffer == 0 {
			e.zc++
		} else if e.buffer > 0 {
			e.emitPending()
			e.emit(byte(e.buffer))
		}
		if e.sc > 0 {
			e.emitPending()
			for ; e.sc > 0; e.sc-- {
				e.emit(0xFF)
				e.emit(0x00)
			}
		}
	}

	if e.c&0x7FFF800 != 0 {
		e.emitPending()
		b := byte(e.c >> 19)
		e.emit(b)
		if b == 0xFF {
			e.emit(0x00)
		}
		if e.c&0x7F800 != 0 {
			b = byte(e.c >> 11)
			e.emit(b)
			if b == 0xFF {
				e.emit(0x00)
			}
		}
	}
	return e.err
}

// Err reports the first write error, if any.
func (e *Encoder) Err() error {
	return e.err
}
