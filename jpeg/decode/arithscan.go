package decode

import (
	"github.com/cocosip/go-jpeg-fuzz/jpeg/arith"
	"github.com/cocosip/go-jpeg-fuzz/jpeg/common"
)

// arithScanState holds the adaptive contexts of one entropy segment.
// Everything resets together at restart markers.
type arithScanState struct {
	dc [4][64]byte
	ac [4][256]byte

	dcContext [4]int
	lastDC    [4]int32

	fixed byte
}

func (s *arithScanState) reset() {
	*s = arithScanState{}
	s.fixed = arith.FixedBin
}

func (d *decoder) decodeArithScan(hdr *scanHeader) error {
	if d.progressive && hdr.ah > 0 && hdr.ss > 0 {
		// Arithmetic AC refinement scans are not supported.
		return common.ErrUnsupportedFormat
	}

	dec := arith.NewDecoder(d.data, d.pos)
	var ctx arithScanState
	ctx.reset()

	atRestart := func(n int) error {
		pos, err := d.findRestart(dec.Pos(), n)
		if err != nil {
			return err
		}
		dec = arith.NewDecoder(d.data, pos)
		ctx.reset()
		return nil
	}

	var visit func(ci int, blk *[64]int32) error
	switch {
	case !d.progressive:
		visit = func(ci int, blk *[64]int32) error {
			c := &d.comps[ci]
			if err := d.arithDecodeDC(dec, &ctx, c, ci, blk, 0); err != nil {
				return err
			}
			return d.arithDecodeACBand(dec, &ctx, c, blk, 1, 63, 0)
		}
	case hdr.ss == 0 && hdr.ah == 0:
		visit = func(ci int, blk *[64]int32) error {
			return d.arithDecodeDC(dec, &ctx, &d.comps[ci], ci, blk, hdr.al)
		}
	case hdr.ss == 0:
		visit = func(ci int, blk *[64]int32) error {
			if dec.DecodeBit(&ctx.fixed) != 0 {
				blk[0] |= 1 << uint(hdr.al)
			}
			return nil
		}
	default:
		visit = func(ci int, blk *[64]int32) error {
			return d.arithDecodeACBand(dec, &ctx, &d.comps[ci], blk, hdr.ss, hdr.se, hdr.al)
		}
	}

	if err := d.visitScan(hdr, atRestart, visit); err != nil {
		return err
	}
	if dec.Corrupt() {
		return common.ErrInvalidData
	}

	pos, err := d.nextMarkerFrom(dec.Pos())
	if err != nil {
		return err
	}
	d.pos = pos
	return nil
}

// findRestart locates the next marker after pos and consumes it if it
// is the expected RSTn, returning the offset just past it.
func (d *decoder) findRestart(pos, n int) (int, error) {
	pos, err := d.nextMarkerFrom(pos)
	if err != nil {
		return 0, err
	}
	m := 0xFF00 | uint16(d.data[pos+1])
	if !common.IsRST(m) || int(m-common.MarkerRST0) != n%8 {
		return 0, common.ErrMissingRestart
	}
	return pos + 2, nil
}

// nextMarkerFrom scans forward to the next marker-forming 0xFF and
// returns its offset. Stuffed 0xFF 0x00 pairs and stray bytes are
// skipped.
func (d *decoder) nextMarkerFrom(pos int) (int, error) {
	for pos+1 < len(d.data) {
		if d.data[pos] == 0xFF && d.data[pos+1] != 0x00 {
			if d.data[pos+1] == 0xFF {
				pos++
				continue
			}
			return pos, nil
		}
		pos++
	}
	return 0, common.ErrUnexpectedEOF
}

// arithDecodeDC decodes one DC difference (T.81 section F.2.4.1,
// mirroring the encoder's context selection exactly).
func (d *decoder) arithDecodeDC(dec *arith.Decoder, ctx *arithScanState, c *component, ci int, blk *[64]int32, al int) error {
	cond := d.dcCond[c.td]
	st := ctx.dc[c.td][:]
	s0 := ctx.dcContext[ci]

	if dec.DecodeBit(&st[s0]) == 0 {
		ctx.dcContext[ci] = 0
	} else {
		sign := dec.DecodeBit(&st[s0+1])
		sp := s0 + 2 + sign

		m := int32(0)
		if dec.DecodeBit(&st[sp]) != 0 {
			m = 1
			sp = 20
			for dec.DecodeBit(&st[sp]) != 0 {
				m <<= 1
				if m == 0x8000 {
					return common.ErrInvalidData
				}
				sp++
			}
		}

		if m < int32(1<<uint(cond.low))>>1 {
			ctx.dcContext[ci] = 0
		} else if m > int32(1<<uint(cond.high))>>1 {
			ctx.dcContext[ci] = 12 + 4*sign
		} else {
			ctx.dcContext[ci] = 4 + 4*sign
		}

		v := m
		sp += 14
		for m >>= 1; m != 0; m >>= 1 {
			if dec.DecodeBit(&st[sp]) != 0 {
				v |= m
			}
		}
		v++
		if sign != 0 {
			v = -v
		}
		ctx.lastDC[ci] += v
	}

	blk[0] = ctx.lastDC[ci] << uint(al)
	return nil
}

// arithDecodeACBand decodes the zig-zag band [ss,se] of one block
// (T.81 section F.2.4.2).
func (d *decoder) arithDecodeACBand(dec *arith.Decoder, ctx *arithScanState, c *component, blk *[64]int32, ss, se, al int) error {
	kx := d.acCond[c.ta]
	st := ctx.ac[c.ta][:]

	for k := ss; k <= se; k++ {
		sp := 3 * (k - 1)
		if dec.DecodeBit(&st[sp]) != 0 {
			break // end of block
		}
		for dec.DecodeBit(&st[sp+1]) == 0 {
			sp += 3
			k++
			if k > se {
				return common.ErrInvalidData
			}
		}

		sign := dec.DecodeBit(&ctx.fixed)
		sp += 2

		m := int32(0)
		if dec.DecodeBit(&st[sp]) != 0 {
			m = 1
			if dec.DecodeBit(&st[sp]) != 0 {
				m = 2
				if k <= kx {
					sp = 189
				} else {
					sp = 217
				}
				for dec.DecodeBit(&st[sp]) != 0 {
					m <<= 1
					if m == 0x8000 {
						return common.ErrInvalidData
					}
					sp++
				}
			}
		}

		v := m
		sp += 14
		for m >>= 1; m != 0; m >>= 1 {
			if dec.DecodeBit(&st[sp]) != 0 {
				v |= m
			}
		}
		v++
		if sign != 0 {
			v = -v
		}
		blk[common.ZigZag[k]] = v << uint(al)
	}
	return nil
}
