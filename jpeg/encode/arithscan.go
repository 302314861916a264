package encode

import (
	"github.com/cocosip/go-jpeg-fuzz/jpeg/arith"
	"github.com/cocosip/go-jpeg-fuzz/jpeg/common"
)

// Arithmetic conditioning, matching the values written in the DAC
// segment: DC thresholds L=0 and U=1, AC Kx=5 (T.81 defaults).
const (
	arithDCLow  = 0
	arithDCHigh = 1
	arithKx     = 5
)

// arithContexts holds the adaptive coding contexts of one entropy
// segment. Context bytes and the DC prediction state all reset together
// at restart markers.
type arithContexts struct {
	dc [2][64]byte
	ac [2][256]byte

	dcContext [3]int
	lastDC    [3]int32

	fixed byte
}

func (s *arithContexts) reset() {
	*s = arithContexts{}
	s.fixed = arith.FixedBin
}

func (e *Encoder) writeArithScans(m *markerWriter) error {
	for _, s := range e.scanScript() {
		m.sos(e.comps[:], s.comps, s.ss, s.se)

		enc := arith.NewEncoder(m.w)
		var ctx arithContexts
		ctx.reset()

		e.visitScan(s,
			func(n int) {
				if err := enc.Flush(); err == nil {
					m.rst(n)
				}
				enc.Reset()
				ctx.reset()
			},
			func(ci int, blk *[64]int32) {
				c := &e.comps[ci]
				if s.ss == 0 {
					arithEncodeDC(enc, &ctx, c, ci, blk)
				}
				if s.se >= 1 {
					arithEncodeACBand(enc, &ctx, c, blk, maxInt(s.ss, 1), s.se)
				}
			})

		if err := enc.Flush(); err != nil {
			return err
		}
		if m.err != nil {
			return m.err
		}
	}
	return nil
}

// arithEncodeDC codes one DC difference with the context selection of
// T.81 section F.1.4.1: the conditioning bucket is derived from the
// previous block's difference magnitude.
func arithEncodeDC(enc *arith.Encoder, ctx *arithContexts, c *component, ci int, blk *[64]int32) {
	st := ctx.dc[c.td][:]
	s0 := ctx.dcContext[ci]

	v := blk[0] - ctx.lastDC[ci]
	if v == 0 {
		enc.EncodeBit(&st[s0], 0)
		ctx.dcContext[ci] = 0
		return
	}
	ctx.lastDC[ci] = blk[0]
	enc.EncodeBit(&st[s0], 1)

	var sp int
	if v > 0 {
		enc.EncodeBit(&st[s0+1], 0)
		sp = s0 + 2
		ctx.dcContext[ci] = 4
	} else {
		v = -v
		enc.EncodeBit(&st[s0+1], 1)
		sp = s0 + 3
		ctx.dcContext[ci] = 8
	}

	m := int32(0)
	if v--; v != 0 {
		enc.EncodeBit(&st[sp], 1)
		m = 1
		v2 := v
		sp = 20
		for v2 >>= 1; v2 != 0; v2 >>= 1 {
			enc.EncodeBit(&st[sp], 1)
			m <<= 1
			sp++
		}
	}
	enc.EncodeBit(&st[sp], 0)

	if m < (1<<arithDCLow)>>1 {
		ctx.dcContext[ci] = 0
	} else if m > (1<<arithDCHigh)>>1 {
		ctx.dcContext[ci] += 8
	}

	sp += 14
	for m >>= 1; m != 0; m >>= 1 {
		bit := 0
		if m&v != 0 {
			bit = 1
		}
		enc.EncodeBit(&st[sp], bit)
	}
}

// arithEncodeACBand codes the zig-zag band [ss,se] of one block per
// T.81 section F.1.4.2. Signs use the fixed equiprobable context.
func arithEncodeACBand(enc *arith.Encoder, ctx *arithContexts, c *component, blk *[64]int32, ss, se int) {
	st := ctx.ac[c.ta][:]

	ke := se
	for ; ke >= ss; ke-- {
		if blk[common.ZigZag[ke]] != 0 {
			break
		}
	}

	k := ss
	for ; k <= ke; k++ {
		sp := 3 * (k - 1)
		enc.EncodeBit(&st[sp], 0) // not end-of-block yet

		var v int32
		for {
			v = blk[common.ZigZag[k]]
			if v != 0 {
				break
			}
			enc.EncodeBit(&st[sp+1], 0)
			sp += 3
			k++
		}
		enc.EncodeBit(&st[sp+1], 1)

		if v > 0 {
			enc.EncodeBit(&ctx.fixed, 0)
		} else {
			v = -v
			enc.EncodeBit(&ctx.fixed, 1)
		}
		sp += 2

		m := int32(0)
		if v--; v != 0 {
			enc.EncodeBit(&st[sp], 1)
			m = 1
			if v2 := v >> 1; v2 != 0 {
				enc.EncodeBit(&st[sp], 1)
				m <<= 1
				if k <= arithKx {
					sp = 189
				} else {
					sp = 217
				}
				for v2 >>= 1; v2 != 0; v2 >>= 1 {
					enc.EncodeBit(&st[sp], 1)
					m <<= 1
					sp++
				}
			}
		}
		enc.EncodeBit(&st[sp], 0)

		sp += 14
		for m >>= 1; m != 0; m >>= 1 {
			bit := 0
			if m&v != 0 {
				bit = 1
			}
			enc.EncodeBit(&st[sp], bit)
		}
	}

	if k <= se {
		sp := 3 * (k - 1)
		enc.EncodeBit(&st[sp], 1) // end-of-block
	}
}
