package decode

import (
	"github.com/cocosip/go-jpeg-fuzz/jpeg/common"
)

func (d *decoder) huffTable(class, id int) (*common.HuffmanTable, error) {
	t := d.huff[class][id]
	if t == nil {
		return nil, common.ErrInvalidDHT
	}
	return t, nil
}

func (d *decoder) decodeHuffmanScan(hdr *scanHeader) error {
	br := common.NewBitReader(d.data, d.pos)
	var preds [4]int32

	atRestart := func(n int) error {
		if err := br.ExpectRestart(n); err != nil {
			return err
		}
		preds = [4]int32{}
		d.eobRun = 0
		return nil
	}

	var visit func(ci int, blk *[64]int32) error
	switch {
	case !d.progressive:
		visit = func(ci int, blk *[64]int32) error {
			return d.huffSequentialBlock(br, ci, blk, &preds[ci])
		}
	case hdr.ss == 0 && hdr.ah == 0:
		visit = func(ci int, blk *[64]int32) error {
			return d.huffDCFirst(br, ci, blk, &preds[ci], hdr.al)
		}
	case hdr.ss == 0:
		visit = func(ci int, blk *[64]int32) error {
			return d.huffDCRefine(br, blk, hdr.al)
		}
	case hdr.ah == 0:
		visit = func(ci int, blk *[64]int32) error {
			return d.huffACFirst(br, ci, blk, hdr)
		}
	default:
		visit = func(ci int, blk *[64]int32) error {
			return d.huffACRefine(br, ci, blk, hdr)
		}
	}

	if err := d.visitScan(hdr, atRestart, visit); err != nil {
		return err
	}

	// Resync to the marker that terminates the entropy segment.
	m, err := br.NextMarker()
	if err != nil {
		return err
	}
	d.pos = br.Pos()
	if common.IsRST(m) {
		// Trailing restart before the next marker, tolerated.
		m, err = br.NextMarker()
		if err != nil {
			return err
		}
		d.pos = br.Pos()
	}
	d.pos -= 2 // leave the terminating marker for the segment loop
	return nil
}

func (d *decoder) huffSequentialBlock(br *common.BitReader, ci int, blk *[64]int32, pred *int32) error {
	c := &d.comps[ci]
	dcTab, err := d.huffTable(0, c.td)
	if err != nil {
		return err
	}
	acTab, err := d.huffTable(1, c.ta)
	if err != nil {
		return err
	}

	s, err := br.Decode(dcTab)
	if err != nil {
		return err
	}
	if s > 15 {
		return common.ErrHuffmanDecode
	}
	if s > 0 {
		diff, err := br.ReceiveExtend(int(s))
		if err != nil {
			return err
		}
		*pred += int32(diff)
	}
	blk[0] = *pred

	for k := 1; k <= 63; {
		rs, err := br.Decode(acTab)
		if err != nil {
			return err
		}
		r, sz := int(rs>>4), int(rs&15)
		if sz == 0 {
			if r != 15 {
				break // end of block
			}
			k += 16
			continue
		}
		k += r
		if k > 63 {
			return common.ErrHuffmanDecode
		}
		v, err := br.ReceiveExtend(sz)
		if err != nil {
			return err
		}
		blk[common.ZigZag[k]] = int32(v)
		k++
	}
	return nil
}

func (d *decoder) huffDCFirst(br *common.BitReader, ci int, blk *[64]int32, pred *int32, al int) error {
	c := &d.comps[ci]
	dcTab, err := d.huffTable(0, c.td)
	if err != nil {
		return err
	}
	s, err := br.Decode(dcTab)
	if err != nil {
		return err
	}
	if s > 15 {
		return common.ErrHuffmanDecode
	}
	if s > 0 {
		diff, err := br.ReceiveExtend(int(s))
		if err != nil {
			return err
		}
		*pred += int32(diff)
	}
	blk[0] = *pred << uint(al)
	return nil
}

func (d *decoder) huffDCRefine(br *common.BitReader, blk *[64]int32, al int) error {
	bit, err := br.ReadBit()
	if err != nil {
		return err
	}
	if bit != 0 {
		blk[0] |= 1 << uint(al)
	}
	return nil
}

func (d *decoder) huffACFirst(br *common.BitReader, ci int, blk *[64]int32, hdr *scanHeader) error {
	if d.eobRun > 0 {
		d.eobRun--
		return nil
	}
	c := &d.comps[ci]
	acTab, err := d.huffTable(1, c.ta)
	if err != nil {
		return err
	}

	for k := hdr.ss; k <= hdr.se; {
		rs, err := br.Decode(acTab)
		if err != nil {
			return err
		}
		r, sz := int(rs>>4), int(rs&15)
		if sz == 0 {
			if r != 15 {
				d.eobRun = (1 << uint(r)) - 1
				if r > 0 {
					bits, err := br.ReadBits(r)
					if err != nil {
						return err
					}
					d.eobRun += int(bits)
				}
				break
			}
			k += 16
			continue
		}
		k += r
		if k > hdr.se {
			return common.ErrHuffmanDecode
		}
		v, err := br.ReceiveExtend(sz)
		if err != nil {
			return err
		}
		blk[common.ZigZag[k]] = int32(v) << uint(hdr.al)
		k++
	}
	return nil
}

// huffACRefine adds one successive-approximation bit to the band:
// correction bits for already-nonzero coefficients and at most one new
// ±1 per run symbol.
func (d *decoder) huffACRefine(br *common.BitReader, ci int, blk *[64]int32, hdr *scanHeader) error {
	c := &d.comps[ci]
	acTab, err := d.huffTable(1, c.ta)
	if err != nil {
		return err
	}

	p1 := int32(1) << uint(hdr.al)
	m1 := int32(-1) << uint(hdr.al)

	correct := func(coef *int32) error {
		bit, err := br.ReadBit()
		if err != nil {
			return err
		}
		if bit != 0 && *coef&p1 == 0 {
			if *coef >= 0 {
				*coef += p1
			} else {
				*coef += m1
			}
		}
		return nil
	}

	k := hdr.ss
	if d.eobRun == 0 {
		for ; k <= hdr.se; k++ {
			rs, err := br.Decode(acTab)
			if err != nil {
				return err
			}
			r, sz := int(rs>>4), int(rs&15)
			var newCoef int32
			if sz != 0 {
				if sz != 1 {
					return common.ErrHuffmanDecode
				}
				bit, err := br.ReadBit()
				if err != nil {
					return err
				}
				if bit != 0 {
					newCoef = p1
				} else {
					newCoef = m1
				}
			} else if r != 15 {
				d.eobRun = 1 << uint(r)
				if r > 0 {
					bits, err := br.ReadBits(r)
					if err != nil {
						return err
					}
					d.eobRun += int(bits)
				}
				break
			}

			// Advance over r still-zero coefficients, appending
			// correction bits to every nonzero one passed.
			for k <= hdr.se {
				coef := &blk[common.ZigZag[k]]
				if *coef != 0 {
					if err := correct(coef); err != nil {
						return err
					}
				} else {
					if r == 0 {
						break
					}
					r--
				}
				k++
			}
			if newCoef != 0 {
				if k > hdr.se {
					return common.ErrHuffmanDecode
				}
				blk[common.ZigZag[k]] = newCoef
			}
		}
	}

	if d.eobRun > 0 {
		for ; k <= hdr.se; k++ {
			coef := &blk[common.ZigZag[k]]
			if *coef != 0 {
				if err := correct(coef); err != nil {
					return err
				}
			}
		}
		d.eobRun--
	}
	return nil
}
