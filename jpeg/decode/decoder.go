// Package decode reads back every stream the encoder can produce, plus
// the common interchange variants: baseline and extended sequential,
// progressive with spectral selection and successive approximation,
// Huffman or arithmetic entropy coding, restart markers, grayscale or
// YCbCr color. Arithmetic successive-approximation refinement scans are
// the one progressive variant not handled.
package decode

import (
	"github.com/cocosip/go-jpeg-fuzz/codec"
	"github.com/cocosip/go-jpeg-fuzz/jpeg/common"
)

type component struct {
	id byte
	h  int
	v  int
	tq int

	// Entropy table slots, reassigned by each SOS naming the component.
	td int
	ta int

	wBlocks int
	hBlocks int
	padW    int
	padH    int

	blocks [][64]int32 // natural order, row-major over the padded grid
}

type dcConditioning struct {
	low  int // L: lower magnitude threshold
	high int // U: upper magnitude threshold
}

type decoder struct {
	data []byte
	pos  int

	width       int
	height      int
	progressive bool
	arithmetic  bool
	frameSeen   bool
	scanSeen    bool

	comps []component

	hMax  int
	vMax  int
	mcusX int
	mcusY int

	quant   [4][64]int32
	hasQT   [4]bool
	huff    [2][4]*common.HuffmanTable
	dcCond  [4]dcConditioning
	acCond  [4]int // Kx

	restartInterval int

	// Progressive Huffman state, valid within one scan.
	eobRun int
}

// Decode decodes a complete JPEG stream to interleaved pixels.
func Decode(data []byte) (*codec.DecodeResult, error) {
	d := newDecoder(data)
	if err := d.parse(); err != nil {
		return nil, err
	}
	return d.reconstruct()
}

// ReadCoefficients decodes the entropy-coded segments of a complete
// stream and returns the quantized coefficients without dequantization
// or the inverse transform.
func ReadCoefficients(data []byte) (*codec.CoefficientData, error) {
	d := newDecoder(data)
	if err := d.parse(); err != nil {
		return nil, err
	}
	out := &codec.CoefficientData{}
	for i := range d.comps {
		c := &d.comps[i]
		cc := codec.ComponentCoefficients{
			ID:             c.id,
			WidthInBlocks:  c.wBlocks,
			HeightInBlocks: c.hBlocks,
			Blocks:         make([][64]int32, c.wBlocks*c.hBlocks),
		}
		for by := 0; by < c.hBlocks; by++ {
			for bx := 0; bx < c.wBlocks; bx++ {
				cc.Blocks[by*c.wBlocks+bx] = c.blocks[by*c.padW+bx]
			}
		}
		out.Components = append(out.Components, cc)
	}
	return out, nil
}

func newDecoder(data []byte) *decoder {
	d := &decoder{data: data}
	for i := range d.dcCond {
		d.dcCond[i] = dcConditioning{low: 0, high: 1}
		d.acCond[i] = 5
	}
	return d
}

func (d *decoder) remaining() int {
	return len(d.data) - d.pos
}

func (d *decoder) readUint16() (int, error) {
	if d.remaining() < 2 {
		return 0, common.ErrUnexpectedEOF
	}
	v := int(d.data[d.pos])<<8 | int(d.data[d.pos+1])
	d.pos += 2
	return v, nil
}

// nextMarker skips fill bytes and returns the next marker code with pos
// just past it.
func (d *decoder) nextMarker() (uint16, error) {
	for d.remaining() >= 2 {
		if d.data[d.pos] != 0xFF {
			return 0, common.ErrInvalidMarker
		}
		p := d.pos + 1
		for p < len(d.data) && d.data[p] == 0xFF {
			p++
		}
		if p >= len(d.data) {
			return 0, common.ErrUnexpectedEOF
		}
		if d.data[p] == 0x00 {
			return 0, common.ErrInvalidMarker
		}
		d.pos = p + 1
		return 0xFF00 | uint16(d.data[p]), nil
	}
	return 0, common.ErrUnexpectedEOF
}

// segment returns the payload of a length-prefixed marker segment and
// advances past it.
func (d *decoder) segment() ([]byte, error) {
	n, err := d.readUint16()
	if err != nil {
		return nil, err
	}
	if n < 2 || d.remaining() < n-2 {
		return nil, common.ErrUnexpectedEOF
	}
	payload := d.data[d.pos : d.pos+n-2]
	d.pos += n - 2
	return payload, nil
}

func (d *decoder) parse() error {
	first, err := d.readUint16()
	if err != nil {
		return err
	}
	if uint16(first) != common.MarkerSOI {
		return common.ErrInvalidSOI
	}

	for {
		marker, err := d.nextMarker()
		if err != nil {
			return err
		}

		switch {
		case marker == common.MarkerEOI:
			if !d.scanSeen {
				return common.ErrInvalidData
			}
			return nil

		case marker == common.MarkerSOF0 || marker == common.MarkerSOF1 ||
			marker == common.MarkerSOF2 || marker == common.MarkerSOF9 ||
			marker == common.MarkerSOF10:
			if err := d.parseSOF(marker); err != nil {
				return err
			}

		case common.IsSOF(marker):
			return common.ErrUnsupportedFormat

		case marker == common.MarkerDQT:
			if err := d.parseDQT(); err != nil {
				return err
			}

		case marker == common.MarkerDHT:
			if err := d.parseDHT(); err != nil {
				return err
			}

		case marker == common.MarkerDAC:
			if err := d.parseDAC(); err != nil {
				return err
			}

		case marker == common.MarkerDRI:
			if err := d.parseDRI(); err != nil {
				return err
			}

		case marker == common.MarkerSOS:
			if err := d.decodeScan(); err != nil {
				return err
			}

		case common.IsAPP(marker) || marker == common.MarkerCOM:
			if _, err := d.segment(); err != nil {
				return err
			}

		case common.IsRST(marker):
			return common.ErrInvalidMarker

		default:
			if !common.HasLength(marker) {
				return common.ErrInvalidMarker
			}
			if _, err := d.segment(); err != nil {
				return err
			}
		}
	}
}

func (d *decoder) parseSOF(marker uint16) error {
	if d.frameSeen {
		return common.ErrInvalidSOF
	}
	payload, err := d.segment()
	if err != nil {
		return err
	}
	if len(payload) < 6 {
		return common.ErrInvalidSOF
	}
	if payload[0] != 8 {
		return common.ErrUnsupportedFormat
	}
	d.height = int(payload[1])<<8 | int(payload[2])
	d.width = int(payload[3])<<8 | int(payload[4])
	ncomp := int(payload[5])
	if d.width < 1 || d.height < 1 {
		return common.ErrInvalidDimensions
	}
	if ncomp < 1 || ncomp > 4 || len(payload) != 6+3*ncomp {
		return common.ErrInvalidComponents
	}

	d.progressive = marker == common.MarkerSOF2 || marker == common.MarkerSOF10
	d.arithmetic = marker == common.MarkerSOF9 || marker == common.MarkerSOF10

	d.comps = make([]component, ncomp)
	d.hMax, d.vMax = 1, 1
	for i := range d.comps {
		c := &d.comps[i]
		c.id = payload[6+3*i]
		c.h = int(payload[7+3*i] >> 4)
		c.v = int(payload[7+3*i] & 0x0F)
		c.tq = int(payload[8+3*i])
		if c.h < 1 || c.h > 4 || c.v < 1 || c.v > 4 {
			return common.ErrInvalidSampling
		}
		if c.tq > 3 {
			return common.ErrInvalidSOF
		}
		if c.h > d.hMax {
			d.hMax = c.h
		}
		if c.v > d.vMax {
			d.vMax = c.v
		}
	}

	d.mcusX = common.DivCeil(d.width, 8*d.hMax)
	d.mcusY = common.DivCeil(d.height, 8*d.vMax)
	for i := range d.comps {
		c := &d.comps[i]
		compW := common.DivCeil(d.width*c.h, d.hMax)
		compH := common.DivCeil(d.height*c.v, d.vMax)
		c.wBlocks = common.DivCeil(compW, 8)
		c.hBlocks = common.DivCeil(compH, 8)
		c.padW = d.mcusX * c.h
		c.padH = d.mcusY * c.v
		c.blocks = make([][64]int32, c.padW*c.padH)
	}

	d.frameSeen = true
	return nil
}

func (d *decoder) parseDQT() error {
	payload, err := d.segment()
	if err != nil {
		return err
	}
	for len(payload) > 0 {
		prec := int(payload[0] >> 4)
		tq := int(payload[0] & 0x0F)
		if tq > 3 || prec > 1 {
			return common.ErrInvalidDQT
		}
		n := 65
		if prec == 1 {
			n = 129
		}
		if len(payload) < n {
			return common.ErrInvalidDQT
		}
		for i := 0; i < 64; i++ {
			var v int32
			if prec == 1 {
				v = int32(payload[1+2*i])<<8 | int32(payload[2+2*i])
			} else {
				v = int32(payload[1+i])
			}
			if v == 0 {
				return common.ErrInvalidDQT
			}
			d.quant[tq][common.ZigZag[i]] = v
		}
		d.hasQT[tq] = true
		payload = payload[n:]
	}
	return nil
}

func (d *decoder) parseDHT() error {
	payload, err := d.segment()
	if err != nil {
		return err
	}
	for len(payload) > 0 {
		if len(payload) < 17 {
			return common.ErrInvalidDHT
		}
		class := int(payload[0] >> 4)
		id := int(payload[0] & 0x0F)
		if class > 1 || id > 3 {
			return common.ErrInvalidDHT
		}
		table := &common.HuffmanTable{}
		total := 0
		for i := 0; i < 16; i++ {
			table.Bits[i] = int(payload[1+i])
			total += table.Bits[i]
		}
		if total > 256 || len(payload) < 17+total {
			return common.ErrInvalidDHT
		}
		table.Values = append([]byte(nil), payload[17:17+total]...)
		if err := table.Build(); err != nil {
			return err
		}
		d.huff[class][id] = table
		payload = payload[17+total:]
	}
	return nil
}

func (d *decoder) parseDAC() error {
	payload, err := d.segment()
	if err != nil {
		return err
	}
	if len(payload)%2 != 0 {
		return common.ErrInvalidDAC
	}
	for i := 0; i < len(payload); i += 2 {
		class := int(payload[i] >> 4)
		id := int(payload[i] & 0x0F)
		v := int(payload[i+1])
		if id > 3 {
			return common.ErrInvalidDAC
		}
		switch class {
		case 0:
			low := v & 0x0F
			high := v >> 4
			if high < low || high > 15 {
				return common.ErrInvalidDAC
			}
			d.dcCond[id] = dcConditioning{low: low, high: high}
		case 1:
			if v < 1 || v > 63 {
				return common.ErrInvalidDAC
			}
			d.acCond[id] = v
		default:
			return common.ErrInvalidDAC
		}
	}
	return nil
}

func (d *decoder) parseDRI() error {
	payload, err := d.segment()
	if err != nil {
		return err
	}
	if len(payload) != 2 {
		return common.ErrInvalidDRI
	}
	d.restartInterval = int(payload[0])<<8 | int(payload[1])
	return nil
}

// scanHeader is the decoded SOS segment.
type scanHeader struct {
	comps  []int // indices into d.comps
	ss, se int
	ah, al int
}

func (s *scanHeader) interleaved() bool {
	return len(s.comps) > 1
}

func (d *decoder) parseSOS() (*scanHeader, error) {
	if !d.frameSeen {
		return nil, common.ErrInvalidSOS
	}
	payload, err := d.segment()
	if err != nil {
		return nil, err
	}
	if len(payload) < 1 {
		return nil, common.ErrInvalidSOS
	}
	ns := int(payload[0])
	if ns < 1 || ns > 4 || len(payload) != 4+2*ns {
		return nil, common.ErrInvalidSOS
	}

	hdr := &scanHeader{}
	blocks := 0
	for i := 0; i < ns; i++ {
		id := payload[1+2*i]
		found := -1
		for ci := range d.comps {
			if d.comps[ci].id == id {
				found = ci
				break
			}
		}
		if found < 0 {
			return nil, common.ErrInvalidSOS
		}
		c := &d.comps[found]
		c.td = int(payload[2+2*i] >> 4)
		c.ta = int(payload[2+2*i] & 0x0F)
		if c.td > 3 || c.ta > 3 {
			return nil, common.ErrInvalidSOS
		}
		hdr.comps = append(hdr.comps, found)
		blocks += c.h * c.v
	}
	if ns > 1 && blocks > codec.MaxBlocksPerMCU {
		return nil, common.ErrInvalidSOS
	}

	hdr.ss = int(payload[1+2*ns])
	hdr.se = int(payload[2+2*ns])
	hdr.ah = int(payload[3+2*ns] >> 4)
	hdr.al = int(payload[3+2*ns] & 0x0F)

	if d.progressive {
		if hdr.ss > 63 || hdr.se > 63 || hdr.se < hdr.ss {
			return nil, common.ErrInvalidSOS
		}
		if hdr.ss == 0 && hdr.se != 0 {
			return nil, common.ErrInvalidSOS
		}
		if hdr.ss > 0 && len(hdr.comps) != 1 {
			return nil, common.ErrInvalidSOS
		}
		if hdr.ah > 13 || hdr.al > 13 {
			return nil, common.ErrInvalidSOS
		}
	} else {
		// Sequential scans always cover the full band.
		if hdr.ss != 0 || hdr.se != 63 || hdr.ah != 0 || hdr.al != 0 {
			return nil, common.ErrInvalidSOS
		}
	}
	return hdr, nil
}

func (d *decoder) decodeScan() error {
	hdr, err := d.parseSOS()
	if err != nil {
		return err
	}
	d.eobRun = 0

	if d.arithmetic {
		err = d.decodeArithScan(hdr)
	} else {
		err = d.decodeHuffmanScan(hdr)
	}
	if err != nil {
		return err
	}
	d.scanSeen = true
	return nil
}

// visitScan walks the scan's blocks in coding order, firing atRestart
// between restart-interval units. The visitor may abort the walk by
// returning an error.
func (d *decoder) visitScan(hdr *scanHeader, atRestart func(n int) error, visit func(ci int, blk *[64]int32) error) error {
	ri := d.restartInterval
	unitsDone, nextRST := 0, 0

	boundary := func() error {
		if ri > 0 && unitsDone == ri {
			if err := atRestart(nextRST); err != nil {
				return err
			}
			nextRST = (nextRST + 1) & 7
			unitsDone = 0
		}
		return nil
	}

	if hdr.interleaved() {
		for my := 0; my < d.mcusY; my++ {
			for mx := 0; mx < d.mcusX; mx++ {
				if err := boundary(); err != nil {
					return err
				}
				for _, ci := range hdr.comps {
					c := &d.comps[ci]
					for by := 0; by < c.v; by++ {
						for bx := 0; bx < c.h; bx++ {
							if err := visit(ci, &c.blocks[(my*c.v+by)*c.padW+mx*c.h+bx]); err != nil {
								return err
							}
						}
					}
				}
				unitsDone++
			}
		}
		return nil
	}

	ci := hdr.comps[0]
	c := &d.comps[ci]
	for by := 0; by < c.hBlocks; by++ {
		for bx := 0; bx < c.wBlocks; bx++ {
			if err := boundary(); err != nil {
				return err
			}
			if err := visit(ci, &c.blocks[by*c.padW+bx]); err != nil {
				return err
			}
			unitsDone++
		}
	}
	return nil
}
