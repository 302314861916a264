// Package encode produces JFIF streams for every frame type the
// generator can request: sequential and progressive, Huffman and
// arithmetic entropy coding, standard and frequency-optimized tables,
// arbitrary per-component sampling factors and restart intervals.
//
// The whole image is buffered before anything is written. Optimized
// Huffman coding needs a statistics pass over all coefficients and
// progressive frames visit them once per scan, so streaming would only
// help the plain sequential case.
package encode

import (
	"io"

	"github.com/cocosip/go-jpeg-fuzz/codec"
	"github.com/cocosip/go-jpeg-fuzz/jpeg/common"
)

type component struct {
	id byte
	h  int
	v  int
	tq int // quantization table slot
	td int // DC entropy table slot
	ta int // AC entropy table slot

	wBlocks int // block columns covering the component samples
	hBlocks int // block rows covering the component samples
	padW    int // block columns padded to a whole MCU
	padH    int // block rows padded to a whole MCU

	blocks [][64]int32 // quantized coefficients, natural order, row-major
}

// Encoder implements codec.Compressor.
type Encoder struct {
	w       io.Writer
	cfg     codec.Config
	started bool
	done    bool

	pixels []byte // interleaved RGB rows as received
	nrows  int

	comps        [3]component
	hMax, vMax   int
	mcusX, mcusY int
	quant        [2][64]int32 // natural order
}

// New returns a Compressor writing a JPEG stream to w.
func New(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

func (e *Encoder) Start(cfg codec.Config) error {
	if e.started {
		return common.ErrInvalidData
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.cfg = cfg
	e.started = true

	e.hMax, e.vMax = 1, 1
	for _, s := range cfg.Sampling {
		if s.H > e.hMax {
			e.hMax = s.H
		}
		if s.V > e.vMax {
			e.vMax = s.V
		}
	}
	e.mcusX = common.DivCeil(cfg.Width, 8*e.hMax)
	e.mcusY = common.DivCeil(cfg.Height, 8*e.vMax)

	for i := range e.comps {
		c := &e.comps[i]
		c.id = byte(i + 1)
		c.h = cfg.Sampling[i].H
		c.v = cfg.Sampling[i].V
		if i == 0 {
			c.tq, c.td, c.ta = 0, 0, 0
		} else {
			c.tq, c.td, c.ta = 1, 1, 1
		}
		compW := common.DivCeil(cfg.Width*c.h, e.hMax)
		compH := common.DivCeil(cfg.Height*c.v, e.vMax)
		c.wBlocks = common.DivCeil(compW, 8)
		c.hBlocks = common.DivCeil(compH, 8)
		c.padW = e.mcusX * c.h
		c.padH = e.mcusY * c.v
		c.blocks = make([][64]int32, c.padW*c.padH)
	}

	e.quant[0] = common.ScaleQuantTable(common.DefaultLuminanceQuantTable,
		cfg.Options.Quality, cfg.Options.ForceBaseline)
	e.quant[1] = common.ScaleQuantTable(common.DefaultChrominanceQuantTable,
		cfg.Options.Quality, cfg.Options.ForceBaseline)

	e.pixels = make([]byte, 0, cfg.Width*cfg.Height*3)
	return nil
}

func (e *Encoder) WriteScanline(row []byte) error {
	if !e.started || e.done {
		return common.ErrInvalidData
	}
	if len(row) < e.cfg.Width*3 {
		return common.ErrBufferTooSmall
	}
	if e.nrows >= e.cfg.Height {
		return common.ErrInvalidData
	}
	e.pixels = append(e.pixels, row[:e.cfg.Width*3]...)
	e.nrows++
	return nil
}

func (e *Encoder) Finish() error {
	if !e.started || e.done {
		return common.ErrInvalidData
	}
	if e.nrows < e.cfg.Height {
		return common.ErrInvalidData
	}
	e.done = true

	e.buildCoefficients()
	return e.writeStream()
}

// buildCoefficients runs the sample pipeline: color conversion,
// per-component downsampling, edge padding, forward DCT, quantization.
func (e *Encoder) buildCoefficients() {
	w, h := e.cfg.Width, e.cfg.Height

	planes := rgbToYCbCr(e.pixels, w, h)
	e.pixels = nil

	for i := range e.comps {
		c := &e.comps[i]
		compW := common.DivCeil(w*c.h, e.hMax)
		compH := common.DivCeil(h*c.v, e.vMax)

		plane := planes[i]
		if compW != w || compH != h {
			plane = downsample(plane, w, h, compW, compH)
		}

		padded, stride := padPlane(plane, compW, compH, c.padW*8, c.padH*8)

		var coef [64]int32
		for by := 0; by < c.padH; by++ {
			for bx := 0; bx < c.padW; bx++ {
				common.DCT(padded[(by*8)*stride+bx*8:], stride, coef[:])
				blk := &c.blocks[by*c.padW+bx]
				for k := 0; k < 64; k++ {
					blk[k] = common.DivRound(coef[k], e.quant[c.tq][k])
				}
			}
		}
	}
}

// rgbToYCbCr converts interleaved RGB to three full-resolution planes
// using the fixed-point BT.601 coefficients.
func rgbToYCbCr(pix []byte, w, h int) [3][]byte {
	var planes [3][]byte
	for i := range planes {
		planes[i] = make([]byte, w*h)
	}
	n := w * h
	for i := 0; i < n; i++ {
		r := int32(pix[i*3])
		g := int32(pix[i*3+1])
		b := int32(pix[i*3+2])

		y := (19595*r + 38470*g + 7471*b + 32768) >> 16
		cb := (-11056*r - 21712*g + 32768*b + 32768) >> 16
		cr := (32768*r - 27440*g - 5328*b + 32768) >> 16

		planes[0][i] = byte(y)
		planes[1][i] = clampByte(cb + 128)
		planes[2][i] = clampByte(cr + 128)
	}
	return planes
}

func clampByte(v int32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// downsample reduces a plane with a box filter. Sampling factor ratios
// are usually integral but nothing in the frame header requires that,
// so each destination pixel averages its exact source footprint.
func downsample(src []byte, srcW, srcH, dstW, dstH int) []byte {
	dst := make([]byte, dstW*dstH)
	for y := 0; y < dstH; y++ {
		sy0 := y * srcH / dstH
		sy1 := (y + 1) * srcH / dstH
		if sy1 <= sy0 {
			sy1 = sy0 + 1
		}
		for x := 0; x < dstW; x++ {
			sx0 := x * srcW / dstW
			sx1 := (x + 1) * srcW / dstW
			if sx1 <= sx0 {
				sx1 = sx0 + 1
			}
			sum, n := 0, 0
			for sy := sy0; sy < sy1 && sy < srcH; sy++ {
				for sx := sx0; sx < sx1 && sx < srcW; sx++ {
					sum += int(src[sy*srcW+sx])
					n++
				}
			}
			dst[y*dstW+x] = byte((sum + n/2) / n)
		}
	}
	return dst
}

// padPlane replicates the right and bottom edges out to full MCU
// coverage so partial blocks compress without ringing from garbage.
func padPlane(plane []byte, w, h, padW, padH int) ([]byte, int) {
	if w == padW && h == padH {
		return plane, w
	}
	out := make([]byte, padW*padH)
	for y := 0; y < padH; y++ {
		sy := y
		if sy >= h {
			sy = h - 1
		}
		row := out[y*padW:]
		copy(row, plane[sy*w:sy*w+w])
		edge := row[w-1]
		for x := w; x < padW; x++ {
			row[x] = edge
		}
	}
	return out, padW
}

// anyQuant16 reports whether a quantization table needs 16-bit DQT
// precision.
func (e *Encoder) anyQuant16() bool {
	for t := 0; t < 2; t++ {
		for _, v := range e.quant[t] {
			if v > 255 {
				return true
			}
		}
	}
	return false
}

// sofMarker picks the frame type implied by the options.
func (e *Encoder) sofMarker() uint16 {
	opts := e.cfg.Options
	switch {
	case opts.Arithmetic && opts.Progressive:
		return common.MarkerSOF10
	case opts.Arithmetic:
		return common.MarkerSOF9
	case opts.Progressive:
		return common.MarkerSOF2
	case e.anyQuant16():
		return common.MarkerSOF1
	default:
		return common.MarkerSOF0
	}
}

// scanScript returns the scans of the frame. Progressive frames use a
// pure spectral-selection script: one interleaved DC scan, then two AC
// band scans per component.
func (e *Encoder) scanScript() []scanSpec {
	if !e.cfg.Options.Progressive {
		return []scanSpec{{comps: []int{0, 1, 2}, ss: 0, se: 63}}
	}
	scans := []scanSpec{{comps: []int{0, 1, 2}, ss: 0, se: 0}}
	for c := 0; c < 3; c++ {
		scans = append(scans,
			scanSpec{comps: []int{c}, ss: 1, se: 5},
			scanSpec{comps: []int{c}, ss: 6, se: 63},
		)
	}
	return scans
}

// scanSpec describes one SOS segment: the participating components (as
// indices into the frame component list) and the spectral band.
type scanSpec struct {
	comps  []int
	ss, se int
}

// interleaved reports whether the scan uses the multi-block MCU
// structure. Single-component scans code one block per MCU over the
// component's own block grid.
func (s scanSpec) interleaved() bool {
	return len(s.comps) > 1
}

// visitScan walks the blocks of a scan in coding order. Interleaved
// scans iterate whole MCUs over the padded block grid; single-component
// scans iterate the component's own blocks, which is also the unit the
// restart interval counts there. atRestart fires between units at each
// interval boundary.
func (e *Encoder) visitScan(s scanSpec, atRestart func(n int), visit func(ci int, blk *[64]int32)) {
	ri := e.cfg.Options.RestartInterval
	unitsDone, nextRST := 0, 0

	boundary := func() {
		if ri > 0 && unitsDone == ri {
			atRestart(nextRST)
			nextRST = (nextRST + 1) & 7
			unitsDone = 0
		}
	}

	if s.interleaved() {
		for my := 0; my < e.mcusY; my++ {
			for mx := 0; mx < e.mcusX; mx++ {
				boundary()
				for _, ci := range s.comps {
					c := &e.comps[ci]
					for by := 0; by < c.v; by++ {
						for bx := 0; bx < c.h; bx++ {
							visit(ci, &c.blocks[(my*c.v+by)*c.padW+mx*c.h+bx])
						}
					}
				}
				unitsDone++
			}
		}
		return
	}

	ci := s.comps[0]
	c := &e.comps[ci]
	for by := 0; by < c.hBlocks; by++ {
		for bx := 0; bx < c.wBlocks; bx++ {
			boundary()
			visit(ci, &c.blocks[by*c.padW+bx])
			unitsDone++
		}
	}
}

func (e *Encoder) writeStream() error {
	m := newMarkerWriter(e.w)
	m.soi()
	m.app0JFIF()

	use16 := e.anyQuant16()
	m.dqt(0, e.quant[0], use16)
	m.dqt(1, e.quant[1], use16)

	m.sof(e.sofMarker(), e.cfg.Width, e.cfg.Height, e.comps[:])

	if e.cfg.Options.RestartInterval > 0 {
		m.dri(e.cfg.Options.RestartInterval)
	}

	var err error
	if e.cfg.Options.Arithmetic {
		m.dac()
		if err = m.err; err == nil {
			err = e.writeArithScans(m)
		}
	} else {
		err = e.writeHuffmanScans(m)
	}
	if err != nil {
		return err
	}

	m.eoi()
	return m.err
}
