package encode

import (
	"github.com/cocosip/go-jpeg-fuzz/jpeg/common"
)

// huffSink receives the symbol stream of a Huffman scan. One
// implementation writes entropy-coded bits, the other only counts
// symbol frequencies for the optimization pass. Both see the exact
// same traversal, restarts included, so the gathered statistics match
// what the writing pass will emit.
type huffSink interface {
	sym(class, tbl int, s byte)
	extra(bits uint32, n int)
	restart(n int)
	finishScan()
}

type huffWriter struct {
	m      *markerWriter
	bw     *common.BitWriter
	codes  [2][2][]common.HuffmanCode
	encErr error
}

func newHuffWriter(m *markerWriter, tables [2][2]*common.HuffmanTable) *huffWriter {
	w := &huffWriter{m: m, bw: common.NewBitWriter(m.w)}
	for class := 0; class < 2; class++ {
		for tbl := 0; tbl < 2; tbl++ {
			w.codes[class][tbl] = common.BuildHuffmanCodes(tables[class][tbl])
		}
	}
	return w
}

func (w *huffWriter) sym(class, tbl int, s byte) {
	c := w.codes[class][tbl][s]
	if err := w.bw.WriteBits(uint32(c.Code), c.Len); err != nil && w.encErr == nil {
		w.encErr = err
	}
}

func (w *huffWriter) extra(bits uint32, n int) {
	if n == 0 {
		return
	}
	if err := w.bw.WriteBits(bits, n); err != nil && w.encErr == nil {
		w.encErr = err
	}
}

func (w *huffWriter) restart(n int) {
	if err := w.bw.FlushAlign(); err != nil && w.encErr == nil {
		w.encErr = err
	}
	w.m.rst(n)
}

func (w *huffWriter) finishScan() {
	if err := w.bw.FlushAlign(); err != nil && w.encErr == nil {
		w.encErr = err
	}
}

type huffCounter struct {
	freq [2][2][257]int64
}

func (c *huffCounter) sym(class, tbl int, s byte) { c.freq[class][tbl][s]++ }
func (c *huffCounter) extra(bits uint32, n int)   {}
func (c *huffCounter) restart(n int)              {}
func (c *huffCounter) finishScan()                {}

func (e *Encoder) writeHuffmanScans(m *markerWriter) error {
	scans := e.scanScript()

	var tables [2][2]*common.HuffmanTable
	if e.cfg.Options.OptimizeCoding {
		counter := &huffCounter{}
		for _, s := range scans {
			e.runHuffmanScan(s, counter)
		}
		for class := 0; class < 2; class++ {
			for tbl := 0; tbl < 2; tbl++ {
				tables[class][tbl] = common.BuildOptimalTable(counter.freq[class][tbl])
			}
		}
	} else {
		tables[0][0] = common.MustBuildHuffmanTable(
			common.StandardDCLuminanceBits, common.StandardDCLuminanceValues)
		tables[0][1] = common.MustBuildHuffmanTable(
			common.StandardDCChrominanceBits, common.StandardDCChrominanceValues)
		tables[1][0] = common.MustBuildHuffmanTable(
			common.StandardACLuminanceBits, common.StandardACLuminanceValues)
		tables[1][1] = common.MustBuildHuffmanTable(
			common.StandardACChrominanceBits, common.StandardACChrominanceValues)
	}

	m.dht(0, 0, tables[0][0])
	m.dht(1, 0, tables[1][0])
	m.dht(0, 1, tables[0][1])
	m.dht(1, 1, tables[1][1])

	for _, s := range scans {
		m.sos(e.comps[:], s.comps, s.ss, s.se)
		w := newHuffWriter(m, tables)
		e.runHuffmanScan(s, w)
		if w.encErr != nil {
			return w.encErr
		}
		if m.err != nil {
			return m.err
		}
	}
	return nil
}

// runHuffmanScan feeds the scan's symbol stream to sink. DC predictors
// reset at every restart boundary.
func (e *Encoder) runHuffmanScan(s scanSpec, sink huffSink) {
	var preds [3]int32
	e.visitScan(s,
		func(n int) {
			sink.restart(n)
			preds = [3]int32{}
		},
		func(ci int, blk *[64]int32) {
			c := &e.comps[ci]
			if s.ss == 0 {
				encodeDC(sink, c, blk, &preds[ci])
			}
			if s.se >= 1 {
				encodeACBand(sink, c, blk, maxInt(s.ss, 1), s.se)
			}
		})
	sink.finishScan()
}

func encodeDC(sink huffSink, c *component, blk *[64]int32, pred *int32) {
	diff := blk[0] - *pred
	*pred = blk[0]
	cat, bits := common.EncodeCategory(int(diff))
	sink.sym(0, c.td, byte(cat))
	sink.extra(bits, cat)
}

// encodeACBand emits the run-length coded coefficients of one zig-zag
// band. A trailing zero run becomes a single end-of-band symbol.
func encodeACBand(sink huffSink, c *component, blk *[64]int32, ss, se int) {
	run := 0
	for k := ss; k <= se; k++ {
		v := blk[common.ZigZag[k]]
		if v == 0 {
			run++
			continue
		}
		for run > 15 {
			sink.sym(1, c.ta, 0xF0)
			run -= 16
		}
		cat, bits := common.EncodeCategory(int(v))
		sink.sym(1, c.ta, byte(run<<4|cat))
		sink.extra(bits, cat)
		run = 0
	}
	if run > 0 {
		sink.sym(1, c.ta, 0x00)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
