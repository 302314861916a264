package encode

import (
	"io"

	"github.com/cocosip/go-jpeg-fuzz/jpeg/common"
)

// markerWriter emits marker segments, keeping the first write error.
type markerWriter struct {
	w   io.Writer
	err error
}

func newMarkerWriter(w io.Writer) *markerWriter {
	return &markerWriter{w: w}
}

func (m *markerWriter) write(p []byte) {
	if m.err != nil {
		return
	}
	_, m.err = m.w.Write(p)
}

func (m *markerWriter) marker(marker uint16) {
	m.write([]byte{byte(marker >> 8), byte(marker)})
}

// segment writes a marker followed by its payload with the two length
// bytes that count themselves.
func (m *markerWriter) segment(marker uint16, payload []byte) {
	n := len(payload) + 2
	m.write([]byte{byte(marker >> 8), byte(marker), byte(n >> 8), byte(n)})
	m.write(payload)
}

func (m *markerWriter) soi() { m.marker(common.MarkerSOI) }
func (m *markerWriter) eoi() { m.marker(common.MarkerEOI) }

func (m *markerWriter) app0JFIF() {
	m.segment(common.MarkerAPP0, []byte{
		'J', 'F', 'I', 'F', 0,
		1, 1, // version 1.1
		0,    // aspect ratio units
		0, 1, // x density
		0, 1, // y density
		0, 0, // no thumbnail
	})
}

// dqt writes one quantization table in zig-zag order. With use16 the
// whole frame switches to 16-bit table precision so both tables agree.
func (m *markerWriter) dqt(tq int, table [64]int32, use16 bool) {
	var payload []byte
	if use16 {
		payload = make([]byte, 1+128)
		payload[0] = 1<<4 | byte(tq)
		for i := 0; i < 64; i++ {
			v := table[common.ZigZag[i]]
			payload[1+2*i] = byte(v >> 8)
			payload[2+2*i] = byte(v)
		}
	} else {
		payload = make([]byte, 1+64)
		payload[0] = byte(tq)
		for i := 0; i < 64; i++ {
			payload[1+i] = byte(table[common.ZigZag[i]])
		}
	}
	m.segment(common.MarkerDQT, payload)
}

func (m *markerWriter) sof(marker uint16, width, height int, comps []component) {
	payload := make([]byte, 6+3*len(comps))
	payload[0] = 8 // sample precision
	payload[1] = byte(height >> 8)
	payload[2] = byte(height)
	payload[3] = byte(width >> 8)
	payload[4] = byte(width)
	payload[5] = byte(len(comps))
	for i := range comps {
		payload[6+3*i] = comps[i].id
		payload[7+3*i] = byte(comps[i].h<<4 | comps[i].v)
		payload[8+3*i] = byte(comps[i].tq)
	}
	m.segment(marker, payload)
}

func (m *markerWriter) dht(class, id int, table *common.HuffmanTable) {
	payload := make([]byte, 0, 17+len(table.Values))
	payload = append(payload, byte(class<<4|id))
	for _, n := range table.Bits {
		payload = append(payload, byte(n))
	}
	payload = append(payload, table.Values...)
	m.segment(common.MarkerDHT, payload)
}

// dac writes the arithmetic conditioning for all four table slots:
// DC conditioning L=0, U=1 and AC conditioning Kx=5, the T.81 defaults.
func (m *markerWriter) dac() {
	m.segment(common.MarkerDAC, []byte{
		0x00, 0x10,
		0x01, 0x10,
		0x10, 0x05,
		0x11, 0x05,
	})
}

func (m *markerWriter) dri(interval int) {
	m.segment(common.MarkerDRI, []byte{byte(interval >> 8), byte(interval)})
}

func (m *markerWriter) sos(comps []component, idx []int, ss, se int) {
	payload := make([]byte, 0, 4+2*len(idx))
	payload = append(payload, byte(len(idx)))
	for _, ci := range idx {
		c := &comps[ci]
		payload = append(payload, c.id, byte(c.td<<4|c.ta))
	}
	payload = append(payload, byte(ss), byte(se), 0)
	m.segment(common.MarkerSOS, payload)
}

func (m *markerWriter) rst(n int) {
	m.marker(common.MarkerRST0 + uint16(n&7))
}
