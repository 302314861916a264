package common

import (
	"bytes"
	"math"
	"math/rand"
	"testing"
)

func TestZigZagPermutation(t *testing.T) {
	var seen [64]bool
	for i, n := range ZigZag {
		if n < 0 || n > 63 {
			t.Fatalf("ZigZag[%d] = %d out of range", i, n)
		}
		if seen[n] {
			t.Fatalf("ZigZag[%d] = %d repeated", i, n)
		}
		seen[n] = true
	}
	// Scan order starts across the first row, then down.
	if ZigZag[0] != 0 || ZigZag[1] != 1 || ZigZag[2] != 8 || ZigZag[63] != 63 {
		t.Errorf("unexpected scan order prefix: %d %d %d ... %d",
			ZigZag[0], ZigZag[1], ZigZag[2], ZigZag[63])
	}
}

func TestScaleQuantTable(t *testing.T) {
	mid := ScaleQuantTable(DefaultLuminanceQuantTable, 50, false)
	if mid != DefaultLuminanceQuantTable {
		t.Errorf("quality 50 should leave the base table unchanged")
	}

	coarse := ScaleQuantTable(DefaultLuminanceQuantTable, 5, false)
	fine := ScaleQuantTable(DefaultLuminanceQuantTable, 95, false)
	for i := 0; i < 64; i++ {
		if coarse[i] < mid[i] {
			t.Fatalf("quality 5 entry %d (%d) finer than quality 50 (%d)", i, coarse[i], mid[i])
		}
		if fine[i] > mid[i] {
			t.Fatalf("quality 95 entry %d (%d) coarser than quality 50 (%d)", i, fine[i], mid[i])
		}
		if fine[i] < 1 {
			t.Fatalf("entry %d below 1", i)
		}
	}

	// Quality 0 is drawn by the generator and must behave like 1.
	if ScaleQuantTable(DefaultLuminanceQuantTable, 0, true) != ScaleQuantTable(DefaultLuminanceQuantTable, 1, true) {
		t.Errorf("quality 0 and 1 should scale identically")
	}

	capped := ScaleQuantTable(DefaultLuminanceQuantTable, 1, true)
	uncapped := ScaleQuantTable(DefaultLuminanceQuantTable, 1, false)
	saw16 := false
	for i := 0; i < 64; i++ {
		if capped[i] > 255 {
			t.Fatalf("forceBaseline entry %d = %d exceeds 255", i, capped[i])
		}
		if uncapped[i] > 255 {
			saw16 = true
		}
	}
	if !saw16 {
		t.Errorf("quality 1 without baseline cap should need 16-bit entries")
	}
}

func TestStandardTablesBuild(t *testing.T) {
	cases := []struct {
		name   string
		bits   [16]int
		values []byte
	}{
		{"DC luminance", StandardDCLuminanceBits, StandardDCLuminanceValues},
		{"DC chrominance", StandardDCChrominanceBits, StandardDCChrominanceValues},
		{"AC luminance", StandardACLuminanceBits, StandardACLuminanceValues},
		{"AC chrominance", StandardACChrominanceBits, StandardACChrominanceValues},
	}
	for _, c := range cases {
		total := 0
		for _, n := range c.bits {
			total += n
		}
		if total != len(c.values) {
			t.Errorf("%s: bits total %d != %d values", c.name, total, len(c.values))
		}
		tbl := MustBuildHuffmanTable(c.bits, c.values)
		if tbl == nil {
			t.Fatalf("%s: build failed", c.name)
		}
	}
}

func TestBitWriterStuffing(t *testing.T) {
	var buf bytes.Buffer
	w := NewBitWriter(&buf)

	// Eight one-bits make 0xFF, which must be followed by a stuffed zero.
	if err := w.WriteBits(0xFF, 8); err != nil {
		t.Fatalf("WriteBits: %v", err)
	}
	if err := w.FlushAlign(); err != nil {
		t.Fatalf("FlushAlign: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0xFF, 0x00}) {
		t.Errorf("got % X, want FF 00", buf.Bytes())
	}
}

func TestBitWriterPadding(t *testing.T) {
	var buf bytes.Buffer
	w := NewBitWriter(&buf)
	if err := w.WriteBits(0x0, 1); err != nil {
		t.Fatalf("WriteBits: %v", err)
	}
	if err := w.FlushAlign(); err != nil {
		t.Fatalf("FlushAlign: %v", err)
	}
	// Partial bytes are padded with one-bits.
	if !bytes.Equal(buf.Bytes(), []byte{0x7F}) {
		t.Errorf("got % X, want 7F", buf.Bytes())
	}
}

func TestHuffmanRoundTrip(t *testing.T) {
	tbl := MustBuildHuffmanTable(StandardACLuminanceBits, StandardACLuminanceValues)
	codes := BuildHuffmanCodes(tbl)

	symbols := []byte{0x00, 0x01, 0x11, 0xF0, 0xFA, 0x04, 0x31}
	var buf bytes.Buffer
	w := NewBitWriter(&buf)
	for _, s := range symbols {
		c := codes[s]
		if c.Len == 0 {
			t.Fatalf("symbol %02X has no code", s)
		}
		if err := w.WriteBits(uint32(c.Code), c.Len); err != nil {
			t.Fatalf("WriteBits: %v", err)
		}
	}
	if err := w.FlushAlign(); err != nil {
		t.Fatalf("FlushAlign: %v", err)
	}

	r := NewBitReader(buf.Bytes(), 0)
	for i, want := range symbols {
		got, err := r.Decode(tbl)
		if err != nil {
			t.Fatalf("Decode symbol %d: %v", i, err)
		}
		if got != want {
			t.Errorf("symbol %d: got %02X, want %02X", i, got, want)
		}
	}
}

func TestEncodeCategoryReceiveExtend(t *testing.T) {
	for _, v := range []int{0, 1, -1, 2, -2, 3, -3, 127, -128, 255, -255, 1023, -1024, 32767, -32767} {
		cat, bits := EncodeCategory(v)
		if v == 0 {
			if cat != 0 {
				t.Fatalf("category of 0 = %d", cat)
			}
			continue
		}
		var buf bytes.Buffer
		w := NewBitWriter(&buf)
		if err := w.WriteBits(bits, cat); err != nil {
			t.Fatalf("WriteBits: %v", err)
		}
		if err := w.FlushAlign(); err != nil {
			t.Fatalf("FlushAlign: %v", err)
		}
		r := NewBitReader(buf.Bytes(), 0)
		got, err := r.ReceiveExtend(cat)
		if err != nil {
			t.Fatalf("ReceiveExtend(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("value %d: round-tripped to %d (category %d)", v, got, cat)
		}
	}
}

func TestBitReaderStopsAtMarker(t *testing.T) {
	// Entropy data followed by a marker: reads past the end yield zero
	// bits and never consume the marker.
	data := []byte{0xA5, 0xFF, 0xD9}
	r := NewBitReader(data, 0)
	v, err := r.ReadBits(8)
	if err != nil || v != 0xA5 {
		t.Fatalf("ReadBits: %v %x", err, v)
	}
	for i := 0; i < 16; i++ {
		bit, err := r.ReadBit()
		if err != nil {
			t.Fatalf("ReadBit after data: %v", err)
		}
		if bit != 0 {
			t.Errorf("expected zero fill at marker, got %d", bit)
		}
	}
	marker, err := r.NextMarker()
	if err != nil {
		t.Fatalf("NextMarker: %v", err)
	}
	if marker != MarkerEOI {
		t.Errorf("got marker %04X, want %04X", marker, MarkerEOI)
	}
}

func TestExpectRestart(t *testing.T) {
	data := []byte{0xFF, 0xD0, 0xFF, 0xD1}
	r := NewBitReader(data, 0)
	if err := r.ExpectRestart(0); err != nil {
		t.Fatalf("ExpectRestart(0): %v", err)
	}
	if err := r.ExpectRestart(1); err != nil {
		t.Fatalf("ExpectRestart(1): %v", err)
	}

	r = NewBitReader(data, 0)
	if err := r.ExpectRestart(3); err == nil {
		t.Errorf("expected mismatch error for wrong restart index")
	}
}

func TestBuildOptimalTable(t *testing.T) {
	var freq [257]int64
	// Skewed symbol population, as a DC scan would produce.
	freq[0] = 1000
	freq[1] = 500
	freq[2] = 200
	freq[3] = 40
	freq[4] = 10
	freq[5] = 1

	tbl := BuildOptimalTable(freq)
	if tbl == nil {
		t.Fatal("nil table")
	}

	present := map[byte]bool{}
	for _, v := range tbl.Values {
		present[v] = true
	}
	for s := byte(0); s <= 5; s++ {
		if !present[s] {
			t.Errorf("symbol %d missing from optimal table", s)
		}
	}

	codes := BuildHuffmanCodes(tbl)
	if codes[0].Len == 0 || codes[5].Len == 0 {
		t.Fatal("missing code assignments")
	}
	if codes[0].Len > codes[5].Len {
		t.Errorf("most frequent symbol got a longer code (%d) than the rarest (%d)",
			codes[0].Len, codes[5].Len)
	}

	// The table must decode its own codes.
	var buf bytes.Buffer
	w := NewBitWriter(&buf)
	for s := byte(0); s <= 5; s++ {
		if err := w.WriteBits(uint32(codes[s].Code), codes[s].Len); err != nil {
			t.Fatalf("WriteBits: %v", err)
		}
	}
	if err := w.FlushAlign(); err != nil {
		t.Fatalf("FlushAlign: %v", err)
	}
	r := NewBitReader(buf.Bytes(), 0)
	for s := byte(0); s <= 5; s++ {
		got, err := r.Decode(tbl)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got != s {
			t.Errorf("decoded %d, want %d", got, s)
		}
	}
}

func TestBuildOptimalTableDense(t *testing.T) {
	// All 256 symbols in use forces the 16-bit length adjustment.
	var freq [257]int64
	for i := 0; i < 256; i++ {
		freq[i] = int64(1 + i%7)
	}
	freq[0] = 1 << 30

	tbl := BuildOptimalTable(freq)
	total := 0
	for l, n := range tbl.Bits {
		if n < 0 {
			t.Fatalf("negative count at length %d", l+1)
		}
		total += n
	}
	if total != 256 {
		t.Fatalf("table holds %d symbols, want 256", total)
	}

	// Kraft sum must not exceed 1 or the code is not prefix-free.
	kraft := 0.0
	for l, n := range tbl.Bits {
		kraft += float64(n) / float64(uint64(1)<<uint(l+1))
	}
	if kraft > 1.0000001 {
		t.Errorf("Kraft sum %f exceeds 1", kraft)
	}
}

func TestDCTIDCTRoundTrip(t *testing.T) {
	var pix [64]byte
	for i := range pix {
		pix[i] = byte(i * 3)
	}

	var coef [64]int32
	DCT(pix[:], 8, coef[:])

	var out [64]byte
	IDCT(coef[:], out[:], 8)

	for i := range pix {
		diff := int(pix[i]) - int(out[i])
		if diff < 0 {
			diff = -diff
		}
		if diff > 2 {
			t.Fatalf("sample %d: %d -> %d", i, pix[i], out[i])
		}
	}
}

func TestDCTFlatBlock(t *testing.T) {
	var pix [64]byte
	for i := range pix {
		pix[i] = 128
	}
	var coef [64]int32
	DCT(pix[:], 8, coef[:])

	// Level shift puts a flat 128 block at DC 0 with no AC energy.
	if coef[0] != 0 {
		t.Errorf("DC = %d, want 0", coef[0])
	}
	for i := 1; i < 64; i++ {
		if coef[i] != 0 {
			t.Errorf("AC %d = %d, want 0", i, coef[i])
		}
	}
}

// refDCT is the textbook O(n^4) float transform, the ground truth both
// fast kernels are measured against.
func refDCT(pix []byte) [64]float64 {
	var out [64]float64
	for u := 0; u < 8; u++ {
		for v := 0; v < 8; v++ {
			sum := 0.0
			for y := 0; y < 8; y++ {
				for x := 0; x < 8; x++ {
					sum += (float64(pix[y*8+x]) - 128) *
						math.Cos(float64(2*x+1)*float64(v)*math.Pi/16) *
						math.Cos(float64(2*y+1)*float64(u)*math.Pi/16)
				}
			}
			cu, cv := 1.0, 1.0
			if u == 0 {
				cu = math.Sqrt2 / 2
			}
			if v == 0 {
				cv = math.Sqrt2 / 2
			}
			out[u*8+v] = 0.25 * cu * cv * sum
		}
	}
	return out
}

func TestDCTMatchesFloatReference(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 50; trial++ {
		var pix [64]byte
		for i := range pix {
			pix[i] = byte(rng.Intn(256))
		}
		var coef [64]int32
		DCT(pix[:], 8, coef[:])
		ref := refDCT(pix[:])
		for i := range coef {
			if math.Abs(float64(coef[i])-ref[i]) > 1 {
				t.Fatalf("trial %d coef %d: got %d, reference %.2f", trial, i, coef[i], ref[i])
			}
		}
	}
}

func TestIDCTMatchesFloatReference(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	for trial := 0; trial < 50; trial++ {
		var pix [64]byte
		for i := range pix {
			pix[i] = byte(rng.Intn(256))
		}
		ref := refDCT(pix[:])
		var coef [64]int32
		for i, v := range ref {
			coef[i] = int32(math.Round(v))
		}
		var out [64]byte
		IDCT(coef[:], out[:], 8)
		// Reconstructing from rounded reference coefficients must land
		// within one sample of the original.
		for i := range out {
			diff := int(out[i]) - int(pix[i])
			if diff < -1 || diff > 1 {
				t.Fatalf("trial %d sample %d: %d -> %d", trial, i, pix[i], out[i])
			}
		}
	}
}

func TestDCTIDCTRandomBlocks(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	for trial := 0; trial < 200; trial++ {
		var pix [64]byte
		for i := range pix {
			pix[i] = byte(rng.Intn(256))
		}
		var coef [64]int32
		DCT(pix[:], 8, coef[:])
		var out [64]byte
		IDCT(coef[:], out[:], 8)
		for i := range pix {
			diff := int(pix[i]) - int(out[i])
			if diff < -2 || diff > 2 {
				t.Fatalf("trial %d sample %d: %d -> %d", trial, i, pix[i], out[i])
			}
		}
	}
}

func TestDivHelpers(t *testing.T) {
	if DivCeil(7, 8) != 1 || DivCeil(8, 8) != 1 || DivCeil(9, 8) != 2 {
		t.Error("DivCeil")
	}
	if DivRound(7, 2) != 4 || DivRound(-7, 2) != -4 || DivRound(5, 2) != 3 {
		t.Error("DivRound")
	}
	if Clamp(-5, 0, 255) != 0 || Clamp(300, 0, 255) != 255 || Clamp(42, 0, 255) != 42 {
		t.Error("Clamp")
	}
}
