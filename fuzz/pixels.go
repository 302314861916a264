package fuzz

// FillScanline overwrites every byte of buf with an independently drawn
// uniform value. Rows are regenerated in place; nothing is retained
// between calls.
func FillScanline(src *Source, buf []byte) {
	for i := range buf {
		buf[i] = byte(src.IntInRange(0, 255))
	}
}
