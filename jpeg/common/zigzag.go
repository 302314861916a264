package common

// ZigZag maps a zig-zag scan position to its natural (row-major) index
// within an 8x8 block.
var ZigZag = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// DivCeil returns ceil(a/b) for positive b.
func DivCeil(a, b int) int {
	return (a + b - 1) / b
}

// Clamp restricts val to [minVal, maxVal].
func Clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// DivRound returns a/b rounded to the nearest integer, away from zero on
// ties, for positive b. Plain integer division truncates toward zero,
// which skews quantization of negative coefficients.
func DivRound(a, b int32) int32 {
	if a >= 0 {
		return (a + (b >> 1)) / b
	}
	return -((-a + (b >> 1)) / b)
}
