package common

// Fixed-point multipliers, 13 fraction bits.
const (
	f0298 = 2446  // 8192*0.298631336
	f0390 = 3196  // 8192*0.390180644
	f0541 = 4433  // 8192*0.541196100
	f0765 = 6270  // 8192*0.765366865
	f0899 = 7373  // 8192*0.899976223
	f1175 = 9633  // 8192*1.175875602
	f1501 = 12299 // 8192*1.501321110
	f1847 = 15137 // 8192*1.847759065
	f1961 = 16069 // 8192*1.961570560
	f2053 = 16819 // 8192*2.053119869
	f2562 = 20995 // 8192*2.562915447
	f3072 = 25172 // 8192*3.072711026
)

func descale(x int32, n uint) int32 {
	return (x + 1<<(n-1)) >> n
}

// DCT transforms one 8x8 sample block (read from input with the given
// row stride) into DCT coefficients in natural order. Samples are level
// shifted by 128 first, so a flat mid-gray block yields all zeros.
// Loeffler-Ligtenberg-Moshovitz row-column transform; coefficients come
// out at the nominal JPEG scale, within one unit of the float transform.
func DCT(input []byte, stride int, coef []int32) {
	var tmp [64]int32

	// Row pass, results kept at 2 extra bits of precision.
	for y := 0; y < 8; y++ {
		row := y * 8

		d0 := int32(input[y*stride+0]) - 128
		d1 := int32(input[y*stride+1]) - 128
		d2 := int32(input[y*stride+2]) - 128
		d3 := int32(input[y*stride+3]) - 128
		d4 := int32(input[y*stride+4]) - 128
		d5 := int32(input[y*stride+5]) - 128
		d6 := int32(input[y*stride+6]) - 128
		d7 := int32(input[y*stride+7]) - 128

		t0 := d0 + d7
		t7 := d0 - d7
		t1 := d1 + d6
		t6 := d1 - d6
		t2 := d2 + d5
		t5 := d2 - d5
		t3 := d3 + d4
		t4 := d3 - d4

		// Even part
		t10 := t0 + t3
		t13 := t0 - t3
		t11 := t1 + t2
		t12 := t1 - t2

		tmp[row+0] = (t10 + t11) << 2
		tmp[row+4] = (t10 - t11) << 2

		z1 := (t12 + t13) * f0541
		tmp[row+2] = descale(z1+t13*f0765, 11)
		tmp[row+6] = descale(z1-t12*f1847, 11)

		// Odd part
		z1 = t4 + t7
		z2 := t5 + t6
		z3 := t4 + t6
		z4 := t5 + t7
		z5 := (z3 + z4) * f1175

		t4 *= f0298
		t5 *= f2053
		t6 *= f3072
		t7 *= f1501
		z1 *= -f0899
		z2 *= -f2562
		z3 = z3*-f1961 + z5
		z4 = z4*-f0390 + z5

		tmp[row+7] = descale(t4+z1+z3, 11)
		tmp[row+5] = descale(t5+z2+z4, 11)
		tmp[row+3] = descale(t6+z2+z3, 11)
		tmp[row+1] = descale(t7+z1+z4, 11)
	}

	// Column pass, descaling to final coefficient magnitude.
	for x := 0; x < 8; x++ {
		d0 := tmp[0+x]
		d1 := tmp[8+x]
		d2 := tmp[16+x]
		d3 := tmp[24+x]
		d4 := tmp[32+x]
		d5 := tmp[40+x]
		d6 := tmp[48+x]
		d7 := tmp[56+x]

		t0 := d0 + d7
		t7 := d0 - d7
		t1 := d1 + d6
		t6 := d1 - d6
		t2 := d2 + d5
		t5 := d2 - d5
		t3 := d3 + d4
		t4 := d3 - d4

		// Even part
		t10 := t0 + t3
		t13 := t0 - t3
		t11 := t1 + t2
		t12 := t1 - t2

		coef[0*8+x] = descale(t10+t11, 5)
		coef[4*8+x] = descale(t10-t11, 5)

		z1 := (t12 + t13) * f0541
		coef[2*8+x] = descale(z1+t13*f0765, 18)
		coef[6*8+x] = descale(z1-t12*f1847, 18)

		// Odd part
		z1 = t4 + t7
		z2 := t5 + t6
		z3 := t4 + t6
		z4 := t5 + t7
		z5 := (z3 + z4) * f1175

		t4 *= f0298
		t5 *= f2053
		t6 *= f3072
		t7 *= f1501
		z1 *= -f0899
		z2 *= -f2562
		z3 = z3*-f1961 + z5
		z4 = z4*-f0390 + z5

		coef[7*8+x] = descale(t4+z1+z3, 18)
		coef[5*8+x] = descale(t5+z2+z4, 18)
		coef[3*8+x] = descale(t6+z2+z3, 18)
		coef[1*8+x] = descale(t7+z1+z4, 18)
	}
}
