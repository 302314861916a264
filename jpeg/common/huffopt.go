package common

// BuildOptimalTable derives a Huffman table from observed symbol
// frequencies. freq is indexed by symbol; index 256 is reserved for the
// guaranteed-unused pseudo-symbol that keeps every real code shorter
// than all-ones. Code lengths are limited to 16 bits by pushing
// over-long codes up the tree.
func BuildOptimalTable(freq [257]int64) *HuffmanTable {
	const maxCodeLen = 32

	var codesize [257]int
	var others [257]int
	for i := range others {
		others[i] = -1
	}

	// The reserved symbol must participate so no real symbol gets the
	// all-ones code.
	freq[256] = 1

	for {
		// Merge the two least-frequent trees. On ties the higher symbol
		// value loses, matching the reference encoder's table layout.
		c1, c2 := -1, -1
		v := int64(1) << 62
		for i := 0; i <= 256; i++ {
			if freq[i] != 0 && freq[i] <= v {
				v = freq[i]
				c1 = i
			}
		}
		v = int64(1) << 62
		for i := 0; i <= 256; i++ {
			if freq[i] != 0 && freq[i] <= v && i != c1 {
				v = freq[i]
				c2 = i
			}
		}
		if c2 < 0 {
			break
		}

		freq[c1] += freq[c2]
		freq[c2] = 0

		codesize[c1]++
		for others[c1] >= 0 {
			c1 = others[c1]
			codesize[c1]++
		}
		others[c1] = c2

		codesize[c2]++
		for others[c2] >= 0 {
			c2 = others[c2]
			codesize[c2]++
		}
	}

	var bits [maxCodeLen + 1]int
	for i := 0; i <= 256; i++ {
		if codesize[i] > 0 {
			bits[codesize[i]]++
		}
	}

	// JPEG caps code lengths at 16 bits: take symbol pairs out of the
	// over-long lengths and re-seat them under a shorter prefix.
	for i := maxCodeLen; i > 16; i-- {
		for bits[i] > 0 {
			j := i - 2
			for bits[j] == 0 {
				j--
			}
			bits[i] -= 2
			bits[i-1]++
			bits[j+1] += 2
			bits[j]--
		}
	}

	// Remove the reserved pseudo-symbol's code from the longest length.
	last := 16
	for last > 0 && bits[last] == 0 {
		last--
	}
	if last > 0 {
		bits[last]--
	}

	table := &HuffmanTable{}
	for i := 1; i <= 16; i++ {
		table.Bits[i-1] = bits[i]
	}

	// Emit symbols sorted by code length, then by value.
	for l := 1; l <= maxCodeLen; l++ {
		for i := 0; i < 256; i++ {
			if codesize[i] == l {
				table.Values = append(table.Values, byte(i))
			}
		}
	}

	if err := table.Build(); err != nil {
		panic(err)
	}
	return table
}
