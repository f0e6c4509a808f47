package board

// Every row is 16 bits, so the left move of each possible row is
// precomputed once.
var (
	leftTable  [1 << rowBits]uint16
	scoreTable [1 << rowBits]uint32
)

func init() {
	for row := 0; row < len(leftTable); row++ {
		var line [Size]uint8
		for c := 0; c < Size; c++ {
			line[c] = uint8(row>>(fieldBits*c)) & fieldMask
		}
		out, score := slideLine(line)
		var packed uint16
		for c := 0; c < Size; c++ {
			packed |= uint16(out[c]) << (fieldBits * c)
		}
		leftTable[row] = packed
		scoreTable[row] = uint32(score)
	}
}

// compress moves the non-zero ranks to the front, keeping their order.
func compress(line [Size]uint8) [Size]uint8 {
	var out [Size]uint8
	pos := 0
	for _, v := range line {
		if v != 0 {
			out[pos] = v
			pos++
		}
	}
	return out
}

// slideLine is the left move on a single row: compress, one merge pass,
// compress. A tile produced by a merge is skipped over, so [1 1 1 1]
// becomes [2 2 0 0] and not [3 0 0 0].
func slideLine(line [Size]uint8) ([Size]uint8, int) {
	line = compress(line)
	score := 0
	for c := 0; c < Size-1; c++ {
		v := line[c]
		if v == 0 || v != line[c+1] || v == MaxRank {
			continue
		}
		line[c] = v + 1
		line[c+1] = 0
		score += 1 << (v + 1)
		c++
	}
	return compress(line), score
}
