package pool

// chunkStarts returns the directory offsets at which a chunked pool with the
// given mode and initial count reserved its blocks, for a pool that has grown
// to maxObjects. Linear pools start a chunk every initialCount slots; doubling
// pools start at 0 and then at initialCount, 2·initialCount, 4·initialCount...
func chunkStarts(mode Mode, initialCount, maxObjects int) []int {
	if initialCount <= 0 || maxObjects <= 0 {
		return nil
	}
	starts := []int{0}
	if mode.Linear() {
		for off := initialCount; off < maxObjects; off += initialCount {
			starts = append(starts, off)
		}
		return starts
	}
	for off := initialCount; off < maxObjects; off <<= 1 {
		starts = append(starts, off)
	}
	return starts
}

// chunkSpan returns the number of slots covered by the chunk starting at
// starts[i], given the directory size.
func chunkSpan(starts []int, i, maxObjects int) int {
	if i+1 < len(starts) {
		return starts[i+1] - starts[i]
	}
	return maxObjects - starts[i]
}
