package vis

// HilbertXY maps distance s along a Hilbert curve of the given order (a
// 2^order by 2^order grid) to its cell. The lookup constants encode the four
// curve states: each row of 4*state+quadrant yields the x bit, the y bit and
// the next state.
func HilbertXY(s uint32, order int) (x, y uint32) {
	var state uint32
	for i := 2*order - 2; i >= 0; i -= 2 {
		row := 4*state | ((s >> uint(i)) & 3)
		x = (x << 1) | ((0x936C >> row) & 1)
		y = (y << 1) | ((0x39C6 >> row) & 1)
		state = (0x3E6B94C1 >> (2 * row)) & 3
	}
	return x, y
}
