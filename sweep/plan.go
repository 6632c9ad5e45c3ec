package sweep

import (
	"fmt"

	"github.com/colorfulnotion/a64map/scanerrors"
)

// Space is the number of 32-bit encodings.
const Space = uint64(1) << 32

// Range is the half-open index interval [Lo, Hi).
type Range struct {
	Lo uint64
	Hi uint64
}

// Full is the whole encoding space.
func Full() Range { return Range{Lo: 0, Hi: Space} }

func (r Range) Len() uint64 {
	if r.Hi <= r.Lo {
		return 0
	}
	return r.Hi - r.Lo
}

func (r Range) String() string {
	return fmt.Sprintf("[%#x,%#x)", r.Lo, r.Hi)
}

// Validate rejects empty ranges and ranges beyond limit cells.
func (r Range) Validate(limit uint64) error {
	if r.Len() == 0 || r.Hi > limit {
		return fmt.Errorf("range %s with %d cells: %w", r, limit, scanerrors.ErrSBadRange)
	}
	return nil
}

// Chunk is one unit of work; chunks of a plan never overlap.
type Chunk struct {
	Lo uint64
	Hi uint64
}

func (c Chunk) Len() uint64 { return c.Hi - c.Lo }

// Plan splits r at multiples of size. The first and last chunk may be short
// when r is not aligned, so the same size always yields the same boundaries
// and checkpoints stay valid across runs over overlapping ranges.
func Plan(r Range, size uint64) []Chunk {
	if size == 0 || r.Len() == 0 {
		return nil
	}
	chunks := make([]Chunk, 0, r.Len()/size+2)
	lo := r.Lo
	for lo < r.Hi {
		hi := (lo/size + 1) * size
		if hi > r.Hi {
			hi = r.Hi
		}
		chunks = append(chunks, Chunk{Lo: lo, Hi: hi})
		lo = hi
	}
	return chunks
}
