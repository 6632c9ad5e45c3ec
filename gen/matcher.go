package gen

import (
	"github.com/colorfulnotion/a64map/cells"
	"github.com/colorfulnotion/a64map/mra"
)

const topShift = 24

// Matcher answers mra.Match with a per-top-byte candidate list. Candidates
// keep record order, so the first match is the same record mra.Match finds.
type Matcher struct {
	records []mra.Record
	buckets [256][]int16
}

func NewMatcher(records []mra.Record) *Matcher {
	m := &Matcher{records: records}
	for j, r := range records {
		if r.Pattern == nil {
			continue
		}
		topMask := r.Pattern.Mask >> topShift
		topValue := r.Pattern.Value >> topShift
		for t := uint32(0); t < 256; t++ {
			if t&topMask == topValue {
				m.buckets[t] = append(m.buckets[t], int16(j))
			}
		}
	}
	return m
}

// Match returns the index of the first record accepting word, or cells.Invalid.
func (m *Matcher) Match(word uint32) int16 {
	for _, j := range m.buckets[word>>topShift] {
		if m.records[j].Pattern.Matches(word) {
			return j
		}
	}
	return cells.Invalid
}

// Candidates returns how many records are tried for words with top byte t.
func (m *Matcher) Candidates(t uint8) int { return len(m.buckets[t]) }
