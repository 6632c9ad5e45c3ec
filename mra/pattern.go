package mra

import (
	"fmt"
	"strconv"
	"strings"
)

// Exclusion rejects words whose masked bits equal Value.
type Exclusion struct {
	Mask  uint32 `json:"mask"`
	Value uint32 `json:"value"`
}

// Pattern is the set of 32-bit words an encoding diagram accepts: fixed bits
// must match, and no exclusion may match.
type Pattern struct {
	Mask     uint32      `json:"mask"`
	Value    uint32      `json:"value"`
	Excludes []Exclusion `json:"excludes,omitempty"`
}

func (p Pattern) Matches(word uint32) bool {
	if word&p.Mask != p.Value {
		return false
	}
	for _, ex := range p.Excludes {
		if word&ex.Mask == ex.Value {
			return false
		}
	}
	return true
}

// bitsAt folds a string of '0', '1' and don't-care characters, whose first
// character sits at bit hi, into a mask and value.
func bitsAt(s string, hi int) (mask, value uint32, err error) {
	for k := 0; k < len(s); k++ {
		bit := hi - k
		if bit < 0 {
			return 0, 0, fmt.Errorf("field %q runs past bit 0", s)
		}
		switch s[k] {
		case '0':
			mask |= 1 << bit
		case '1':
			mask |= 1 << bit
			value |= 1 << bit
		}
	}
	return mask, value, nil
}

// cellBits normalises a <c> value to exactly n characters of 0, 1 or x.
func cellBits(v string, n int) string {
	v = strings.ReplaceAll(v, "(1)", "1")
	v = strings.ReplaceAll(v, "(0)", "0")
	v = strings.TrimSpace(v)
	if len(v) == n && strings.Trim(v, "01x") == "" {
		return v
	}
	if len(v) == 1 && (v == "0" || v == "1") {
		return strings.Repeat(v, n)
	}
	return strings.Repeat("x", n)
}

func constraintBits(c string) string {
	c = strings.TrimSpace(c)
	c = strings.TrimPrefix(c, "!=")
	return strings.ReplaceAll(c, " ", "")
}

func (box Box) width() int {
	if w, err := strconv.Atoi(box.Width); err == nil && w > 0 {
		return w
	}
	w := 0
	for _, c := range box.Bits {
		w += c.width()
	}
	if w == 0 {
		w = 1
	}
	return w
}

// Pattern compiles the diagram. Boxes without a hibit attribute are laid out
// contiguously from bit 31 downwards.
func (r RegDiagram) Pattern() (Pattern, error) {
	var p Pattern
	next := 31
	for _, box := range r.Boxes {
		hi := next
		if box.HiBit != "" {
			h, err := strconv.Atoi(box.HiBit)
			if err != nil || h < 0 || h > 31 {
				return Pattern{}, fmt.Errorf("%s: box %q has bad hibit %q", r.Name, box.Name, box.HiBit)
			}
			hi = h
		}
		width := box.width()
		next = hi - width

		if box.Constraint != "" {
			m, v, err := bitsAt(constraintBits(box.Constraint), hi)
			if err != nil {
				return Pattern{}, fmt.Errorf("%s: box %q: %w", r.Name, box.Name, err)
			}
			if m != 0 {
				p.Excludes = append(p.Excludes, Exclusion{Mask: m, Value: v})
			}
			continue
		}

		bit := hi
		for _, c := range box.Bits {
			n := c.width()
			if strings.HasPrefix(strings.TrimSpace(c.Value), "!=") {
				m, v, err := bitsAt(constraintBits(c.Value), bit)
				if err != nil {
					return Pattern{}, fmt.Errorf("%s: box %q: %w", r.Name, box.Name, err)
				}
				if m != 0 {
					p.Excludes = append(p.Excludes, Exclusion{Mask: m, Value: v})
				}
			} else {
				m, v, err := bitsAt(cellBits(c.Value, n), bit)
				if err != nil {
					return Pattern{}, fmt.Errorf("%s: box %q: %w", r.Name, box.Name, err)
				}
				if p.Mask&m != 0 && p.Value&m != v {
					return Pattern{}, fmt.Errorf("%s: box %q contradicts an earlier box", r.Name, box.Name)
				}
				p.Mask |= m
				p.Value |= v
			}
			bit -= n
		}
	}
	return p, nil
}
