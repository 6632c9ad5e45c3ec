package common

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseWord parses a 32-bit instruction word. Hex needs a 0x prefix;
// underscores are allowed as digit separators.
func ParseWord(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("instruction word %q: %w", s, err)
	}
	return uint32(v), nil
}

// FormatWord renders a word as it appears in listings.
func FormatWord(w uint32) string {
	return fmt.Sprintf("0x%08x", w)
}

// ParseSize accepts plain counts and the powers-of-two shorthand "2^N".
func ParseSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if exp, ok := strings.CutPrefix(s, "2^"); ok {
		n, err := strconv.ParseUint(exp, 10, 6)
		if err != nil || n > 40 {
			return 0, fmt.Errorf("size %q: exponent must be 0..40", s)
		}
		return uint64(1) << n, nil
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("size %q: %w", s, err)
	}
	return v, nil
}
