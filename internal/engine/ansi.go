package engine

import (
	"strings"
	"unicode/utf8"
)

// stripANSI removes ANSI escape sequences (CSI parameter/intermediate/final
// sequences and OSC sequences terminated by BEL or ST) from s, returning the
// "stripped view" used for matching.
//
// No library in the reference corpus strips ANSI sequences for Go (the
// original implementation leans on the Rust-only strip-ansi-escapes crate),
// so this one piece is a hand-rolled byte scanner rather than an imported
// dependency; see DESIGN.md.
func stripANSI(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	i := 0
	for i < len(s) {
		c := s[i]
		if c != 0x1b { // ESC
			b.WriteByte(c)
			i++
			continue
		}

		// ESC seen; decide sequence kind from the next byte.
		if i+1 >= len(s) {
			b.WriteByte(c)
			i++
			continue
		}
		switch s[i+1] {
		case '[': // CSI: ESC '[' parameter-bytes intermediate-bytes final-byte
			j := i + 2
			for j < len(s) && s[j] >= 0x30 && s[j] <= 0x3f {
				j++
			}
			for j < len(s) && s[j] >= 0x20 && s[j] <= 0x2f {
				j++
			}
			if j < len(s) && s[j] >= 0x40 && s[j] <= 0x7e {
				j++
			}
			i = j
		case ']': // OSC: ESC ']' ... (BEL | ESC '\')
			j := i + 2
			for j < len(s) {
				if s[j] == 0x07 {
					j++
					break
				}
				if s[j] == 0x1b && j+1 < len(s) && s[j+1] == '\\' {
					j += 2
					break
				}
				j++
			}
			i = j
		default: // two-byte escape (e.g. ESC '(' 'B')
			i += 2
		}
	}
	return b.String()
}

// indexMapper is a bijection from byte offsets in the stripped view to byte
// offsets in the original view, as constructed by the reference
// StrippedIndexMapper: walk the stripped string rune-by-rune while
// co-iterating the original string's rune boundaries; each matching rune
// records one original byte offset per byte of its encoding, with a trailing
// sentinel for end-of-string lookups.
type indexMapper struct {
	offsets []int // offsets[i] = original byte offset for stripped byte i
}

// newIndexMapper strips ANSI sequences out of original and builds the
// mapping between the two views in one pass.
func newIndexMapper(original string) (stripped string, m *indexMapper) {
	strippedStr := stripANSI(original)

	type origRune struct {
		idx int
		r   rune
	}
	origRunes := make([]origRune, 0, len(original))
	for idx, r := range original {
		origRunes = append(origRunes, origRune{idx, r})
	}

	offsets := make([]int, 0, len(strippedStr)+1)
	oi := 0
	for si, sr := range strippedStr {
		_, width := utf8.DecodeRuneInString(strippedStr[si:])
		for oi < len(origRunes) {
			if origRunes[oi].r == sr {
				for k := 0; k < width; k++ {
					offsets = append(offsets, origRunes[oi].idx+k)
				}
				oi++
				break
			}
			oi++
		}
	}
	offsets = append(offsets, len(original)) // sentinel

	return strippedStr, &indexMapper{offsets: offsets}
}

// mapIndex maps a byte offset in the stripped view to the corresponding
// offset in the original view, clamping out-of-range indices to the
// sentinel entry.
func (m *indexMapper) mapIndex(strippedIndex int) int {
	idx := strippedIndex
	if max := len(m.offsets) - 1; idx > max {
		idx = max
	}
	if idx < 0 {
		idx = 0
	}
	return m.offsets[idx]
}
