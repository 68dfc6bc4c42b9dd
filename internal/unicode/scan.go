// Package unicode detects character-level smuggling in response text:
// invisible characters, bidirectional overrides, and tag characters that can
// hide instructions from a human reviewer while remaining visible to a model.
package unicode

import (
	"fmt"
	"unicode/utf8"
)

// Finding is one suspicious codepoint occurrence.
type Finding struct {
	Category  string // "zero-width", "bidi-override", "tag-char", "control-char", "invalid-utf8"
	Codepoint string // e.g. "U+200B"
	Position  int    // byte offset
	Blocking  bool   // true when the category warrants an error-severity verdict
}

// Scan walks the input and reports every smuggling indicator.
// An empty slice means the text is clean.
func Scan(input string) []Finding {
	var findings []Finding

	for i := 0; i < len(input); {
		r, size := utf8.DecodeRuneInString(input[i:])

		if r == utf8.RuneError && size == 1 {
			findings = append(findings, Finding{
				Category:  "invalid-utf8",
				Codepoint: fmt.Sprintf("0x%02X", input[i]),
				Position:  i,
				Blocking:  true,
			})
			i++
			continue
		}

		if category, blocking := classify(r); category != "" {
			findings = append(findings, Finding{
				Category:  category,
				Codepoint: fmt.Sprintf("U+%04X", r),
				Position:  i,
				Blocking:  blocking,
			})
		}
		i += size
	}

	return findings
}

// HasBlocking reports whether any finding warrants blocking.
func HasBlocking(findings []Finding) bool {
	for _, f := range findings {
		if f.Blocking {
			return true
		}
	}
	return false
}

func classify(r rune) (category string, blocking bool) {
	switch {
	case isZeroWidth(r):
		return "zero-width", true
	case isBidiControl(r):
		return "bidi-override", true
	case r >= 0xE0001 && r <= 0xE007F:
		return "tag-char", true
	case isUnsafeControl(r):
		return "control-char", true
	}
	return "", false
}

func isZeroWidth(r rune) bool {
	switch r {
	case '\u200B', // zero width space
		'\u200C', // zero width non-joiner
		'\u200D', // zero width joiner
		'\u200E', // left-to-right mark
		'\u200F', // right-to-left mark
		'\u2060', // word joiner
		'\u180E', // mongolian vowel separator
		'\uFEFF': // BOM / zero width no-break space
		return true
	}
	return false
}

func isBidiControl(r rune) bool {
	return (r >= '\u202A' && r <= '\u202E') || (r >= '\u2066' && r <= '\u2069')
}

func isUnsafeControl(r rune) bool {
	// Tab, newline and carriage return are legitimate in response text.
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return r <= 0x1F || r == 0x7F || (r >= 0x80 && r <= 0x9F)
}
