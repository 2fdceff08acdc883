package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// lexeme is one whitespace-delimited unit after normalization.
// raw[start:end] is the original text the unit came from.
type lexeme struct {
	norm  string
	start int
	end   int
}

// Normalize lowercases s, collapses whitespace, strips surrounding sentence
// punctuation from each unit and rewrites currency and scale vocabulary to
// canonical markers. Digits and ordinary words are never removed.
//
// The single letters "р" and "к" are left as they are: whether they mean a
// currency depends on the preceding token, which the scanner decides.
//
// Normalize is idempotent.
func Normalize(s string) string {
	lx := lex(s)
	if len(lx) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for i, l := range lx {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(l.norm)
	}
	return b.String()
}

// lex splits s into normalized units keeping byte offsets into s.
func lex(s string) []lexeme {
	out := make([]lexeme, 0, len(s)/4+1)
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsSpace(r) {
			i += size
			continue
		}
		start := i
		for i < len(s) {
			r, size = utf8.DecodeRuneInString(s[i:])
			if unicode.IsSpace(r) {
				break
			}
			i += size
		}
		start, end := trimPunct(s, start, i)
		if start == end {
			continue
		}
		out = appendUnit(out, s, start, end)
	}
	return out
}

// appendUnit lowercases one unit, rewrites vocabulary and splits a digit run
// glued to a currency or scale form ("1000р", "5тыс").
func appendUnit(out []lexeme, s string, start, end int) []lexeme {
	norm := strings.ToLower(s[start:end])
	if e, ok := vocabulary[norm]; ok {
		return append(out, lexeme{norm: e.marker(), start: start, end: end})
	}

	n := numberPrefixLen(norm)
	if n == 0 || n == len(norm) {
		return append(out, lexeme{norm: norm, start: start, end: end})
	}
	suffix := norm[n:]
	if e, ok := vocabulary[suffix]; ok {
		suffix = e.marker()
	} else if suffix != letterMajor && suffix != letterMinor {
		return append(out, lexeme{norm: norm, start: start, end: end})
	}
	// ToLower keeps ASCII digits and separators at the same byte width,
	// so n is also an offset into the original text.
	return append(out,
		lexeme{norm: norm[:n], start: start, end: start + n},
		lexeme{norm: suffix, start: start + n, end: end},
	)
}

// numberPrefixLen returns the length of a leading "123" or "12.50"/"12,5".
func numberPrefixLen(s string) int {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == 0 {
		return 0
	}
	if i+1 < len(s) && (s[i] == '.' || s[i] == ',') && isDigit(s[i+1]) {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		return j
	}
	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// trimPunct narrows s[start:end] past leading and trailing sentence
// punctuation. Markers use braces, which are not trimmed.
func trimPunct(s string, start, end int) (int, int) {
	for start < end {
		r, size := utf8.DecodeRuneInString(s[start:end])
		if !isTrimmable(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(s[start:end])
		if !isTrimmable(r) {
			break
		}
		end -= size
	}
	return start, end
}

func isTrimmable(r rune) bool {
	switch r {
	case '.', ',', '!', '?', ';', ':', '"', '\'', '«', '»', '„', '“', '”',
		'(', ')', '[', ']', '…', '—', '–', '-':
		return true
	}
	return false
}
