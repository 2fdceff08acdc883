package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Kind classifies a token.
type Kind int

const (
	Word   Kind = iota // Anything that is not an amount or currency vocabulary
	Number             // Digit run, optionally with a one or two digit fraction
	Major              // Rouble in any form, or "р" after an amount
	Minor              // Kopeck in any form, or "к" after an amount
	Scale              // Multiplier word: сотня, тысяча, миллион, миллиард
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case Word:
		return "Word"
	case Number:
		return "Number"
	case Major:
		return "Major"
	case Minor:
		return "Minor"
	case Scale:
		return "Scale"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Token is a classified unit of the input.
type Token struct {
	Kind  Kind
	Text  string // Original text of the unit, surrounding punctuation removed
	Start int    // Byte offset in the source string (inclusive)
	End   int    // Byte offset in the source string (exclusive)

	// Value is the integer part of a Number or the multiplier of a Scale.
	Value int64
	// Frac holds the kopecks of a decimal Number ("12.5" -> 50) when HasFrac is set.
	Frac    int64
	HasFrac bool

	// invalid is set for a digit run that cannot be an amount: an integer
	// part beyond int64 or more than two fractional digits. The token stays
	// a Number so the cascade still sees it; assemble reports the failure.
	invalid error
}

// String returns a debug representation, e.g. Number("750")[0:3].
func (t Token) String() string {
	return fmt.Sprintf("%s(%q)[%d:%d]", t.Kind, t.Text, t.Start, t.End)
}

// fixed returns the number in kopecks: Value*100 + Frac.
func (t Token) fixed() (int64, bool) {
	v, ok := mulInt64(t.Value, 100)
	if !ok {
		return 0, false
	}
	return addInt64(v, t.Frac)
}

// Scan normalizes s and splits it into classified tokens.
// Token offsets refer to the normalized text, so Scan is meant for already
// normalized input and for diagnostics; Parse keeps offsets into the raw text.
func Scan(s string) []Token {
	n := Normalize(s)
	return scan(n, lex(n))
}

// scan classifies lexemes. "р" and "к" count as currency only right after a
// Number or Scale token; anywhere else they are ordinary words.
func scan(src string, lx []lexeme) []Token {
	if len(lx) == 0 {
		return nil
	}
	toks := make([]Token, 0, len(lx))
	for _, l := range lx {
		t := Token{Kind: Word, Text: src[l.start:l.end], Start: l.start, End: l.end}

		if e, ok := parseMarker(l.norm); ok {
			switch e.class {
			case classMajor:
				t.Kind = Major
			case classMinor:
				t.Kind = Minor
			case classScale:
				t.Kind = Scale
				t.Value = e.scale
			}
		} else if v, frac, hasFrac, invalid, ok := parseNumber(l.norm); ok {
			t.Kind = Number
			t.Value, t.Frac, t.HasFrac, t.invalid = v, frac, hasFrac, invalid
		} else if (l.norm == letterMajor || l.norm == letterMinor) && afterAmount(toks) {
			if l.norm == letterMajor {
				t.Kind = Major
			} else {
				t.Kind = Minor
			}
		}
		toks = append(toks, t)
	}
	return toks
}

func afterAmount(toks []Token) bool {
	if len(toks) == 0 {
		return false
	}
	k := toks[len(toks)-1].Kind
	return k == Number || k == Scale
}

// parseNumber accepts "750", "12.50", "12,5". Any other digit run with an
// optional fraction is still a number but comes back with invalid set:
// ErrAmountOverflow when the integer part overflows int64 (Value is then
// math.MaxInt64) and ErrInvalidMinorUnits for a fraction longer than two
// digits.
func parseNumber(s string) (value, frac int64, hasFrac bool, invalid error, ok bool) {
	if numberPrefixLen(s) != len(s) {
		return 0, 0, false, nil, false
	}
	intPart, fracPart := s, ""
	for i := 0; i < len(s); i++ {
		if s[i] == '.' || s[i] == ',' {
			intPart, fracPart = s[:i], s[i+1:]
			break
		}
	}
	hasFrac = fracPart != ""

	v, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return math.MaxInt64, 0, hasFrac, ErrAmountOverflow, true
		}
		return 0, 0, false, nil, false
	}
	switch len(fracPart) {
	case 0:
	case 1:
		frac = int64(fracPart[0]-'0') * 10
	case 2:
		frac = int64(fracPart[0]-'0')*10 + int64(fracPart[1]-'0')
	default:
		return v, 0, true, ErrInvalidMinorUnits, true
	}
	return v, frac, hasFrac, nil, true
}
