package parser

import "strconv"

// Canonical markers written by the normalizer. They are lowercase and carry no
// trimmable punctuation, so normalizing already-normalized text leaves them alone.
const (
	MarkerMajor = "{rub}"
	MarkerMinor = "{kop}"

	scaleMarkerPrefix = "{x"
	scaleMarkerSuffix = "}"
)

// Context-dependent single letters: currency only right after an amount.
const (
	letterMajor = "р"
	letterMinor = "к"
)

type vocabClass int

const (
	classMajor vocabClass = iota + 1
	classMinor
	classScale
)

type vocabEntry struct {
	class vocabClass
	scale int64
}

// vocabulary is the single table of currency and scale forms. The normalizer
// rewrites these, the scanner recognizes their markers and the validator uses
// it to spot a category that is nothing but a currency word.
var vocabulary = buildVocabulary()

var (
	majorForms = []string{
		"рубль", "рубля", "рублю", "рублем", "рублём", "рубле",
		"рубли", "рублей", "рублям", "рублями", "рублях",
		"руб", "₽",
	}
	minorForms = []string{
		"копейка", "копейки", "копейке", "копейку", "копейкой", "копейкою",
		"копеек", "копейкам", "копейками", "копейках",
		"копеечка", "копеечки", "копеечек",
		"коп",
	}
	scaleForms = map[int64][]string{
		100: {
			"сотня", "сотни", "сотне", "сотню", "сотней", "сотен", "сотнями", "сотнях",
		},
		1_000: {
			"тысяча", "тысячи", "тысяче", "тысячу", "тысячей", "тысячью",
			"тысяч", "тысячам", "тысячами", "тысячах",
			"тыс", "тыщ", "тыща", "тыщи", "тыщу",
		},
		1_000_000: {
			"миллион", "миллиона", "миллиону", "миллионом", "миллионе",
			"миллионы", "миллионов", "миллионам", "миллионами", "миллионах",
			"млн", "лям", "ляма", "лямов",
		},
		1_000_000_000: {
			"миллиард", "миллиарда", "миллиарду", "миллиардом", "миллиарде",
			"миллиарды", "миллиардов", "миллиардам", "миллиардами", "миллиардах",
			"млрд",
		},
	}
)

func buildVocabulary() map[string]vocabEntry {
	v := make(map[string]vocabEntry, 64)
	for _, f := range majorForms {
		v[f] = vocabEntry{class: classMajor}
	}
	for _, f := range minorForms {
		v[f] = vocabEntry{class: classMinor}
	}
	for scale, forms := range scaleForms {
		for _, f := range forms {
			v[f] = vocabEntry{class: classScale, scale: scale}
		}
	}
	return v
}

// scaleMarker returns the canonical marker for a multiplier, e.g. "{x1000}".
func scaleMarker(n int64) string {
	return scaleMarkerPrefix + strconv.FormatInt(n, 10) + scaleMarkerSuffix
}

// marker maps a vocabulary entry to its canonical marker.
func (e vocabEntry) marker() string {
	switch e.class {
	case classMajor:
		return MarkerMajor
	case classMinor:
		return MarkerMinor
	default:
		return scaleMarker(e.scale)
	}
}

// parseMarker recognizes a canonical marker. It reports the entry it stands for.
func parseMarker(s string) (vocabEntry, bool) {
	switch s {
	case MarkerMajor:
		return vocabEntry{class: classMajor}, true
	case MarkerMinor:
		return vocabEntry{class: classMinor}, true
	}
	if len(s) <= len(scaleMarkerPrefix)+len(scaleMarkerSuffix) ||
		s[:len(scaleMarkerPrefix)] != scaleMarkerPrefix ||
		s[len(s)-len(scaleMarkerSuffix):] != scaleMarkerSuffix {
		return vocabEntry{}, false
	}
	n, err := strconv.ParseInt(s[len(scaleMarkerPrefix):len(s)-len(scaleMarkerSuffix)], 10, 64)
	if err != nil {
		return vocabEntry{}, false
	}
	if _, ok := scaleForms[n]; !ok {
		return vocabEntry{}, false
	}
	return vocabEntry{class: classScale, scale: n}, true
}

// isCurrencyWord reports whether a lowercase unit is currency or scale
// vocabulary in any form: inflected, abbreviated, single letter or marker.
func isCurrencyWord(s string) bool {
	if s == letterMajor || s == letterMinor {
		return true
	}
	if _, ok := vocabulary[s]; ok {
		return true
	}
	_, ok := parseMarker(s)
	return ok
}
