package parser

import (
	"fmt"
	"math"
)

// Rule identifies the cascade rule that produced a match.
type Rule int

const (
	RuleNone       Rule = iota
	RuleScaled          // "2 тысячи 100 рублей 41 копейка такси"
	RuleExplicit        // "такси 1000 р", "750 рублей 42 копейки подушка"
	RuleMinorOnly       // "50 к мороженое"
	RuleBareNumber      // "100 30 еда"
	RuleNoNumber        // "такси домой"
)

// String returns the rule name used in logs and metrics labels.
func (r Rule) String() string {
	switch r {
	case RuleNone:
		return "none"
	case RuleScaled:
		return "scaled"
	case RuleExplicit:
		return "explicit"
	case RuleMinorOnly:
		return "minor_only"
	case RuleBareNumber:
		return "bare_number"
	case RuleNoNumber:
		return "no_number"
	default:
		return fmt.Sprintf("Rule(%d)", int(r))
	}
}

// group is one "NUMBER SCALE" pair; a nil num stands for an implicit one
// ("тысяча рублей").
type group struct {
	num   *Token
	scale int64
}

// match is the outcome of the first applicable rule.
type match struct {
	rule     Rule
	consumed []bool // parallel to the token slice

	groups []group
	major  *Token   // Number counted in roubles
	minor  []*Token // Numbers counted in kopecks; more than one is invalid
}

func (m *match) hasAmount() bool {
	return len(m.groups) > 0 || m.major != nil || len(m.minor) > 0
}

func (m *match) take(idx ...int) {
	for _, i := range idx {
		m.consumed[i] = true
	}
}

type ruleFunc func(toks []Token) (*match, bool)

// cascade lists the rules in priority order. The first rule whose
// precondition holds wins; later rules are never consulted.
var cascade = []ruleFunc{
	scaledRule,
	explicitRule,
	minorOnlyRule,
	bareNumberRule,
	noNumberRule,
}

// extract runs the cascade over toks.
func extract(toks []Token) (*match, bool) {
	for _, rule := range cascade {
		if m, ok := rule(toks); ok {
			return m, true
		}
	}
	return nil, false
}

func newMatch(rule Rule, n int) *match {
	return &match{rule: rule, consumed: make([]bool, n)}
}

func kindAt(toks []Token, i int) Kind {
	if i < 0 || i >= len(toks) {
		return -1
	}
	return toks[i].Kind
}

// pairAt reports whether toks[i] is a Number directly followed by kind k.
func pairAt(toks []Token, i int, k Kind) bool {
	return kindAt(toks, i) == Number && kindAt(toks, i+1) == k
}

// findPair returns the first i not yet consumed where toks[i] is a Number
// followed by kind k, or -1.
func findPair(toks []Token, consumed []bool, k Kind) int {
	for i := range toks {
		if pairAt(toks, i, k) && !consumed[i] && !consumed[i+1] {
			return i
		}
	}
	return -1
}

// scaledRule: NUMBER? SCALE (NUMBER SCALE)* [NUMBER] [MAJOR] [NUMBER MINOR].
// Scales must strictly decrease, so "2 миллиона 300 тысяч" is one amount.
func scaledRule(toks []Token) (*match, bool) {
	start := -1
	for i := range toks {
		if pairAt(toks, i, Scale) {
			start = i
			break
		}
		if toks[i].Kind == Scale && kindAt(toks, i-1) != Number {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, false
	}

	m := newMatch(RuleScaled, len(toks))
	j := start
	last := int64(math.MaxInt64)
	if toks[j].Kind == Scale {
		m.groups = append(m.groups, group{scale: toks[j].Value})
		last = toks[j].Value
		m.take(j)
		j++
	}
	for pairAt(toks, j, Scale) && toks[j+1].Value < last {
		m.groups = append(m.groups, group{num: &toks[j], scale: toks[j+1].Value})
		last = toks[j+1].Value
		m.take(j, j+1)
		j += 2
	}
	if next := kindAt(toks, j+1); kindAt(toks, j) == Number && next != Minor && next != Scale && toks[j].Value < last {
		m.major = &toks[j]
		m.take(j)
		j++
	}
	if kindAt(toks, j) == Major {
		m.take(j)
		j++
	}
	if pairAt(toks, j, Minor) {
		m.minor = append(m.minor, &toks[j])
		m.take(j, j+1)
	}
	return m, true
}

// explicitRule: the first "NUMBER MAJOR" pair anywhere, plus the first
// "NUMBER MINOR" pair, preferably right after it, otherwise anywhere else.
func explicitRule(toks []Token) (*match, bool) {
	m := newMatch(RuleExplicit, len(toks))
	i := findPair(toks, m.consumed, Major)
	if i < 0 {
		return nil, false
	}
	m.major = &toks[i]
	m.take(i, i+1)

	k := i + 2
	if !pairAt(toks, k, Minor) {
		k = findPair(toks, m.consumed, Minor)
	}
	if k >= 0 {
		m.minor = append(m.minor, &toks[k])
		m.take(k, k+1)
	}
	return m, true
}

// minorOnlyRule: the first "NUMBER MINOR" pair; the whole amount is kopecks.
func minorOnlyRule(toks []Token) (*match, bool) {
	m := newMatch(RuleMinorOnly, len(toks))
	i := findPair(toks, m.consumed, Minor)
	if i < 0 {
		return nil, false
	}
	m.minor = append(m.minor, &toks[i])
	m.take(i, i+1)
	return m, true
}

// bareNumberRule: the first Number anywhere. A directly following integer
// below 100 is read as kopecks ("100 30" is 100.30); any other following
// number stays in the category.
func bareNumberRule(toks []Token) (*match, bool) {
	for i := range toks {
		if toks[i].Kind != Number {
			continue
		}
		m := newMatch(RuleBareNumber, len(toks))
		m.major = &toks[i]
		m.take(i)
		if next := i + 1; kindAt(toks, next) == Number && !toks[i].HasFrac &&
			!toks[next].HasFrac && toks[next].Value < 100 {
			m.minor = append(m.minor, &toks[next])
			m.take(next)
		}
		return m, true
	}
	return nil, false
}

// noNumberRule matches any text with at least one word and no amount at all.
// The match carries no amount, so validation rejects it.
func noNumberRule(toks []Token) (*match, bool) {
	for _, t := range toks {
		if t.Kind == Word {
			return newMatch(RuleNoNumber, len(toks)), true
		}
	}
	return nil, false
}
