package core

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NameScorer scores how likely two party names refer to the same customer.
// It returns points in [0, maxPoints] and a human-readable reason ("" when no credit).
type NameScorer interface {
	Score(orderName, contactName string, maxPoints float64) (float64, string)
}

// legalSuffixes are dropped before comparison so "Acme Ltd" matches "ACME Limited".
var legalSuffixes = map[string]bool{
	"ltd": true, "limited": true, "llc": true, "inc": true, "plc": true,
	"co": true, "corp": true, "gmbh": true, "the": true,
}

// rawNamePaths are the JSON paths searched in an order's raw provider payload.
var rawNamePaths = []string{
	"customer.name",
	"customer.company",
	"customer_name",
	"company",
	"billing_address.company",
	"billing_address.name",
	"shipping_address.company",
}

// NormalizeName case-folds, strips diacritics and punctuation, collapses whitespace
// and removes legal suffixes.
func NormalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	folded := cases.Fold().String(stripped)

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		if r == '&' {
			return -1
		}
		return ' '
	}, folded)

	fields := strings.Fields(cleaned)
	out := fields[:0]
	for _, f := range fields {
		if !legalSuffixes[f] {
			out = append(out, f)
		}
	}
	return strings.Join(out, " ")
}

// TokenNameScorer is the default NameScorer: exact, containment, then token overlap.
type TokenNameScorer struct {
	// MinOverlap is the Jaccard similarity below which no credit is given.
	MinOverlap float64
}

// DefaultNameScorer returns a TokenNameScorer with a 0.5 overlap threshold.
func DefaultNameScorer() TokenNameScorer {
	return TokenNameScorer{MinOverlap: 0.5}
}

func (s TokenNameScorer) Score(orderName, contactName string, maxPoints float64) (float64, string) {
	a := NormalizeName(orderName)
	b := NormalizeName(contactName)
	if a == "" || b == "" {
		return 0, ""
	}
	if a == b {
		return maxPoints, "Customer name matches"
	}
	if len(a) >= 3 && len(b) >= 3 && (strings.Contains(a, b) || strings.Contains(b, a)) {
		return maxPoints * 0.75, "Customer name contained in contact name"
	}

	j := jaccard(strings.Fields(a), strings.Fields(b))
	if j < s.MinOverlap {
		return 0, ""
	}
	return maxPoints * j, fmt.Sprintf("Customer name partially matches (%.0f%%)", j*100)
}

func jaccard(a, b []string) float64 {
	set := make(map[string]int, len(a)+len(b))
	for _, t := range a {
		set[t] |= 1
	}
	for _, t := range b {
		set[t] |= 2
	}
	var inter int
	for _, v := range set {
		if v == 3 {
			inter++
		}
	}
	if len(set) == 0 {
		return 0
	}
	return float64(inter) / float64(len(set))
}

// CandidateNames returns every name an order is known by: the primary name, alternates,
// and names found in its raw payload. Duplicates and blanks are dropped.
func (o *Order) CandidateNames() []string {
	seen := map[string]bool{}
	var names []string
	add := func(n string) {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			return
		}
		seen[n] = true
		names = append(names, n)
	}

	add(o.CustomerName)
	for _, n := range o.AltCustomerNames {
		add(n)
	}
	if len(o.RawSource) > 0 && gjson.ValidBytes(o.RawSource) {
		for _, r := range gjson.GetManyBytes(o.RawSource, rawNamePaths...) {
			if r.Type == gjson.String {
				add(r.String())
			}
		}
	}
	return names
}
