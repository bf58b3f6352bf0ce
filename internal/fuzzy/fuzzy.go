// Package fuzzy provides 0-100 string similarity scorers and a best-match
// query over an ordered set of choices.
package fuzzy

import (
	"sort"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Scorer rates the similarity of two strings on a 0-100 scale
type Scorer func(a, b string) float64

// Match is the accepted choice of an ExtractOne query
type Match struct {
	Choice string
	Score  float64
	Index  int
}

// indelOptions makes a substitution cost a deletion plus an insertion, so the
// distance is the insert/delete edit distance.
var indelOptions = levenshtein.DefaultOptions

// Ratio is the normalized insert/delete similarity of a and b:
// 100 * (len(a)+len(b)-distance) / (len(a)+len(b)). Two empty strings score 0.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 0
	}
	dist := levenshtein.DistanceForStrings(ra, rb, indelOptions)
	return 100 * float64(total-dist) / float64(total)
}

// TokenSetRatio compares the whitespace-separated token sets of a and b,
// ignoring order and duplicates. When one set contains the other the score
// is 100; otherwise it is the best Ratio among the sorted intersection and
// the intersection extended by each side's remaining tokens.
func TokenSetRatio(a, b string) float64 {
	setA, setB := tokenSet(a), tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var common, onlyA, onlyB []string
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			common = append(common, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range setB {
		if _, ok := setA[tok]; !ok {
			onlyB = append(onlyB, tok)
		}
	}

	if len(common) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}

	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sect := strings.Join(common, " ")
	withA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	best := Ratio(withA, withB)
	if sect == "" {
		return best
	}
	return max(best, Ratio(sect, withA), Ratio(sect, withB))
}

// ExtractOne scores query against every choice in order and returns the
// first choice holding the highest score, provided it reaches cutoff.
func ExtractOne(query string, choices []string, scorer Scorer, cutoff float64) (Match, bool) {
	best := Match{Index: -1, Score: -1}
	for i, choice := range choices {
		score := scorer(query, choice)
		if score > best.Score {
			best = Match{Choice: choice, Score: score, Index: i}
			if score == 100 {
				break
			}
		}
	}
	if best.Index < 0 || best.Score < cutoff {
		return Match{}, false
	}
	return best, true
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
