// Package fuzzy provides approximate string similarity scores on a 0-100 scale.
//
// Scores are based on the normalized InDel distance (insertions and deletions only),
// so Ratio(a, b) = 100 * 2*LCS(a, b) / (len(a) + len(b)), measured in runes.
package fuzzy

import (
	"sort"
	"strings"
)

// Scorer compares two strings and returns a similarity between 0 and 100
type Scorer func(a, b string) float64

// Ratio returns the normalized InDel similarity of a and b
func Ratio(a, b string) float64 {
	var buf lcsBuffer
	return buf.ratio([]rune(a), []rune(b))
}

// lcsBuffer holds the two dynamic programming rows of an LCS computation so
// that repeated comparisons against one string allocate once.
type lcsBuffer struct {
	prev, curr []int
}

func (buf *lcsBuffer) ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return 100 * float64(2*buf.length(a, b)) / float64(total)
}

// length returns the length of the longest common subsequence of a and b
func (buf *lcsBuffer) length(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) > len(a) {
		a, b = b, a
	}
	if cap(buf.prev) < len(b)+1 {
		buf.prev = make([]int, len(b)+1)
		buf.curr = make([]int, len(b)+1)
	}
	prev, curr := buf.prev[:len(b)+1], buf.curr[:len(b)+1]
	clear(prev)
	clear(curr)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// PartialRatio returns the best Ratio between the shorter string and any
// equally long window of the longer string. Windows that hang off either end
// of the longer string are also considered.
func PartialRatio(a, b string) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	if a != "" && strings.Contains(b, a) {
		return 100
	}
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		if len(long) == 0 {
			return 100
		}
		return 0
	}

	var buf lcsBuffer
	if len(short) == len(long) {
		return buf.ratio(short, long)
	}

	n := len(short)
	best := 0.0
	for i := 0; i+n <= len(long); i++ {
		best = max(best, buf.ratio(short, long[i:i+n]))
		if best >= 100 {
			return 100
		}
	}
	for k := 1; k < n; k++ {
		best = max(best, buf.ratio(short, long[:k]), buf.ratio(short, long[len(long)-k:]))
		if best >= 100 {
			return 100
		}
	}
	return best
}

// TokenSetRatio compares the sets of whitespace-separated tokens of a and b.
// When one token set is contained in the other the score is 100.
func TokenSetRatio(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var inter, diffAB, diffBA []string
	for tok := range setA {
		if setB[tok] {
			inter = append(inter, tok)
		} else {
			diffAB = append(diffAB, tok)
		}
	}
	for tok := range setB {
		if !setA[tok] {
			diffBA = append(diffBA, tok)
		}
	}
	if len(inter) > 0 && (len(diffAB) == 0 || len(diffBA) == 0) {
		return 100
	}

	sort.Strings(inter)
	sort.Strings(diffAB)
	sort.Strings(diffBA)

	sect := strings.Join(inter, " ")
	combinedAB := strings.TrimSpace(sect + " " + strings.Join(diffAB, " "))
	combinedBA := strings.TrimSpace(sect + " " + strings.Join(diffBA, " "))

	best := Ratio(combinedAB, combinedBA)
	if sect != "" {
		best = max(best, Ratio(sect, combinedAB), Ratio(sect, combinedBA))
	}
	return best
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

// ExtractOne returns the choice with the highest score against query.
// Ties keep the earliest choice. Index is -1 when choices is empty.
func ExtractOne(query string, choices []string, scorer Scorer) (choice string, score float64, index int) {
	index = -1
	for i, c := range choices {
		s := scorer(query, c)
		if index == -1 || s > score {
			choice, score, index = c, s, i
		}
	}
	return choice, score, index
}
