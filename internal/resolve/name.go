package resolve

import (
	"regexp"
	"strings"
)

// businessSuffixes lists trailing tokens stripped during business name
// normalization. Generic venue words are included on purpose: "Joe's
// Pizza" and "Joe's Pizza Restaurant LLC" should normalize identically.
var businessSuffixes = []string{
	"llc", "inc", "corp", "ltd", "co", "company", "corporation",
	"incorporated", "limited", "restaurant", "cafe", "bar", "grill",
}

var (
	suffixRes    = buildSuffixRes()
	punctRe      = regexp.MustCompile(`[^\w\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

func buildSuffixRes() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(businessSuffixes))
	for i, s := range businessSuffixes {
		res[i] = regexp.MustCompile(`\b` + s + `\.?\s*$`)
	}
	return res
}

// NormalizeName lowercases a business name, strips trailing business
// suffixes until none remain, replaces punctuation with spaces, and
// collapses whitespace.
func NormalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return ""
	}

	for {
		stripped := false
		for _, re := range suffixRes {
			if re.MatchString(n) {
				n = strings.TrimSpace(re.ReplaceAllString(n, ""))
				stripped = true
			}
		}
		if !stripped || n == "" {
			break
		}
	}

	n = punctRe.ReplaceAllString(n, " ")
	n = strings.TrimSpace(whitespaceRe.ReplaceAllString(n, " "))
	return n
}

// NameSimilarity scores two business names in [0, 1]: token-set Jaccard
// of the normalized names, plus a 0.2 bonus (capped at 1.0) when one
// normalized name contains the other.
func NameSimilarity(a, b string) float64 {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0
	}

	na := NormalizeName(a)
	nb := NormalizeName(b)

	if na == nb {
		return 1
	}
	if na == "" || nb == "" {
		return 0
	}

	sim := tokenJaccard(na, nb)
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		sim += 0.2
		if sim > 1 {
			sim = 1
		}
	}
	return sim
}
