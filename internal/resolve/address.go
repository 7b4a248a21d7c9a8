// Package resolve deduplicates noisy multi-source business records into
// canonical entities.
package resolve

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/openings-cli/internal/model"
)

var (
	zipRe          = regexp.MustCompile(`\b(\d{5}(?:-\d{4})?)\b`)
	stateRe        = regexp.MustCompile(`\b(tx|texas)\b`)
	streetNumberRe = regexp.MustCompile(`^(\d+[a-z]?)\s+(.+)`)

	// Suite patterns are shared by address parsing and base-address
	// stripping so rule 5 of the classifier sees the same tokens.
	suiteRes = []*regexp.Regexp{
		regexp.MustCompile(`(suite|ste|unit|apt|apartment|#)\s*([a-z0-9\-]+)`),
		regexp.MustCompile(`#\s*([a-z0-9\-]+)`),
	}
)

// streetTypeAliases maps lowercase street-type tokens to their canonical form.
var streetTypeAliases = map[string]string{
	"st": "Street", "str": "Street", "street": "Street",
	"ave": "Avenue", "av": "Avenue", "avenue": "Avenue",
	"blvd": "Boulevard", "bv": "Boulevard", "boulevard": "Boulevard",
	"rd": "Road", "road": "Road",
	"dr": "Drive", "drive": "Drive",
	"ln": "Lane", "lane": "Lane",
	"ct": "Court", "court": "Court",
	"cir": "Circle", "circle": "Circle",
	"way": "Way",
	"pl":  "Place", "place": "Place",
	"pkwy": "Parkway", "parkway": "Parkway",
}

// cityAliases maps lowercase metro-area city spellings to their canonical name.
var cityAliases = map[string]string{
	"houston": "Houston", "htown": "Houston", "space city": "Houston",
	"sugar land": "Sugar Land", "sugarland": "Sugar Land",
	"the woodlands": "The Woodlands", "woodlands": "The Woodlands",
	"katy":        "Katy",
	"pearland":    "Pearland",
	"pasadena":    "Pasadena",
	"league city": "League City",
	"cypress":     "Cypress",
	"spring":      "Spring",
	"tomball":     "Tomball",
	"humble":      "Humble",
	"kingwood":    "Kingwood",
}

// AddressParser parses free-text addresses into components and computes
// pairwise similarity. Heuristic and string-based only; it never calls
// a geocoding service.
type AddressParser struct{}

// NewAddressParser creates an AddressParser.
func NewAddressParser() *AddressParser {
	return &AddressParser{}
}

// Parse splits lowercased address text into structured components and
// builds a canonical rendering.
func (p *AddressParser) Parse(text string) model.AddressComponents {
	if strings.TrimSpace(text) == "" {
		return model.AddressComponents{}
	}

	addr := strings.ToLower(strings.TrimSpace(text))
	var comp model.AddressComponents

	if m := zipRe.FindString(addr); m != "" {
		comp.Zip = m
		addr = strings.TrimSpace(strings.Replace(addr, m, "", 1))
	}

	if m := stateRe.FindString(addr); m != "" {
		comp.State = "TX"
		addr = strings.TrimSpace(strings.Replace(addr, m, "", 1))
	}

	for _, re := range suiteRes {
		if m := re.FindStringSubmatch(addr); m != nil {
			comp.Suite = m[len(m)-1]
			addr = strings.TrimSpace(strings.Replace(addr, m[0], "", 1))
			break
		}
	}

	var parts []string
	for _, seg := range strings.Split(addr, ",") {
		if s := strings.TrimSpace(seg); s != "" {
			parts = append(parts, s)
		}
	}

	if len(parts) > 0 {
		street := parts[0]
		if m := streetNumberRe.FindStringSubmatch(street); m != nil {
			comp.StreetNumber = m[1]
			comp.StreetName = normalizeStreetName(m[2])
		} else {
			comp.StreetName = normalizeStreetName(street)
		}
	}
	if len(parts) > 1 {
		comp.City = normalizeCity(parts[1])
	}

	var rendered []string
	street := strings.TrimSpace(comp.StreetNumber + " " + comp.StreetName)
	if street != "" {
		rendered = append(rendered, street)
	}
	for _, s := range []string{comp.City, comp.State, comp.Zip} {
		if s != "" {
			rendered = append(rendered, s)
		}
	}
	comp.Normalized = strings.Join(rendered, ", ")

	return comp
}

// BaseAddress strips any suite/unit token from an address so records at
// the same building differing only by suite compare equal.
func (p *AddressParser) BaseAddress(text string) string {
	addr := strings.TrimSpace(text)
	if addr == "" {
		return ""
	}
	lower := strings.ToLower(addr)
	for _, re := range suiteRes {
		lower = re.ReplaceAllString(lower, "")
	}
	lower = strings.Join(strings.Fields(lower), " ")
	return strings.TrimSpace(strings.Trim(lower, ","))
}

// Similarity scores two free-text addresses in [0, 1]. Field weights
// only enter the denominator when both sides carry the field, so a pair
// with sparse data is scored on what the two sides share.
func (p *AddressParser) Similarity(a, b string) float64 {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0
	}

	ca := p.Parse(a)
	cb := p.Parse(b)

	var score, total float64

	if ca.StreetNumber != "" && cb.StreetNumber != "" {
		total += 0.4
		if strings.EqualFold(ca.StreetNumber, cb.StreetNumber) {
			score += 0.4
		}
	}
	if ca.StreetName != "" && cb.StreetName != "" {
		total += 0.3
		score += 0.3 * tokenJaccard(strings.ToLower(ca.StreetName), strings.ToLower(cb.StreetName))
	}
	if ca.City != "" && cb.City != "" {
		total += 0.2
		if strings.EqualFold(ca.City, cb.City) {
			score += 0.2
		}
	}
	if ca.Zip != "" && cb.Zip != "" {
		total += 0.1
		if ca.Zip == cb.Zip {
			score += 0.1
		}
	}

	if total == 0 {
		return 0
	}
	return score / total
}

func normalizeStreetName(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return ""
	}
	if canonical, ok := streetTypeAliases[words[len(words)-1]]; ok {
		words[len(words)-1] = canonical
	}
	return titleCase(strings.Join(words, " "))
}

func normalizeCity(city string) string {
	lower := strings.ToLower(strings.TrimSpace(city))
	if lower == "" {
		return ""
	}
	if canonical, ok := cityAliases[lower]; ok {
		return canonical
	}
	return titleCase(lower)
}

func titleCase(s string) string {
	return cases.Title(language.AmericanEnglish).String(s)
}

// tokenJaccard computes token-set Jaccard similarity of two strings.
func tokenJaccard(a, b string) float64 {
	if a == b {
		return 1
	}
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}
