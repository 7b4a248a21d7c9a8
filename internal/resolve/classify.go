package resolve

import (
	"regexp"
	"strings"

	"github.com/sells-group/openings-cli/internal/model"
)

var nonDigitRe = regexp.MustCompile(`\D`)

// Classifier applies the deterministic same-entity rules to a record
// pair. Five independent hard gates, any of which is sufficient, so a
// single strong signal (an identical phone, say) overrides weak ones
// elsewhere.
type Classifier struct {
	addr *AddressParser
}

// NewClassifier creates a Classifier.
func NewClassifier(addr *AddressParser) *Classifier {
	return &Classifier{addr: addr}
}

// Match reports whether two records deterministically refer to the same
// business entity.
func (c *Classifier) Match(a, b model.RawRecord) model.MatchDecision {
	// Rule 1: normalized addresses exactly equal.
	na := c.addr.Parse(a.Address).Normalized
	nb := c.addr.Parse(b.Address).Normalized
	if na != "" && na == nb {
		return model.MatchDecision{IsMatch: true, Confidence: 1.0, Reasons: []string{"normalized_address_equal"}}
	}

	// Rule 2: phones agree on the last 10 digits.
	if phonesMatch(a.Phone, b.Phone) {
		return model.MatchDecision{IsMatch: true, Confidence: 1.0, Reasons: []string{"phone_equal"}}
	}

	// Rule 3: emails agree case-insensitively.
	if a.Email != "" && b.Email != "" && strings.EqualFold(a.Email, b.Email) {
		return model.MatchDecision{IsMatch: true, Confidence: 1.0, Reasons: []string{"email_equal"}}
	}

	addrSim := c.addr.Similarity(a.Address, b.Address)
	nameSim := NameSimilarity(a.VenueName, b.VenueName)

	// Rule 4: high address similarity plus high name similarity.
	if addrSim > 0.9 && nameSim > 0.8 {
		return model.MatchDecision{IsMatch: true, Confidence: 0.95, Reasons: []string{"address_name_similarity"}}
	}

	// Rule 5: near-identical names at the same building, suites aside.
	if nameSim > 0.95 && addrSim > 0.7 {
		ba := c.addr.BaseAddress(a.Address)
		bb := c.addr.BaseAddress(b.Address)
		if ba != "" && strings.EqualFold(ba, bb) {
			return model.MatchDecision{IsMatch: true, Confidence: 0.9, Reasons: []string{"base_address_equal"}}
		}
	}

	return model.MatchDecision{IsMatch: false}
}

// Ambiguous reports whether a pair that failed the deterministic test
// is close enough to justify an arbitration oracle call.
func (c *Classifier) Ambiguous(a, b model.RawRecord) bool {
	addrSim := c.addr.Similarity(a.Address, b.Address)
	nameSim := NameSimilarity(a.VenueName, b.VenueName)

	if addrSim > 0.4 && addrSim < 0.9 && nameSim > 0.3 {
		return true
	}
	if nameSim > 0.3 && nameSim < 0.8 && addrSim > 0.4 {
		return true
	}

	// Agreement on source flags present on both sides.
	common, total := 0, 0
	for _, key := range []string{model.FlagTABC, model.FlagHCPermit, model.FlagHCHealth} {
		va := a.SourceFlags[key]
		vb := b.SourceFlags[key]
		if va != "" && vb != "" {
			total++
			if va == vb {
				common++
			}
		}
	}
	return total > 0 && float64(common)/float64(total) > 0.5
}

func phonesMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	da := nonDigitRe.ReplaceAllString(a, "")
	db := nonDigitRe.ReplaceAllString(b, "")
	if len(da) < 10 || len(db) < 10 {
		return false
	}
	return da[len(da)-10:] == db[len(db)-10:]
}
