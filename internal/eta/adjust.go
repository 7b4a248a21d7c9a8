package eta

import (
	"strings"

	"github.com/sells-group/openings-cli/internal/model"
	"github.com/sells-group/openings-cli/internal/signal"
)

// deadPermitTerms mark permit types that no longer support an opening.
var deadPermitTerms = []string{"expired", "voided", "cancelled", "denied"}

// deadTABCTerms mark TABC statuses that no longer support an opening.
var deadTABCTerms = []string{"inactive", "denied", "rejected", "cancelled", "withdrawn"}

// Multiplier computes the compound confidence penalty for one entity.
// Penalties are independent and multiplicative; a short address, a dead
// permit, and a withdrawn TABC application all stack. The result is
// clamped to minMultiplier from below.
func Multiplier(entity model.ResolvedEntity, f signal.Features, minMultiplier float64) float64 {
	m := 1.0

	if len(strings.TrimSpace(entity.Address)) < 10 {
		m *= 0.9
	}
	if len(strings.TrimSpace(entity.VenueName)) < 3 {
		m *= 0.9
	}

	for _, permit := range f.PermitTypes {
		if containsAny(strings.ToLower(permit), deadPermitTerms) {
			m *= 0.7
			break
		}
	}

	if containsAny(strings.ToLower(f.TABCStatus), deadTABCTerms) {
		m *= 0.5
	}

	if m < minMultiplier {
		m = minMultiplier
	}
	return m
}
