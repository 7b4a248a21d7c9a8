// Package export writes qualified leads to CSV and XLSX files for the
// sales team.
package export

import (
	"strconv"
	"strings"

	"github.com/sells-group/openings-cli/internal/model"
)

// leadHeader is the column layout shared by the CSV and XLSX writers.
var leadHeader = []string{
	"venue_name",
	"legal_name",
	"address",
	"city",
	"state",
	"zip",
	"phone",
	"email",
	"sources",
	"merged_from",
	"rule_name",
	"eta_window",
	"eta_days",
	"confidence",
	"signals_used",
	"rationale",
}

func leadRow(lead model.Lead) []string {
	e := lead.Entity
	return []string{
		e.VenueName,
		e.LegalName,
		e.Address,
		e.City,
		e.State,
		e.Zip,
		e.Phone,
		e.Email,
		strings.Join(e.SourceRecordIDs, "; "),
		strconv.Itoa(e.MergedFrom),
		lead.Result.RuleName,
		lead.Result.Window(),
		strconv.Itoa(lead.Result.ETADays),
		strconv.FormatFloat(lead.Result.Confidence, 'f', 2, 64),
		strings.Join(lead.Result.SignalsUsed, "; "),
		lead.Result.Rationale,
	}
}
