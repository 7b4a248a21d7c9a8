package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/openings-cli/internal/model"
	"github.com/sells-group/openings-cli/internal/store"
)

var (
	pushRunID string
	pushLimit int
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push unpushed qualified leads to Salesforce",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		sf, err := initSalesforce()
		if err != nil {
			return err
		}

		leads, err := st.ListLeads(ctx, store.LeadFilter{
			RunID:    pushRunID,
			Unpushed: true,
			Limit:    pushLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list unpushed leads")
		}
		if len(leads) == 0 {
			fmt.Println("no unpushed leads")
			return nil
		}

		records := make([]map[string]any, len(leads))
		for i, lead := range leads {
			records[i] = leadSObject(lead)
		}

		results, err := sf.InsertCollection(ctx, "Lead", records)
		if err != nil {
			return eris.Wrap(err, "insert leads")
		}

		pushed, failed := 0, 0
		for i, res := range results {
			if !res.Success {
				failed++
				zap.L().Warn("lead push rejected",
					zap.String("lead_id", leads[i].ID),
					zap.Strings("errors", res.Errors),
				)
				continue
			}
			if err := st.MarkPushed(ctx, leads[i].ID, res.ID); err != nil {
				zap.L().Error("mark pushed failed",
					zap.String("lead_id", leads[i].ID),
					zap.Error(err),
				)
				continue
			}
			pushed++
		}

		fmt.Printf("pushed %d leads, %d failed\n", pushed, failed)
		return nil
	},
}

// leadSObject maps a lead onto Salesforce Lead fields. Company is
// required by the Lead sObject, so the venue name doubles as company
// when no legal name exists.
func leadSObject(lead model.Lead) map[string]any {
	company := lead.Entity.LegalName
	if company == "" {
		company = lead.Entity.VenueName
	}
	return map[string]any{
		"Company":     company,
		"LastName":    lead.Entity.VenueName,
		"Street":      lead.Entity.Address,
		"City":        lead.Entity.City,
		"State":       lead.Entity.State,
		"PostalCode":  lead.Entity.Zip,
		"Phone":       lead.Entity.Phone,
		"Email":       lead.Entity.Email,
		"LeadSource":  "Opening Pipeline",
		"Description": pushDescription(lead),
	}
}

func pushDescription(lead model.Lead) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Estimated opening %s (%s, confidence %.2f).",
		lead.Result.Window(), lead.Result.RuleName, lead.Result.Confidence)
	if lead.Result.Rationale != "" {
		sb.WriteString(" ")
		sb.WriteString(lead.Result.Rationale)
	}
	if len(lead.Entity.SourceRecordIDs) > 0 {
		fmt.Fprintf(&sb, " Sources: %s.", strings.Join(lead.Entity.SourceRecordIDs, ", "))
	}
	return sb.String()
}

func init() {
	pushCmd.Flags().StringVar(&pushRunID, "run", "", "limit to a single run ID")
	pushCmd.Flags().IntVar(&pushLimit, "limit", 200, "maximum leads per push")
	rootCmd.AddCommand(pushCmd)
}
