package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/openings-cli/internal/model"
)

var (
	runInput    string
	runNow      string
	runNoOracle bool
	runDryRun   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the lead pipeline over a batch of raw records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		records, err := loadRecords(runInput)
		if err != nil {
			return err
		}

		now := time.Now()
		if runNow != "" {
			now, err = time.Parse(time.RFC3339, runNow)
			if err != nil {
				return eris.Wrapf(err, "parse --now %q", runNow)
			}
		}

		p, err := buildPipeline(!runNoOracle)
		if err != nil {
			return err
		}

		result, err := p.Run(ctx, records, now)
		if err != nil {
			return eris.Wrap(err, "run pipeline")
		}

		if !runDryRun {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
			if err := st.SaveRun(ctx, result.Summary); err != nil {
				return eris.Wrap(err, "save run")
			}
			if err := st.SaveLeads(ctx, result.Leads); err != nil {
				return eris.Wrap(err, "save leads")
			}
		}

		fmt.Printf("run %s: %d records -> %d entities, %d scored, %d qualified\n",
			result.RunID, result.Summary.Records, result.Summary.Entities,
			result.Summary.Scored, result.Summary.Qualified)

		for _, lead := range result.Leads {
			fmt.Printf("  %-40s %-32s conf %.2f  %s\n",
				lead.Entity.VenueName, lead.Result.RuleName,
				lead.Result.Confidence, lead.Result.Window())
		}

		return nil
	},
}

// loadRecords reads a JSON array of raw records from path, or stdin
// when path is "-".
func loadRecords(path string) ([]model.RawRecord, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "read records from %s", path)
	}

	var records []model.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrap(err, "decode records")
	}

	zap.L().Info("records loaded", zap.String("path", path), zap.Int("count", len(records)))
	return records, nil
}

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "path to JSON records file (- for stdin)")
	runCmd.Flags().StringVar(&runNow, "now", "", "reference time as RFC3339 (default wall clock)")
	runCmd.Flags().BoolVar(&runNoOracle, "no-oracle", false, "skip Claude arbitration and adjustment")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "score without persisting")
	runCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(runCmd)
}
