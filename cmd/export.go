package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/openings-cli/internal/export"
	"github.com/sells-group/openings-cli/internal/store"
)

var (
	exportRunID  string
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export qualified leads to CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		leads, err := st.ListLeads(ctx, store.LeadFilter{
			RunID: exportRunID,
			Limit: 10000,
		})
		if err != nil {
			return eris.Wrap(err, "list leads")
		}
		if len(leads) == 0 {
			fmt.Println("no leads to export")
			return nil
		}

		out := exportOut
		if out == "" {
			if err := os.MkdirAll(cfg.Export.Dir, 0o755); err != nil {
				return eris.Wrap(err, "create export dir")
			}
			name := fmt.Sprintf("leads_%s.%s", time.Now().Format("20060102_150405"), exportFormat)
			out = filepath.Join(cfg.Export.Dir, name)
		}

		switch exportFormat {
		case "csv":
			err = export.WriteCSVFile(out, leads)
		case "xlsx":
			err = export.WriteXLSXFile(out, leads)
		default:
			return eris.Errorf("unsupported format: %s", exportFormat)
		}
		if err != nil {
			return err
		}

		fmt.Printf("exported %d leads to %s\n", len(leads), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportRunID, "run", "", "limit to a single run ID")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format: csv or xlsx")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path (default under export dir)")
	rootCmd.AddCommand(exportCmd)
}
