package export

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/openings-cli/internal/model"
)

// WriteCSV streams leads to w as CSV with a header row.
func WriteCSV(w io.Writer, leads []model.Lead) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(leadHeader); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, lead := range leads {
		if err := cw.Write(leadRow(lead)); err != nil {
			return eris.Wrapf(err, "export: write csv row for lead %s", lead.ID)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteCSVFile writes leads to a CSV file at path.
func WriteCSVFile(path string, leads []model.Lead) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close()

	if err := WriteCSV(f, leads); err != nil {
		return err
	}

	zap.L().Info("export: csv written",
		zap.String("path", path),
		zap.Int("leads", len(leads)),
	)
	return nil
}
