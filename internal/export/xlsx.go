package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/openings-cli/internal/model"
)

// WriteXLSXFile writes leads to an XLSX workbook at path with a single
// "Leads" sheet.
func WriteXLSXFile(path string, leads []model.Lead) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, col := range leadHeader {
		header.AddCell().Value = col
	}

	for _, lead := range leads {
		row := sheet.AddRow()
		for _, val := range leadRow(lead) {
			row.AddCell().Value = val
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}

	zap.L().Info("export: xlsx written",
		zap.String("path", path),
		zap.Int("leads", len(leads)),
	)
	return nil
}
