package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/TbrosN/clarity/domain/survey"
	"github.com/TbrosN/clarity/internal/errors"
)

const historySheet = "History"

// Exporter renders a user's daily-log history as a spreadsheet: one row per
// date, one column per question in catalog order.
type Exporter struct {
	catalog *survey.Catalog
}

func NewExporter(catalog *survey.Catalog) *Exporter {
	return &Exporter{catalog: catalog}
}

// Export writes an xlsx workbook of the logs (most recent date first) to w.
func (e *Exporter) Export(logs []survey.DailyLog, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), historySheet)

	keys := e.catalog.Keys()
	header := []any{"Date"}
	for _, key := range keys {
		header = append(header, e.catalog.SpecOrDefault(key).Label)
	}
	if err := f.SetSheetRow(historySheet, "A1", &header); err != nil {
		return errors.Wrap(err, "failed to write header row")
	}

	for i, log := range logs {
		row := []any{string(log.Date)}
		for _, key := range keys {
			if entry, ok := log.Responses[key]; ok && entry.Value != nil {
				row = append(row, entry.Value)
			} else {
				row = append(row, "")
			}
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(historySheet, cell, &row); err != nil {
			return errors.Wrapf(err, "failed to write row for %s", log.Date)
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "failed to write workbook")
	}
	return nil
}
