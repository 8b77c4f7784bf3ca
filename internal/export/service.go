package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-bundler/constants"
	"github.com/joseph-ayodele/invoice-bundler/internal/entity"
	"github.com/joseph-ayodele/invoice-bundler/internal/pipeline"
)

const sheet = "Invoices"

// Service produces XLSX bytes summarizing a batch run.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

var headers = []string{
	"Source File",
	"Status",
	"Invoice #",
	"Through Date",
	"PO#",
	"Job",
	"Lot",
	"Job Location",
	"Description",
	"Amount",
	"Pages",
	"Error",
}

// LedgerXLSX returns one row per submitted document, in submission order.
func (s *Service) LedgerXLSX(res pipeline.BatchResult) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, it := range res.Items {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, it.Document)
		write(2, string(it.Status))
		if r := it.Result; r != nil {
			rec := r.Record
			write(3, string(r.InvoiceID))
			write(4, rec.ThroughDate.Format(constants.DateLayout))
			write(5, entity.StrOr(rec.PONumber, constants.DefaultPONumber))
			write(6, entity.StrOr(rec.Job, ""))
			write(7, entity.StrOr(rec.Lot, ""))
			write(8, rec.JobLocation)
			write(9, truncate(entity.StrOr(rec.Description, ""), 140))
			write(10, entity.DisplayAmount(rec.Amount))
			write(11, r.Bundle.Pages)
		}
		if it.Err != nil {
			write(12, truncate(it.Err.Error(), 240))
		}
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 28) // file
	_ = f.SetColWidth(sheet, "B", "C", 12) // status, invoice
	_ = f.SetColWidth(sheet, "D", "D", 14) // date
	_ = f.SetColWidth(sheet, "E", "E", 18) // po
	_ = f.SetColWidth(sheet, "F", "G", 12) // job, lot
	_ = f.SetColWidth(sheet, "H", "I", 36) // location, description
	_ = f.SetColWidth(sheet, "J", "K", 12) // amount, pages
	_ = f.SetColWidth(sheet, "L", "L", 60) // error
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		s.logger.Warn("export.xlsx.panes_failed", "error", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"run_id", res.RunID.String(),
		"rows", len(res.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
