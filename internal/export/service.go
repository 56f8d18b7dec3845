package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/catalog-importer/internal/entity"
	"github.com/joseph-ayodele/catalog-importer/internal/utils"
)

const SheetName = "Products"

// Headers are the review workbook's columns, in order.
var Headers = []string{
	"#",
	"SKU",
	"Name",
	"Description",
	"Price",
	"MOQ",
	"Unit",
	"Dimensions",
	"Material",
	"Suggested Category",
	"Images",
	"Source",
	"Confidence",
}

// ResultSource yields the records of a completed job.
type ResultSource interface {
	GetResults(ctx context.Context, jobID string) ([]entity.ProductRecord, error)
}

// Service renders extracted records as an XLSX workbook for reviewers.
type Service struct {
	jobs   ResultSource
	logger *slog.Logger
}

func NewService(jobs ResultSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobs: jobs, logger: logger}
}

// ExportJobXLSX returns the workbook bytes for a completed job's records.
func (s *Service) ExportJobXLSX(ctx context.Context, jobID string) ([]byte, error) {
	start := time.Now()
	recs, err := s.jobs.GetResults(ctx, jobID)
	if err != nil {
		return nil, err
	}

	out, err := RecordsXLSX(recs)
	if err != nil {
		return nil, err
	}

	s.logger.Info("export.xlsx.ok",
		"job_id", jobID,
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// RecordsXLSX builds a single-sheet workbook, one row per record. Column A holds the
// record index that confirmation requests refer to.
func RecordsXLSX(recs []entity.ProductRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// rename the default sheet rather than leaving an empty "Sheet1" behind
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, err
	}

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	for idx, r := range recs {
		row := idx + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}

		write(1, idx)
		write(2, utils.StrOrEmpty(r.SKU))
		write(3, r.Name)
		write(4, utils.Truncate(utils.StrOrEmpty(r.Description), 500))
		if r.Price != nil {
			write(5, r.Price.String())
		}
		if r.MinimumOrderQuantity != nil {
			write(6, *r.MinimumOrderQuantity)
		}
		write(7, utils.StrOrEmpty(r.UnitOfMeasure))
		write(8, utils.StrOrEmpty(r.Dimensions))
		write(9, utils.StrOrEmpty(r.Material))
		write(10, utils.StrOrEmpty(r.SuggestedCategory))
		write(11, strings.Join(r.ImageReferences, ", "))
		write(12, utils.StrOrEmpty(r.SourcePageOrSheet))
		write(13, r.ConfidenceScore())
	}

	// Widen a few columns
	_ = f.SetColWidth(SheetName, "A", "A", 6)
	_ = f.SetColWidth(SheetName, "B", "B", 16)
	_ = f.SetColWidth(SheetName, "C", "C", 32)
	_ = f.SetColWidth(SheetName, "D", "D", 48)
	_ = f.SetColWidth(SheetName, "E", "G", 10)
	_ = f.SetColWidth(SheetName, "H", "J", 20)
	_ = f.SetColWidth(SheetName, "K", "L", 28)
	_ = f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
