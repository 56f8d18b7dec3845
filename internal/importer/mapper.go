package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/catalog-importer/constants"
	"github.com/joseph-ayodele/catalog-importer/internal/common"
	"github.com/joseph-ayodele/catalog-importer/internal/entity"
	"github.com/joseph-ayodele/catalog-importer/internal/utils"
)

// ResultSource yields the records of a completed job.
type ResultSource interface {
	GetResults(ctx context.Context, jobID string) ([]entity.ProductRecord, error)
}

// BulkCreator is the catalog storage collaborator.
type BulkCreator interface {
	BulkCreate(ctx context.Context, payloads []entity.ProductPayload) (entity.BulkResult, error)
}

// Mapper turns confirmed records into creation payloads and accounts for what the store did with them.
type Mapper struct {
	jobs        ResultSource
	store       BulkCreator
	defaultUnit string
	logger      *slog.Logger
}

func NewMapper(jobs ResultSource, store BulkCreator, defaultUnit string, logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(defaultUnit) == "" {
		defaultUnit = constants.DefaultUnit
	}
	return &Mapper{jobs: jobs, store: store, defaultUnit: defaultUnit, logger: logger}
}

// ConfirmImport maps the selected records of jobID and submits them in one bulk call.
// A nil indices slice selects every record; an empty one selects none. Indices may repeat.
// Only unknown jobs, unfinished jobs and out-of-range indices are returned as errors.
func (m *Mapper) ConfirmImport(ctx context.Context, jobID string, indices []int, refs entity.References) (entity.ImportOutcome, error) {
	out := entity.ImportOutcome{ErrorDetails: []string{}, SkippedRecords: []string{}}

	records, err := m.jobs.GetResults(ctx, jobID)
	if err != nil {
		return out, err
	}

	selected, err := selectIndices(indices, len(records))
	if err != nil {
		return out, err
	}
	out.SelectedCount = len(selected)

	payloads := make([]entity.ProductPayload, 0, len(selected))
	for _, idx := range selected {
		rec := records[idx]
		if !rec.HasName() {
			out.SkippedRecords = append(out.SkippedRecords, fmt.Sprintf("record with no name at index %d", idx))
			continue
		}
		payloads = append(payloads, m.BuildPayload(rec, idx, refs))
	}

	if len(payloads) == 0 {
		m.logger.Info("importer.confirm.empty", "job_id", jobID, "selected", out.SelectedCount, "skipped", len(out.SkippedRecords))
		return out, nil
	}

	result, err := m.store.BulkCreate(ctx, payloads)
	if err != nil {
		// the whole call failed; every payload shares its message
		m.logger.Error("importer.bulk_create.failed", "job_id", jobID, "payloads", len(payloads), "error", err)
		result = entity.BulkResult{}
		for _, p := range payloads {
			result.Failed = append(result.Failed, entity.FailedPayload{Payload: p, Message: err.Error()})
		}
	}

	out.CreatedCount = len(result.Succeeded)
	for _, f := range result.Failed {
		if IsDuplicate(f.Message) {
			out.DuplicateCount++
			continue
		}
		out.OtherErrorCount++
		out.ErrorDetails = append(out.ErrorDetails,
			fmt.Sprintf("record %d (%s): %s", f.Payload.SourceIndex, f.Payload.Name, f.Message))
	}

	m.logger.Info("importer.confirm.done",
		"job_id", jobID,
		"selected", out.SelectedCount,
		"created", out.CreatedCount,
		"duplicates", out.DuplicateCount,
		"errors", out.OtherErrorCount,
		"skipped", len(out.SkippedRecords),
	)
	return out, nil
}

// BuildPayload maps one named record. Material is folded into the description, the
// minimum order quantity defaults to 1 and a missing unit takes the mapper's default.
func (m *Mapper) BuildPayload(rec entity.ProductRecord, index int, refs entity.References) entity.ProductPayload {
	desc := utils.StrOrEmpty(rec.Description)
	if mat := strings.TrimSpace(utils.StrOrEmpty(rec.Material)); mat != "" {
		desc += "\nMaterial: " + mat
	}
	moq := 1
	if rec.MinimumOrderQuantity != nil {
		moq = *rec.MinimumOrderQuantity
	}
	unit := m.defaultUnit
	if u := strings.TrimSpace(utils.StrOrEmpty(rec.UnitOfMeasure)); u != "" {
		unit = u
	}

	p := entity.ProductPayload{
		SupplierID:           refs.SupplierID,
		CategoryID:           refs.CategoryID,
		SKU:                  strings.TrimSpace(utils.StrOrEmpty(rec.SKU)),
		Name:                 strings.TrimSpace(rec.Name),
		Description:          desc,
		MinimumOrderQuantity: moq,
		UnitOfMeasure:        unit,
		Dimensions:           utils.StrOrEmpty(rec.Dimensions),
		Material:             utils.StrOrEmpty(rec.Material),
		ImageReferences:      append([]string(nil), rec.ImageReferences...),
		SourceIndex:          index,
	}
	if rec.Price != nil {
		price := *rec.Price
		p.Price = &price
	}
	return p
}

// IsDuplicate reports whether a store message describes a uniqueness violation.
func IsDuplicate(message string) bool {
	msg := strings.ToLower(message)
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}

func selectIndices(indices []int, n int) ([]int, error) {
	if indices == nil {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	for _, idx := range indices {
		if idx < 0 || idx >= n {
			return nil, common.IndexOutOfRangeError(idx, n)
		}
	}
	return append([]int(nil), indices...), nil
}
