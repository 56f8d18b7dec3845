package extraction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/catalog-importer/internal/common"
	"github.com/joseph-ayodele/catalog-importer/internal/entity"
	"github.com/joseph-ayodele/catalog-importer/internal/ingest"
	"github.com/joseph-ayodele/catalog-importer/internal/pipeline"
)

// Jobs is the orchestrator surface the service drives.
type Jobs interface {
	Submit(ctx context.Context, batch pipeline.Batch) (*entity.ExtractionJob, error)
	GetJob(ctx context.Context, jobID string) (*entity.ExtractionJob, error)
	GetResults(ctx context.Context, jobID string) ([]entity.ProductRecord, error)
}

// Stager writes uploads to a per-batch staging directory.
type Stager interface {
	BatchDir(batchID string) (string, error)
	StageUpload(dir, name string, r io.Reader) (ingest.SourceFile, error)
	Cleanup(dir string)
}

// Resolver turns supplier and category names into catalog ids.
type Resolver interface {
	ResolveSupplier(ctx context.Context, name string) (int64, error)
	ResolveCategory(ctx context.Context, path string) (int64, error)
}

// Importer confirms selected records of a finished job.
type Importer interface {
	ConfirmImport(ctx context.Context, jobID string, indices []int, refs entity.References) (entity.ImportOutcome, error)
}

// Exporter renders a finished job as a workbook.
type Exporter interface {
	ExportJobXLSX(ctx context.Context, jobID string) ([]byte, error)
}

// MaxReferenceLength bounds supplier names and category paths.
const MaxReferenceLength = 200

// Upload is one file of a submission.
type Upload struct {
	Name string
	Body io.Reader
}

// ConfirmRequest selects records to import. A nil RecordIndices imports every record.
type ConfirmRequest struct {
	RecordIndices []int  `json:"record_indices"`
	Supplier      string `json:"supplier"`
	Category      string `json:"category"`
}

// Service validates caller input and wires staging, the orchestrator, the mapper and the export.
type Service struct {
	jobs     Jobs
	stager   Stager
	resolver Resolver
	importer Importer
	exporter Exporter
	logger   *slog.Logger
}

func NewService(jobs Jobs, stager Stager, resolver Resolver, importer Importer, exporter Exporter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		jobs:     jobs,
		stager:   stager,
		resolver: resolver,
		importer: importer,
		exporter: exporter,
		logger:   logger,
	}
}

// SubmitUploads stages every upload and queues one extraction job for the batch.
// Staged files are removed when the job finishes, or right away if staging fails.
func (s *Service) SubmitUploads(ctx context.Context, uploads []Upload) (*entity.ExtractionJob, error) {
	if len(uploads) == 0 {
		return nil, common.InvalidInputErrorf("at least one file is required")
	}

	dir, err := s.stager.BatchDir(uuid.NewString())
	if err != nil {
		return nil, common.WrapError(err, "stage batch")
	}

	files := make([]ingest.SourceFile, 0, len(uploads))
	for _, u := range uploads {
		sf, err := s.stager.StageUpload(dir, u.Name, u.Body)
		if err != nil {
			s.stager.Cleanup(dir)
			if errors.Is(err, ingest.ErrTooLarge) {
				return nil, common.InvalidInputErrorf("%v", err)
			}
			s.logger.Error("extraction.stage.failed", "file", u.Name, "error", err)
			return nil, common.WrapError(err, fmt.Sprintf("stage %s", u.Name))
		}
		files = append(files, sf)
	}

	job, err := s.jobs.Submit(ctx, pipeline.Batch{
		Files:   files,
		Cleanup: func() { s.stager.Cleanup(dir) },
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("extraction.submitted",
		"job_id", job.ID,
		"files", len(files),
		"status", job.Status,
		"request_id", common.RequestIDFromContext(ctx),
	)
	return job, nil
}

func (s *Service) GetJob(ctx context.Context, jobID string) (*entity.ExtractionJob, error) {
	return s.jobs.GetJob(ctx, strings.TrimSpace(jobID))
}

func (s *Service) GetResults(ctx context.Context, jobID string) ([]entity.ProductRecord, error) {
	return s.jobs.GetResults(ctx, strings.TrimSpace(jobID))
}

func (s *Service) ExportXLSX(ctx context.Context, jobID string) ([]byte, error) {
	return s.exporter.ExportJobXLSX(ctx, strings.TrimSpace(jobID))
}

// Confirm imports the selected records of a completed job under the named supplier and category.
// The job is checked before any reference is created, so a bad job id leaves the catalog untouched.
func (s *Service) Confirm(ctx context.Context, jobID string, req ConfirmRequest) (entity.ImportOutcome, error) {
	jobID = strings.TrimSpace(jobID)
	supplier := strings.TrimSpace(req.Supplier)
	category := strings.TrimSpace(req.Category)
	if err := common.NewValidator().
		Field("supplier", supplier, common.Required, common.MaxLength(MaxReferenceLength)).
		Field("category", category, common.Required, common.MaxLength(MaxReferenceLength)).
		Err(); err != nil {
		return entity.ImportOutcome{}, err
	}

	recs, err := s.jobs.GetResults(ctx, jobID)
	if err != nil {
		return entity.ImportOutcome{}, err
	}
	for _, idx := range req.RecordIndices {
		if idx < 0 || idx >= len(recs) {
			return entity.ImportOutcome{}, common.IndexOutOfRangeError(idx, len(recs))
		}
	}

	supplierID, err := s.resolver.ResolveSupplier(ctx, supplier)
	if err != nil {
		return entity.ImportOutcome{}, err
	}
	categoryID, err := s.resolver.ResolveCategory(ctx, category)
	if err != nil {
		return entity.ImportOutcome{}, err
	}

	return s.importer.ConfirmImport(ctx, jobID, req.RecordIndices,
		entity.References{SupplierID: supplierID, CategoryID: categoryID})
}
