package extraction

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/catalog-importer/constants"
	"github.com/joseph-ayodele/catalog-importer/internal/common"
	"github.com/joseph-ayodele/catalog-importer/internal/entity"
	"github.com/joseph-ayodele/catalog-importer/internal/ingest"
	"github.com/joseph-ayodele/catalog-importer/internal/pipeline"
)

type fakeJobs struct {
	batch   pipeline.Batch
	records map[string][]entity.ProductRecord
	status  map[string]constants.JobStatus
}

func (f *fakeJobs) Submit(_ context.Context, b pipeline.Batch) (*entity.ExtractionJob, error) {
	f.batch = b
	return entity.NewExtractionJob("job-1", len(b.Files), time.Now()), nil
}

func (f *fakeJobs) GetJob(_ context.Context, id string) (*entity.ExtractionJob, error) {
	st, ok := f.status[id]
	if !ok {
		return nil, common.JobNotFoundError(id)
	}
	job := entity.NewExtractionJob(id, 1, time.Now())
	job.Status = st
	return job, nil
}

func (f *fakeJobs) GetResults(ctx context.Context, id string) ([]entity.ProductRecord, error) {
	job, err := f.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != constants.JobStatusCompleted {
		return nil, common.JobNotCompletedError(id, string(job.Status))
	}
	return f.records[id], nil
}

type fakeResolver struct {
	suppliers  []string
	categories []string
}

func (f *fakeResolver) ResolveSupplier(_ context.Context, name string) (int64, error) {
	f.suppliers = append(f.suppliers, name)
	return 11, nil
}

func (f *fakeResolver) ResolveCategory(_ context.Context, path string) (int64, error) {
	f.categories = append(f.categories, path)
	return 22, nil
}

type fakeImporter struct {
	indices []int
	refs    entity.References
	called  bool
}

func (f *fakeImporter) ConfirmImport(_ context.Context, _ string, indices []int, refs entity.References) (entity.ImportOutcome, error) {
	f.called = true
	f.indices = indices
	f.refs = refs
	return entity.ImportOutcome{SelectedCount: len(indices), CreatedCount: len(indices)}, nil
}

func newTestService(t *testing.T, jobs *fakeJobs) (*Service, *fakeResolver, *fakeImporter, string) {
	t.Helper()
	root := t.TempDir()
	res := &fakeResolver{}
	imp := &fakeImporter{}
	svc := NewService(jobs, ingest.NewFSIngestor(root, 1024, nil), res, imp, nil, nil)
	return svc, res, imp, root
}

func TestSubmitUploads_StagesFilesAndCleansUpWithJob(t *testing.T) {
	jobs := &fakeJobs{}
	svc, _, _, root := newTestService(t, jobs)

	job, err := svc.SubmitUploads(context.Background(), []Upload{
		{Name: "prices.csv", Body: strings.NewReader("name,price\nChair,10\n")},
		{Name: "../../sneaky.csv", Body: strings.NewReader("name\nDesk\n")},
	})
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusPending, job.Status)
	require.Len(t, jobs.batch.Files, 2)

	for _, f := range jobs.batch.Files {
		assert.True(t, strings.HasPrefix(f.Path, root), f.Path)
		_, err := os.Stat(f.Path)
		require.NoError(t, err)
	}
	assert.Equal(t, "sneaky.csv", jobs.batch.Files[1].Name)

	require.NotNil(t, jobs.batch.Cleanup)
	jobs.batch.Cleanup()
	_, err = os.Stat(filepath.Dir(jobs.batch.Files[0].Path))
	assert.True(t, os.IsNotExist(err))
}

func TestSubmitUploads_RejectsEmptyAndOversized(t *testing.T) {
	jobs := &fakeJobs{}
	svc, _, _, root := newTestService(t, jobs)

	_, err := svc.SubmitUploads(context.Background(), nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.SubmitUploads(context.Background(), []Upload{
		{Name: "big.csv", Body: strings.NewReader(strings.Repeat("x", 4096))},
	})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging dir should be removed after a failed upload")
}

func TestConfirm_ResolvesReferencesThenImports(t *testing.T) {
	jobs := &fakeJobs{
		status:  map[string]constants.JobStatus{"job-1": constants.JobStatusCompleted},
		records: map[string][]entity.ProductRecord{"job-1": {{Name: "A"}, {Name: "B"}}},
	}
	svc, res, imp, _ := newTestService(t, jobs)

	out, err := svc.Confirm(context.Background(), " job-1 ", ConfirmRequest{
		RecordIndices: []int{1},
		Supplier:      " Acme ",
		Category:      "Furniture > Chairs",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.CreatedCount)
	assert.Equal(t, []string{"Acme"}, res.suppliers)
	assert.Equal(t, []string{"Furniture > Chairs"}, res.categories)
	assert.Equal(t, []int{1}, imp.indices)
	assert.Equal(t, entity.References{SupplierID: 11, CategoryID: 22}, imp.refs)
}

func TestConfirm_CallerErrorsCreateNothing(t *testing.T) {
	jobs := &fakeJobs{
		status: map[string]constants.JobStatus{
			"done":    constants.JobStatusCompleted,
			"running": constants.JobStatusProcessing,
		},
		records: map[string][]entity.ProductRecord{"done": {{Name: "A"}}},
	}

	tests := []struct {
		name  string
		jobID string
		req   ConfirmRequest
		want  error
	}{
		{"missing supplier", "done", ConfirmRequest{Category: "X"}, common.ErrInvalidInput},
		{"missing category", "done", ConfirmRequest{Supplier: "S"}, common.ErrInvalidInput},
		{"unknown job", "nope", ConfirmRequest{Supplier: "S", Category: "X"}, common.ErrJobNotFound},
		{"unfinished job", "running", ConfirmRequest{Supplier: "S", Category: "X"}, common.ErrJobNotCompleted},
		{"index out of range", "done", ConfirmRequest{Supplier: "S", Category: "X", RecordIndices: []int{0, 1}}, common.ErrRecordIndexOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, res, imp, _ := newTestService(t, jobs)
			_, err := svc.Confirm(context.Background(), tt.jobID, tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, res.suppliers)
			assert.Empty(t, res.categories)
			assert.False(t, imp.called)
		})
	}
}
