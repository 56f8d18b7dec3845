package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/catalog-importer/constants"
	"github.com/joseph-ayodele/catalog-importer/internal/common"
	"github.com/joseph-ayodele/catalog-importer/internal/entity"
	"github.com/joseph-ayodele/catalog-importer/internal/services/extraction"
)

type fakeService struct {
	uploads     map[string]string
	confirmReq  *extraction.ConfirmRequest
	job         *entity.ExtractionJob
	records     []entity.ProductRecord
	resultsErr  error
	getErr      error
	internalErr error
}

func (f *fakeService) SubmitUploads(_ context.Context, uploads []extraction.Upload) (*entity.ExtractionJob, error) {
	if len(uploads) == 0 {
		return nil, common.InvalidInputErrorf("at least one file is required")
	}
	f.uploads = map[string]string{}
	for _, u := range uploads {
		b, _ := io.ReadAll(u.Body)
		f.uploads[u.Name] = string(b)
	}
	return entity.NewExtractionJob("job-1", len(uploads), time.Now()), nil
}

func (f *fakeService) GetJob(context.Context, string) (*entity.ExtractionJob, error) {
	return f.job, f.getErr
}

func (f *fakeService) GetResults(context.Context, string) ([]entity.ProductRecord, error) {
	return f.records, f.resultsErr
}

func (f *fakeService) ExportXLSX(context.Context, string) ([]byte, error) {
	if f.internalErr != nil {
		return nil, f.internalErr
	}
	return []byte("PK-fake"), nil
}

func (f *fakeService) Confirm(_ context.Context, _ string, req extraction.ConfirmRequest) (entity.ImportOutcome, error) {
	f.confirmReq = &req
	return entity.ImportOutcome{SelectedCount: 2, CreatedCount: 2, ErrorDetails: []string{}, SkippedRecords: []string{}}, nil
}

func newTestRouter(svc ExtractionService, opts Options) http.Handler {
	return NewHandlers(svc, opts, nil).Routes()
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestSubmitExtraction_Accepted(t *testing.T) {
	svc := &fakeService{}
	router := newTestRouter(svc, Options{})

	body, ctype := multipartBody(t, map[string]string{"a.csv": "name\nChair\n", "b.csv": "name\nDesk\n"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extractions", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp submitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "job-1", resp.JobID)
	assert.Equal(t, string(constants.JobStatusPending), resp.Status)
	assert.Equal(t, "name\nChair\n", svc.uploads["a.csv"])
	assert.Len(t, svc.uploads, 2)
}

func TestSubmitExtraction_BadRequests(t *testing.T) {
	router := newTestRouter(&fakeService{}, Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extractions", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ctype := multipartBody(t, map[string]string{})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/extractions", body)
	req.Header.Set("Content-Type", ctype)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least one file is required")
}

func TestGetJob_ReturnsSummaryWithoutRecords(t *testing.T) {
	job := entity.NewExtractionJob("job-9", 2, time.Now())
	job.Records = []entity.ProductRecord{{Name: "Chair"}}
	router := newTestRouter(&fakeService{job: job}, Options{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/extractions/job-9", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "job-9", got["job_id"])
	assert.EqualValues(t, 1, got["record_count"])
	assert.NotContains(t, got, "records")
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		svc  *fakeService
		path string
		want int
		code string
	}{
		{"unknown job", &fakeService{getErr: common.JobNotFoundError("x")}, "/api/v1/extractions/x", http.StatusNotFound, common.CodeJobNotFound},
		{"not completed", &fakeService{resultsErr: common.JobNotCompletedError("x", "processing")}, "/api/v1/extractions/x/results", http.StatusConflict, common.CodeJobNotCompleted},
		{"index", &fakeService{resultsErr: common.IndexOutOfRangeError(3, 2)}, "/api/v1/extractions/x/results", http.StatusBadRequest, common.CodeIndexOutOfRange},
		{"internal", &fakeService{internalErr: errors.New("disk on fire")}, "/api/v1/extractions/x/export.xlsx", http.StatusInternalServerError, common.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestRouter(tt.svc, Options{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotContains(t, body.Error, "disk on fire")
		})
	}
}

func TestGetResults_ReturnsRecords(t *testing.T) {
	router := newTestRouter(&fakeService{records: []entity.ProductRecord{{Name: "Chair"}, {Name: "Desk"}}}, Options{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/extractions/job-1/results", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Count   int                    `json:"count"`
		Records []entity.ProductRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, "Desk", got.Records[1].Name)
}

func TestExportXLSX_SetsAttachmentHeaders(t *testing.T) {
	router := newTestRouter(&fakeService{}, Options{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/extractions/job-1/export.xlsx", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "catalog-job-1.xlsx")
	assert.Equal(t, "PK-fake", rec.Body.String())
}

func TestConfirm_DistinguishesMissingFromEmptyIndices(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantNil bool
		wantLen int
	}{
		{"omitted selects all", `{"supplier":"Acme","category":"Chairs"}`, true, 0},
		{"empty selects none", `{"record_indices":[],"supplier":"Acme","category":"Chairs"}`, false, 0},
		{"explicit", `{"record_indices":[0,2],"supplier":"Acme","category":"Chairs"}`, false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/extractions/job-1/confirm", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			newTestRouter(svc, Options{}).ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			require.NotNil(t, svc.confirmReq)
			assert.Equal(t, tt.wantNil, svc.confirmReq.RecordIndices == nil)
			assert.Len(t, svc.confirmReq.RecordIndices, tt.wantLen)
			assert.Equal(t, "Acme", svc.confirmReq.Supplier)
		})
	}
}

func TestConfirm_RejectsMalformedJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extractions/job-1/confirm", strings.NewReader("{"))
	newTestRouter(&fakeService{}, Options{}).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&fakeService{}, Options{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	down := Options{Health: func(context.Context) error { return errors.New("db down") }}
	rec = httptest.NewRecorder()
	newTestRouter(&fakeService{}, down).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(&fakeService{}, Options{AllowedOrigins: []string{"https://review.example.com"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/extractions", nil)
	req.Header.Set("Origin", "https://review.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://review.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
