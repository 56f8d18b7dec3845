package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joseph-ayodele/catalog-importer/internal/common"
	"github.com/joseph-ayodele/catalog-importer/internal/services/extraction"
)

// multipart parts beyond this are spilled to temp files by net/http
const maxMemory = 32 << 20

type submitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// SubmitExtraction handles POST /api/v1/extractions with one or more multipart "files".
func (h *Handlers) SubmitExtraction(w http.ResponseWriter, r *http.Request) {
	if h.opts.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooBig.Limit))
			return
		}
		respondError(w, http.StatusBadRequest, "expected multipart/form-data with field \"files\"")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	uploads := make([]extraction.Upload, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("read %s: %v", fh.Filename, err))
			return
		}
		opened = append(opened, f)
		uploads = append(uploads, extraction.Upload{Name: fh.Filename, Body: f})
	}

	job, err := h.svc.SubmitUploads(r.Context(), uploads)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, submitResponse{JobID: job.ID, Status: string(job.Status)})
}

// GetJob handles GET /api/v1/extractions/{jobID}. Records are left out; see GetResults.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.GetJob(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, job.Summary())
}

func (h *Handlers) GetResults(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	recs, err := h.svc.GetResults(r.Context(), jobID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"job_id":  jobID,
		"count":   len(recs),
		"records": recs,
	})
}

func (h *Handlers) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	out, err := h.svc.ExportXLSX(r.Context(), jobID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "catalog-"+jobID+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// Confirm handles POST /api/v1/extractions/{jobID}/confirm. Omitting record_indices imports
// every record; an empty list imports none.
func (h *Handlers) Confirm(w http.ResponseWriter, r *http.Request) {
	var req extraction.ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	out, err := h.svc.Confirm(r.Context(), chi.URLParam(r, "jobID"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.opts.Health != nil {
		if err := h.opts.Health(r.Context()); err != nil {
			h.logger.Warn("health.check.failed", "error", err)
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("http.handler.failed", "path", r.URL.Path, "error", err)
		respondJSON(w, status, errorBody{Error: "internal error", Code: common.CodeInternal})
		return
	}
	respondJSON(w, status, errorBody{Error: common.ErrorMessage(err), Code: common.ErrorCode(err)})
}

// StatusFor maps the caller-misuse taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrJobNotCompleted):
		return http.StatusConflict
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Response helpers

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Error: message})
}
