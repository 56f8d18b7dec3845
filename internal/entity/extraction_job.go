package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/joseph-ayodele/catalog-importer/constants"
)

// ErrInvalidTransition is returned when a job state change would regress.
var ErrInvalidTransition = errors.New("invalid job status transition")

// ExtractionJob tracks one batch extraction request.
type ExtractionJob struct {
	ID             string              `json:"job_id"`
	Status         constants.JobStatus `json:"status"`
	TotalFiles     int                 `json:"total_files"`
	ProcessedFiles int                 `json:"processed_files"`
	SourceNames    []string            `json:"source_names,omitempty"`
	Records        []ProductRecord     `json:"records"`
	Errors         []string            `json:"errors"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	FinishedAt     *time.Time          `json:"finished_at,omitempty"`
}

// NewExtractionJob creates a pending job expecting fileCount files.
func NewExtractionJob(id string, fileCount int, now time.Time) *ExtractionJob {
	return &ExtractionJob{
		ID:         id,
		Status:     constants.JobStatusPending,
		TotalFiles: fileCount,
		Records:    []ProductRecord{},
		Errors:     []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (j *ExtractionJob) transition(next constants.JobStatus, now time.Time) error {
	if !j.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, next)
	}
	j.Status = next
	j.UpdatedAt = now
	if next.IsTerminal() {
		t := now
		j.FinishedAt = &t
	}
	return nil
}

// Start moves a pending job into processing.
func (j *ExtractionJob) Start(now time.Time) error {
	return j.transition(constants.JobStatusProcessing, now)
}

// RecordFile appends one file's outcome and advances the progress counter.
func (j *ExtractionJob) RecordFile(records []ProductRecord, errs []string, now time.Time) error {
	if j.Status != constants.JobStatusProcessing {
		return fmt.Errorf("%w: cannot record file while %s", ErrInvalidTransition, j.Status)
	}
	if j.ProcessedFiles >= j.TotalFiles {
		return fmt.Errorf("processed files would exceed total %d", j.TotalFiles)
	}
	j.Records = append(j.Records, records...)
	j.Errors = append(j.Errors, errs...)
	j.ProcessedFiles++
	j.UpdatedAt = now
	return nil
}

// Complete marks the job completed; per-file errors do not prevent completion.
func (j *ExtractionJob) Complete(now time.Time) error {
	return j.transition(constants.JobStatusCompleted, now)
}

// Fail marks the job failed and records the reason.
func (j *ExtractionJob) Fail(reason string, now time.Time) error {
	if err := j.transition(constants.JobStatusFailed, now); err != nil {
		return err
	}
	if reason != "" {
		j.Errors = append(j.Errors, reason)
	}
	return nil
}

// Clone returns a deep copy safe to hand to readers.
func (j *ExtractionJob) Clone() *ExtractionJob {
	if j == nil {
		return nil
	}
	out := *j
	out.SourceNames = append([]string(nil), j.SourceNames...)
	out.Errors = append([]string{}, j.Errors...)
	out.Records = make([]ProductRecord, len(j.Records))
	for i, r := range j.Records {
		out.Records[i] = r.Clone()
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		out.FinishedAt = &t
	}
	return &out
}

// JobSummary is the poll view of a job, without records.
type JobSummary struct {
	ID             string              `json:"job_id"`
	Status         constants.JobStatus `json:"status"`
	TotalFiles     int                 `json:"total_files"`
	ProcessedFiles int                 `json:"processed_files"`
	RecordCount    int                 `json:"record_count"`
	Errors         []string            `json:"errors"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	FinishedAt     *time.Time          `json:"finished_at,omitempty"`
}

// Summary returns the poll view of j.
func (j *ExtractionJob) Summary() JobSummary {
	return JobSummary{
		ID:             j.ID,
		Status:         j.Status,
		TotalFiles:     j.TotalFiles,
		ProcessedFiles: j.ProcessedFiles,
		RecordCount:    len(j.Records),
		Errors:         append([]string{}, j.Errors...),
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
		FinishedAt:     j.FinishedAt,
	}
}
