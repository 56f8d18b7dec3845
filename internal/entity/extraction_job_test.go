package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/joseph-ayodele/catalog-importer/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractionJobLifecycle(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	job := NewExtractionJob("j1", 2, now)
	assert.Equal(t, constants.JobStatusPending, job.Status)

	err := job.RecordFile(nil, nil, now)
	assert.True(t, errors.Is(err, ErrInvalidTransition), "pending job cannot record files")

	require.NoError(t, job.Start(now))
	require.NoError(t, job.RecordFile([]ProductRecord{{Name: "a"}}, nil, now))
	require.NoError(t, job.RecordFile(nil, []string{"b.pdf: unreadable"}, now))
	assert.Error(t, job.RecordFile(nil, nil, now), "processed files cannot exceed total")

	require.NoError(t, job.Complete(now.Add(time.Second)))
	assert.Equal(t, 2, job.ProcessedFiles)
	require.NotNil(t, job.FinishedAt)

	assert.True(t, errors.Is(job.Start(now), ErrInvalidTransition))
	assert.True(t, errors.Is(job.Fail("x", now), ErrInvalidTransition))
	assert.True(t, errors.Is(job.RecordFile(nil, nil, now), ErrInvalidTransition))
	assert.Len(t, job.Records, 1)
	assert.Equal(t, []string{"b.pdf: unreadable"}, job.Errors)
}

func TestExtractionJobFail(t *testing.T) {
	now := time.Now()
	job := NewExtractionJob("j2", 1, now)
	require.NoError(t, job.Fail("queue closed", now))
	assert.Equal(t, constants.JobStatusFailed, job.Status)
	assert.Equal(t, []string{"queue closed"}, job.Errors)
	assert.Error(t, job.Complete(now))
}

func TestExtractionJobCloneIsIndependent(t *testing.T) {
	job := NewExtractionJob("j3", 1, time.Now())
	require.NoError(t, job.Start(time.Now()))
	require.NoError(t, job.RecordFile([]ProductRecord{{Name: "a", ImageReferences: []string{"x.png"}}}, []string{"w"}, time.Now()))

	snap := job.Clone()
	snap.Records[0].ImageReferences[0] = "changed"
	snap.Errors[0] = "changed"

	assert.Equal(t, "x.png", job.Records[0].ImageReferences[0])
	assert.Equal(t, "w", job.Errors[0])

	sum := job.Summary()
	assert.Equal(t, 1, sum.RecordCount)
	assert.Equal(t, constants.JobStatusProcessing, sum.Status)
}
