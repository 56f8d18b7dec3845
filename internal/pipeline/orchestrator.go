package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/catalog-importer/constants"
	"github.com/joseph-ayodele/catalog-importer/internal/async"
	"github.com/joseph-ayodele/catalog-importer/internal/common"
	"github.com/joseph-ayodele/catalog-importer/internal/entity"
	"github.com/joseph-ayodele/catalog-importer/internal/ingest"
	"github.com/joseph-ayodele/catalog-importer/internal/jobstore"
)

// Batch is the set of files behind one job. Cleanup, if set, runs once the job is terminal.
type Batch struct {
	Files   []ingest.SourceFile
	Cleanup func()
}

// Orchestrator owns extraction jobs: it creates them, runs them file by file on a worker,
// and publishes a snapshot to the store after every file.
type Orchestrator struct {
	store  jobstore.Store
	queue  async.Queue
	routes map[constants.SourceKind]Route
	logger *slog.Logger

	now   func() time.Time
	newID func() string

	mu      sync.Mutex
	batches map[string]Batch
}

type Option func(*Orchestrator)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithIDGenerator overrides uuid job ids.
func WithIDGenerator(gen func() string) Option {
	return func(o *Orchestrator) { o.newID = gen }
}

func NewOrchestrator(store jobstore.Store, routes map[constants.SourceKind]Route, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		store:   store,
		routes:  routes,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
		batches: make(map[string]Batch),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// AttachQueue sets the worker queue Submit hands jobs to. The queue's handler is
// normally the orchestrator itself, hence the two-step wiring.
func (o *Orchestrator) AttachQueue(q async.Queue) {
	o.queue = q
}

// CreateJob registers a pending job for batch and returns its snapshot.
func (o *Orchestrator) CreateJob(ctx context.Context, batch Batch) (*entity.ExtractionJob, error) {
	now := o.now()
	job := entity.NewExtractionJob(o.newID(), len(batch.Files), now)
	for _, f := range batch.Files {
		job.SourceNames = append(job.SourceNames, f.Name)
	}
	if err := o.store.Put(ctx, job); err != nil {
		return nil, fmt.Errorf("store job: %w", err)
	}

	o.mu.Lock()
	o.batches[job.ID] = batch
	o.mu.Unlock()

	o.logger.Info("pipeline.job.created", "job_id", job.ID, "files", job.TotalFiles)
	return job.Clone(), nil
}

// Submit creates a job and queues it for background processing. It returns as soon as the job
// is stored; a queue that refuses the job leaves it failed rather than pending forever.
func (o *Orchestrator) Submit(ctx context.Context, batch Batch) (*entity.ExtractionJob, error) {
	job, err := o.CreateJob(ctx, batch)
	if err != nil {
		if batch.Cleanup != nil {
			batch.Cleanup()
		}
		return nil, err
	}
	if o.queue == nil {
		return o.abandon(ctx, job, "no worker queue configured")
	}
	if err := o.queue.Enqueue(ctx, async.Task{JobID: job.ID, SubmittedAt: o.now()}); err != nil {
		return o.abandon(ctx, job, fmt.Sprintf("could not schedule job: %v", err))
	}
	return job, nil
}

func (o *Orchestrator) abandon(ctx context.Context, job *entity.ExtractionJob, reason string) (*entity.ExtractionJob, error) {
	batch, _ := o.takeBatch(job.ID)
	if batch.Cleanup != nil {
		batch.Cleanup()
	}
	if err := job.Fail(reason, o.now()); err != nil {
		return nil, err
	}
	o.publish(ctx, job)
	o.logger.Error("pipeline.job.failed", "job_id", job.ID, "reason", reason)
	return job.Clone(), nil
}

// Handle lets the orchestrator serve as the worker queue's handler.
func (o *Orchestrator) Handle(ctx context.Context, task async.Task) error {
	return o.Process(ctx, task.JobID)
}

// Run creates a job and processes it on the calling goroutine.
func (o *Orchestrator) Run(ctx context.Context, batch Batch) (*entity.ExtractionJob, error) {
	job, err := o.CreateJob(ctx, batch)
	if err != nil {
		if batch.Cleanup != nil {
			batch.Cleanup()
		}
		return nil, err
	}
	if err := o.Process(ctx, job.ID); err != nil {
		return nil, err
	}
	return o.GetJob(ctx, job.ID)
}

// Process runs a pending job to a terminal state. Files are handled one at a time; a failing
// file adds to the job's errors and never stops the batch. The returned error is only for
// jobs that could not be run at all.
func (o *Orchestrator) Process(ctx context.Context, jobID string) (err error) {
	ctx = common.WithJobID(ctx, jobID)
	batch, staged := o.takeBatch(jobID)
	if batch.Cleanup != nil {
		defer batch.Cleanup()
	}

	job, err := o.store.Get(ctx, jobID)
	if err != nil {
		if staged && !errors.Is(err, jobstore.ErrNotFound) {
			o.failUnloaded(ctx, jobID, batch, err)
		}
		return fmt.Errorf("load job %s: %w", jobID, err)
	}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("pipeline.job.panic", "job_id", jobID, "panic", r, "stack", string(debug.Stack()))
			if job.Status.IsTerminal() {
				return
			}
			if ferr := job.Fail(fmt.Sprintf("internal error: %v", r), o.now()); ferr == nil {
				o.publish(ctx, job)
			}
			err = fmt.Errorf("job %s panicked: %v", jobID, r)
		}
	}()

	if err := job.Start(o.now()); err != nil {
		return err
	}
	if len(batch.Files) != job.TotalFiles {
		_ = job.Fail(fmt.Sprintf("job has %d files but %d were staged", job.TotalFiles, len(batch.Files)), o.now())
		o.publish(ctx, job)
		return nil
	}
	o.publish(ctx, job)
	o.logger.Info("pipeline.job.processing", "job_id", jobID, "files", job.TotalFiles)

	seen := make(map[string]string, len(batch.Files))
	for _, file := range batch.Files {
		var outcome FileOutcome
		if first, dup := seen[file.HashHex]; dup && file.HashHex != "" {
			outcome.Errors = []string{fmt.Sprintf("%s: identical to %s; processed once", file.Name, first)}
		} else {
			if file.HashHex != "" {
				seen[file.HashHex] = file.Name
			}
			outcome = o.processFile(ctx, jobID, file)
		}

		if err := job.RecordFile(outcome.Records, outcome.Errors, o.now()); err != nil {
			return err
		}
		o.publish(ctx, job)
	}

	if err := job.Complete(o.now()); err != nil {
		return err
	}
	o.publish(ctx, job)
	o.logger.Info("pipeline.job.completed",
		"job_id", jobID,
		"records", len(job.Records),
		"errors", len(job.Errors),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// processFile runs the route for one file. A panic inside a route is that file's error.
func (o *Orchestrator) processFile(ctx context.Context, jobID string, file ingest.SourceFile) (out FileOutcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("pipeline.file.panic", "job_id", jobID, "file", file.Name, "panic", r)
			out = FileOutcome{Errors: []string{fmt.Sprintf("%s: internal error while processing: %v", file.Name, r)}}
		}
	}()

	kind := file.Kind
	if kind == "" || kind == constants.SourceKindUnknown {
		kind = ingest.DetectKind(file.Path)
	}
	route, ok := o.routes[kind]
	if !ok {
		return FileOutcome{Errors: []string{fmt.Sprintf("%s: unsupported file type", file.Name)}}
	}

	o.logger.Info("pipeline.file.start", "job_id", jobID, "file", file.Name, "kind", kind)
	out = route.Extract(ctx, file)
	o.logger.Info("pipeline.file.done",
		"job_id", jobID,
		"file", file.Name,
		"records", len(out.Records),
		"errors", len(out.Errors),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}

func (o *Orchestrator) takeBatch(jobID string) (Batch, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	b, ok := o.batches[jobID]
	delete(o.batches, jobID)
	return b, ok
}

// failUnloaded overwrites a job whose snapshot could not be read with a failed one, so its
// staged files are not reported as pending forever.
func (o *Orchestrator) failUnloaded(ctx context.Context, jobID string, batch Batch, cause error) {
	job := entity.NewExtractionJob(jobID, len(batch.Files), o.now())
	for _, f := range batch.Files {
		job.SourceNames = append(job.SourceNames, f.Name)
	}
	if err := job.Fail(fmt.Sprintf("could not load job: %v", cause), o.now()); err != nil {
		return
	}
	o.publish(ctx, job)
	o.logger.Error("pipeline.job.failed", "job_id", jobID, "reason", "load failed", "error", cause)
}

// publish stores a snapshot. The worker keeps going if the store is briefly unavailable;
// the next snapshot carries the same state forward.
func (o *Orchestrator) publish(ctx context.Context, job *entity.ExtractionJob) {
	if err := o.store.Put(context.WithoutCancel(ctx), job); err != nil {
		o.logger.Error("pipeline.job.publish_failed", "job_id", job.ID, "status", job.Status, "error", err)
	}
}

// GetJob returns the latest snapshot of a job.
func (o *Orchestrator) GetJob(ctx context.Context, jobID string) (*entity.ExtractionJob, error) {
	job, err := o.store.Get(ctx, jobID)
	if errors.Is(err, jobstore.ErrNotFound) {
		return nil, common.JobNotFoundError(jobID)
	}
	if err != nil {
		return nil, common.NewAppError(common.CodeInternal, "load job", err)
	}
	return job, nil
}

// GetResults returns the records of a completed job.
func (o *Orchestrator) GetResults(ctx context.Context, jobID string) ([]entity.ProductRecord, error) {
	job, err := o.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != constants.JobStatusCompleted {
		return nil, common.JobNotCompletedError(jobID, string(job.Status))
	}
	return job.Records, nil
}
