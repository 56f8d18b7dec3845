package jobstore

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/joseph-ayodele/catalog-importer/internal/entity"
)

// MemoryStore is an in-process store. Terminal jobs older than the TTL are removed by Sweep.
type MemoryStore struct {
	mu     sync.RWMutex
	jobs   map[string]*entity.ExtractionJob
	ttl    time.Duration
	logger *slog.Logger
}

func NewMemoryStore(ttl time.Duration, logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryStore{jobs: make(map[string]*entity.ExtractionJob), ttl: ttl, logger: logger}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*entity.ExtractionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job.Clone(), nil
}

func (s *MemoryStore) Put(_ context.Context, job *entity.ExtractionJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job.Clone()
	return nil
}

// List returns all jobs, newest first.
func (s *MemoryStore) List(_ context.Context) ([]*entity.ExtractionJob, error) {
	s.mu.RLock()
	out := make([]*entity.ExtractionJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.Clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(s.jobs, id)
	return nil
}

// Sweep removes terminal jobs last updated before now-TTL and returns how many were removed.
// Jobs still pending or processing are never swept.
func (s *MemoryStore) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, job := range s.jobs {
		if job.Status.IsTerminal() && job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.Sweep(now); n > 0 {
				s.logger.Info("jobstore.sweep", "removed", n)
			}
		}
	}
}
