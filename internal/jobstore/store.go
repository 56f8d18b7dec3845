package jobstore

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/catalog-importer/internal/entity"
)

// ErrNotFound is returned when no job exists under the requested id.
var ErrNotFound = errors.New("job not found")

// Store keeps job snapshots. Implementations store and return copies; callers never share
// memory with the store.
type Store interface {
	Get(ctx context.Context, id string) (*entity.ExtractionJob, error)
	Put(ctx context.Context, job *entity.ExtractionJob) error
	List(ctx context.Context) ([]*entity.ExtractionJob, error)
	Delete(ctx context.Context, id string) error
}
