package repository

import (
	"context"
	"time"

	"go-c2rcc/pkg/models"
)

// JobRepository defines the interface for asynchronous job storage
type JobRepository interface {
	// Create stores a new job
	Create(ctx context.Context, job *models.Job) error

	// Update applies fn to the stored job under the repository lock
	Update(ctx context.Context, id string, fn func(job *models.Job)) error

	// Get returns a copy of the job
	Get(ctx context.Context, id string) (*models.Job, error)

	// List returns copies of all jobs, newest first
	List(ctx context.Context) ([]*models.Job, error)

	// PurgeFinished removes finished jobs older than the cutoff and returns
	// how many were removed
	PurgeFinished(ctx context.Context, before time.Time) (int, error)
}
