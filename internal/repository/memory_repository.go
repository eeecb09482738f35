package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-c2rcc/pkg/models"
)

// MemoryJobRepository keeps jobs in process memory
type MemoryJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

// NewMemoryJobRepository creates an empty in-memory job repository
func NewMemoryJobRepository() *MemoryJobRepository {
	return &MemoryJobRepository{jobs: make(map[string]*models.Job)}
}

// ValidateJobID accepts canonical UUIDs only
func ValidateJobID(id string) error {
	if _, err := uuid.Parse(id); err != nil || len(id) != 36 {
		return ErrInvalidJobID
	}
	return nil
}

func (r *MemoryJobRepository) Create(ctx context.Context, job *models.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateJobID(job.ID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; ok {
		return ErrJobExists
	}
	r.jobs[job.ID] = cloneJob(job)
	return nil
}

func (r *MemoryJobRepository) Update(ctx context.Context, id string, fn func(job *models.Job)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	fn(job)
	job.ID = id
	return nil
}

func (r *MemoryJobRepository) Get(ctx context.Context, id string) (*models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateJobID(id); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return cloneJob(job), nil
}

func (r *MemoryJobRepository) List(ctx context.Context) ([]*models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	jobs := make([]*models.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		jobs = append(jobs, cloneJob(j))
	}
	r.mu.RUnlock()

	sort.Slice(jobs, func(i, k int) bool {
		if jobs[i].CreatedAt.Equal(jobs[k].CreatedAt) {
			return jobs[i].ID < jobs[k].ID
		}
		return jobs[i].CreatedAt.After(jobs[k].CreatedAt)
	})
	return jobs, nil
}

func (r *MemoryJobRepository) PurgeFinished(ctx context.Context, before time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, j := range r.jobs {
		if j.Status.Done() && j.FinishedAt != nil && j.FinishedAt.Before(before) {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed, nil
}

// cloneJob copies the job header. Results are shared: they are written
// once when the job finishes and never mutated afterwards.
func cloneJob(j *models.Job) *models.Job {
	cp := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		cp.StartedAt = &t
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		cp.FinishedAt = &t
	}
	if j.Error != nil {
		e := *j.Error
		cp.Error = &e
	}
	return &cp
}
