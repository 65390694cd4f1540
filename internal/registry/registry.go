// Package registry owns the authoritative in-memory state for registered
// source files and processing jobs. All other components read and mutate
// job state exclusively through it; values passed in and out are copies,
// so no caller ever aliases the guarded state.
package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"videoforge/models"
)

// ErrSourceNotFound is returned when a job references an unknown file id.
var ErrSourceNotFound = errors.New("source file not found")

// ErrJobNotFound is returned when a job id is unknown.
var ErrJobNotFound = errors.New("job not found")

// Registry is a mutex-guarded map of sources and jobs. Construct once at
// process start; there is no teardown, process exit reclaims everything.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]models.SourceFile
	jobs    map[string]models.ProcessingJob
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		sources: make(map[string]models.SourceFile),
		jobs:    make(map[string]models.ProcessingJob),
	}
}

// RegisterSource records an uploaded file and its probed metadata.
func (r *Registry) RegisterSource(source models.SourceFile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[source.ID] = source
}

// GetSource returns a snapshot of the source file with the given id.
func (r *Registry) GetSource(id string) (models.SourceFile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	source, ok := r.sources[id]
	return source, ok
}

// CreateJob records a new pending job against a registered source. The
// returned job carries a freshly assigned id.
func (r *Registry) CreateJob(fileID string, ops models.Operations) (models.ProcessingJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sources[fileID]; !ok {
		return models.ProcessingJob{}, ErrSourceNotFound
	}

	now := time.Now()
	job := models.ProcessingJob{
		ID:         uuid.NewString(),
		FileID:     fileID,
		Status:     models.JobStatusPending,
		Operations: ops,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.jobs[job.ID] = job
	return job, nil
}

// GetJob returns a snapshot of the job with the given id.
func (r *Registry) GetJob(id string) (models.ProcessingJob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	return job, ok
}

// UpdateJob applies mutate to the job under the registry lock, making the
// transition atomic with respect to concurrent readers and the sweeper.
// UpdatedAt is bumped on every call. The committed snapshot is returned.
func (r *Registry) UpdateJob(id string, mutate func(*models.ProcessingJob)) (models.ProcessingJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return models.ProcessingJob{}, ErrJobNotFound
	}

	mutate(&job)
	job.UpdatedAt = time.Now()
	r.jobs[id] = job
	return job, nil
}

// StaleSources returns sources registered more than window before now and
// not referenced by any non-terminal job. A source backing an in-flight job
// is never reported, so the sweeper cannot pull a file out from under its
// executor.
func (r *Registry) StaleSources(now time.Time, window time.Duration) []models.SourceFile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inFlight := make(map[string]bool)
	for _, job := range r.jobs {
		if !job.Status.Terminal() {
			inFlight[job.FileID] = true
		}
	}

	var stale []models.SourceFile
	for _, source := range r.sources {
		if now.Sub(source.UploadedAt) > window && !inFlight[source.ID] {
			stale = append(stale, source)
		}
	}
	return stale
}

// StaleJobOutputs returns jobs whose output artifact exists and whose last
// update is more than window before now.
func (r *Registry) StaleJobOutputs(now time.Time, window time.Duration) []models.ProcessingJob {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stale []models.ProcessingJob
	for _, job := range r.jobs {
		if job.OutputPath != "" && now.Sub(job.UpdatedAt) > window {
			stale = append(stale, job)
		}
	}
	return stale
}

// DeleteSource removes a source record. The backing file is the caller's
// concern.
func (r *Registry) DeleteSource(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sources, id)
}

// ClearJobOutput drops the output artifact references from a job while
// keeping the record itself available for status queries.
func (r *Registry) ClearJobOutput(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return
	}
	job.OutputPath = ""
	job.OutputURL = ""
	r.jobs[id] = job
}
