package api

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/glagol-nlp/morfem/internal/ingest"
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

func (s JobStatus) terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// IngestRequest is the request body for an asynchronous corpus ingest.
type IngestRequest struct {
	// Path is the corpus file on the server host. A ".xz" suffix
	// selects transparent decompression.
	Path string `json:"path"`
	// Name labels the resulting dataset; defaults to the path.
	Name string `json:"name,omitempty"`
	// Verify runs the label round-trip check over every loaded word.
	Verify bool `json:"verify,omitempty"`
}

// IngestResult is the outcome of a completed ingest job.
type IngestResult struct {
	DatasetID  string               `json:"dataset_id"`
	Loaded     int                  `json:"loaded"`
	Skipped    []ingest.SkippedLine `json:"skipped,omitempty"`
	SourceHash string               `json:"source_hash"`
	MaxLen     int                  `json:"max_len"`
}

// Job is one asynchronous ingest operation.
type Job struct {
	ID          string             `json:"id"`
	Status      JobStatus          `json:"status"`
	Progress    int                `json:"progress"` // 0-100
	Result      *IngestResult      `json:"result,omitempty"`
	Error       string             `json:"error,omitempty"`
	CreatedAt   string             `json:"created_at"`
	UpdatedAt   string             `json:"updated_at"`
	CompletedAt string             `json:"completed_at,omitempty"`
	Request     IngestRequest      `json:"request"`
	ctx         context.Context    `json:"-"`
	cancel      context.CancelFunc `json:"-"`
}

// snapshot copies the job for use outside the store lock. The Result
// pointer is safe to share: it is set once at the terminal transition
// and never mutated afterwards.
func (j *Job) snapshot() Job {
	c := *j
	c.ctx = nil
	c.cancel = nil
	return c
}

// JobStore manages ingest jobs in memory. Reads hand out value
// snapshots; the live structs stay behind the store lock.
type JobStore struct {
	jobs map[string]*Job
	mu   sync.RWMutex
}

// NewJobStore creates an empty job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
}

// Create registers a new pending job and returns its ID and a snapshot.
func (s *JobStore) Create(req IngestRequest) Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now().UTC().Format(time.RFC3339)
	job := &Job{
		ID:        uuid.NewString(),
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		Request:   req,
		ctx:       ctx,
		cancel:    cancel,
	}
	s.jobs[job.ID] = job
	return job.snapshot()
}

// Get retrieves a snapshot of a job by ID.
func (s *JobStore) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return job.snapshot(), true
}

// List returns snapshots of all jobs, newest first.
func (s *JobStore) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out
}

// Context returns the cancellation context of a live job.
func (s *JobStore) Context(id string) context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if job, ok := s.jobs[id]; ok {
		return job.ctx
	}
	return context.Background()
}

// Update transitions a job's status. Terminal states also set the
// completion timestamp.
func (s *JobStore) Update(id string, status JobStatus, progress int, result *IngestResult, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job not found: %s", id)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	job.Status = status
	job.Progress = progress
	job.Result = result
	job.Error = errMsg
	job.UpdatedAt = now
	if status.terminal() {
		job.CompletedAt = now
	}
	return nil
}

// Fail marks a job failed (or cancelled) without touching its
// progress. A job already in a terminal state is left unchanged.
func (s *JobStore) Fail(id string, status JobStatus, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job not found: %s", id)
	}
	if job.Status.terminal() {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339)
	job.Status = status
	job.Error = errMsg
	job.UpdatedAt = now
	job.CompletedAt = now
	return nil
}

// Cancel cancels a pending or running job. The whole terminal
// transition happens under the lock.
func (s *JobStore) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job not found: %s", id)
	}
	if job.Status.terminal() {
		return fmt.Errorf("job %s already %s", id, job.Status)
	}
	job.cancel()
	now := time.Now().UTC().Format(time.RFC3339)
	job.Status = JobStatusCancelled
	job.Error = "cancelled by request"
	job.UpdatedAt = now
	job.CompletedAt = now
	return nil
}
