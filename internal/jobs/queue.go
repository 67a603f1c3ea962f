package jobs

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Status is the lifecycle state of a build job. Transitions move strictly
// forward: queued -> building -> complete | error.
type Status string

const (
	StatusQueued   Status = "queued"
	StatusBuilding Status = "building"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

func (s Status) terminal() bool {
	return s == StatusComplete || s == StatusError
}

// Result is the payload of a successfully completed prototype job.
type Result struct {
	PrototypeURL string `json:"prototypeUrl"`
	BuildTime    string `json:"buildTime"`
}

// Job is the mutable state record for one asynchronous build. Callers only
// ever see copies; the queue owns the canonical record.
type Job struct {
	JobID       string     `json:"jobId"`
	Status      Status     `json:"status"`
	Progress    int        `json:"progress"`
	CurrentStep string     `json:"currentStep"`
	Result      *Result    `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	ErrorCode   string     `json:"errorCode,omitempty"`
	CanRetry    *bool      `json:"canRetry,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Queue is the in-memory job store. Terminal jobs stay around for status
// polling until ClearOld sweeps them; completion never removes a job.
type Queue struct {
	mu       sync.Mutex
	jobs     map[string]*Job
	watchers map[string][]chan Job
}

func NewQueue() *Queue {
	return &Queue{
		jobs:     map[string]*Job{},
		watchers: map[string][]chan Job{},
	}
}

// Create registers a new queued job.
func (q *Queue) Create(jobID string) (*Job, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, fmt.Errorf("job id is required")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.jobs[jobID]; exists {
		return nil, fmt.Errorf("job %s already exists", jobID)
	}
	job := &Job{
		JobID:     jobID,
		Status:    StatusQueued,
		CreatedAt: time.Now(),
	}
	q.jobs[jobID] = job
	snapshot := *job
	return &snapshot, nil
}

// Start moves a queued job into building.
func (q *Queue) Start(jobID string) error {
	return q.mutate(jobID, func(job *Job) error {
		if job.Status != StatusQueued {
			return fmt.Errorf("job %s is %s, cannot start", jobID, job.Status)
		}
		now := time.Now()
		job.Status = StatusBuilding
		job.StartedAt = &now
		return nil
	})
}

// UpdateProgress records progress for a building job. Progress is expected
// to be non-decreasing by convention; the queue does not enforce it.
func (q *Queue) UpdateProgress(jobID string, progress int, step string) error {
	return q.mutate(jobID, func(job *Job) error {
		if job.Status.terminal() {
			return fmt.Errorf("job %s is already %s", jobID, job.Status)
		}
		if progress < 0 {
			progress = 0
		}
		if progress > 100 {
			progress = 100
		}
		job.Progress = progress
		job.CurrentStep = step
		return nil
	})
}

// Complete moves a job into its successful terminal state.
func (q *Queue) Complete(jobID string, result Result) error {
	return q.mutate(jobID, func(job *Job) error {
		if job.Status.terminal() {
			return fmt.Errorf("job %s is already %s", jobID, job.Status)
		}
		now := time.Now()
		job.Status = StatusComplete
		job.Progress = 100
		job.CurrentStep = "done"
		job.Result = &result
		job.CompletedAt = &now
		return nil
	})
}

// Fail moves a job into its error terminal state. canRetry is advisory:
// the client decides whether to offer a retry.
func (q *Queue) Fail(jobID, message, code string, canRetry bool) error {
	return q.mutate(jobID, func(job *Job) error {
		if job.Status.terminal() {
			return fmt.Errorf("job %s is already %s", jobID, job.Status)
		}
		now := time.Now()
		job.Status = StatusError
		job.Error = message
		job.ErrorCode = code
		job.CanRetry = &canRetry
		job.CompletedAt = &now
		return nil
	})
}

// Get returns a copy of the job, if known.
func (q *Queue) Get(jobID string) (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// ClearOld removes terminal jobs whose completion is older than maxAge and
// returns how many were swept. Intended to be called periodically by an
// external scheduler.
func (q *Queue) ClearOld(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	q.mu.Lock()
	defer q.mu.Unlock()
	removed := 0
	for id, job := range q.jobs {
		if job.Status.terminal() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(q.jobs, id)
			removed++
		}
	}
	return removed
}

func (q *Queue) mutate(jobID string, fn func(*Job) error) error {
	q.mu.Lock()
	job, ok := q.jobs[jobID]
	if !ok {
		q.mu.Unlock()
		return fmt.Errorf("job %s not found", jobID)
	}
	if err := fn(job); err != nil {
		q.mu.Unlock()
		return err
	}
	snapshot := *job
	watchers := append([]chan Job(nil), q.watchers[jobID]...)
	terminal := job.Status.terminal()
	if terminal {
		delete(q.watchers, jobID)
	}
	q.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- snapshot:
		default: // slow watcher; drop the update rather than block the build
		}
		if terminal {
			close(ch)
		}
	}
	return nil
}
