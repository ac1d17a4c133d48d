package model

import (
	"sync"
	"time"
)

// Answers maps question id -> submitted value(s)
type Answers map[string][]string

// Set stores a single value for a question
func (a Answers) Set(questionID, value string) {
	a[questionID] = []string{value}
}

// ResultStatus is the outcome of one submission attempt
type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultError   ResultStatus = "error"
)

// RunEntrySeq is the sequence number of run-level log entries (not tied to an iteration)
const RunEntrySeq = 0

// SubmissionResult is one immutable entry of a run log
type SubmissionResult struct {
	Seq       int          `json:"seq"`
	Timestamp time.Time    `json:"timestamp"`
	Status    ResultStatus `json:"status"`
	Message   string       `json:"message,omitempty"`
}

// RunStatus is the state of a submission batch
type RunStatus string

const (
	RunIdle      RunStatus = "idle"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunCancelled RunStatus = "cancelled"
)

// Run holds the state of one submission batch. The result log is append-only;
// readers get copies through Snapshot.
type Run struct {
	ID        string
	UserID    string
	FormID    string
	Requested int

	mu         sync.RWMutex
	status     RunStatus
	results    []SubmissionResult
	attempted  int
	succeeded  int
	remaining  int
	startedAt  time.Time
	finishedAt *time.Time
}

// NewRun creates an idle run
func NewRun(id, userID, formID string, requested, balance int) *Run {
	return &Run{
		ID:        id,
		UserID:    userID,
		FormID:    formID,
		Requested: requested,
		status:    RunIdle,
		remaining: balance,
	}
}

// Start moves the run to running
func (r *Run) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = RunRunning
	r.startedAt = time.Now()
}

// Finish records the terminal state
func (r *Run) Finish(status RunStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.status = status
	r.finishedAt = &now
}

// Record appends an iteration outcome and updates the counters
func (r *Run) Record(res SubmissionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	if res.Seq == RunEntrySeq {
		return
	}
	r.attempted++
	if res.Status == ResultSuccess {
		r.succeeded++
	}
}

// SetRemaining stores the balance reported by accounting
func (r *Run) SetRemaining(remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remaining = remaining
}

// Status returns the current state
func (r *Run) Status() RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Succeeded returns the number of successful submissions so far
func (r *Run) Succeeded() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.succeeded
}

// Results returns a copy of the run log
func (r *Run) Results() []SubmissionResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SubmissionResult, len(r.results))
	copy(out, r.results)
	return out
}

// RunSnapshot is a point-in-time view of a run for API responses
type RunSnapshot struct {
	ID         string             `json:"id"`
	FormID     string             `json:"formId"`
	Status     RunStatus          `json:"status"`
	Requested  int                `json:"requested"`
	Attempted  int                `json:"attempted"`
	Succeeded  int                `json:"succeeded"`
	Remaining  int                `json:"remaining"`
	Results    []SubmissionResult `json:"results"`
	StartedAt  time.Time          `json:"startedAt"`
	FinishedAt *time.Time         `json:"finishedAt,omitempty"`
}

// Snapshot copies the run state
func (r *Run) Snapshot() RunSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	results := make([]SubmissionResult, len(r.results))
	copy(results, r.results)
	return RunSnapshot{
		ID:         r.ID,
		FormID:     r.FormID,
		Status:     r.status,
		Requested:  r.Requested,
		Attempted:  r.attempted,
		Succeeded:  r.succeeded,
		Remaining:  r.remaining,
		Results:    results,
		StartedAt:  r.startedAt,
		FinishedAt: r.finishedAt,
	}
}
