package service

import (
	"context"
	"sync"
	"time"

	"formpilot/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// finishedRunTTL is how long a finished run stays queryable
const finishedRunTTL = time.Hour

type runEntry struct {
	run        *model.Run
	cancel     context.CancelFunc
	done       chan struct{}
	finishedAt time.Time
}

// RunService starts batches in the background and tracks them by id.
// A user has at most one running batch.
type RunService struct {
	submissions *SubmissionService
	forms       *FormService
	users       *UserService
	names       *NameService
	logger      *zap.Logger

	mu     sync.Mutex
	runs   map[string]*runEntry
	active map[string]string // userID -> runID
	wg     sync.WaitGroup
	closed bool
}

// NewRunService creates a new run registry
func NewRunService(submissions *SubmissionService, forms *FormService, users *UserService, names *NameService, logger *zap.Logger) *RunService {
	return &RunService{
		submissions: submissions,
		forms:       forms,
		users:       users,
		names:       names,
		logger:      logger.Named("runs"),
		runs:        make(map[string]*runEntry),
		active:      make(map[string]string),
	}
}

// StartForUser starts a batch over the user's current selection and balance
func (s *RunService) StartForUser(ctx context.Context, userID string, count int) (*model.Run, error) {
	sel, err := s.forms.Selection(ctx, userID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	pool, err := s.names.Pool(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Start(&BatchRequest{
		UserID:  userID,
		Balance: user.CreditsRemaining,
		Count:   count,
		Form:    sel.Form,
		Weights: sel.Weights,
		Fields:  sel.Fields,
		Names:   pool,
	})
}

// Start validates req and runs it in the background
func (s *RunService) Start(req *BatchRequest) (*model.Run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, context.Canceled
	}
	if _, busy := s.active[req.UserID]; busy {
		return nil, ErrRunInProgress
	}
	s.pruneLocked(time.Now())

	run := model.NewRun(uuid.New().String(), req.UserID, req.Form.FormID, req.Count, req.Balance)
	ctx, cancel := context.WithCancel(context.Background())
	entry := &runEntry{run: run, cancel: cancel, done: make(chan struct{})}
	s.runs[run.ID] = entry
	s.active[req.UserID] = run.ID

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(entry.done)
		defer cancel()

		if err := s.submissions.Execute(ctx, run, req); err != nil {
			s.logger.Error("run rejected", zap.String("run", run.ID), zap.Error(err))
			run.Finish(model.RunCompleted)
		}

		s.mu.Lock()
		entry.finishedAt = time.Now()
		delete(s.active, req.UserID)
		s.mu.Unlock()

		if s.submissions.broadcaster != nil {
			s.submissions.broadcaster.CloseRun(run.ID)
		}
	}()
	return run, nil
}

// Get returns a run owned by userID
func (s *RunService) Get(userID, runID string) (*model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.runs[runID]
	if !ok || entry.run.UserID != userID {
		return nil, ErrRunNotFound
	}
	return entry.run, nil
}

// Cancel requests cooperative cancellation; the current iteration completes
func (s *RunService) Cancel(userID, runID string) (*model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.runs[runID]
	if !ok || entry.run.UserID != userID {
		return nil, ErrRunNotFound
	}
	entry.cancel()
	return entry.run, nil
}

// Wait blocks until the run finishes or ctx is done
func (s *RunService) Wait(ctx context.Context, runID string) error {
	s.mu.Lock()
	entry, ok := s.runs[runID]
	s.mu.Unlock()
	if !ok {
		return ErrRunNotFound
	}
	select {
	case <-entry.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown cancels every running batch and waits for them to stop
func (s *RunService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	for _, entry := range s.runs {
		entry.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *RunService) pruneLocked(now time.Time) {
	for id, entry := range s.runs {
		if !entry.finishedAt.IsZero() && now.Sub(entry.finishedAt) > finishedRunTTL {
			delete(s.runs, id)
		}
	}
}
