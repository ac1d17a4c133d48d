package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"formpilot/internal/model"

	"go.uber.org/zap"
)

// DefaultAnswer is submitted for included fields nothing else can answer
const DefaultAnswer = "NA"

// Submitter sends one answer set to the form endpoint
type Submitter interface {
	Submit(ctx context.Context, formID string, answers model.Answers) error
}

// AnswerGenerator writes free-text answers. It never fails; errors come back as text.
type AnswerGenerator interface {
	Generate(ctx context.Context, questionTitle string) string
}

// Accountant deducts consumed credits and reports the remaining balance
type Accountant interface {
	Deduct(ctx context.Context, userID string, count int) (int, error)
}

// BatchRequest is everything one run needs
type BatchRequest struct {
	UserID  string
	Balance int
	Count   int
	Form    *model.Form
	Weights model.WeightTable
	Fields  map[string]model.FieldConfig
	Names   NameDrawer
}

// Validate checks the request against the caller's balance before anything is sent
func (r *BatchRequest) Validate() error {
	switch {
	case r.Count <= 0:
		return ErrInvalidCount
	case r.Balance <= 0:
		return ErrInsufficientCredits
	case r.Count > r.Balance:
		return fmt.Errorf("%w: requested %d, remaining %d", ErrCreditExceeded, r.Count, r.Balance)
	case r.Form == nil:
		return ErrNoSelection
	}
	return nil
}

// SubmissionService runs batches of submissions one after another
type SubmissionService struct {
	submitter  Submitter
	generator  AnswerGenerator
	accountant Accountant
	delay      time.Duration
	logger     *zap.Logger

	rngMu       sync.Mutex
	rng         *rand.Rand
	broadcaster Broadcaster
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(submitter Submitter, generator AnswerGenerator, accountant Accountant, delay time.Duration, logger *zap.Logger) *SubmissionService {
	return &SubmissionService{
		submitter:  submitter,
		generator:  generator,
		accountant: accountant,
		delay:      delay,
		logger:     logger.Named("submission"),
		rng:        rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
	}
}

// SetBroadcaster sets the broadcaster for live run updates
func (s *SubmissionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetRand replaces the random source, used for reproducible runs
func (s *SubmissionService) SetRand(rng *rand.Rand) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	s.rng = rng
}

// Execute runs the batch described by req and records every outcome on run.
// Cancelling ctx stops the loop before the next iteration; the iteration in
// flight completes. Validation failures are returned before anything is sent.
func (s *SubmissionService) Execute(ctx context.Context, run *model.Run, req *BatchRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if req.Names == nil {
		return ErrPoolNotInitialized
	}

	// each iteration is sequential so a run owns its random source
	s.rngMu.Lock()
	rng := rand.New(rand.NewPCG(s.rng.Uint64(), s.rng.Uint64()))
	s.rngMu.Unlock()

	identities := NewIdentityCoordinator(req.Names, rng)
	work := context.WithoutCancel(ctx)
	log := s.logger.With(zap.String("run", run.ID), zap.String("form", req.Form.FormID))

	run.Start()
	log.Info("run started", zap.Int("count", req.Count))

	status := model.RunCompleted
	for i := 1; i <= req.Count; i++ {
		if ctx.Err() != nil {
			status = model.RunCancelled
			break
		}
		if i > 1 && !s.wait(ctx) {
			status = model.RunCancelled
			break
		}

		err := s.submitOnce(work, rng, identities, req)
		res := model.SubmissionResult{Seq: i, Timestamp: time.Now(), Status: model.ResultSuccess}
		if err != nil {
			res.Status = model.ResultError
			res.Message = err.Error()
			log.Warn("submission failed", zap.Int("seq", i), zap.Error(err))
		}
		s.record(run, res)

		if err != nil && isCreditError(err) {
			log.Warn("credit rejection, stopping run", zap.Int("seq", i))
			break
		}
	}

	s.reconcile(work, run, req, log)
	run.Finish(status)
	s.broadcast(run.ID, "run_finished", run.Snapshot())
	log.Info("run finished", zap.String("status", string(status)), zap.Int("succeeded", run.Succeeded()))
	return nil
}

// wait observes the delay between submissions. It returns false when ctx is cancelled first.
func (s *SubmissionService) wait(ctx context.Context) bool {
	if s.delay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *SubmissionService) submitOnce(ctx context.Context, rng *rand.Rand, identities *IdentityCoordinator, req *BatchRequest) error {
	answers, err := s.BuildAnswers(ctx, rng, identities, req)
	if err != nil {
		return err
	}
	return s.submitter.Submit(ctx, req.Form.FormID, answers)
}

// BuildAnswers produces one answer set. Identity fields come from a freshly
// derived identity; the rest are sampled, generated or defaulted.
func (s *SubmissionService) BuildAnswers(ctx context.Context, rng *rand.Rand, identities *IdentityCoordinator, req *BatchRequest) (model.Answers, error) {
	identity, err := identities.Derive(req.Form, req.Weights, req.Fields)
	if err != nil {
		return nil, err
	}

	answers := make(model.Answers, len(req.Form.Questions))
	for i := range req.Form.Questions {
		q := &req.Form.Questions[i]
		cfg := fieldConfig(req.Fields, q)
		if !cfg.Include {
			continue
		}
		if v, ok := identities.Resolve(identity, q, cfg, req.Weights[q.ID]); ok {
			answers.Set(q.ID, v)
			continue
		}
		answers.Set(q.ID, s.generalAnswer(ctx, rng, q, cfg, req.Weights[q.ID]))
	}
	return answers, nil
}

func (s *SubmissionService) generalAnswer(ctx context.Context, rng *rand.Rand, q *model.Question, cfg model.FieldConfig, weights map[string]int) string {
	if q.Kind.IsFreeText() {
		if cfg.Generate && s.generator != nil {
			return s.generator.Generate(ctx, q.Title)
		}
		return DefaultAnswer
	}
	if candidates := q.Candidates(); len(candidates) > 0 {
		return PickWeighted(rng, candidates, weights)
	}
	return DefaultAnswer
}

// reconcile deducts the successful submissions in one call. A failure is logged
// as a run-level entry; submitted responses stay submitted.
func (s *SubmissionService) reconcile(ctx context.Context, run *model.Run, req *BatchRequest, log *zap.Logger) {
	succeeded := run.Succeeded()
	if succeeded == 0 || s.accountant == nil {
		return
	}
	remaining, err := s.accountant.Deduct(ctx, req.UserID, succeeded)
	if err != nil {
		log.Error("credit reconciliation failed", zap.Int("succeeded", succeeded), zap.Error(err))
		s.record(run, model.SubmissionResult{
			Seq:       model.RunEntrySeq,
			Timestamp: time.Now(),
			Status:    model.ResultError,
			Message:   fmt.Sprintf("failed to update credits: %v", err),
		})
		return
	}
	run.SetRemaining(remaining)
}

func (s *SubmissionService) record(run *model.Run, res model.SubmissionResult) {
	run.Record(res)
	s.broadcast(run.ID, "submission_result", res)
}

func (s *SubmissionService) broadcast(runID, msgType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastRun(runID, msgType, payload)
	}
}

// isCreditError reports a rejection that no later iteration can succeed past.
// Besides the sentinels, accounting backends reject with a message naming "Credit".
func isCreditError(err error) bool {
	if errors.Is(err, ErrCreditExceeded) || errors.Is(err, ErrInsufficientCredits) {
		return true
	}
	return strings.Contains(err.Error(), "Credit")
}
