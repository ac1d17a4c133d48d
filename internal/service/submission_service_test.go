package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"formpilot/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingBroadcaster struct {
	types []string
}

func (b *recordingBroadcaster) BroadcastRun(_ string, msgType string, _ interface{}) {
	b.types = append(b.types, msgType)
}

func (b *recordingBroadcaster) CloseRun(string) {}

func newTestSubmissionService(sub Submitter, acct Accountant) *SubmissionService {
	s := NewSubmissionService(sub, &fakeGenerator{text: "It was fine."}, acct, 0, zap.NewNop())
	s.SetRand(rand.New(rand.NewPCG(42, 42)))
	return s
}

func dropdownRequest(count, balance int) *BatchRequest {
	return &BatchRequest{
		UserID:  "u1",
		Balance: balance,
		Count:   count,
		Form:    dropdownForm(),
		Weights: model.WeightTable{"q1": {"A": 100, "B": 0}},
		Names:   NewNamePool(model.NameLists{}, rand.New(rand.NewPCG(1, 1))),
	}
}

func TestExecuteDropdownBatch(t *testing.T) {
	sub := &fakeSubmitter{}
	acct := &fakeAccountant{remaining: 10}
	svc := newTestSubmissionService(sub, acct)
	b := &recordingBroadcaster{}
	svc.SetBroadcaster(b)

	run := model.NewRun("r1", "u1", "form-1", 3, 10)
	require.NoError(t, svc.Execute(context.Background(), run, dropdownRequest(3, 10)))

	results := run.Results()
	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, i+1, res.Seq)
		assert.Equal(t, model.ResultSuccess, res.Status)
	}
	calls := sub.Calls()
	require.Len(t, calls, 3)
	for _, answers := range calls {
		assert.Equal(t, model.Answers{"q1": {"A"}}, answers)
	}

	snap := run.Snapshot()
	assert.Equal(t, model.RunCompleted, snap.Status)
	assert.Equal(t, 3, snap.Succeeded)
	assert.Equal(t, 7, snap.Remaining)
	assert.Equal(t, []int{3}, acct.deducted)
	assert.Equal(t, []string{"submission_result", "submission_result", "submission_result", "run_finished"}, b.types)
}

func TestExecuteRejectsCountOverBalance(t *testing.T) {
	sub := &fakeSubmitter{}
	acct := &fakeAccountant{remaining: 2}
	svc := newTestSubmissionService(sub, acct)

	run := model.NewRun("r1", "u1", "form-1", 3, 2)
	err := svc.Execute(context.Background(), run, dropdownRequest(3, 2))
	assert.ErrorIs(t, err, ErrCreditExceeded)
	assert.Empty(t, sub.Calls())
	assert.Empty(t, run.Results())
	assert.Empty(t, acct.deducted)
	assert.Equal(t, model.RunIdle, run.Status())
}

func TestBatchRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		balance int
		want    error
	}{
		{"zero count", 0, 5, ErrInvalidCount},
		{"negative count", -1, 5, ErrInvalidCount},
		{"no credits", 1, 0, ErrInsufficientCredits},
		{"over balance", 6, 5, ErrCreditExceeded},
		{"exact balance", 5, 5, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := dropdownRequest(tt.count, tt.balance).Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExecuteCancelAfterFirstIteration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := &fakeSubmitter{onSubmit: func(n int) {
		if n == 1 {
			cancel()
		}
	}}
	acct := &fakeAccountant{remaining: 10}
	svc := newTestSubmissionService(sub, acct)

	run := model.NewRun("r1", "u1", "form-1", 5, 10)
	require.NoError(t, svc.Execute(ctx, run, dropdownRequest(5, 10)))

	assert.Len(t, run.Results(), 1)
	assert.Len(t, sub.Calls(), 1)
	assert.Equal(t, model.RunCancelled, run.Status())
	// the one delivered submission is still accounted for
	assert.Equal(t, []int{1}, acct.deducted)
}

func TestExecuteCancelDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := &fakeSubmitter{onSubmit: func(n int) {
		if n == 1 {
			go func() {
				time.Sleep(20 * time.Millisecond)
				cancel()
			}()
		}
	}}
	svc := NewSubmissionService(sub, nil, &fakeAccountant{remaining: 10}, time.Minute, zap.NewNop())

	run := model.NewRun("r1", "u1", "form-1", 3, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = svc.Execute(ctx, run, dropdownRequest(3, 10))
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("delay was not interrupted by cancellation")
	}
	assert.Len(t, sub.Calls(), 1)
	assert.Equal(t, model.RunCancelled, run.Status())
}

func TestExecuteStopsOnCreditRejection(t *testing.T) {
	sub := &fakeSubmitter{errAt: map[int]error{2: errors.New("Credit limit reached for this account")}}
	acct := &fakeAccountant{remaining: 10}
	svc := newTestSubmissionService(sub, acct)

	run := model.NewRun("r1", "u1", "form-1", 5, 10)
	require.NoError(t, svc.Execute(context.Background(), run, dropdownRequest(5, 10)))

	results := run.Results()
	require.Len(t, results, 2)
	assert.Equal(t, model.ResultSuccess, results[0].Status)
	assert.Equal(t, model.ResultError, results[1].Status)
	assert.Contains(t, results[1].Message, "Credit limit")
	assert.Len(t, sub.Calls(), 2)
	assert.Equal(t, model.RunCompleted, run.Status())
	assert.Equal(t, []int{1}, acct.deducted)
}

func TestExecuteContinuesAfterTransportError(t *testing.T) {
	sub := &fakeSubmitter{errAt: map[int]error{2: ErrTransport}}
	acct := &fakeAccountant{remaining: 10}
	svc := newTestSubmissionService(sub, acct)

	run := model.NewRun("r1", "u1", "form-1", 3, 10)
	require.NoError(t, svc.Execute(context.Background(), run, dropdownRequest(3, 10)))

	results := run.Results()
	require.Len(t, results, 3)
	assert.Equal(t, model.ResultError, results[1].Status)
	assert.Equal(t, 2, run.Succeeded())
	assert.Equal(t, []int{2}, acct.deducted)
}

func TestExecutePoolExhaustionFailsIterationOnly(t *testing.T) {
	form := &model.Form{FormID: "f", Questions: []model.Question{
		{ID: "n", Title: "Full name", Kind: model.KindShortAnswer},
		{ID: "q1", Title: "Pick one", Kind: model.KindDropdown, Options: []string{"A", "B"}},
	}}
	req := &BatchRequest{
		UserID:  "u1",
		Balance: 10,
		Count:   4,
		Form:    form,
		Weights: model.WeightTable{"q1": {"A": 100}},
		Names:   NewNamePool(model.NameLists{Male: []string{"Bob"}, Female: []string{"Amy"}}, rand.New(rand.NewPCG(1, 1))),
	}
	sub := &fakeSubmitter{}
	svc := newTestSubmissionService(sub, &fakeAccountant{remaining: 10})

	run := model.NewRun("r1", "u1", "f", 4, 10)
	require.NoError(t, svc.Execute(context.Background(), run, req))

	results := run.Results()
	require.Len(t, results, 4)
	failures := 0
	for _, res := range results {
		if res.Status == model.ResultError {
			failures++
			assert.Contains(t, res.Message, "name pool exhausted")
		}
	}
	assert.GreaterOrEqual(t, failures, 2)
	assert.Len(t, sub.Calls(), 4-failures)

	seen := map[string]bool{}
	for _, answers := range sub.Calls() {
		name := answers["n"][0]
		assert.False(t, seen[name], "name %s submitted twice", name)
		seen[name] = true
	}
}

func TestExecuteReconciliationFailure(t *testing.T) {
	sub := &fakeSubmitter{}
	acct := &fakeAccountant{err: errors.New("ledger unavailable")}
	svc := newTestSubmissionService(sub, acct)

	run := model.NewRun("r1", "u1", "form-1", 2, 10)
	require.NoError(t, svc.Execute(context.Background(), run, dropdownRequest(2, 10)))

	results := run.Results()
	require.Len(t, results, 3)
	last := results[2]
	assert.Equal(t, model.RunEntrySeq, last.Seq)
	assert.Equal(t, model.ResultError, last.Status)
	assert.Contains(t, last.Message, "failed to update credits")
	// submissions already made stay successful
	assert.Equal(t, 2, run.Succeeded())
	assert.Equal(t, 10, run.Snapshot().Remaining)
}

func TestExecuteNoReconciliationWithoutSuccess(t *testing.T) {
	sub := &fakeSubmitter{errAt: map[int]error{1: ErrTransport}}
	acct := &fakeAccountant{remaining: 10}
	svc := newTestSubmissionService(sub, acct)

	run := model.NewRun("r1", "u1", "form-1", 1, 10)
	require.NoError(t, svc.Execute(context.Background(), run, dropdownRequest(1, 10)))
	assert.Empty(t, acct.deducted)
}

func TestBuildAnswersConsistentIdentity(t *testing.T) {
	form := &model.Form{FormID: "f", Questions: []model.Question{
		{ID: "g", Title: "Gender", Kind: model.KindMultipleChoice, Options: []string{"Male", "Female"}},
		{ID: "n", Title: "Name", Kind: model.KindShortAnswer},
		{ID: "e", Title: "Email", Kind: model.KindShortAnswer},
		{ID: "s", Title: "Sex (again)", Kind: model.KindDropdown, Options: []string{"M", "F"}},
		{ID: "p", Title: "Thoughts on the event", Kind: model.KindParagraph},
		{ID: "a", Title: "Anything else", Kind: model.KindShortAnswer},
		{ID: "l", Title: "Rating", Kind: model.KindLinearScale, ScaleBounds: &model.ScaleBounds{Min: 1, Max: 5}},
		{ID: "x", Title: "Skip me", Kind: model.KindCheckbox, Options: []string{"One"}},
	}}
	req := &BatchRequest{
		Form: form,
		Weights: model.WeightTable{
			"g": {"Male": 0, "Female": 100},
			"l": {"3": 100},
		},
		Fields: map[string]model.FieldConfig{
			"p": {Include: true, Generate: true},
			"x": {Include: false},
		},
	}
	names := NewNamePool(model.NameLists{Male: []string{"Bob"}, Female: []string{"Amy"}}, rand.New(rand.NewPCG(1, 1)))
	rng := rand.New(rand.NewPCG(8, 8))
	svc := newTestSubmissionService(&fakeSubmitter{}, nil)

	answers, err := svc.BuildAnswers(context.Background(), rng, NewIdentityCoordinator(names, rng), req)
	require.NoError(t, err)

	assert.Equal(t, []string{"Female"}, answers["g"])
	assert.Equal(t, []string{"Amy"}, answers["n"])
	assert.True(t, strings.HasPrefix(answers["e"][0], "amy"))
	assert.Equal(t, []string{"F"}, answers["s"])
	assert.Equal(t, []string{"It was fine."}, answers["p"])
	assert.Equal(t, []string{DefaultAnswer}, answers["a"])
	assert.Equal(t, []string{"3"}, answers["l"])
	assert.NotContains(t, answers, "x")
}

func TestIsCreditError(t *testing.T) {
	assert.True(t, isCreditError(ErrCreditExceeded))
	assert.True(t, isCreditError(errors.New("Credit limit reached")))
	assert.False(t, isCreditError(fmt.Errorf("%w: POST returned 500", ErrTransport)))
	assert.False(t, isCreditError(errors.New("submit to form 1FAIpQLSecredit_x failed")))
	assert.False(t, isCreditError(ErrTransport))
	assert.False(t, isCreditError(ErrPoolExhausted))
}
