package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"formpilot/internal/cache"
	"formpilot/internal/formdata"
	"formpilot/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var formIDPattern = regexp.MustCompile(`forms/d/e/([a-zA-Z0-9_-]+)`)

// ParseFormID extracts the public form id from a form URL
func ParseFormID(formURL string) (string, error) {
	m := formIDPattern.FindStringSubmatch(formURL)
	if m == nil {
		return "", ErrInvalidFormURL
	}
	return m[1], nil
}

// FormFetcher downloads the page that embeds a form's configuration
type FormFetcher interface {
	FetchFormHTML(ctx context.Context, formID string) (string, error)
}

// SelectionUpdate carries user edits to weights and field setup
type SelectionUpdate struct {
	Weights model.WeightTable            `json:"weights"`
	Fields  map[string]model.FieldConfig `json:"fields"`
}

// FormService analyzes forms and manages each user's selection
type FormService struct {
	fetcher    FormFetcher
	forms      cache.FormCache
	selections cache.SelectionCache
	group      singleflight.Group
	logger     *zap.Logger
}

// NewFormService creates a new form service. forms may be nil to disable caching.
func NewFormService(fetcher FormFetcher, forms cache.FormCache, selections cache.SelectionCache, logger *zap.Logger) *FormService {
	return &FormService{
		fetcher:    fetcher,
		forms:      forms,
		selections: selections,
		logger:     logger.Named("forms"),
	}
}

// Analyze fetches and parses a form. Concurrent analyses of the same form share one fetch.
func (s *FormService) Analyze(ctx context.Context, formURL string) (*model.Form, error) {
	formID, err := ParseFormID(formURL)
	if err != nil {
		return nil, err
	}

	if s.forms != nil {
		cached, err := s.forms.Get(ctx, formID)
		if err != nil {
			s.logger.Warn("form cache read failed", zap.String("form", formID), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	v, err, _ := s.group.Do(formID, func() (interface{}, error) {
		html, err := s.fetcher.FetchFormHTML(ctx, formID)
		if err != nil {
			return nil, err
		}
		form, err := formdata.Parse(formID, html)
		if err != nil {
			return nil, fmt.Errorf("failed to parse form %s: %w", formID, err)
		}
		return form, nil
	})
	if err != nil {
		return nil, err
	}
	form := v.(*model.Form)
	s.logger.Info("form analyzed", zap.String("form", formID), zap.Int("questions", len(form.Questions)))

	if s.forms != nil {
		if err := s.forms.Set(ctx, form); err != nil {
			s.logger.Warn("form cache write failed", zap.String("form", formID), zap.Error(err))
		}
	}
	return form, nil
}

// Select analyzes a form and makes it the user's selection with default settings
func (s *FormService) Select(ctx context.Context, userID, formURL string) (*model.Selection, error) {
	form, err := s.Analyze(ctx, formURL)
	if err != nil {
		return nil, err
	}
	sel := model.NewSelection(userID, form)
	if err := s.selections.Set(ctx, sel); err != nil {
		return nil, fmt.Errorf("failed to store selection: %w", err)
	}
	return sel, nil
}

// Selection returns the user's current selection
func (s *FormService) Selection(ctx context.Context, userID string) (*model.Selection, error) {
	sel, err := s.selections.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sel == nil || sel.Form == nil {
		return nil, ErrNoSelection
	}
	return sel, nil
}

// UpdateSelection applies weight and field edits. Weights are clamped to 0-100
// and only values the question offers are kept.
func (s *FormService) UpdateSelection(ctx context.Context, userID string, upd *SelectionUpdate) (*model.Selection, error) {
	sel, err := s.Selection(ctx, userID)
	if err != nil {
		return nil, err
	}

	for id, weights := range upd.Weights {
		q := sel.Form.Question(id)
		if q == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, id)
		}
		known := make(map[string]bool)
		for _, c := range q.Candidates() {
			known[c] = true
		}
		table := sel.Weights[id]
		if table == nil {
			table = make(map[string]int)
			sel.Weights[id] = table
		}
		for value, w := range weights {
			if !known[value] {
				return nil, fmt.Errorf("%w: %q is not an option of %s", ErrUnknownField, value, id)
			}
			table[value] = min(max(w, 0), 100)
		}
	}
	for id, cfg := range upd.Fields {
		if sel.Form.Question(id) == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, id)
		}
		sel.Fields[id] = cfg
	}

	sel.UpdatedAt = time.Now()
	if err := s.selections.Set(ctx, sel); err != nil {
		return nil, fmt.Errorf("failed to store selection: %w", err)
	}
	return sel, nil
}

// Balance resets one question's weights to an even split
func (s *FormService) Balance(ctx context.Context, userID, questionID string) (*model.Selection, error) {
	sel, err := s.Selection(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !sel.Balance(questionID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, questionID)
	}
	if err := s.selections.Set(ctx, sel); err != nil {
		return nil, fmt.Errorf("failed to store selection: %w", err)
	}
	return sel, nil
}
