package model

import (
	"strings"
	"time"
)

// WeightTable maps question id -> candidate value -> percentage weight (0-100)
type WeightTable map[string]map[string]int

// Total sums the weights configured for a question
func (w WeightTable) Total(questionID string) int {
	total := 0
	for _, v := range w[questionID] {
		total += v
	}
	return total
}

// IdentityKind marks a field that carries part of the synthetic identity
type IdentityKind string

const (
	IdentityNone   IdentityKind = ""
	IdentityName   IdentityKind = "name"
	IdentityGender IdentityKind = "gender"
	IdentityEmail  IdentityKind = "email"
)

// DetectIdentity classifies a question title. Checked in order: name, gender/sex, email.
func DetectIdentity(title string) IdentityKind {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "name"):
		return IdentityName
	case strings.Contains(t, "gender"), strings.Contains(t, "sex"):
		return IdentityGender
	case strings.Contains(t, "email"):
		return IdentityEmail
	}
	return IdentityNone
}

// FieldConfig is the per-question answering setup chosen by the user
type FieldConfig struct {
	Include  bool         `json:"include" bson:"include"`
	Generate bool         `json:"generate" bson:"generate"` // free text answered by the AI collaborator
	Identity IdentityKind `json:"identity,omitempty" bson:"identity,omitempty"`
}

// DefaultWeights splits 100 evenly across the values, the remainder going to the last one
func DefaultWeights(values []string) map[string]int {
	weights := make(map[string]int, len(values))
	if len(values) == 0 {
		return weights
	}
	equal := 100 / len(values)
	for i, v := range values {
		if i == len(values)-1 {
			weights[v] = 100 - equal*(len(values)-1)
			continue
		}
		weights[v] = equal
	}
	return weights
}

// Selection is a user's currently analyzed form and its answering configuration.
// Replaced when the user analyzes a different form.
type Selection struct {
	UserID    string                 `json:"userId"`
	Form      *Form                  `json:"form"`
	Weights   WeightTable            `json:"weights"`
	Fields    map[string]FieldConfig `json:"fields"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// NewSelection builds the default configuration for a freshly analyzed form
func NewSelection(userID string, form *Form) *Selection {
	sel := &Selection{
		UserID:    userID,
		Form:      form,
		Weights:   make(WeightTable),
		Fields:    make(map[string]FieldConfig, len(form.Questions)),
		UpdatedAt: time.Now(),
	}
	for i := range form.Questions {
		q := &form.Questions[i]
		sel.Fields[q.ID] = FieldConfig{
			Include:  true,
			Identity: DetectIdentity(q.Title),
		}
		if candidates := q.Candidates(); len(candidates) > 0 {
			sel.Weights[q.ID] = DefaultWeights(candidates)
		}
	}
	return sel
}

// Balance resets a question's weights to the even default
func (s *Selection) Balance(questionID string) bool {
	q := s.Form.Question(questionID)
	if q == nil {
		return false
	}
	candidates := q.Candidates()
	if len(candidates) == 0 {
		return false
	}
	s.Weights[questionID] = DefaultWeights(candidates)
	s.UpdatedAt = time.Now()
	return true
}

// Totals reports the weight sum of every weighted question
func (s *Selection) Totals() map[string]int {
	totals := make(map[string]int, len(s.Weights))
	for id := range s.Weights {
		totals[id] = s.Weights.Total(id)
	}
	return totals
}
