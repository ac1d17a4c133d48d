package model

import "strconv"

// QuestionKind identifies how a form field is answered
type QuestionKind string

const (
	KindShortAnswer    QuestionKind = "SHORT_ANSWER"
	KindParagraph      QuestionKind = "PARAGRAPH"
	KindMultipleChoice QuestionKind = "MULTIPLE_CHOICE"
	KindCheckbox       QuestionKind = "CHECKBOX"
	KindDropdown       QuestionKind = "DROPDOWN"
	KindLinearScale    QuestionKind = "LINEAR_SCALE"
	KindUnrecognized   QuestionKind = "UNRECOGNIZED"
)

// HasOptions reports whether the kind offers a fixed list of choices
func (k QuestionKind) HasOptions() bool {
	return k == KindMultipleChoice || k == KindCheckbox || k == KindDropdown
}

// IsFreeText reports whether the kind takes typed text
func (k QuestionKind) IsFreeText() bool {
	return k == KindShortAnswer || k == KindParagraph
}

// ScaleBounds are the inclusive end points of a linear scale. Min <= Max.
type ScaleBounds struct {
	Min int `json:"min" bson:"min"`
	Max int `json:"max" bson:"max"`
}

// DefaultScaleBounds is used when the form does not state its scale
var DefaultScaleBounds = ScaleBounds{Min: 1, Max: 5}

// Points returns every scale point in ascending order as strings
func (b ScaleBounds) Points() []string {
	if b.Max < b.Min {
		return nil
	}
	points := make([]string, 0, b.Max-b.Min+1)
	for v := b.Min; v <= b.Max; v++ {
		points = append(points, strconv.Itoa(v))
	}
	return points
}

// Question is one field of an analyzed form
type Question struct {
	ID          string       `json:"id" bson:"id"` // entry id, key for weights and answers
	Title       string       `json:"title" bson:"title"`
	Kind        QuestionKind `json:"kind" bson:"kind"`
	Options     []string     `json:"options,omitempty" bson:"options,omitempty"` // choice kinds only, source order
	Required    bool         `json:"required" bson:"required"`
	ScaleBounds *ScaleBounds `json:"scaleBounds,omitempty" bson:"scaleBounds,omitempty"` // LINEAR_SCALE only
}

// Candidates returns the values a weighted draw chooses from: the options for
// choice kinds, the scale points for linear scales, nothing otherwise.
func (q *Question) Candidates() []string {
	if len(q.Options) > 0 {
		return q.Options
	}
	if q.Kind == KindLinearScale {
		bounds := DefaultScaleBounds
		if q.ScaleBounds != nil {
			bounds = *q.ScaleBounds
		}
		return bounds.Points()
	}
	return nil
}

// Form is the normalized question model of one public form
type Form struct {
	FormID      string     `json:"formId" bson:"formId"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description" bson:"description"`
	Questions   []Question `json:"questions" bson:"questions"`
}

// Question looks up a question by id
func (f *Form) Question(id string) *Question {
	for i := range f.Questions {
		if f.Questions[i].ID == id {
			return &f.Questions[i]
		}
	}
	return nil
}
