package formdata

import (
	"formpilot/internal/model"

	"github.com/tidwall/gjson"
)

// UntitledForm is used when the payload carries no form title
const UntitledForm = "Untitled Form"

// Provider type codes found at item[3]
var kindByCode = map[int64]model.QuestionKind{
	0: model.KindShortAnswer,
	1: model.KindParagraph,
	2: model.KindMultipleChoice,
	3: model.KindDropdown,
	4: model.KindCheckbox,
	5: model.KindLinearScale,
}

// Build maps the configuration array onto a Form. The outer layout must match
// or the whole form is rejected; individual items that do not match the
// expected shape, or whose type is unknown, are skipped.
func Build(formID string, data gjson.Result) (*model.Form, error) {
	if !data.IsArray() {
		return nil, ErrMalformedPayload
	}
	top := data.Array()
	if len(top) < 2 || !top[1].IsArray() {
		return nil, ErrMalformedPayload
	}
	info := top[1].Array()
	if len(info) < 2 || !info[1].IsArray() {
		return nil, ErrMalformedPayload
	}

	form := &model.Form{
		FormID:      formID,
		Title:       stringAt(info, 8),
		Description: stringAt(info, 0),
	}
	if form.Title == "" {
		form.Title = UntitledForm
	}

	items := info[1].Array()
	form.Questions = make([]model.Question, 0, len(items))
	for _, item := range items {
		if q, ok := buildQuestion(item); ok {
			form.Questions = append(form.Questions, q)
		}
	}
	return form, nil
}

// Parse runs Extract and Build over a page
func Parse(formID, html string) (*model.Form, error) {
	data, err := Extract(html)
	if err != nil {
		return nil, err
	}
	return Build(formID, data)
}

// item layout: [_, title, _, typeCode, [[entryID, options, required, scale?], ...], ...]
func buildQuestion(item gjson.Result) (model.Question, bool) {
	if !item.IsArray() {
		return model.Question{}, false
	}
	fields := item.Array()
	if len(fields) < 5 || !fields[4].IsArray() {
		return model.Question{}, false
	}
	entries := fields[4].Array()
	if len(entries) == 0 || !entries[0].IsArray() {
		return model.Question{}, false
	}
	meta := entries[0].Array()
	if len(meta) == 0 {
		return model.Question{}, false
	}
	id, ok := idString(meta[0])
	if !ok {
		return model.Question{}, false
	}

	if fields[3].Type != gjson.Number {
		return model.Question{}, false
	}
	kind, known := kindByCode[fields[3].Int()]
	if !known {
		return model.Question{}, false
	}

	q := model.Question{
		ID:       id,
		Title:    fields[1].String(),
		Kind:     kind,
		Required: len(meta) > 2 && truthy(meta[2]),
	}
	switch {
	case kind.HasOptions():
		if len(meta) > 1 {
			q.Options = optionValues(meta[1])
		}
	case kind == model.KindLinearScale:
		bounds := model.DefaultScaleBounds
		if len(meta) > 3 && meta[3].IsArray() {
			if limits := meta[3].Array(); len(limits) >= 2 {
				lo, hi := int(limits[0].Int()), int(limits[1].Int())
				if lo <= hi {
					bounds = model.ScaleBounds{Min: lo, Max: hi}
				}
			}
		}
		q.ScaleBounds = &bounds
	}
	return q, true
}

func optionValues(raw gjson.Result) []string {
	if !raw.IsArray() {
		return nil
	}
	var values []string
	for _, opt := range raw.Array() {
		if !opt.IsArray() {
			continue
		}
		parts := opt.Array()
		if len(parts) == 0 {
			continue
		}
		values = append(values, parts[0].String())
	}
	return values
}

// idString keeps numeric ids exactly as written; float formatting would mangle large ids
func idString(r gjson.Result) (string, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Raw, true
	case gjson.String:
		return r.Str, r.Str != ""
	}
	return "", false
}

func stringAt(values []gjson.Result, i int) string {
	if i >= len(values) || values[i].Type != gjson.String {
		return ""
	}
	return values[i].Str
}

func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.True, gjson.JSON:
		return true
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	}
	return false
}
