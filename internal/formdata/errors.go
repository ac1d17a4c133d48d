package formdata

import (
	"errors"
	"fmt"
)

// ErrExtraction matches every failure to recover a form model from a page.
// Callers get one of the specific errors below, each wrapping ErrExtraction.
var ErrExtraction = errors.New("form data extraction failed")

var (
	ErrMarkerNotFound   = fmt.Errorf("%w: marker %s not found, is this a public form?", ErrExtraction, Marker)
	ErrUnbalanced       = fmt.Errorf("%w: unbalanced brackets in form data", ErrExtraction)
	ErrPayloadDecode    = fmt.Errorf("%w: form data is not valid JSON", ErrExtraction)
	ErrMalformedPayload = fmt.Errorf("%w: unexpected form data layout", ErrExtraction)
)
