// Package formdata turns the HTML of a public form page into a typed question model.
//
// The form provider embeds its configuration as a JavaScript array literal assigned
// to a well-known variable. Locate isolates that literal with a string-aware bracket
// scan, and Build maps the positional array onto model.Question values. All knowledge
// of the provider's layout lives in this package.
package formdata

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Marker is the variable name that precedes the embedded configuration array
const Marker = "FB_PUBLIC_LOAD_DATA_"

// Locate returns the balanced JSON array that follows Marker in html.
// Brackets inside string literals do not count towards nesting.
func Locate(html string) (string, error) {
	at := strings.Index(html, Marker)
	if at == -1 {
		return "", ErrMarkerNotFound
	}
	rel := strings.IndexByte(html[at:], '[')
	if rel == -1 {
		return "", ErrMarkerNotFound
	}
	start := at + rel

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(html); i++ {
		c := html[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return html[start : i+1], nil
			}
		}
	}
	return "", ErrUnbalanced
}

// Extract locates and validates the configuration array
func Extract(html string) (gjson.Result, error) {
	raw, err := Locate(html)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.Valid(raw) {
		return gjson.Result{}, ErrPayloadDecode
	}
	return gjson.Parse(raw), nil
}
