package invoice

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedOutput means no JSON object could be located in the model output.
	ErrMalformedOutput = errors.New("no JSON object found in model output")

	// ErrParse means a JSON object was located but did not parse.
	ErrParse = errors.New("invalid JSON object in model output")
)

// ExtractJSON returns the span from the first "{" to the last "}" in text.
//
// Brace nesting is not checked. Prose containing stray braces, or several
// independent objects, yields a span that will fail to parse; callers must
// still parse the result strictly.
func ExtractJSON(text string) (string, error) {
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return "", ErrMalformedOutput
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return "", ErrMalformedOutput
	}

	return text[startIdx : endIdx+1], nil
}

// Decode locates the JSON object in model output and parses it
func Decode(text string) (map[string]any, error) {
	span, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return raw, nil
}
