package invoice

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	trailingCommaGroup = regexp.MustCompile(`,\d{3}$`)
	trailingDotGroup   = regexp.MustCompile(`\.\d{3}$`)
)

// Amount is a loosely typed numeric field after normalization.
// Exactly one of three states holds: a parsed number (Valid), an
// unparseable literal kept verbatim (Raw), or null (neither).
type Amount struct {
	Value float64
	Raw   string
	Valid bool
}

// IsNull reports whether the field carried no value at all
func (a Amount) IsNull() bool {
	return !a.Valid && a.Raw == ""
}

// Float returns the parsed value, or 0 when the field was null or unparseable
func (a Amount) Float() float64 {
	if a.Valid {
		return a.Value
	}
	return 0
}

// Cell returns the value as it should be written to a table cell:
// the float when parsed, the literal otherwise.
func (a Amount) Cell() any {
	if a.Valid {
		return a.Value
	}
	return a.Raw
}

// MarshalJSON writes a number, the raw literal, or null
func (a Amount) MarshalJSON() ([]byte, error) {
	switch {
	case a.Valid:
		return json.Marshal(a.Value)
	case a.Raw != "":
		return json.Marshal(a.Raw)
	default:
		return []byte("null"), nil
	}
}

// NormalizeNumber parses a number that may be null, numeric, or a string in
// either US or European notation. It never fails: unparseable strings come
// back as Raw.
func NormalizeNumber(v any) Amount {
	switch n := v.(type) {
	case nil:
		return Amount{}
	case float64:
		return Amount{Value: n, Valid: true}
	case float32:
		return Amount{Value: float64(n), Valid: true}
	case int:
		return Amount{Value: float64(n), Valid: true}
	case int32:
		return Amount{Value: float64(n), Valid: true}
	case int64:
		return Amount{Value: float64(n), Valid: true}
	case json.Number:
		return parseNumberString(string(n))
	case string:
		return parseNumberString(n)
	default:
		return Amount{Raw: fmt.Sprint(v)}
	}
}

func parseNumberString(original string) Amount {
	s := strings.TrimSpace(original)
	if s == "" {
		return Amount{}
	}
	switch strings.ToLower(s) {
	case "null", "none", "nan":
		return Amount{}
	}

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		s = strings.ReplaceAll(s, ",", "")
	case hasComma:
		if trailingCommaGroup.MatchString(s) {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	case hasDot:
		if trailingDotGroup.MatchString(s) {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return Amount{Raw: original}
	}
	return Amount{Value: f, Valid: true}
}
