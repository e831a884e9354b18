package invoice

import (
	"strings"
	"time"
)

// dateLayouts are tried in order; the first one that parses wins, so
// unambiguous year-first layouts come before day-first ones.
var dateLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2/1/06",
	"2-1-06",
	"2.1.06",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// NormalizeDate converts a date string into the canonical layout.
// Empty or unrecognized input falls back to now in UTC.
func NormalizeDate(raw string, layout string, now time.Time) string {
	if layout == "" {
		layout = LayoutDash
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.UTC().Format(layout)
	}

	for _, l := range dateLayouts {
		if d, err := time.Parse(l, raw); err == nil {
			return d.Format(layout)
		}
	}
	for _, l := range isoLayouts {
		if d, err := time.Parse(l, raw); err == nil {
			return d.Format(layout)
		}
	}

	return now.UTC().Format(layout)
}
