package invoice

import (
	"fmt"
	"strings"
	"time"
)

// Canonical date layouts a ledger can be configured with
const (
	LayoutDash  = "2006-01-02"
	LayoutSlash = "2006/01/02"
)

// OtherCategory is the fallback sub-category for anything the model returns
// that is not in the configured list.
const OtherCategory = "Other"

// DefaultCategories is the closed set of sub-categories used when none are configured
var DefaultCategories = []string{
	"Gas",
	"Grocery",
	"Restaurant",
	"Office Supplies",
	"Utilities",
	"Transport",
	"Maintenance",
	OtherCategory,
}

// Config controls how model output is normalized and projected into rows
type Config struct {
	// Categories is the closed set of accepted sub-categories. It must contain OtherCategory.
	Categories []string

	// DateLayout is the canonical output layout, LayoutDash or LayoutSlash.
	DateLayout string

	// SummarizeItems adds the newline-joined item summary column to header rows.
	SummarizeItems bool

	// TrackAttribution adds the submitter column to header and detail rows.
	TrackAttribution bool

	// Now is the capture-time clock used for date fallbacks. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns the configuration the bot ships with
func DefaultConfig() Config {
	return Config{
		Categories:       append([]string(nil), DefaultCategories...),
		DateLayout:       LayoutDash,
		SummarizeItems:   true,
		TrackAttribution: true,
		Now:              time.Now,
	}
}

// Validate checks the configuration for values the pipeline cannot work with
func (c Config) Validate() error {
	if c.DateLayout != LayoutDash && c.DateLayout != LayoutSlash {
		return fmt.Errorf("unsupported date layout %q", c.DateLayout)
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}
	hasOther := false
	for _, cat := range c.Categories {
		if strings.TrimSpace(cat) == "" {
			return fmt.Errorf("empty category name")
		}
		if cat == OtherCategory {
			hasOther = true
		}
	}
	if !hasOther {
		return fmt.Errorf("categories must include %q", OtherCategory)
	}
	return nil
}

// ParseCategories splits a comma separated category list, trimming blanks and
// making sure OtherCategory is present.
func ParseCategories(list string) []string {
	var cats []string
	hasOther := false
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.EqualFold(part, OtherCategory) {
			part = OtherCategory
			hasOther = true
		}
		cats = append(cats, part)
	}
	if !hasOther {
		cats = append(cats, OtherCategory)
	}
	return cats
}

func (c Config) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c Config) layout() string {
	if c.DateLayout == "" {
		return LayoutDash
	}
	return c.DateLayout
}
