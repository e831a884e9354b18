package invoice

import (
	"fmt"
	"strings"
)

// Record is the validated form of one invoice read by the model
type Record struct {
	Date         string     `json:"date"`
	Supplier     string     `json:"supplier"`
	NetTotal     Amount     `json:"net_total"`
	VATPresent   bool       `json:"vat_present"`
	SubCategory  string     `json:"sub_category"`
	Items        []LineItem `json:"items"`
	AttributedTo string     `json:"attributed_to,omitempty"`
}

// LineItem is a single invoice line. Name is never empty.
type LineItem struct {
	Name      string  `json:"name"`
	Qty       float64 `json:"qty"`
	Rate      float64 `json:"rate"`
	Discount  float64 `json:"discount"`
	VAT       float64 `json:"vat"`
	LineTotal float64 `json:"line_total"`
}

// Builder turns decoded model output into Records
type Builder struct {
	cfg        Config
	categories map[string]string
}

// NewBuilder creates a Builder for the given configuration
func NewBuilder(cfg Config) *Builder {
	if len(cfg.Categories) == 0 {
		cfg.Categories = DefaultCategories
	}
	categories := make(map[string]string, len(cfg.Categories))
	for _, c := range cfg.Categories {
		categories[strings.ToLower(strings.TrimSpace(c))] = c
	}
	return &Builder{cfg: cfg, categories: categories}
}

// Parse extracts, decodes and normalizes raw model text in one step
func (b *Builder) Parse(text string, attributedTo string) (Record, error) {
	raw, err := Decode(text)
	if err != nil {
		return Record{}, err
	}
	return b.Build(raw, attributedTo), nil
}

// Build normalizes a decoded model object. Field-level problems are recovered
// with defaults; Build never fails.
func (b *Builder) Build(raw map[string]any, attributedTo string) Record {
	rec := Record{
		Date:         NormalizeDate(stringField(raw["date"]), b.cfg.layout(), b.cfg.now()),
		Supplier:     stringField(raw["supplier"]),
		NetTotal:     NormalizeNumber(raw["net_total"]),
		VATPresent:   VATPresent(raw["vat_amount"]),
		SubCategory:  b.category(raw["sub_category"]),
		AttributedTo: strings.TrimSpace(attributedTo),
	}

	entries, _ := raw["items"].([]any)
	rec.Items = make([]LineItem, 0, len(entries))
	for _, entry := range entries {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		item, ok := b.lineItem(fields, rec.VATPresent)
		if !ok {
			continue
		}
		rec.Items = append(rec.Items, item)
	}

	return rec
}

func (b *Builder) lineItem(fields map[string]any, vatPresent bool) (LineItem, bool) {
	name := stringField(fields["name"])
	if name == "" {
		return LineItem{}, false
	}

	item := LineItem{
		Name:     name,
		Qty:      NormalizeNumber(fields["qty"]).Float(),
		Rate:     NormalizeNumber(fields["rate"]).Float(),
		Discount: NormalizeNumber(fields["discount"]).Float(),
		VAT:      NormalizeNumber(fields["vat"]).Float(),
	}
	// a header-level "no VAT" overrides per-line VAT the model made up
	if !vatPresent {
		item.VAT = 0
	}

	if total := NormalizeNumber(fields["line_total"]); total.Valid {
		item.LineTotal = total.Value
	} else {
		item.LineTotal = item.Qty*item.Rate - item.Discount + item.VAT
	}
	return item, true
}

func (b *Builder) category(v any) string {
	if c, ok := b.categories[strings.ToLower(stringField(v))]; ok {
		return c
	}
	return OtherCategory
}

// stringField renders a scalar JSON value as trimmed text. Objects and arrays
// are not text and yield "".
func stringField(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64, bool:
		return strings.TrimSpace(fmt.Sprint(s))
	default:
		return ""
	}
}
