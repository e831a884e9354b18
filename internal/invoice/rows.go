package invoice

import (
	"strconv"
	"strings"
)

// Schema selects which row shape the Projector produces
type Schema int

const (
	// HeaderSchema is one summary row per invoice.
	HeaderSchema Schema = iota
	// DetailSchema is one row per line item.
	DetailSchema
)

func (s Schema) String() string {
	switch s {
	case HeaderSchema:
		return "header"
	case DetailSchema:
		return "detail"
	default:
		return "unknown"
	}
}

// UnreadableItems is the item name of the placeholder detail row written when
// no line items could be recovered from an invoice.
const UnreadableItems = "UNREADABLE_ITEMS"

// Projector maps Records onto table rows. It performs no I/O.
type Projector struct {
	cfg Config
}

// NewProjector creates a Projector for the given configuration
func NewProjector(cfg Config) *Projector {
	return &Projector{cfg: cfg}
}

// Columns returns the title row for a table of the given schema
func (p *Projector) Columns(schema Schema) []string {
	var cols []string
	switch schema {
	case HeaderSchema:
		cols = []string{"Date", "Supplier", "Net Total", "VAT", "Sub Category"}
		if p.cfg.SummarizeItems {
			cols = append(cols, "Items")
		}
	case DetailSchema:
		cols = []string{"Date", "Supplier", "Item", "Qty", "Rate", "Discount", "VAT", "Line Total"}
	}
	if p.cfg.TrackAttribution {
		cols = append(cols, "Attributed To")
	}
	return cols
}

// Project returns the rows for rec in the given schema
func (p *Projector) Project(rec Record, schema Schema) [][]any {
	switch schema {
	case HeaderSchema:
		return [][]any{p.HeaderRow(rec)}
	case DetailSchema:
		return p.DetailRows(rec)
	default:
		return nil
	}
}

// HeaderRow returns the single summary row for rec
func (p *Projector) HeaderRow(rec Record) []any {
	vat := "No"
	if rec.VATPresent {
		vat = "Yes"
	}
	row := []any{rec.Date, rec.Supplier, rec.NetTotal.Cell(), vat, rec.SubCategory}
	if p.cfg.SummarizeItems {
		row = append(row, summarizeItems(rec.Items))
	}
	if p.cfg.TrackAttribution {
		row = append(row, rec.AttributedTo)
	}
	return row
}

// DetailRows returns one row per line item, or a single UnreadableItems
// sentinel row when rec has no items.
func (p *Projector) DetailRows(rec Record) [][]any {
	if len(rec.Items) == 0 {
		row := []any{rec.Date, rec.Supplier, UnreadableItems, "", "", "", 0.0, ""}
		return [][]any{p.attribute(row, rec)}
	}

	rows := make([][]any, 0, len(rec.Items))
	for _, item := range rec.Items {
		row := []any{
			rec.Date,
			rec.Supplier,
			item.Name,
			item.Qty,
			item.Rate,
			item.Discount,
			item.VAT,
			item.LineTotal,
		}
		rows = append(rows, p.attribute(row, rec))
	}
	return rows
}

func (p *Projector) attribute(row []any, rec Record) []any {
	if p.cfg.TrackAttribution {
		row = append(row, rec.AttributedTo)
	}
	return row
}

// summarizeItems renders "name | qty X | rate Y | disc Z | vat W" per item,
// leaving out zero-valued fields.
func summarizeItems(items []LineItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		parts := []string{item.Name}
		for _, f := range []struct {
			label string
			value float64
		}{
			{"qty", item.Qty},
			{"rate", item.Rate},
			{"disc", item.Discount},
			{"vat", item.VAT},
		} {
			if f.value == 0 {
				continue
			}
			parts = append(parts, f.label+" "+formatNumber(f.value))
		}
		lines = append(lines, strings.Join(parts, " | "))
	}
	return strings.Join(lines, "\n")
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
