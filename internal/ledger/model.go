package ledger

import (
	"context"

	"github.com/zombor/invoice-ledger/internal/invoice"
)

// Table names rows are appended to
const (
	HeaderTable = "Invoices"
	DetailTable = "Items"
)

// Table is an append-only tabular store of named tables
type Table interface {
	// Append adds rows to the end of a table, creating it with the given
	// title columns if it does not exist yet
	Append(ctx context.Context, table string, columns []string, rows [][]any) error

	// Columns returns a table's title columns, or nil if it does not exist
	Columns(ctx context.Context, table string) ([]string, error)

	// Rows returns every data row of a table in append order
	Rows(ctx context.Context, table string) ([][]string, error)

	// Close releases the store
	Close() error
}

// Upload is one invoice photo submitted for processing
type Upload struct {
	Filename     string
	Data         []byte
	ContentType  string
	AttributedTo string
}

// Result describes a processed invoice and the rows written for it
type Result struct {
	ID         string         `json:"id"`
	Photo      string         `json:"photo"`
	Invoice    invoice.Record `json:"invoice"`
	HeaderRow  []any          `json:"header_row"`
	DetailRows [][]any        `json:"detail_rows"`
}

// Sheet is the content of one table
type Sheet struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}
