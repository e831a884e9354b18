package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"
)

// defaultSheet is the sheet excelize creates in a new workbook
const defaultSheet = "Sheet1"

// Workbook implements the Table interface with an XLSX file. Each table is a
// sheet whose first row holds the column titles. The file is rewritten after
// every append.
type Workbook struct {
	mu   sync.Mutex
	path string
}

// NewWorkbook creates a Workbook stored at path. The file itself is created
// on the first append.
func NewWorkbook(path string) (*Workbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating workbook directory: %w", err)
	}
	return &Workbook{path: path}, nil
}

// open returns the workbook on disk, or a new empty one if none exists yet
func (w *Workbook) open() (*excelize.File, bool, error) {
	f, err := excelize.OpenFile(w.path)
	if errors.Is(err, fs.ErrNotExist) {
		return excelize.NewFile(), true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("opening workbook: %w", err)
	}
	return f, false, nil
}

// Append writes rows after the last used row of the table's sheet
func (w *Workbook) Append(ctx context.Context, table string, columns []string, rows [][]any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	f, fresh, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	index, err := f.GetSheetIndex(table)
	if err != nil {
		return fmt.Errorf("looking up sheet %s: %w", table, err)
	}
	if index == -1 {
		if err := w.createSheet(f, table, columns, fresh); err != nil {
			return err
		}
	}

	existing, err := f.GetRows(table)
	if err != nil {
		return fmt.Errorf("reading sheet %s: %w", table, err)
	}

	next := len(existing) + 1
	for _, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, next)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(table, cell, &values); err != nil {
			return fmt.Errorf("writing row %d of %s: %w", next, table, err)
		}
		next++
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func (w *Workbook) createSheet(f *excelize.File, table string, columns []string, fresh bool) error {
	index, err := f.NewSheet(table)
	if err != nil {
		return fmt.Errorf("creating sheet %s: %w", table, err)
	}

	// Drop the placeholder sheet of a brand new file
	if fresh && table != defaultSheet {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("removing default sheet: %w", err)
		}
		index, _ = f.GetSheetIndex(table)
	}
	f.SetActiveSheet(index)

	titles := make([]any, len(columns))
	for i, c := range columns {
		titles[i] = c
	}
	if err := f.SetSheetRow(table, "A1", &titles); err != nil {
		return fmt.Errorf("writing title row of %s: %w", table, err)
	}

	if len(columns) > 0 {
		last, err := excelize.ColumnNumberToName(len(columns))
		if err != nil {
			return err
		}
		_ = f.SetColWidth(table, "A", last, 16)
	}
	return nil
}

// Columns returns the title row of a table's sheet
func (w *Workbook) Columns(ctx context.Context, table string) ([]string, error) {
	rows, err := w.sheetRows(ctx, table)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// Rows returns the data rows of a table's sheet, without the title row.
// excelize drops trailing blank cells, so rows are padded back to the width
// of the title row.
func (w *Workbook) Rows(ctx context.Context, table string) ([][]string, error) {
	rows, err := w.sheetRows(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return [][]string{}, nil
	}

	width := len(rows[0])
	data := rows[1:]
	for i, row := range data {
		for len(row) < width {
			row = append(row, "")
		}
		data[i] = row
	}
	return data, nil
}

func (w *Workbook) sheetRows(ctx context.Context, table string) ([][]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, fresh, err := w.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if fresh {
		return nil, nil
	}

	index, err := f.GetSheetIndex(table)
	if err != nil {
		return nil, err
	}
	if index == -1 {
		return nil, nil
	}

	rows, err := f.GetRows(table)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", table, err)
	}
	return rows, nil
}

// WriteTo streams the whole workbook, e.g. for download
func (w *Workbook) WriteTo(dst io.Writer) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, _, err := w.open()
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.WriteTo(dst)
}

// Close is a no-op; the file is closed after every operation
func (w *Workbook) Close() error {
	return nil
}
