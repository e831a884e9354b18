package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/zombor/invoice-ledger/internal/invoice"
	"github.com/zombor/invoice-ledger/internal/scanning"
)

var (
	// ErrScan wraps failures of the vision model call
	ErrScan = errors.New("scanning invoice")

	// ErrExportUnsupported is returned when the table store cannot be downloaded as a workbook
	ErrExportUnsupported = errors.New("table store does not support workbook export")
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// IDGenerator generates unique IDs for processed invoices
type IDGenerator interface {
	Generate() string
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

// Service turns invoice photos into ledger rows
type Service struct {
	table       Table
	scanner     scanning.Scanner
	storage     Storage
	builder     *invoice.Builder
	projector   *invoice.Projector
	idGenerator IDGenerator

	// appendMu keeps the header and detail rows of one invoice together
	appendMu sync.Mutex
}

// NewService creates a new Service with a UUID generator
func NewService(table Table, scanner scanning.Scanner, storage Storage, cfg invoice.Config) *Service {
	return NewServiceWithDeps(table, scanner, storage, cfg, uuidGenerator{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(table Table, scanner scanning.Scanner, storage Storage, cfg invoice.Config, idGen IDGenerator) *Service {
	return &Service{
		table:       table,
		scanner:     scanner,
		storage:     storage,
		builder:     invoice.NewBuilder(cfg),
		projector:   invoice.NewProjector(cfg),
		idGenerator: idGen,
	}
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 6 {
		ext = ""
	}
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "invoice"
	}
	return base + ext
}

// ProcessInvoice archives the photo, has the model read it, and appends the
// resulting header and detail rows. Nothing is appended when the model output
// contains no usable JSON.
func (s *Service) ProcessInvoice(ctx context.Context, up Upload) (*Result, error) {
	id := s.idGenerator.Generate()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(up.Filename)), up.Data)
	if err != nil {
		return nil, fmt.Errorf("saving photo: %w", err)
	}

	text, err := s.scanner.ScanInvoice(ctx, up.Data, up.ContentType)
	if err != nil {
		slog.Error("Failed to scan invoice",
			"id", id,
			"filename", up.Filename,
			"content_type", up.ContentType,
			"file_size", len(up.Data),
			"error", err,
		)
		s.discard(savedPath)
		return nil, fmt.Errorf("%w: %w", ErrScan, err)
	}

	rec, err := s.builder.Parse(text, up.AttributedTo)
	if err != nil {
		slog.Error("Failed to read model output",
			"id", id,
			"filename", up.Filename,
			"output", truncate(text, 500),
			"error", err,
		)
		s.discard(savedPath)
		return nil, fmt.Errorf("reading model output: %w", err)
	}

	result := &Result{
		ID:         id,
		Photo:      savedPath,
		Invoice:    rec,
		HeaderRow:  s.projector.HeaderRow(rec),
		DetailRows: s.projector.DetailRows(rec),
	}

	if err := s.appendRows(ctx, result); err != nil {
		return nil, err
	}

	slog.Info("Invoice processed",
		"id", id,
		"supplier", rec.Supplier,
		"date", rec.Date,
		"items", len(rec.Items),
		"attributed_to", rec.AttributedTo,
	)
	return result, nil
}

func (s *Service) appendRows(ctx context.Context, result *Result) error {
	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	headerCols := s.projector.Columns(invoice.HeaderSchema)
	if err := s.table.Append(ctx, HeaderTable, headerCols, [][]any{result.HeaderRow}); err != nil {
		s.discard(result.Photo)
		return fmt.Errorf("appending header row: %w", err)
	}

	detailCols := s.projector.Columns(invoice.DetailSchema)
	if err := s.table.Append(ctx, DetailTable, detailCols, result.DetailRows); err != nil {
		// The header row is already written; keep the photo so it can be re-entered by hand
		slog.Error("Detail rows not written", "id", result.ID, "photo", result.Photo, "error", err)
		return fmt.Errorf("appending detail rows: %w", err)
	}
	return nil
}

func (s *Service) discard(path string) {
	if err := s.storage.Delete(path); err != nil {
		slog.Warn("Failed to delete photo", "filename", path, "error", err)
	}
}

// ListInvoices returns the header table
func (s *Service) ListInvoices(ctx context.Context) (*Sheet, error) {
	return s.sheet(ctx, HeaderTable)
}

// ListItems returns the detail table
func (s *Service) ListItems(ctx context.Context) (*Sheet, error) {
	return s.sheet(ctx, DetailTable)
}

func (s *Service) sheet(ctx context.Context, table string) (*Sheet, error) {
	columns, err := s.table.Columns(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	rows, err := s.table.Rows(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", table, err)
	}

	if columns == nil {
		schema := invoice.HeaderSchema
		if table == DetailTable {
			schema = invoice.DetailSchema
		}
		columns = s.projector.Columns(schema)
	}
	if rows == nil {
		rows = [][]string{}
	}
	return &Sheet{Columns: columns, Rows: rows}, nil
}

// ExportWorkbook writes the ledger as an XLSX workbook
func (s *Service) ExportWorkbook(w io.Writer) error {
	wt, ok := s.table.(io.WriterTo)
	if !ok {
		return ErrExportUnsupported
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("exporting workbook: %w", err)
	}
	return nil
}

// Photo returns an archived invoice photo by the name in Result.Photo
func (s *Service) Photo(name string) ([]byte, error) {
	data, err := s.storage.Get(name)
	if err != nil {
		return nil, fmt.Errorf("reading photo %q: %w", name, err)
	}
	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
