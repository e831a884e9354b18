package scanning

import "context"

// Scanner sends an invoice photo to a vision model and returns its raw reply.
// The reply is untrusted text that should contain one JSON object.
type Scanner interface {
	// ScanInvoice analyzes an invoice image/PDF and returns the model's text output
	ScanInvoice(ctx context.Context, imageData []byte, contentType string) (string, error)

	// Close closes the scanner and releases resources
	Close() error
}
