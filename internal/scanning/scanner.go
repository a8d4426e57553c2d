package scanning

import "context"

// Scanner defines the interface for OCR of receipt photos
type Scanner interface {
	// ScanText transcribes a receipt image/PDF to plain text, one receipt line per line
	ScanText(ctx context.Context, imageData []byte, contentType string) (string, error)
	// Close closes the scanner and releases resources
	Close() error
}
