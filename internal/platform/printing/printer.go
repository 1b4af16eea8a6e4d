// Package printing renders tasks to physical or file-backed documents.
// Core components depend only on the Printer interface; the concrete
// backend is selected by configuration.
package printing

import (
	"context"
	"fmt"

	"github.com/taskdeck/taskdeck-api/internal/config"
	"github.com/taskdeck/taskdeck-api/internal/domain"
)

// Printer is the capability consumed by the maintenance job and the
// on-demand print endpoint.
type Printer interface {
	// Print renders the task. Implementations must honor ctx cancellation
	// and fail with a *PrinterError on device or rendering failure.
	Print(ctx context.Context, task *domain.Task) error
}

// PrinterError reports a printing failure: device unavailable, malformed
// task data, or rendering failure.
type PrinterError struct {
	Backend string
	Err     error
}

// Error implements the error interface.
func (e *PrinterError) Error() string {
	return fmt.Sprintf("printer %s: %v", e.Backend, e.Err)
}

// Unwrap returns the wrapped error.
func (e *PrinterError) Unwrap() error {
	return e.Err
}

// newPrinterError wraps err for the given backend.
func newPrinterError(backend string, err error) *PrinterError {
	return &PrinterError{Backend: backend, Err: err}
}

// NewPrinter creates the printer backend named by the configuration.
func NewPrinter(cfg config.PrinterConfig) (Printer, error) {
	switch cfg.Type {
	case "pdf":
		return NewPDFPrinter(cfg.OutputDir), nil
	case "usb":
		return NewUSBPrinter(cfg.DevicePath), nil
	default:
		return nil, fmt.Errorf("unsupported printer type: %q", cfg.Type)
	}
}
