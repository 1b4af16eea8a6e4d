package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/platform/printing"
)

// RecordingPrinter is a printing.Printer that records the IDs of printed
// tasks. Set Err to make every print attempt fail; set PrintFunc to run
// arbitrary work while a print is in flight (e.g. concurrent mutations).
type RecordingPrinter struct {
	mu      sync.Mutex
	printed []uuid.UUID

	Err       error
	PrintFunc func(ctx context.Context, task *domain.Task) error
}

var _ printing.Printer = (*RecordingPrinter)(nil)

// NewRecordingPrinter creates an empty RecordingPrinter.
func NewRecordingPrinter() *RecordingPrinter {
	return &RecordingPrinter{}
}

// Print implements printing.Printer.
func (p *RecordingPrinter) Print(ctx context.Context, task *domain.Task) error {
	if p.Err != nil {
		return p.Err
	}
	if p.PrintFunc != nil {
		if err := p.PrintFunc(ctx, task); err != nil {
			return err
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printed = append(p.printed, task.ID)
	return nil
}

// Printed returns the IDs of the tasks printed so far.
func (p *RecordingPrinter) Printed() []uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uuid.UUID(nil), p.printed...)
}
