package printing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/taskdeck/taskdeck-api/internal/domain"
)

// PDFPrinter renders tasks as single-page PDF documents in a configured
// output directory. The file name is derived from the task ID, so
// reprinting a task overwrites the previous document.
type PDFPrinter struct {
	outputDir string
}

var _ Printer = (*PDFPrinter)(nil)

// NewPDFPrinter creates a PDFPrinter writing into outputDir. The
// directory is created on first print if it does not exist.
func NewPDFPrinter(outputDir string) *PDFPrinter {
	return &PDFPrinter{outputDir: outputDir}
}

// Print implements the Printer interface.
func (p *PDFPrinter) Print(ctx context.Context, task *domain.Task) error {
	if err := ctx.Err(); err != nil {
		return newPrinterError("pdf", err)
	}
	if task == nil {
		return newPrinterError("pdf", fmt.Errorf("nil task"))
	}

	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return newPrinterError("pdf", fmt.Errorf("creating output directory: %w", err))
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle(task.Title, true)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 20)
	doc.MultiCell(0, 10, task.Title, "", "L", false)
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 12)
	if task.Description != "" {
		doc.MultiCell(0, 6, task.Description, "", "L", false)
		doc.Ln(4)
	}

	doc.SetFont("Helvetica", "", 10)
	if task.DueDate != nil {
		doc.CellFormat(0, 6, "Due: "+task.DueDate.Format(time.RFC1123), "", 1, "L", false, 0, "")
	}
	if task.Reward != nil && *task.Reward != "" {
		doc.CellFormat(0, 6, "Reward: "+*task.Reward, "", 1, "L", false, 0, "")
	}
	doc.CellFormat(0, 6, "State: "+string(task.State), "", 1, "L", false, 0, "")
	doc.CellFormat(0, 6, "Task ID: "+task.ID.String(), "", 1, "L", false, 0, "")

	path := filepath.Join(p.outputDir, task.ID.String()+".pdf")
	if err := doc.OutputFileAndClose(path); err != nil {
		return newPrinterError("pdf", fmt.Errorf("writing %s: %w", path, err))
	}
	return nil
}
