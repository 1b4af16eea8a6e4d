package printing

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/taskdeck/taskdeck-api/internal/domain"
)

// ESC/POS control sequences understood by common receipt printers.
var (
	escInit       = []byte{0x1b, 0x40}       // ESC @  reset
	escBoldOn     = []byte{0x1b, 0x45, 0x01} // ESC E 1
	escBoldOff    = []byte{0x1b, 0x45, 0x00} // ESC E 0
	escDoubleSize = []byte{0x1d, 0x21, 0x11} // GS ! double width+height
	escNormalSize = []byte{0x1d, 0x21, 0x00} // GS ! normal
	escCut        = []byte{0x1d, 0x56, 0x42, 0x00} // GS V partial cut
)

// USBPrinter sends ESC/POS encoded receipts to a raw USB line printer
// device such as /dev/usb/lp0.
type USBPrinter struct {
	devicePath string
}

var _ Printer = (*USBPrinter)(nil)

// NewUSBPrinter creates a USBPrinter writing to devicePath.
func NewUSBPrinter(devicePath string) *USBPrinter {
	return &USBPrinter{devicePath: devicePath}
}

// Print implements the Printer interface.
func (p *USBPrinter) Print(ctx context.Context, task *domain.Task) error {
	if err := ctx.Err(); err != nil {
		return newPrinterError("usb", err)
	}
	if task == nil {
		return newPrinterError("usb", fmt.Errorf("nil task"))
	}

	payload := encodeReceipt(task)

	f, err := os.OpenFile(p.devicePath, os.O_WRONLY, 0)
	if err != nil {
		return newPrinterError("usb", fmt.Errorf("opening device %s: %w", p.devicePath, err))
	}
	defer func() { _ = f.Close() }()

	// The device write itself is not interruptible, so honor the deadline
	// by setting it on the file when the platform supports it.
	if deadline, ok := ctx.Deadline(); ok {
		_ = f.SetWriteDeadline(deadline)
	}

	if _, err := f.Write(payload); err != nil {
		return newPrinterError("usb", fmt.Errorf("writing to device %s: %w", p.devicePath, err))
	}
	return nil
}

// encodeReceipt renders the task as an ESC/POS byte stream.
func encodeReceipt(task *domain.Task) []byte {
	var buf bytes.Buffer
	buf.Write(escInit)

	buf.Write(escDoubleSize)
	buf.Write(escBoldOn)
	buf.WriteString(task.Title)
	buf.WriteString("\n")
	buf.Write(escBoldOff)
	buf.Write(escNormalSize)
	buf.WriteString("\n")

	if task.Description != "" {
		buf.WriteString(task.Description)
		buf.WriteString("\n\n")
	}
	if task.DueDate != nil {
		buf.WriteString("Due: " + task.DueDate.Format(time.RFC1123) + "\n")
	}
	if task.Reward != nil && *task.Reward != "" {
		buf.WriteString("Reward: " + *task.Reward + "\n")
	}
	buf.WriteString("Task ID: " + task.ID.String() + "\n")

	buf.WriteString("\n\n\n")
	buf.Write(escCut)
	return buf.Bytes()
}
