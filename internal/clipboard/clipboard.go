// Package clipboard writes text to the system clipboard.
package clipboard

import (
	"github.com/atotto/clipboard"
	"github.com/mcncl/jsonedit/internal/errors"
)

// System is the operating system clipboard.
type System struct{}

// WriteAll replaces the clipboard contents with text.
func (System) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errors.NewIOError("no clipboard utility available", errors.ErrClipboard)
	}
	if err := clipboard.WriteAll(text); err != nil {
		return errors.NewIOError("failed to write clipboard", err)
	}
	return nil
}

// Memory is an in-process clipboard. Fail makes every write fail.
type Memory struct {
	Text string
	Fail bool
}

func (m *Memory) WriteAll(text string) error {
	if m.Fail {
		return errors.NewIOError("clipboard rejected the write", errors.ErrClipboard)
	}
	m.Text = text
	return nil
}
