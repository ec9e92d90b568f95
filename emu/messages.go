package emu

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Reporter receives non-fatal diagnostics.
type Reporter interface {
	Warn(format string, args ...any)
}

// MessageBuffer is the single-slot buffer for warnings and fatal messages.
// Messages are held until the step boundary so they never interleave with
// an instruction. A fatal message replaces any pending warning; further
// warnings are appended to a pending warning.
type MessageBuffer struct {
	logger *logrus.Logger

	text    string
	fatal   bool
	pending bool

	warnings uint64
}

// NewMessageBuffer creates a buffer that flushes through logger.
func NewMessageBuffer(logger *logrus.Logger) *MessageBuffer {
	return &MessageBuffer{logger: logger}
}

// Warn posts a warning.
func (b *MessageBuffer) Warn(format string, args ...any) {
	b.warnings++
	if b.fatal {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if b.pending {
		b.text += "; " + msg
		return
	}
	b.text = msg
	b.pending = true
}

// Fatal posts a fatal message.
func (b *MessageBuffer) Fatal(format string, args ...any) {
	b.text = fmt.Sprintf(format, args...)
	b.fatal = true
	b.pending = true
}

// Pending reports whether a message waits for the next flush.
func (b *MessageBuffer) Pending() bool {
	return b.pending
}

// Text returns the pending message.
func (b *MessageBuffer) Text() string {
	return b.text
}

// Warnings returns the number of warnings posted so far.
func (b *MessageBuffer) Warnings() uint64 {
	return b.warnings
}

// Flush logs the pending message with the given fields and empties the slot.
func (b *MessageBuffer) Flush(fields logrus.Fields) {
	if !b.pending {
		return
	}

	entry := b.logger.WithFields(fields)
	if b.fatal {
		entry.Error(b.text)
	} else {
		entry.Warn(b.text)
	}

	b.text = ""
	b.fatal = false
	b.pending = false
}
