package zinc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// SilentHandler is a slog.Handler that discards all log output. It is the
// default for managers created without WithLogger, and useful in tests.
type SilentHandler struct{}

func (SilentHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return false
}

func (SilentHandler) Handle(ctx context.Context, record slog.Record) error {
	return nil
}

func (h SilentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h SilentHandler) WithGroup(name string) slog.Handler {
	return h
}

// HumanHandler is a slog.Handler that formats region and evaluation messages
// for human readability, with special layout for evaluation failures.
type HumanHandler struct {
	writer io.Writer
	level  slog.Level
}

// NewHumanHandler creates a human-readable log handler writing to writer at
// the given minimum level.
func NewHumanHandler(writer io.Writer, level slog.Level) *HumanHandler {
	return &HumanHandler{writer: writer, level: level}
}

func (h *HumanHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *HumanHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Message == "evaluation failed" {
		return h.handleEvaluationFailure(record)
	}
	if _, err := fmt.Fprintf(h.writer, "[%s] %s\n", record.Level, record.Message); err != nil {
		return err
	}
	var writeErr error
	record.Attrs(func(a slog.Attr) bool {
		if _, err := fmt.Fprintf(h.writer, "  %s: %v\n", a.Key, a.Value); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	return writeErr
}

func (h *HumanHandler) handleEvaluationFailure(record slog.Record) error {
	var field, location, errorMsg string
	record.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "field":
			field = a.Value.String()
		case "location":
			location = a.Value.String()
		case "error":
			errorMsg = a.Value.String()
		}
		return true
	})
	rule := strings.Repeat("=", 70)
	_, err := fmt.Fprintf(h.writer, "\n%s\nEvaluation Failure\n%s\n\nField: %s\nLocation: %s\nError: %s\n%s\n\n",
		rule, rule, field, location, errorMsg, rule)
	return err
}

func (h *HumanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *HumanHandler) WithGroup(name string) slog.Handler {
	return h
}
