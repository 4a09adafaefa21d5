package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"unicode/utf8"
)

// MaxValueRunes is the longest string value written to a log record.
const MaxValueRunes = 120

// MaskValue replaces contact details in logged values.
const MaskValue = "***"

// contactPatterns match personal contact details commonly pasted into postings.
var contactPatterns = []*regexp.Regexp{
	// e-mail addresses
	regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),

	// phone numbers such as +7 (912) 345-67-89 or 8-912-345-67-89
	regexp.MustCompile(`\+?\d[\d\s()\-]{8,}\d`),
}

// TextHandler wraps an slog.Handler and cleans string attribute values
// before the record reaches the underlying handler.
type TextHandler struct {
	// handler receives the cleaned records.
	handler slog.Handler
}

// NewTextHandler creates a TextHandler around handler.
// If handler is nil, slog.Default().Handler() is used.
func NewTextHandler(handler slog.Handler) *TextHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &TextHandler{handler: handler}
}

// Enabled delegates to the underlying handler.
func (h *TextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle cleans the record's attributes and passes it on.
func (h *TextHandler) Handle(ctx context.Context, r slog.Record) error {
	cleaned := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		cleaned.AddAttrs(cleanAttr(a))
		return true
	})
	return h.handler.Handle(ctx, cleaned)
}

// WithAttrs returns a handler with the cleaned attributes added.
func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cleaned := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		cleaned[i] = cleanAttr(a)
	}
	return &TextHandler{handler: h.handler.WithAttrs(cleaned)}
}

// WithGroup returns a handler with the given group name.
func (h *TextHandler) WithGroup(name string) slog.Handler {
	return &TextHandler{handler: h.handler.WithGroup(name)}
}

// cleanAttr cleans a single attribute, recursing into groups.
func cleanAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	switch a.Value.Kind() {
	case slog.KindGroup:
		attrs := a.Value.Group()
		cleaned := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			cleaned[i] = cleanAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(cleaned...)}
	case slog.KindString:
		return slog.String(a.Key, CleanString(a.Value.String()))
	default:
		return a
	}
}

// CleanString masks contact details in s and truncates it to MaxValueRunes.
func CleanString(s string) string {
	for _, p := range contactPatterns {
		s = p.ReplaceAllString(s, MaskValue)
	}
	if utf8.RuneCountInString(s) <= MaxValueRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxValueRunes]) + "…"
}

// NewLogger creates a text logger that cleans every record.
// verbose selects Debug level; otherwise only warnings and errors are written.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewTextHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewJSONLogger is like NewLogger but writes JSON records.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewTextHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
