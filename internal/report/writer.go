package report

import (
	"io"

	"github.com/nao1215/joblevel/internal/database"
	"github.com/nao1215/joblevel/internal/model"
)

// Writer defines the interface for report output.
// Implementations write run results in various formats.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.RunReport) (int, error)

	// WriteHistory outputs a list of stored runs, newest first.
	WriteHistory(runs []database.RunSummary) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText summarizes the outcome of a run in a few words.
func statusText(report *model.RunReport) string {
	switch {
	case !report.Succeeded():
		return "FAILED - " + report.Error
	case report.Evaluation == nil:
		return "Complete (no evaluation)"
	case report.Evaluation.Skipped:
		return "Complete (training skipped)"
	default:
		return "Complete"
	}
}

// shortFingerprint trims a hex digest for table display.
func shortFingerprint(fp string) string {
	if len(fp) <= 12 {
		return fp
	}
	return fp[:12]
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
