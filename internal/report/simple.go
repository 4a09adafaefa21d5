package report

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/nao1215/joblevel/internal/database"
	"github.com/nao1215/joblevel/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
// Plain ASCII formatting keeps the output safe to pipe into files.
type SimpleWriter struct {
	baseWriter

	// verbose adds final columns and feature names to the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run report in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeStages(&sb, report)
	w.writeEvaluation(&sb, report.Evaluation)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteHistory outputs the stored runs as an aligned table.
func (w *SimpleWriter) WriteHistory(runs []database.RunSummary) (int, error) {
	var sb strings.Builder

	if len(runs) == 0 {
		sb.WriteString("No runs recorded.\n")
		return w.output.Write([]byte(sb.String()))
	}

	fmt.Fprintf(&sb, "%-6s %-20s %-13s %8s %9s  %s\n", "ID", "STARTED", "FINGERPRINT", "ROWS", "ACCURACY", "INPUT")
	for _, r := range runs {
		accuracy := "-"
		if r.Accuracy != nil {
			accuracy = fmt.Sprintf("%.4f", *r.Accuracy)
		}
		if r.Error != "" {
			accuracy = "failed"
		}
		fmt.Fprintf(&sb, "%-6d %-20s %-13s %8d %9s  %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			shortFingerprint(r.Fingerprint),
			r.FinalRows,
			accuracy,
			r.InputPath,
		)
	}

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        JOBLEVEL RUN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Input:          %s\n", report.InputPath)
	if report.Fingerprint != "" {
		fmt.Fprintf(sb, "Fingerprint:    %s\n", report.Fingerprint)
	}
	fmt.Fprintf(sb, "Started:        %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:       %s\n", report.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Final Rows:     %d\n", report.FinalRows)
	fmt.Fprintf(sb, "Status:         %s\n", statusText(report))

	if w.verbose && len(report.FinalColumns) > 0 {
		fmt.Fprintf(sb, "Final Columns:  %s\n", strings.Join(report.FinalColumns, ", "))
	}

	sb.WriteString("\n")
}

// writeStages writes one line per completed stage.
func (w *SimpleWriter) writeStages(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("STAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")

	if len(report.Stages) == 0 {
		sb.WriteString("  (none completed)\n\n")
		return
	}

	for _, s := range report.Stages {
		fmt.Fprintf(sb, "  %-16s %7d -> %-7d %3d cols  %s\n",
			s.Name, s.RowsIn, s.RowsOut, s.Columns, s.Duration.Round(time.Microsecond))
	}
	sb.WriteString("\n")
}

// writeEvaluation writes classifier metrics and the confusion matrix.
func (w *SimpleWriter) writeEvaluation(sb *strings.Builder, eval *model.Evaluation) {
	if eval == nil {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("EVALUATION\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")

	if dist := distributionRows(eval.Distribution); len(dist) > 0 {
		sb.WriteString("  Label distribution:\n")
		for _, row := range dist {
			fmt.Fprintf(sb, "    %-8s %d\n", row.label, row.count)
		}
		sb.WriteString("\n")
	}

	if eval.Skipped {
		fmt.Fprintf(sb, "  Training skipped: %s\n\n", eval.SkipReason)
		return
	}

	fmt.Fprintf(sb, "  Train/Test:     %d / %d\n", eval.TrainSize, eval.TestSize)
	fmt.Fprintf(sb, "  Accuracy:       %.4f\n", eval.Accuracy)
	if w.verbose {
		fmt.Fprintf(sb, "  Features:       %s\n", strings.Join(eval.Features, ", "))
	}
	sb.WriteString("\n")

	fmt.Fprintf(sb, "  %-14s %9s %9s %9s %9s\n", "", "precision", "recall", "f1-score", "support")
	for _, m := range eval.PerClass {
		writeMetricLine(sb, m.Class, m)
	}
	sb.WriteString("\n")
	writeMetricLine(sb, "macro avg", eval.MacroAvg)
	writeMetricLine(sb, "weighted avg", eval.WeightedAvg)
	sb.WriteString("\n")

	if len(eval.Confusion) > 0 {
		sb.WriteString("  Confusion matrix (rows: true, columns: predicted)\n")
		fmt.Fprintf(sb, "  %-10s", "")
		for _, c := range eval.Classes {
			fmt.Fprintf(sb, " %8s", c)
		}
		sb.WriteString("\n")
		for i, row := range eval.Confusion {
			fmt.Fprintf(sb, "  %-10s", eval.Classes[i])
			for _, v := range row {
				fmt.Fprintf(sb, " %8d", v)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
}

func writeMetricLine(sb *strings.Builder, name string, m model.ClassMetrics) {
	fmt.Fprintf(sb, "  %-14s %9.2f %9.2f %9.2f %9d\n", name, m.Precision, m.Recall, m.F1, m.Support)
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

type distributionRow struct {
	label string
	count int
}

// distributionRows orders the label counts Junior, Middle, Senior and then
// any unexpected labels.
func distributionRows(dist map[string]int) []distributionRow {
	rows := make([]distributionRow, 0, len(dist))
	seen := make(map[string]bool, len(dist))
	for _, l := range model.Levels() {
		if n, ok := dist[l.String()]; ok {
			rows = append(rows, distributionRow{label: l.String(), count: n})
			seen[l.String()] = true
		}
	}
	extra := make([]string, 0)
	for label := range dist {
		if !seen[label] {
			extra = append(extra, label)
		}
	}
	slices.Sort(extra)
	for _, label := range extra {
		rows = append(rows, distributionRow{label: label, count: dist[label]})
	}
	return rows
}
