package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/joblevel/internal/database"
	"github.com/nao1215/joblevel/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// LowAccuracy is the test accuracy below which the Markdown report
// highlights the model as unreliable.
const LowAccuracy = 0.6

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeAlert(md, report)
	w.writeStages(md, report)
	w.writeEvaluation(md, report.Evaluation)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteHistory outputs the stored runs as a Markdown table.
func (w *MarkdownWriter) WriteHistory(runs []database.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Run History")
	md.PlainText("")

	if len(runs) == 0 {
		md.PlainText("No runs recorded.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		accuracy := "-"
		if r.Accuracy != nil {
			accuracy = fmt.Sprintf("%.4f", *r.Accuracy)
		}
		status := "✅"
		if r.Error != "" {
			status = "❌ " + truncateString(r.Error, 40)
		}
		rows[i] = []string{
			strconv.FormatInt(r.ID, 10),
			r.StartedAt.Format("2006-01-02 15:04:05 MST"),
			"`" + shortFingerprint(r.Fingerprint) + "`",
			strconv.Itoa(r.FinalRows),
			accuracy,
			status,
			truncateString(r.InputPath, 50),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"ID", "Started", "Fingerprint", "Rows", "Accuracy", "Status", "Input"},
		Rows:   rows,
	})
	md.PlainText("")

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("Job Level Run Report")
	md.PlainText("")

	rows := [][]string{
		{"Input", "`" + report.InputPath + "`"},
	}
	if report.Fingerprint != "" {
		rows = append(rows, []string{"Fingerprint", "`" + report.Fingerprint + "`"})
	}
	rows = append(rows,
		[]string{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
		[]string{"Duration", report.Duration().Round(time.Millisecond).String()},
		[]string{"Final Rows", strconv.Itoa(report.FinalRows)},
		[]string{"Status", w.getStatusText(report)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.RunReport) string {
	if !report.Succeeded() {
		return "❌ Error - " + report.Error
	}
	if report.Evaluation != nil && report.Evaluation.Skipped {
		return "⚠️ Complete (training skipped)"
	}
	return "✅ Complete"
}

// writeAlert writes an alert that matches the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.RunReport) {
	eval := report.Evaluation
	switch {
	case !report.Succeeded():
		md.Cautionf("The run failed after %d stage(s): %s", len(report.Stages), report.Error)
	case eval == nil:
		md.Note("No evaluation was recorded for this run.")
	case eval.Skipped:
		md.Warningf("Training was skipped: %s", eval.SkipReason)
	case eval.Accuracy < LowAccuracy:
		md.Importantf("Test accuracy %.2f is below %.2f. Treat the model as unreliable.", eval.Accuracy, LowAccuracy)
	default:
		md.Tip(fmt.Sprintf("Classifier reached %.2f accuracy on %d test rows.", eval.Accuracy, eval.TestSize))
	}
	md.PlainText("")
}

// writeStages writes the per-stage statistics table.
func (w *MarkdownWriter) writeStages(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Stages")
	md.PlainText("")

	if len(report.Stages) == 0 {
		md.PlainText("No stage completed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Stages))
	for i, s := range report.Stages {
		rows[i] = []string{
			s.Name,
			strconv.Itoa(s.RowsIn),
			strconv.Itoa(s.RowsOut),
			strconv.Itoa(s.Columns),
			s.Duration.Round(time.Microsecond).String(),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Stage", "Rows In", "Rows Out", "Columns", "Duration"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(report.FinalColumns) > 0 {
		md.PlainText("Final columns:")
		md.PlainText("")
		md.BulletList(report.FinalColumns...)
		md.PlainText("")
	}
}

// writeEvaluation writes the label distribution and classifier metrics.
func (w *MarkdownWriter) writeEvaluation(md *markdown.Markdown, eval *model.Evaluation) {
	if eval == nil {
		return
	}

	md.H2("Evaluation")
	md.PlainText("")

	if dist := distributionRows(eval.Distribution); len(dist) > 0 {
		w.writePieChart(md, dist)
	}

	if eval.Skipped {
		md.PlainTextf("Training skipped: %s", eval.SkipReason)
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Train Rows", strconv.Itoa(eval.TrainSize)},
			{"Test Rows", strconv.Itoa(eval.TestSize)},
			{"Accuracy", fmt.Sprintf("%.4f", eval.Accuracy)},
			{"Features", strconv.Itoa(len(eval.Features))},
		},
	})
	md.PlainText("")

	md.H3("Classification Report")
	md.PlainText("")
	rows := make([][]string, 0, len(eval.PerClass)+2)
	for _, m := range eval.PerClass {
		rows = append(rows, metricRow(m.Class, m))
	}
	rows = append(rows,
		metricRow("**macro avg**", eval.MacroAvg),
		metricRow("**weighted avg**", eval.WeightedAvg),
	)
	md.Table(markdown.TableSet{
		Header: []string{"Class", "Precision", "Recall", "F1", "Support"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(eval.Confusion) > 0 {
		w.writeConfusion(md, eval)
	}
}

// writePieChart writes a mermaid pie chart for the label distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, dist []distributionRow) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Label Distribution"),
		piechart.WithShowData(true),
	)

	for _, row := range dist {
		if row.count > 0 {
			chart.LabelAndIntValue(row.label, uint64(row.count))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeConfusion writes the confusion matrix with true classes as rows.
func (w *MarkdownWriter) writeConfusion(md *markdown.Markdown, eval *model.Evaluation) {
	md.H3("Confusion Matrix")
	md.PlainText("")

	header := make([]string, 0, len(eval.Classes)+1)
	header = append(header, "True \\ Predicted")
	header = append(header, eval.Classes...)

	rows := make([][]string, len(eval.Confusion))
	for i, counts := range eval.Confusion {
		row := make([]string, 0, len(counts)+1)
		row = append(row, "**"+eval.Classes[i]+"**")
		for _, v := range counts {
			row = append(row, strconv.Itoa(v))
		}
		rows[i] = row
	}

	md.Table(markdown.TableSet{
		Header: header,
		Rows:   rows,
	})
	md.PlainText("")
}

func metricRow(name string, m model.ClassMetrics) []string {
	return []string{
		name,
		fmt.Sprintf("%.2f", m.Precision),
		fmt.Sprintf("%.2f", m.Recall),
		fmt.Sprintf("%.2f", m.F1),
		strconv.Itoa(m.Support),
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [joblevel](https://github.com/nao1215/joblevel)*")
}
