// Package report renders pipeline run reports.
//
// Writers cover three formats:
//   - SimpleWriter: plain text for terminal display
//   - JSONWriter: structured JSON for other tools
//   - MarkdownWriter: Markdown with tables and a mermaid chart for sharing
//
// All writers implement Writer, so the CLI can pick one at runtime.
// Besides single runs, every writer can render the run history stored by
// the database package.
package report
