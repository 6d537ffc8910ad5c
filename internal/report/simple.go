package report

import (
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nao1215/wdglance/internal/dashboard"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/tile"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose lists the data rows of each tile.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with the data rows of each tile.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithLanguage sets the language of number formatting. By default the UI
// language of the query is used.
func WithLanguage(tag language.Tag) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.lang = tag
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

// Write outputs the query result in human-readable format.
func (w *SimpleWriter) Write(res *dashboard.Result) (int, error) {
	var sb strings.Builder
	w.writeResult(&sb, res)
	w.writeFooter(&sb)
	return w.output.Write([]byte(sb.String()))
}

// WriteBatch outputs all results one after another. Failed queries are
// listed with their error.
func (w *SimpleWriter) WriteBatch(results []dashboard.BatchResult) (int, error) {
	var sb strings.Builder
	for _, r := range results {
		if r.Result != nil {
			w.writeResult(&sb, r.Result)
		}
		if r.Err != nil {
			w.writeRule(&sb, "=")
			sb.WriteString("Query:    " + strings.Join(r.Request.Words, ", ") + "\n")
			sb.WriteString("Status:   FAILED - " + r.Err.Error() + "\n\n")
		}
	}
	w.writeFooter(&sb)
	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeRule(sb *strings.Builder, ch string) {
	sb.WriteString(strings.Repeat(ch, 70))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeResult(sb *strings.Builder, res *dashboard.Result) {
	p := w.printer(res.Query.UILang)

	w.writeRule(sb, "=")
	sb.WriteString("                          WDGLANCE QUERY\n")
	w.writeRule(sb, "=")
	sb.WriteString("\n")
	sb.WriteString("Query:    " + res.Query.String() + "\n")
	if res.Query.Lang != "" {
		sb.WriteString("Language: " + res.Query.Lang + "\n")
	}
	sb.WriteString(p.Sprintf("Query ID: %d\n", res.QueryID))
	sb.WriteString("Started:  " + res.Started.Format("2006-01-02 15:04:05 MST") + "\n")
	sb.WriteString("Duration: " + res.Duration.String() + "\n")
	if n := res.NumErrors(); n > 0 {
		sb.WriteString(p.Sprintf("Status:   %d of %d tiles failed\n", n, len(res.Tiles)))
	} else {
		sb.WriteString("Status:   Complete\n")
	}
	sb.WriteString("\n")

	w.writeRule(sb, "-")
	sb.WriteString("TILES\n")
	w.writeRule(sb, "-")
	sb.WriteString("\n")
	for _, s := range res.Tiles {
		w.writeTile(sb, p, s)
	}
}

func (w *SimpleWriter) writeTile(sb *strings.Builder, p *message.Printer, s tile.Snapshot) {
	sb.WriteString("[" + w.getStatusIndicator(s) + "] " + tileTitle(s) + " (" + s.Kind + ")\n")
	sb.WriteString("    Status: " + statusText(s) + "\n")
	if s.Status != tile.StatusReady {
		sb.WriteString("\n")
		return
	}
	if summary := dataSummary(p, s.Data); summary != "" {
		sb.WriteString("    Data:   " + summary + "\n")
	}
	for _, link := range s.Backlinks {
		if link != nil {
			sb.WriteString("    Link:   " + link.FinalURL() + "\n")
		}
	}
	if w.verbose {
		for _, row := range dataRows(p, s.Data) {
			sb.WriteString("      - " + row + "\n")
		}
	}
	sb.WriteString("\n")
}

// getStatusIndicator returns a visual indicator for the tile status.
func (w *SimpleWriter) getStatusIndicator(s tile.Snapshot) string {
	switch {
	case s.Status == tile.StatusError:
		return "!!"
	case s.Status == tile.StatusReady && s.FailedChunks > 0:
		return "!"
	case s.Status == tile.StatusReady:
		return "+"
	default:
		return "?"
	}
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	w.writeRule(sb, "=")
	sb.WriteString("Report generated by wdglance\n")
	w.writeRule(sb, "=")
}

// dataRows lists up to maxRows items of the tile data in plain text.
func dataRows(p *message.Printer, data any) []string {
	var rows []string
	add := func(s string) bool {
		if len(rows) == maxRows {
			return false
		}
		rows = append(rows, s)
		return true
	}

	switch d := data.(type) {
	case tile.ConcData:
		for _, c := range d.Concordances {
			if c == nil {
				continue
			}
			for _, l := range c.Lines {
				if !add(concLineText(l)) {
					return rows
				}
			}
		}
	case tile.FreqData:
		for _, b := range d.Blocks {
			for _, r := range b.Rows {
				if !add(p.Sprintf("%s: %s %d (%.2f ipm)", b.Label, r.Name, int64(r.Freq), r.IPM)) {
					return rows
				}
			}
		}
	case tile.TimeDistribData:
		for _, item := range d.Data {
			if !add(p.Sprintf("%s: %.2f ipm", item.Datetime, item.IPM)) {
				return rows
			}
		}
	case tile.MatchingDocsData:
		for _, doc := range d.Docs {
			if !add(p.Sprintf("%s (%.2f)", strings.Join(doc.DisplayValues, ", "), doc.Score)) {
				return rows
			}
		}
	case tile.WordFormsData:
		for _, f := range d.Forms {
			if !add(p.Sprintf("%s: %d (%.1f%%)", f.Value, int64(f.Freq), f.Ratio)) {
				return rows
			}
		}
	}
	return rows
}

func concLineText(l model.ConcLine) string {
	return truncateString(lineText(l.Left), 30) + " [" + lineText(l.Kwic) + "] " + truncateString(lineText(l.Right), 30)
}
