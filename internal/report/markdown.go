package report

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nao1215/wdglance/internal/config"
	"github.com/nao1215/wdglance/internal/dashboard"
	"github.com/nao1215/wdglance/internal/tile"
)

// MarkdownWriter outputs results as Markdown documents. Every tile gets a
// section with a table of its data, pie chart tiles and word forms also
// get a Mermaid chart.
type MarkdownWriter struct {
	baseWriter
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMarkdownLanguage sets the language of number formatting. By default
// the UI language of the query is used.
func WithMarkdownLanguage(tag language.Tag) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.lang = tag
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the query result in Markdown format.
func (w *MarkdownWriter) Write(res *dashboard.Result) (int, error) {
	md := markdown.NewMarkdown(w.output)
	w.writeResult(md, res)
	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteBatch outputs a summary table of the batch followed by the result
// of every successful query.
func (w *MarkdownWriter) WriteBatch(results []dashboard.BatchResult) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("wdglance Batch Report")
	md.PlainText("")

	rows := make([][]string, len(results))
	for i, r := range results {
		status := "✅ Complete"
		switch {
		case r.Err != nil:
			status = "❌ " + r.Err.Error()
		case r.Result.NumErrors() > 0:
			status = "⚠️ " + strconv.Itoa(r.Result.NumErrors()) + " tile(s) failed"
		}
		rows[i] = []string{strconv.Itoa(i + 1), "`" + strings.Join(r.Request.Words, ", ") + "`", status}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Query", "Status"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, r := range results {
		if r.Result != nil {
			w.writeResult(md, r.Result)
		}
	}
	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeResult(md *markdown.Markdown, res *dashboard.Result) {
	p := w.printer(res.Query.UILang)

	md.H1("wdglance: " + res.Query.String())
	md.PlainText("")

	lang := res.Query.Lang
	if lang == "" {
		lang = "-"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Query", "`" + res.Query.String() + "`"},
			{"Language", lang},
			{"Query ID", p.Sprintf("%d", res.QueryID)},
			{"Started", res.Started.Format("2006-01-02 15:04:05 MST")},
			{"Duration", res.Duration.String()},
		},
	})
	md.PlainText("")
	w.writeAlert(md, res)

	for _, s := range res.Tiles {
		w.writeTile(md, p, s)
	}
}

// writeAlert summarizes failed tiles.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, res *dashboard.Result) {
	failed := res.NumErrors()
	switch {
	case failed == len(res.Tiles) && failed > 0:
		md.Cautionf("All %d tiles failed.", failed)
	case failed > 0:
		md.Warningf("%d of %d tiles failed.", failed, len(res.Tiles))
	default:
		md.Tip("All tiles loaded.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeTile(md *markdown.Markdown, p *message.Printer, s tile.Snapshot) {
	md.H2(tileTitle(s))
	md.PlainText("")
	md.PlainTextf("*%s* · %s", s.Kind, statusText(s))
	md.PlainText("")

	if s.Status != tile.StatusReady {
		return
	}
	if summary := dataSummary(p, s.Data); summary != "" {
		md.PlainText(summary)
		md.PlainText("")
	}

	switch d := s.Data.(type) {
	case tile.ConcData:
		w.writeConcordance(md, d)
	case tile.FreqData:
		w.writeFreq(md, p, d, s.Kind == config.TileTypeFreqPie)
	case tile.TimeDistribData:
		w.writeTimeDistrib(md, p, d)
	case tile.MultiWordTimeDistribData:
		for _, word := range d.Words {
			md.PlainText("### " + word.Word)
			md.PlainText("")
			w.writeTimeDistrib(md, p, tile.TimeDistribData{Data: word.Data})
		}
	case tile.MatchingDocsData:
		w.writeMatchingDocs(md, p, d)
	case tile.WordFormsData:
		w.writeWordForms(md, p, d)
	case tile.SpeechesData:
		w.writeSpeeches(md, d)
	default:
		if data, err := json.MarshalIndent(s.Data, "", "  "); err == nil {
			md.CodeBlocks(markdown.SyntaxHighlight("json"), string(data))
			md.PlainText("")
		}
	}

	if len(s.Backlinks) > 0 {
		links := make([]string, 0, len(s.Backlinks))
		for _, l := range s.Backlinks {
			if l != nil {
				links = append(links, l.FinalURL())
			}
		}
		md.BulletList(links...)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeConcordance(md *markdown.Markdown, d tile.ConcData) {
	var rows [][]string
	for _, c := range d.Concordances {
		if c == nil {
			continue
		}
		for _, l := range c.Lines {
			if len(rows) == maxRows {
				break
			}
			rows = append(rows, []string{
				truncateString(lineText(l.Left), 40),
				"**" + lineText(l.Kwic) + "**",
				truncateString(lineText(l.Right), 40),
			})
		}
	}
	if len(rows) == 0 {
		return
	}
	md.Table(markdown.TableSet{
		Header: []string{"Left", "KWIC", "Right"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFreq(md *markdown.Markdown, p *message.Printer, d tile.FreqData, withChart bool) {
	for _, b := range d.Blocks {
		if !b.IsReady {
			continue
		}
		if len(d.Blocks) > 1 {
			md.PlainText("### " + b.Label)
			md.PlainText("")
		}
		rows := make([][]string, 0, min(len(b.Rows), maxRows))
		for _, r := range b.Rows[:min(len(b.Rows), maxRows)] {
			row := []string{r.Name, p.Sprintf("%d", int64(r.Freq)), p.Sprintf("%.2f", r.IPM)}
			if withChart {
				row = append(row, p.Sprintf("%.1f%%", r.Ratio))
			}
			rows = append(rows, row)
		}
		header := []string{"Value", "Freq", "IPM"}
		if withChart {
			header = append(header, "Ratio")
		}
		md.Table(markdown.TableSet{Header: header, Rows: rows})
		md.PlainText("")

		if withChart && len(b.Rows) > 0 {
			chart := piechart.NewPieChart(io.Discard, piechart.WithTitle(b.Label), piechart.WithShowData(true))
			for _, r := range b.Rows[:min(len(b.Rows), maxRows)] {
				chart.LabelAndIntValue(r.Name, uint64(r.Freq))
			}
			md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
			md.PlainText("")
		}
	}
}

func (w *MarkdownWriter) writeTimeDistrib(md *markdown.Markdown, p *message.Printer, d tile.TimeDistribData) {
	if len(d.Data) == 0 {
		return
	}
	rows := make([][]string, len(d.Data))
	for i, item := range d.Data {
		rows[i] = []string{
			item.Datetime,
			p.Sprintf("%d", int64(item.Freq)),
			p.Sprintf("%.2f", item.IPM),
			p.Sprintf("%.2f – %.2f", item.IPMInterval[0], item.IPMInterval[1]),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Period", "Freq", "IPM", "Confidence interval"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeMatchingDocs(md *markdown.Markdown, p *message.Printer, d tile.MatchingDocsData) {
	rows := make([][]string, 0, min(len(d.Docs), maxRows))
	for _, doc := range d.Docs[:min(len(d.Docs), maxRows)] {
		rows = append(rows, []string{strings.Join(doc.DisplayValues, ", "), p.Sprintf("%.2f", doc.Score)})
	}
	if len(rows) == 0 {
		return
	}
	md.Table(markdown.TableSet{
		Header: []string{"Document", "Score"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeWordForms(md *markdown.Markdown, p *message.Printer, d tile.WordFormsData) {
	if len(d.Forms) == 0 {
		return
	}
	rows := make([][]string, len(d.Forms))
	chart := piechart.NewPieChart(io.Discard, piechart.WithTitle(d.Lemma), piechart.WithShowData(true))
	for i, f := range d.Forms {
		rows[i] = []string{f.Value, p.Sprintf("%d", int64(f.Freq)), p.Sprintf("%.1f%%", f.Ratio)}
		chart.LabelAndIntValue(f.Value, uint64(f.Freq))
	}
	md.Table(markdown.TableSet{
		Header: []string{"Form", "Freq", "Ratio"},
		Rows:   rows,
	})
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeSpeeches(md *markdown.Markdown, d tile.SpeechesData) {
	var items []string
	for _, line := range d.Lines {
		for _, sp := range line {
			items = append(items, "**"+sp.SpeakerID+"**: "+lineText(sp.Text))
		}
	}
	if len(items) > 0 {
		md.BulletList(items...)
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [wdglance](https://github.com/nao1215/wdglance)*")
}
