package report

import (
	"strings"

	"golang.org/x/text/message"

	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/tile"
)

// maxRows limits the rows of a tile listed in verbose text and Markdown
// reports.
const maxRows = 10

// tileTitle returns the label of a tile or its name.
func tileTitle(s tile.Snapshot) string {
	if s.Label != "" {
		return s.Label
	}
	return s.Tile
}

// statusText describes the status of a tile.
func statusText(s tile.Snapshot) string {
	switch s.Status {
	case tile.StatusError:
		return "error: " + s.Error
	case tile.StatusBusy:
		if s.WaitingFor != "" {
			return "waiting for " + s.WaitingFor
		}
		return "not finished"
	case tile.StatusReady:
		if s.FailedChunks > 0 {
			return "partial"
		}
		return "ok"
	default:
		return string(s.Status)
	}
}

// dataSummary returns a one line description of the data of a tile.
// Unknown data yields an empty string.
func dataSummary(p *message.Printer, data any) string {
	switch d := data.(type) {
	case tile.ConcData:
		var lines, size int
		for _, c := range d.Concordances {
			if c != nil {
				lines += len(c.Lines)
				size += c.ConcSize
			}
		}
		return p.Sprintf("%d lines, concordance size %d", lines, size)
	case tile.FreqData:
		var rows int
		for _, b := range d.Blocks {
			rows += len(b.Rows)
		}
		return p.Sprintf("%d rows in %d blocks, concordance size %d", rows, len(d.Blocks), d.ConcSize)
	case tile.TimeDistribData:
		return p.Sprintf("%d time points", len(d.Data))
	case tile.MultiWordTimeDistribData:
		var points int
		for _, w := range d.Words {
			points += len(w.Data)
		}
		return p.Sprintf("%d time points of %d words", points, len(d.Words))
	case tile.MatchingDocsData:
		return p.Sprintf("%d documents", len(d.Docs))
	case tile.WordFormsData:
		return p.Sprintf("%d forms of %s", len(d.Forms), d.Lemma)
	case tile.SpeechesData:
		return p.Sprintf("%d speech lines, %d speakers", len(d.Lines), len(d.Speakers))
	default:
		return ""
	}
}

// lineText joins the strings of concordance line elements.
func lineText(elms []model.LineElement) string {
	parts := make([]string, 0, len(elms))
	for _, e := range elms {
		if s := strings.TrimSpace(e.Str); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
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
