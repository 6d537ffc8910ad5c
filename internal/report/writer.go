package report

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nao1215/wdglance/internal/dashboard"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the result of a single query.
	// Returns the number of bytes written and any error encountered.
	Write(res *dashboard.Result) (int, error)

	// WriteBatch outputs the results of a batch of queries, failed
	// queries included.
	WriteBatch(results []dashboard.BatchResult) (int, error)
}

// MultiWriter writes to multiple Writers, e.g. the terminal and a file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the result to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(res *dashboard.Result) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(res)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteBatch outputs the batch results to all configured Writers.
func (m *MultiWriter) WriteBatch(results []dashboard.BatchResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteBatch(results)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer

	// lang selects the number format. language.Und means the UI language
	// of the written query.
	lang language.Tag
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output, lang: language.Und}
}

// printer returns a number formatting printer for a query.
func (b baseWriter) printer(uiLang string) *message.Printer {
	tag := b.lang
	if tag == language.Und && uiLang != "" {
		if t, err := language.Parse(uiLang); err == nil {
			tag = t
		}
	}
	if tag == language.Und {
		tag = language.English
	}
	return message.NewPrinter(tag)
}
