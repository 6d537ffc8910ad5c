package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/wdglance/internal/dashboard"
)

// JSONWriter outputs results in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the query result in JSON format.
func (w *JSONWriter) Write(res *dashboard.Result) (int, error) {
	return w.writeJSON(res)
}

// WriteBatch outputs the batch as a JSON array in request order.
func (w *JSONWriter) WriteBatch(results []dashboard.BatchResult) (int, error) {
	return w.writeJSON(newBatchEntries(results))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')
	return w.output.Write(data)
}

// BatchEntry is the JSON form of a batch query result.
type BatchEntry struct {
	Words  []string          `json:"words"`
	Result *dashboard.Result `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

func newBatchEntries(results []dashboard.BatchResult) []BatchEntry {
	entries := make([]BatchEntry, len(results))
	for i, r := range results {
		entries[i] = BatchEntry{Words: r.Request.Words, Result: r.Result}
		if r.Err != nil {
			entries[i].Error = r.Err.Error()
		}
	}
	return entries
}

// JSONReport wraps a result with the version of wdglance which produced it.
type JSONReport struct {
	Version string            `json:"version"`
	Result  *dashboard.Result `json:"result,omitempty"`
	Batch   []BatchEntry      `json:"batch,omitempty"`
}

// FullJSONWriter outputs results wrapped in a JSONReport.
type FullJSONWriter struct {
	*JSONWriter

	version string
}

// NewFullJSONWriter creates a writer for complete reports with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the result wrapped with metadata.
func (w *FullJSONWriter) Write(res *dashboard.Result) (int, error) {
	return w.writeJSON(JSONReport{Version: w.version, Result: res})
}

// WriteBatch outputs the batch wrapped with metadata.
func (w *FullJSONWriter) WriteBatch(results []dashboard.BatchResult) (int, error) {
	return w.writeJSON(JSONReport{Version: w.version, Batch: newBatchEntries(results)})
}
