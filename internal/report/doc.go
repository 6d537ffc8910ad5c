// Package report writes dashboard query results.
//
// Writers for the supported output formats:
//   - SimpleWriter: human-readable text for terminal display
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: Markdown documents with tables and Mermaid charts
//
// Writers implement the Writer interface, so they can be used
// interchangeably and composed with MultiWriter.
package report
