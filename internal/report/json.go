package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/optovka/internal/model"
)

// JSONWriter outputs the summary as JSON.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string

	// version, when set, wraps the summary in a JSONReport.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables indented output with the given prefix and indent.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion wraps the summary together with the tool version.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport is the summary with output metadata.
type JSONReport struct {
	Version  string              `json:"version"`
	Status   string              `json:"status"`
	Duration string              `json:"duration"`
	Summary  *model.CrawlSummary `json:"summary"`
}

// NewJSONReport wraps summary with version information.
func NewJSONReport(summary *model.CrawlSummary, version string) *JSONReport {
	return &JSONReport{
		Version:  version,
		Status:   status(summary),
		Duration: summary.Duration().String(),
		Summary:  summary,
	}
}

// Write outputs the summary, wrapped when a version was configured.
func (w *JSONWriter) Write(summary *model.CrawlSummary) (int, error) {
	if w.version != "" {
		return w.writeJSON(NewJSONReport(summary, w.version))
	}
	return w.writeJSON(summary)
}

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
		return 0, fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
