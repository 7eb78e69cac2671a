package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/optovka/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs a plain text summary for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose lists every abandoned branch instead of the first few.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists every abandoned branch.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// maxAbandonedShown is the number of abandoned branches printed without
// verbose output.
const maxAbandonedShown = 10

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.CrawlSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeEntities(&sb, summary)
	w.writeAbandoned(&sb, summary)
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.CrawlSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                          OPTOVKA CRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Run ID:         %s\n", summary.RunID)
	fmt.Fprintf(sb, "Start URL:      %s\n", summary.StartURL)
	fmt.Fprintf(sb, "Started:        %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:       %s\n", summary.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Status:         %s\n", strings.ToUpper(status(summary)))
	fmt.Fprintf(sb, "Pages Fetched:  %d\n", summary.PagesFetched)
	fmt.Fprintf(sb, "Fetch Failures: %d\n", summary.FetchFailures)
	fmt.Fprintf(sb, "Skipped:        %d\n", summary.Skipped)
	fmt.Fprintf(sb, "Warnings:       %d\n", summary.Warnings)
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeEntities(sb *strings.Builder, summary *model.CrawlSummary) {
	section(sb, "ENTITIES")

	fmt.Fprintf(sb, "  %-12s %8s %8s %8s %8s\n", "KIND", "CREATED", "EXISTING", "FAILED", "TOTAL")
	for _, kind := range model.EntityKinds {
		st := summary.Entities[kind]
		fmt.Fprintf(sb, "  %-12s %8d %8d %8d %8d\n", kind, st.Created, st.Existing, st.Failed, st.Total())
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeAbandoned(sb *strings.Builder, summary *model.CrawlSummary) {
	if len(summary.Abandoned) == 0 {
		return
	}

	section(sb, fmt.Sprintf("ABANDONED BRANCHES (%d)", len(summary.Abandoned)))

	shown := summary.Abandoned
	if !w.verbose && len(shown) > maxAbandonedShown {
		shown = shown[:maxAbandonedShown]
	}
	for _, b := range shown {
		fmt.Fprintf(sb, "  [%s] %s\n", b.Stage, b.URL)
		fmt.Fprintf(sb, "    Reason: %s\n", truncate(b.Reason, 2*ruleWidth))
	}
	if rest := len(summary.Abandoned) - len(shown); rest > 0 {
		fmt.Fprintf(sb, "  ... and %d more (use --verbose to list all)\n", rest)
	}
	sb.WriteString("\n")
}
