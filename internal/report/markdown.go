package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/optovka/internal/model"
)

// maxReasonLen bounds the reason column of the abandoned-branch table.
const maxReasonLen = 80

// MarkdownWriter outputs the summary as GitHub-flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.CrawlSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeAlert(md, summary)
	w.writeEntities(md, summary)
	w.writeAbandoned(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.CrawlSummary) {
	md.H1("Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", summary.RunID},
			{"Start URL", summary.StartURL},
			{"Started", summary.StartedAt.Format(time.RFC3339)},
			{"Duration", summary.Duration().Round(time.Millisecond).String()},
			{"Status", status(summary)},
			{"Pages Fetched", strconv.Itoa(summary.PagesFetched)},
			{"Fetch Failures", strconv.Itoa(summary.FetchFailures)},
			{"Skipped", strconv.Itoa(summary.Skipped)},
			{"Warnings", strconv.Itoa(summary.Warnings)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.CrawlSummary) {
	switch {
	case summary.Cancelled:
		md.Warningf("The run was cancelled after %d page(s). Counts are partial.", summary.PagesFetched)
	case len(summary.Abandoned) > 0:
		md.Importantf("%d branch(es) were abandoned. See the table below.", len(summary.Abandoned))
	case summary.Changed():
		md.Tip("The run completed and stored new entities.")
	default:
		md.Note("The run completed. Nothing new was found.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeEntities(md *markdown.Markdown, summary *model.CrawlSummary) {
	md.H2("Entities")
	md.PlainText("")

	rows := make([][]string, 0, len(model.EntityKinds))
	for _, kind := range model.EntityKinds {
		st := summary.Entities[kind]
		rows = append(rows, []string{
			string(kind),
			strconv.Itoa(st.Created),
			strconv.Itoa(st.Existing),
			strconv.Itoa(st.Failed),
			strconv.Itoa(st.Total()),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Kind", "Created", "Existing", "Failed", "Total"},
		Rows:   rows,
	})
	md.PlainText("")

	if summary.Changed() {
		w.writePieChart(md, summary)
	}
}

// writePieChart writes a mermaid pie chart of the created entities.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.CrawlSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Created Entities"),
		piechart.WithShowData(true),
	)
	for _, kind := range model.EntityKinds {
		if n := summary.Entities[kind].Created; n > 0 {
			chart.LabelAndIntValue(string(kind), uint64(n))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAbandoned(md *markdown.Markdown, summary *model.CrawlSummary) {
	if len(summary.Abandoned) == 0 {
		return
	}

	md.H2("Abandoned Branches")
	md.PlainText("")

	rows := make([][]string, 0, len(summary.Abandoned))
	for _, b := range summary.Abandoned {
		rows = append(rows, []string{b.Stage, b.URL, truncate(b.Reason, maxReasonLen)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Stage", "URL", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [optovka](https://github.com/nao1215/optovka)*")
}
