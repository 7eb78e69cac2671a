// Package report renders crawl summaries.
//
// Three formats are available:
//   - SimpleWriter: fixed-width text for the terminal
//   - JSONWriter: the summary as JSON, optionally wrapped with the tool version
//   - MarkdownWriter: GitHub-flavored Markdown with a mermaid pie chart of
//     the entities created by the run
//
// All writers implement Writer and can be combined with MultiWriter.
package report
