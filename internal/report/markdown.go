package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/usercrawl/internal/model"
)

// MarkdownWriter outputs GitHub Flavored Markdown reports.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write renders summary as Markdown.
func (w *MarkdownWriter) Write(summary *model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeAlert(md, summary)
	w.writeCommunities(md, summary)
	w.writeResults(md, summary)
	w.writeURLs(md, "Crawled Pages", summary.Crawled)
	if len(summary.Pending) > 0 {
		w.writeURLs(md, "Pending Pages", summary.Pending)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.RunSummary) {
	md.H1("usercrawl Report")
	md.PlainText("")

	rows := [][]string{
		{"Seed", "`" + summary.Seed + "`"},
	}
	if !summary.StartedAt.IsZero() {
		rows = append(rows, []string{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")})
	}
	rows = append(rows,
		[]string{"Duration", summary.Duration().Round(time.Millisecond).String()},
		[]string{"Pages Crawled", strconv.Itoa(len(summary.Crawled))},
		[]string{"Results", strconv.Itoa(len(summary.Results))},
		[]string{"Submissions", strconv.Itoa(summary.Submissions)},
		[]string{"Status", statusIcon(summary) + " " + statusText(summary)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func statusIcon(summary *model.RunSummary) string {
	switch summary.Status {
	case model.RunStatusDone:
		return "✅"
	case model.RunStatusFailed:
		return "❌"
	default:
		return "⏳"
	}
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.RunSummary) {
	switch {
	case summary.Failed() && len(summary.Results) > 0:
		md.Warningf("The run failed after collecting %d result(s); %d page(s) were still pending.",
			len(summary.Results), len(summary.Pending))
	case summary.Failed():
		md.Cautionf("The run failed before any result was collected: %s", summary.Error)
	case len(summary.Results) == 0:
		md.Note("The crawl finished without finding any listings.")
	default:
		md.Tip("All results were collected and submitted.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeCommunities(md *markdown.Markdown, summary *model.RunSummary) {
	counts := countCommunities(summary.Results)
	if len(counts) == 0 {
		return
	}

	md.H2("Communities")
	md.PlainText("")

	rows := make([][]string, len(counts))
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Results by Community"),
		piechart.WithShowData(true),
	)
	for i, c := range counts {
		rows[i] = []string{c.name, strconv.Itoa(c.count)}
		chart.LabelAndIntValue(c.name, uint64(c.count)) //nolint:gosec // counts are non-negative
	}

	md.Table(markdown.TableSet{
		Header: []string{"Community", "Results"},
		Rows:   rows,
	})
	md.PlainText("")
	if len(counts) > 1 {
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeResults(md *markdown.Markdown, summary *model.RunSummary) {
	md.H2("Results")
	md.PlainText("")

	if len(summary.Results) == 0 {
		md.PlainText("No results.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(summary.Results))
	for i, t := range summary.Results {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			truncateString(orDash(t.Label()), 60),
			orDash(t.Value()),
			orDash(t.Metadata()),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Title", "Link", "Community"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeURLs(md *markdown.Markdown, title string, urls []string) {
	md.H2(title)
	md.PlainText("")
	if len(urls) == 0 {
		md.PlainText("None.")
		md.PlainText("")
		return
	}
	md.BulletList(urls...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [usercrawl](https://github.com/nao1215/usercrawl)*")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
