package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/usercrawl/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs a plain text report for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty prints sections that have nothing in them.
	showEmpty bool

	// verbose adds the crawled and pending URL lists.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose adds URL lists to the output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders summary as text.
func (w *SimpleWriter) Write(summary *model.RunSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeCommunities(&sb, summary)
	w.writeResults(&sb, summary)
	if w.verbose {
		w.writeURLs(&sb, "CRAWLED", summary.Crawled)
		w.writeURLs(&sb, "PENDING", summary.Pending)
	}
	w.writeFooter(&sb)

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

func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.RunSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                         USERCRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Seed:           %s\n", summary.Seed)
	if !summary.StartedAt.IsZero() {
		fmt.Fprintf(sb, "Started:        %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(sb, "Duration:       %s\n", summary.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Pages Crawled:  %d\n", len(summary.Crawled))
	fmt.Fprintf(sb, "Pages Pending:  %d\n", len(summary.Pending))
	fmt.Fprintf(sb, "Results:        %d\n", len(summary.Results))
	fmt.Fprintf(sb, "Submissions:    %d\n", summary.Submissions)
	if summary.LastAck != nil {
		fmt.Fprintf(sb, "Accepted:       %d\n", summary.LastAck.Accepted)
	}
	fmt.Fprintf(sb, "Status:         %s\n", statusText(summary))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeCommunities(sb *strings.Builder, summary *model.RunSummary) {
	counts := countCommunities(summary.Results)
	if len(counts) == 0 && !w.showEmpty {
		return
	}

	section(sb, "COMMUNITIES")
	if len(counts) == 0 {
		sb.WriteString("  No communities\n\n")
		return
	}
	for _, c := range counts {
		fmt.Fprintf(sb, "  %-30s %d\n", c.name, c.count)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeResults(sb *strings.Builder, summary *model.RunSummary) {
	if len(summary.Results) == 0 && !w.showEmpty {
		return
	}

	section(sb, "RESULTS")
	if len(summary.Results) == 0 {
		sb.WriteString("  No results\n\n")
		return
	}
	for _, t := range summary.Results {
		fmt.Fprintf(sb, "  * %s\n", t.Label())
		if t.Value() != "" {
			fmt.Fprintf(sb, "    Link:      %s\n", t.Value())
		}
		if t.Metadata() != "" {
			fmt.Fprintf(sb, "    Community: %s\n", t.Metadata())
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeURLs(sb *strings.Builder, title string, urls []string) {
	if len(urls) == 0 && !w.showEmpty {
		return
	}

	section(sb, title)
	if len(urls) == 0 {
		sb.WriteString("  None\n\n")
		return
	}
	for i, u := range urls {
		fmt.Fprintf(sb, "  %2d. %s\n", i+1, u)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("Report generated by usercrawl\n")
	sb.WriteString("https://github.com/nao1215/usercrawl\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}
