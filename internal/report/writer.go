package report

import (
	"cmp"
	"io"
	"slices"

	"github.com/nao1215/usercrawl/internal/model"
)

// Writer renders a run summary to its destination.
type Writer interface {
	// Write renders summary and returns the number of bytes written.
	Write(summary *model.RunSummary) (int, error)
}

// MultiWriter writes the same summary to several Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write returns the total bytes written and stops at the first error.
func (m *MultiWriter) Write(summary *model.RunSummary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// communityCount is the number of results posted in one community.
type communityCount struct {
	name  string
	count int
}

// countCommunities groups results by their metadata field, most frequent
// first, ties broken by name. Results without metadata are skipped.
func countCommunities(results []model.Triplet) []communityCount {
	counts := make(map[string]int)
	for _, t := range results {
		if t.Metadata() != "" {
			counts[t.Metadata()]++
		}
	}

	out := make([]communityCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, communityCount{name: name, count: n})
	}
	slices.SortFunc(out, func(a, b communityCount) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})
	return out
}

// statusText returns a one-line description of how the run ended.
func statusText(summary *model.RunSummary) string {
	switch summary.Status {
	case model.RunStatusDone:
		return "Complete"
	case model.RunStatusFailed:
		if summary.Error != "" {
			return "Failed - " + summary.Error
		}
		return "Failed"
	default:
		return "Running"
	}
}

// truncateString shortens s to at most maxLen runes, ending with "...".
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
