package telemetry

import (
	"fmt"
	"io"
	"time"
)

// Spans at or above this duration are highlighted in the report.
const slowSpanThreshold = 100 * time.Millisecond

// styler is the subset of terminal styling the tree formatter needs. It is
// satisfied by output.Styles; declaring it here keeps this package free of a
// dependency on the formatters it times.
type styler interface {
	Keyword(string) string
	Dim(string) string
	Warning(string) string
}

// formatTimingTree writes the span tree rooted at root, for example:
//
//	Total: 125ms
//	├─ Load journal: 85ms
//	│  ├─ Parse main.ledger: 45ms
//	│  └─ Finalize entries: 5ms
//	└─ Report postings: 40ms
func formatTimingTree(w io.Writer, root *span, stylesInterface interface{}) {
	styles, _ := stylesInterface.(styler)

	name := root.name
	if styles != nil {
		name = styles.Keyword(name)
	}
	_, _ = fmt.Fprintf(w, "%s: %s\n", name, formatDuration(root.elapsed(), false))

	for i, child := range root.children {
		formatSpan(w, child, "", i == len(root.children)-1, styles)
	}
}

func formatSpan(w io.Writer, s *span, prefix string, isLast bool, styles styler) {
	slow := s.elapsed() >= slowSpanThreshold

	branch, extension := "├─ ", "│  "
	if isLast {
		branch, extension = "└─ ", "   "
	}

	timing := formatDuration(s.elapsed(), slow)
	if styles != nil {
		if slow {
			timing = styles.Warning(timing)
		} else {
			timing = styles.Dim(timing)
		}
		_, _ = fmt.Fprintf(w, "%s%s: %s\n", styles.Dim(prefix+branch), s.name, timing)
	} else {
		_, _ = fmt.Fprintf(w, "%s%s%s: %s\n", prefix, branch, s.name, timing)
	}

	for i, child := range s.children {
		formatSpan(w, child, prefix+extension, i == len(s.children)-1, styles)
	}
}

// formatDuration renders milliseconds below one second and fractional
// seconds above it. The slow flag is reserved for styling hooks.
func formatDuration(d time.Duration, slow bool) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.2fs", float64(d)/float64(time.Second))
}
