package telemetry

import (
	"io"
	"sync"
	"time"
)

// span is one timed operation in the tree.
type span struct {
	name     string
	start    time.Time
	stop     time.Time
	parent   *span
	children []*span
}

func (s *span) elapsed() time.Duration {
	return s.stop.Sub(s.start)
}

// TimingCollector records operations as a tree of spans. The first Start
// call becomes the root; later calls nest under whichever span is open.
type TimingCollector struct {
	mu   sync.Mutex
	root *span
	open *span
}

// NewTimingCollector creates an empty collector.
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{}
}

// Start begins timing an operation.
func (c *TimingCollector) Start(name string) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &span{name: name, start: time.Now()}
	if c.root == nil {
		c.root = s
	} else {
		s.parent = c.open
		c.open.children = append(c.open.children, s)
	}
	c.open = s

	return &spanTimer{collector: c, span: s}
}

// Report writes the timing tree. It outputs nothing when no spans were
// recorded. The styles argument is optional and may be nil.
func (c *TimingCollector) Report(w io.Writer, styles interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.root == nil {
		return
	}
	formatTimingTree(w, c.root, styles)
}

type spanTimer struct {
	collector *TimingCollector
	span      *span
}

// End stops the timer and reopens its parent span.
func (t *spanTimer) End() {
	t.collector.mu.Lock()
	defer t.collector.mu.Unlock()

	t.span.stop = time.Now()
	if t.span.parent != nil {
		t.collector.open = t.span.parent
	}
}

// Child nests a new timer directly under this one.
func (t *spanTimer) Child(name string) Timer {
	t.collector.mu.Lock()
	defer t.collector.mu.Unlock()

	s := &span{name: name, start: time.Now(), parent: t.span}
	t.span.children = append(t.span.children, s)

	return &spanTimer{collector: t.collector, span: s}
}
