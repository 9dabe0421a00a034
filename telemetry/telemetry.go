// Package telemetry collects hierarchical timings for report runs. A
// collector travels through the context, so journal loading and the report
// drivers can record spans without threading a handle through every
// signature; when no collector is attached the instrumentation costs
// nothing.
//
//	collector := telemetry.NewTimingCollector()
//	ctx := telemetry.WithCollector(context.Background(), collector)
//
//	timer := collector.Start("Load journal")
//	parse := timer.Child("Parse main.ledger")
//	// ... work ...
//	parse.End()
//	timer.End()
//
//	collector.Report(os.Stderr, nil)
package telemetry

import (
	"context"
	"io"
)

type contextKey struct{}

var collectorKey = contextKey{}

// Collector records timed operations and renders them on demand.
type Collector interface {
	// Start begins timing an operation; end it with the returned timer.
	Start(name string) Timer

	// Report writes the collected timings. The styles argument may carry
	// terminal styling and may be nil.
	Report(w io.Writer, styles interface{})
}

// Timer tracks one operation. Timers nest via Child.
type Timer interface {
	// End stops the timer and records its duration.
	End()

	// Child begins a nested timer under this one.
	Child(name string) Timer
}

// WithCollector attaches a collector to the context for FromContext to
// find.
func WithCollector(ctx context.Context, collector Collector) context.Context {
	return context.WithValue(ctx, collectorKey, collector)
}

// FromContext returns the context's collector, or a discarding one when
// none was attached.
func FromContext(ctx context.Context) Collector {
	if collector, ok := ctx.Value(collectorKey).(Collector); ok {
		return collector
	}
	return noOpCollector{}
}
