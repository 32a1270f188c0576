package pipeline

import (
	"github.com/jonathan/showcase-forge/internal/observability"
)

// ProgressSink receives progress for one run. Percentages never decrease.
// Snapshot is nil for ticks announcing a step that has not finished yet.
type ProgressSink interface {
	OnProgress(percent int, message string, snapshot *PartialResult)
}

// SinkFunc adapts a function to ProgressSink
type SinkFunc func(percent int, message string, snapshot *PartialResult)

// OnProgress implements ProgressSink
func (f SinkFunc) OnProgress(percent int, message string, snapshot *PartialResult) {
	f(percent, message, snapshot)
}

// MultiSink fans progress out to several sinks in order.
type MultiSink []ProgressSink

// OnProgress implements ProgressSink
func (m MultiSink) OnProgress(percent int, message string, snapshot *PartialResult) {
	for _, sink := range m {
		if sink != nil {
			sink.OnProgress(percent, message, snapshot)
		}
	}
}

// progressTracker turns step weights into monotonic percentages
type progressTracker struct {
	sink   ProgressSink
	logger observability.Logger
	total  int
	done   int
	last   int
}

func newProgressTracker(sink ProgressSink, logger observability.Logger, weights []int) *progressTracker {
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total == 0 {
		total = 1
	}
	return &progressTracker{sink: sink, logger: logger, total: total}
}

// advance completes a step of the given weight. Only finish reports 100.
func (p *progressTracker) advance(weight int, message string, snapshot *PartialResult) {
	if weight > 0 {
		p.done += weight
	}
	percent := p.done * 100 / p.total
	if percent > 99 {
		percent = 99
	}
	if percent > p.last {
		p.last = percent
	}
	p.emit(p.last, message, snapshot)
}

// tick announces work without a snapshot
func (p *progressTracker) tick(message string) {
	p.emit(p.last, message, nil)
}

func (p *progressTracker) finish(message string, snapshot *PartialResult) {
	p.last = 100
	p.emit(100, message, snapshot)
}

// emit shields the run from a misbehaving sink
func (p *progressTracker) emit(percent int, message string, snapshot *PartialResult) {
	if p.sink == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error().Interface("panic", rec).Msg("progress sink panicked")
		}
	}()
	p.sink.OnProgress(percent, message, snapshot)
}
