package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/showcase-forge/internal/observability"
)

func TestProgressTracker(t *testing.T) {
	var percents []int
	sink := SinkFunc(func(p int, _ string, _ *PartialResult) { percents = append(percents, p) })
	tr := newProgressTracker(sink, observability.Nop(), []int{20, 10, 0, 70})

	tr.advance(20, "a", &PartialResult{})
	tr.tick("b")
	tr.advance(10, "b", &PartialResult{})
	tr.advance(0, "c", &PartialResult{})
	tr.advance(70, "d", &PartialResult{})
	tr.finish("done", &PartialResult{})

	assert.Equal(t, []int{20, 20, 30, 30, 99, 100}, percents)
}

func TestProgressTracker_ZeroWeights(t *testing.T) {
	var percents []int
	sink := SinkFunc(func(p int, _ string, _ *PartialResult) { percents = append(percents, p) })
	tr := newProgressTracker(sink, observability.Nop(), nil)

	tr.advance(0, "a", nil)
	tr.finish("done", nil)

	assert.Equal(t, []int{0, 100}, percents)
}

func TestProgressTracker_NilSink(t *testing.T) {
	tr := newProgressTracker(nil, observability.Nop(), []int{1})
	assert.NotPanics(t, func() {
		tr.advance(1, "a", nil)
		tr.finish("done", nil)
	})
}
