// Package llmtest provides a scripted, call-counting llm.Backend for tests.
package llmtest

import (
	"context"
	"sync"
	"time"

	"github.com/jonathan/showcase-forge/internal/llm"
	"github.com/jonathan/showcase-forge/internal/types"
)

// Reply is one scripted backend answer.
type Reply struct {
	Text             string
	Image            *llm.InlineData
	PromptTokens     int
	CompletionTokens int
	Model            string
	Err              error
	// Delay simulates a slow backend.
	Delay time.Duration
	// IgnoreContext makes Delay uninterruptible, like a call without native cancellation.
	IgnoreContext bool
}

// StubBackend replays scripted replies per stage. The last reply of a
// stage's script repeats once the script is exhausted.
type StubBackend struct {
	mu       sync.Mutex
	scripts  map[types.StageID][]Reply
	fallback *Reply
	calls    map[types.StageID]int
	requests []llm.Request
}

// NewStubBackend creates an empty stub
func NewStubBackend() *StubBackend {
	return &StubBackend{
		scripts: make(map[types.StageID][]Reply),
		calls:   make(map[types.StageID]int),
	}
}

// On appends replies for a stage and returns the stub for chaining
func (s *StubBackend) On(stage types.StageID, replies ...Reply) *StubBackend {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[stage] = append(s.scripts[stage], replies...)
	return s
}

// Default sets the reply used for stages without a script
func (s *StubBackend) Default(reply Reply) *StubBackend {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = &reply
	return s
}

// Generate implements llm.Backend
func (s *StubBackend) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	reply := s.next(req)

	if reply.Delay > 0 {
		if reply.IgnoreContext {
			time.Sleep(reply.Delay)
		} else {
			timer := time.NewTimer(reply.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}

	if reply.Err != nil {
		return nil, reply.Err
	}

	model := reply.Model
	if model == "" {
		model = "stub-model"
	}
	return &llm.Response{
		Text:             reply.Text,
		Image:            reply.Image,
		PromptTokens:     reply.PromptTokens,
		CompletionTokens: reply.CompletionTokens,
		Model:            model,
	}, nil
}

func (s *StubBackend) next(req llm.Request) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.calls[req.Stage]
	s.calls[req.Stage] = idx + 1
	s.requests = append(s.requests, req)

	script := s.scripts[req.Stage]
	switch {
	case len(script) == 0 && s.fallback != nil:
		return *s.fallback
	case len(script) == 0:
		return Reply{Err: &llm.TransportError{Message: "no scripted reply for stage " + string(req.Stage)}}
	case idx < len(script):
		return script[idx]
	default:
		return script[len(script)-1]
	}
}

// Calls returns how many times a stage reached the backend
func (s *StubBackend) Calls(stage types.StageID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[stage]
}

// TotalCalls returns the number of backend calls across all stages
func (s *StubBackend) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Requests returns a copy of every request received, in order
func (s *StubBackend) Requests() []llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llm.Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Close implements llm.Backend
func (s *StubBackend) Close() error {
	return nil
}

var _ llm.Backend = (*StubBackend)(nil)
