package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/showcase-forge/internal/llm"
)

type callReply struct {
	resp *llm.Response
	err  error
}

// call runs one backend request under a deadline. The request runs in its own
// goroutine so a backend that ignores cancellation cannot hold up the run;
// a late reply lands in the buffered channel and is dropped.
func (r *Runner) call(ctx context.Context, req llm.Request, timeout time.Duration) (*llm.Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	replies := make(chan callReply, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				replies <- callReply{err: &llm.TransportError{Message: fmt.Sprintf("backend panicked: %v", p)}}
			}
		}()
		resp, err := r.backend.Generate(callCtx, req)
		replies <- callReply{resp: resp, err: err}
	}()

	select {
	case reply := <-replies:
		if reply.err != nil {
			return reply.resp, classify(reply.err)
		}
		if reply.resp == nil {
			return nil, &llm.TransportError{Message: "backend returned no response"}
		}
		return reply.resp, nil
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return nil, &llm.TransportError{Message: fmt.Sprintf("stage %s cancelled", req.Stage), Cause: ctx.Err()}
		}
		return nil, &llm.TransportError{Message: fmt.Sprintf("stage %s timed out after %s", req.Stage, timeout), Cause: callCtx.Err()}
	}
}

// classify maps arbitrary backend failures onto the error taxonomy
func classify(err error) error {
	var (
		blocked   *llm.ContentBlockedError
		cfgErr    *llm.ConfigurationError
		transport *llm.TransportError
	)
	switch {
	case errors.As(err, &blocked), errors.As(err, &cfgErr), errors.As(err, &transport):
		return err
	default:
		return &llm.TransportError{Message: "backend call failed", Cause: err}
	}
}
