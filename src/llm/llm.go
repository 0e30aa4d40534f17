package llm

import (
	"context"
)

// Service names used when reporting failures
const (
	ServiceDecision   = "decision"
	ServiceGeneration = "generation"
)

// Request is a single system-instruction plus user-content exchange.
// Model and Service are optional; an empty Model uses the client default.
type Request struct {
	Service     string
	Model       string
	System      string
	User        string
	Temperature float32
}

// Completer is the text generation backend. Implementations must honor ctx
// and report transport or remote failures as errors matching
// errors.ErrServiceUnavailable.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a plain function to Completer
type CompleterFunc func(ctx context.Context, req Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
