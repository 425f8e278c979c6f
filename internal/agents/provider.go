package agents

import (
	"context"
	"errors"
)

// ErrMissingAPIKey is returned by provider constructors when the configured
// backend has no credential. Callers treat it as terminal: no completion is
// attempted and no retry applies.
var ErrMissingAPIKey = errors.New("agents: missing API key for configured provider")

// Request is a single completion call. Temperature is applied per call so one
// chat model instance serves every role. JSONOutput asks the backend for a
// strict JSON object response where the backend supports it. Live retrieval
// has no equivalent backend switch here; when a role needs it, the prompt
// itself carries the directive (see searchDirective).
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	JSONOutput  bool
}

// Provider abstracts the chat completion backend behind the desk.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}
