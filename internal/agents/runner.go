package agents

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/qiuyin/AgentDesk/internal/models"
)

// Runner executes one agent invocation with bounded retry. Failed attempts
// back off exponentially from Base; the error from the final attempt is the
// one reported.
type Runner struct {
	Provider Provider
	Attempts int
	Base     time.Duration
	log      *zap.Logger
}

func NewRunner(p Provider, attempts int, base time.Duration, log *zap.Logger) *Runner {
	if attempts < 1 {
		attempts = 1
	}
	if base <= 0 {
		base = time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{Provider: p, Attempts: attempts, Base: base, log: log}
}

// Run builds the prompt for role and drives the provider until it succeeds
// or attempts are exhausted. Context cancellation aborts both in-flight
// calls and backoff waits.
func (r *Runner) Run(ctx context.Context, role models.AgentRole, temperature float32, in PromptInput) (string, error) {
	req := Request{
		System:      System(in.Language),
		Prompt:      Build(role, in),
		Temperature: temperature,
		JSONOutput:  role == models.RoleCEO,
	}

	var lastErr error
	delay := r.Base
	for attempt := 1; attempt <= r.Attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			delay *= 2
		}

		out, err := r.Provider.Complete(ctx, req)
		if err == nil {
			return out, nil
		}
		lastErr = err
		r.log.Warn("agent attempt failed",
			zap.String("role", string(role)),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("agent %s failed after %d attempts: %w", role, r.Attempts, lastErr)
}
