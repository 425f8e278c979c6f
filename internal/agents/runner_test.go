package agents

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/qiuyin/AgentDesk/internal/locales"
	"github.com/qiuyin/AgentDesk/internal/models"
)

type scriptedProvider struct {
	calls    atomic.Int32
	failures int
	reply    string
	lastReq  Request
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req Request) (string, error) {
	p.lastReq = req
	n := p.calls.Add(1)
	if int(n) <= p.failures {
		return "", errors.New("transient backend failure")
	}
	return p.reply, nil
}

func testInput() PromptInput {
	return PromptInput{
		Symbol:   "BTCUSDT",
		Interval: "1h",
		Candles: []models.Candle{
			{Time: 1000, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		},
		Language: locales.English,
	}
}

func TestRunnerSucceedsFirstAttempt(t *testing.T) {
	p := &scriptedProvider{reply: "fine"}
	r := NewRunner(p, 3, time.Millisecond, nil)

	out, err := r.Run(context.Background(), models.RoleShortTerm, 0.7, testInput())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "fine" {
		t.Fatalf("unexpected output %q", out)
	}
	if p.calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", p.calls.Load())
	}
}

func TestRunnerRetriesThenSucceeds(t *testing.T) {
	p := &scriptedProvider{failures: 2, reply: "third time"}
	base := 20 * time.Millisecond
	r := NewRunner(p, 3, base, nil)

	start := time.Now()
	out, err := r.Run(context.Background(), models.RoleQuant, 0.7, testInput())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "third time" {
		t.Fatalf("unexpected output %q", out)
	}
	if p.calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", p.calls.Load())
	}
	// Backoff doubles: base + 2*base between the three attempts.
	if elapsed := time.Since(start); elapsed < 3*base {
		t.Fatalf("backoff too short: %v", elapsed)
	}
}

func TestRunnerStopsAfterMaxAttempts(t *testing.T) {
	p := &scriptedProvider{failures: 10}
	r := NewRunner(p, 3, time.Millisecond, nil)

	_, err := r.Run(context.Background(), models.RoleMacro, 0.7, testInput())
	if err == nil {
		t.Fatal("expected failure after exhausted retries")
	}
	if p.calls.Load() != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", p.calls.Load())
	}
	if !strings.Contains(err.Error(), "transient backend failure") {
		t.Fatalf("final attempt error not preserved: %v", err)
	}
}

func TestRunnerHonorsCancellation(t *testing.T) {
	p := &scriptedProvider{failures: 10}
	r := NewRunner(p, 3, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := r.Run(ctx, models.RoleOnChain, 0.7, testInput())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("cancellation did not cut the backoff wait short")
	}
}

func TestRunnerRequestShaping(t *testing.T) {
	p := &scriptedProvider{reply: "{}"}
	r := NewRunner(p, 1, time.Millisecond, nil)

	if _, err := r.Run(context.Background(), models.RoleCEO, 0.2, testInput()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !p.lastReq.JSONOutput {
		t.Fatal("decision call did not request JSON output")
	}
	if p.lastReq.Temperature != 0.2 {
		t.Fatalf("temperature not threaded through: %v", p.lastReq.Temperature)
	}

	in := testInput()
	in.WebSearch = true
	if _, err := r.Run(context.Background(), models.RoleMacro, 0.7, in); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if p.lastReq.JSONOutput {
		t.Fatal("analyst call must not request JSON output")
	}
	if !strings.Contains(p.lastReq.Prompt, "LIVE RETRIEVAL") {
		t.Fatal("web search request did not reach the prompt")
	}
}
