// Package pipeline runs the four-tier analysis hierarchy: five analysts fan
// out in parallel, two managers synthesize their teams, the risk manager
// consolidates both, and the CEO issues the final decision. A failed agent
// never aborts the run; its downstream consumers see a fixed fallback caption
// instead of the missing report.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/qiuyin/AgentDesk/internal/agents"
	"github.com/qiuyin/AgentDesk/internal/config"
	"github.com/qiuyin/AgentDesk/internal/decision"
	"github.com/qiuyin/AgentDesk/internal/locales"
	"github.com/qiuyin/AgentDesk/internal/market"
	"github.com/qiuyin/AgentDesk/internal/models"
)

// Fallback captions injected in place of a failed agent's report.
const (
	analystFallback = "Analysis unavailable due to error."
	managerFallback = "Manager report unavailable due to error."
	riskFallback    = "Risk Analysis Failed"
)

var (
	ErrRunInProgress = errors.New("pipeline: analysis already in progress")
	ErrNoMarketData  = errors.New("pipeline: no market data loaded")
)

// Result is the outcome of one full run.
type Result struct {
	Decision models.TradingDecision
	Raw      string
	States   []models.AgentState
	Elapsed  time.Duration
}

// Orchestrator owns the agent states for the desk and executes runs one at a
// time. OnUpdate, when set, receives a copy of an agent's state after every
// transition; it is called from worker goroutines and must be safe for
// concurrent use.
type Orchestrator struct {
	cfg     *config.Config
	runner  *agents.Runner
	fetcher *market.Fetcher
	log     *zap.Logger

	OnUpdate func(models.AgentState)

	mu         sync.Mutex
	states     map[models.AgentRole]*models.AgentState
	inProgress bool
}

func New(cfg *config.Config, runner *agents.Runner, fetcher *market.Fetcher, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	o := &Orchestrator{
		cfg:     cfg,
		runner:  runner,
		fetcher: fetcher,
		log:     log,
		states:  make(map[models.AgentRole]*models.AgentState, len(models.AllRoles)),
	}
	o.resetStates()
	return o
}

// resetStates rebuilds every agent back to idle with locale-resolved display
// strings. Callers hold o.mu or have exclusive access.
func (o *Orchestrator) resetStates() {
	tr := locales.Get(locales.Parse(o.cfg.Language))
	for _, role := range models.AllRoles {
		o.states[role] = &models.AgentState{
			Role:        role,
			Name:        tr.AgentNames[role],
			Description: tr.AgentDescs[role],
			Status:      models.StatusIdle,
		}
	}
}

// States returns a snapshot of every agent in tier order.
func (o *Orchestrator) States() []models.AgentState {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.AgentState, 0, len(models.AllRoles))
	for _, role := range models.AllRoles {
		out = append(out, *o.states[role])
	}
	return out
}

// InProgress reports whether a run is currently executing.
func (o *Orchestrator) InProgress() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inProgress
}

// legalTransitions is the agent status machine: an agent leaves Idle only by
// starting to think, and settles from Thinking into exactly one terminal
// state. resetStates returns everyone to Idle outside this path.
var legalTransitions = map[models.AgentStatus][]models.AgentStatus{
	models.StatusIdle:     {models.StatusThinking},
	models.StatusThinking: {models.StatusCompleted, models.StatusError},
}

func (o *Orchestrator) transition(role models.AgentRole, status models.AgentStatus, output string) {
	o.mu.Lock()
	st := o.states[role]
	legal := false
	for _, next := range legalTransitions[st.Status] {
		if next == status {
			legal = true
			break
		}
	}
	if !legal {
		o.mu.Unlock()
		o.log.Warn("illegal agent status transition dropped",
			zap.String("role", string(role)),
			zap.String("from", string(st.Status)),
			zap.String("to", string(status)))
		return
	}
	st.Status = status
	if output != "" {
		st.Output = output
	}
	snapshot := *st
	o.mu.Unlock()

	if o.OnUpdate != nil {
		o.OnUpdate(snapshot)
	}
}

// Run executes the full hierarchy over the given candle window. Exactly one
// run may be active; concurrent callers get ErrRunInProgress. The in-progress
// flag is cleared on every exit path, including panics in provider code.
func (o *Orchestrator) Run(ctx context.Context, symbol string, candles []models.Candle) (*Result, error) {
	if len(candles) == 0 {
		return nil, ErrNoMarketData
	}
	if o.cfg.ProviderKey() == "" {
		return nil, agents.ErrMissingAPIKey
	}

	o.mu.Lock()
	if o.inProgress {
		o.mu.Unlock()
		return nil, ErrRunInProgress
	}
	o.inProgress = true
	o.resetStates()
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inProgress = false
		o.mu.Unlock()
	}()

	start := time.Now()
	lang := locales.Parse(o.cfg.Language)
	signals := o.fetchSignals(ctx, symbol)

	base := agents.PromptInput{
		Symbol:   symbol,
		Interval: o.cfg.Interval,
		Candles:  candles,
		Language: lang,
	}
	if o.cfg.PositionContext {
		base.Position = o.cfg.Position
	}

	// Tier 1: five analysts in parallel.
	reports := o.fanOut(ctx, models.Tier1Roles, base, signals, nil, analystFallback)
	o.pause(ctx)

	// Tier 2: two managers, each seeing only its own team's reports.
	managerReports := o.fanOut(ctx, models.Tier2Roles, base, signals, reports, managerFallback)
	o.pause(ctx)

	// Tier 3: the risk manager consolidates both managers.
	riskReports := o.fanOut(ctx, []models.AgentRole{models.RoleRiskManager}, base, signals, managerReports, riskFallback)
	o.pause(ctx)

	// Tier 4: the CEO sees the manager reports plus the risk assessment, so
	// the final call is grounded in both the synthesis and its risk review.
	ceoInput := models.ReportMap{
		models.RoleTechManager: managerReports[models.RoleTechManager],
		models.RoleFundManager: managerReports[models.RoleFundManager],
		models.RoleRiskManager: riskReports[models.RoleRiskManager],
	}
	raw, err := o.invoke(ctx, models.RoleCEO, base, signals, ceoInput)
	if err != nil {
		o.transition(models.RoleCEO, models.StatusError, locales.Get(lang).CEOUnavailable)
		return &Result{States: o.States(), Elapsed: time.Since(start)}, err
	}
	// The CEO's on-screen output is the parsed, localized summary rather
	// than the raw model text.
	final := decision.Finalize(raw)
	o.transition(models.RoleCEO, models.StatusCompleted, decision.Summary(final, lang))

	return &Result{
		Decision: final,
		Raw:      raw,
		States:   o.States(),
		Elapsed:  time.Since(start),
	}, nil
}

// fanOut runs the given roles concurrently and returns a report per role. A
// role that errors contributes the fallback caption so downstream prompts
// always have an entry for every expected source.
func (o *Orchestrator) fanOut(ctx context.Context, roles []models.AgentRole, base agents.PromptInput, signals *models.Signals, upstream models.ReportMap, fallbackText string) models.ReportMap {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		out = make(models.ReportMap, len(roles))
	)
	for _, role := range roles {
		wg.Add(1)
		go func(role models.AgentRole) {
			defer wg.Done()
			report, err := o.invoke(ctx, role, base, signals, upstream)
			if err != nil {
				o.log.Warn("agent failed", zap.String("role", string(role)), zap.Error(err))
				o.transition(role, models.StatusError, locales.Get(base.Language).Failed)
				report = fallbackText
			} else {
				o.transition(role, models.StatusCompleted, report)
			}
			mu.Lock()
			out[role] = report
			mu.Unlock()
		}(role)
	}
	wg.Wait()
	return out
}

// invoke runs one agent with its role-specific prompt context.
func (o *Orchestrator) invoke(ctx context.Context, role models.AgentRole, base agents.PromptInput, signals *models.Signals, upstream models.ReportMap) (string, error) {
	o.transition(role, models.StatusThinking, "")

	in := base
	in.Extra = extraContext(role, signals)
	in.WebSearch = role == models.RoleMacro && o.cfg.MacroWebSearch
	if upstream != nil {
		in.Reports = filterReports(role, upstream)
	}
	return o.runner.Run(ctx, role, o.cfg.Temperature(role), in)
}

// extraContext routes each supplemental signal to the one role that owns it:
// order book depth to the short-term analyst, funding to the quant, gas to
// the on-chain analyst.
func extraContext(role models.AgentRole, signals *models.Signals) string {
	if signals == nil {
		return ""
	}
	switch role {
	case models.RoleShortTerm:
		if signals.OrderBook != nil {
			return market.DepthContext(signals.OrderBook)
		}
	case models.RoleQuant:
		if signals.FundingRate != nil {
			return market.FundingContext(signals.FundingRate)
		}
	case models.RoleOnChain:
		if signals.GasOracle != nil {
			return market.GasContext(signals.GasOracle)
		}
	}
	return ""
}

// filterReports keeps only the upstream entries the role's prompt declares.
func filterReports(role models.AgentRole, upstream models.ReportMap) models.ReportMap {
	sources, ok := models.Topology[role]
	if !ok {
		return nil
	}
	out := make(models.ReportMap, len(sources))
	for _, src := range sources {
		if r, ok := upstream[src]; ok {
			out[src] = r
		}
	}
	return out
}

// fetchSignals gathers the optional market context concurrently. Every fetch
// is best-effort; a nil field just means that context line is omitted.
func (o *Orchestrator) fetchSignals(ctx context.Context, symbol string) *models.Signals {
	if !o.cfg.Supplemental || o.fetcher == nil {
		return nil
	}
	signals := &models.Signals{}
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		signals.OrderBook = o.fetcher.FetchOrderBook(ctx, symbol)
	}()
	go func() {
		defer wg.Done()
		signals.FundingRate = o.fetcher.FetchFundingRate(ctx, symbol)
	}()
	go func() {
		defer wg.Done()
		signals.GasOracle = o.fetcher.FetchGasOracle(ctx, o.cfg.EtherscanKey)
	}()
	wg.Wait()
	return signals
}

// pause inserts the inter-tier delay so the operator can follow the
// hierarchy advancing. Cancellation cuts it short.
func (o *Orchestrator) pause(ctx context.Context) {
	if o.cfg.TierDelay <= 0 {
		return
	}
	select {
	case <-time.After(o.cfg.TierDelay):
	case <-ctx.Done():
	}
}
