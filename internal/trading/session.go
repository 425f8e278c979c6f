// Package trading binds the market data layer to the analysis pipeline. A
// Session owns the live candle window for one instrument at a time and is
// the single entry point the CLI drives.
package trading

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/qiuyin/AgentDesk/internal/agents"
	"github.com/qiuyin/AgentDesk/internal/config"
	"github.com/qiuyin/AgentDesk/internal/market"
	"github.com/qiuyin/AgentDesk/internal/models"
	"github.com/qiuyin/AgentDesk/internal/pipeline"
	"github.com/qiuyin/AgentDesk/internal/storage/sqlite"
)

const cacheDBName = "market.db"

// Session holds the window, the live feed subscription, and the
// orchestrator for the currently selected instrument.
type Session struct {
	cfg    *config.Config
	log    *zap.Logger
	series *models.Series

	fetcher *market.Fetcher
	stream  *market.Stream
	desk    *pipeline.Orchestrator
	cache   *sqlite.Store

	mu     sync.Mutex
	symbol string
	sub    *market.Subscription
	cancel context.CancelFunc
}

// New wires a session from configuration. The provider credential is checked
// lazily at analysis time, so a session can browse market data without one.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fetcher := market.NewFetcher(log, cfg.Interval, cfg.Window)

	var cache *sqlite.Store
	if cfg.DataDir != "" {
		var err error
		cache, err = sqlite.Open(filepath.Join(cfg.DataDir, cacheDBName))
		if err != nil {
			// The cache only backstops a total fetch outage; run without it.
			log.Warn("candle cache unavailable", zap.Error(err))
		} else {
			fetcher.Cache = cache
		}
	}

	provider, err := agents.NewProvider(ctx, cfg)
	if err != nil && err != agents.ErrMissingAPIKey {
		return nil, fmt.Errorf("init provider: %w", err)
	}
	var runner *agents.Runner
	if provider != nil {
		runner = agents.NewRunner(provider, cfg.MaxRetries, cfg.RetryBase, log)
	}

	s := &Session{
		cfg:     cfg,
		log:     log,
		series:  models.NewSeries(cfg.Window),
		fetcher: fetcher,
		stream:  market.NewStream(log),
		desk:    pipeline.New(cfg, runner, fetcher, log),
		cache:   cache,
	}
	return s, nil
}

// Desk exposes the orchestrator for state callbacks and snapshots.
func (s *Session) Desk() *pipeline.Orchestrator { return s.desk }

// Symbol returns the currently selected instrument.
func (s *Session) Symbol() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.symbol
}

// Candles returns a copy of the current window.
func (s *Session) Candles() []models.Candle { return s.series.Snapshot() }

// SetInstrument switches the session to a new symbol: the previous feed is
// dropped first so no stale update can land in the fresh window, then the
// window is refilled and a new live subscription opened. Safe to call while
// an analysis run is in flight; the run keeps its own snapshot.
func (s *Session) SetInstrument(ctx context.Context, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return fmt.Errorf("empty symbol")
	}

	s.mu.Lock()
	if s.sub != nil {
		s.sub.Unsubscribe()
		s.sub = nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.symbol = symbol
	s.mu.Unlock()

	s.series.Reset(nil)
	candles := s.fetcher.FetchCandles(fetchCtx, symbol)
	if fetchCtx.Err() != nil {
		// A newer SetInstrument superseded this one mid-fetch.
		return fetchCtx.Err()
	}
	s.series.Reset(candles)
	s.log.Info("instrument loaded",
		zap.String("symbol", symbol),
		zap.Int("candles", s.series.Len()))

	sub, err := s.stream.Subscribe(symbol, s.cfg.Interval, func(c models.Candle) {
		s.applyLive(fetchCtx, c)
	})
	if err != nil {
		// Live updates are an enhancement; the fetched window stands alone.
		s.log.Warn("live feed unavailable", zap.String("symbol", symbol), zap.Error(err))
		return nil
	}

	s.mu.Lock()
	if s.symbol != symbol {
		// Lost a race with an even newer switch.
		s.mu.Unlock()
		sub.Unsubscribe()
		return nil
	}
	s.sub = sub
	s.mu.Unlock()
	return nil
}

// applyLive folds one stream tick into the window. The context belongs to the
// SetInstrument call that opened the subscription; a newer switch cancels it,
// so a tick arriving between that switch and the unsubscribe is dropped
// instead of landing in the successor's window.
func (s *Session) applyLive(ctx context.Context, c models.Candle) {
	if ctx.Err() != nil {
		return
	}
	s.series.Apply(c)
}

// Analyze runs the full desk over a snapshot of the current window.
func (s *Session) Analyze(ctx context.Context) (*pipeline.Result, error) {
	s.mu.Lock()
	symbol := s.symbol
	s.mu.Unlock()
	if symbol == "" {
		return nil, fmt.Errorf("no instrument selected")
	}
	return s.desk.Run(ctx, symbol, s.series.Snapshot())
}

// Close drops the live subscription and any pending fetch.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		s.sub.Unsubscribe()
		s.sub = nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.cache != nil {
		_ = s.cache.Close()
		s.cache = nil
	}
}
