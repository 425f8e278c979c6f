package models

import (
	"sync"
	"time"
)

// Candle is one OHLCV bar for a fixed interval. Time is the bar open time in
// milliseconds since epoch.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// OpenTime returns the bar open time as a time.Time.
func (c Candle) OpenTime() time.Time {
	return time.UnixMilli(c.Time)
}

// Series is a fixed-capacity sliding window of candles ordered by strictly
// increasing Time. It is the only structure written from two independent flows
// (the periodic fetch and the live stream reconciler), so all access goes
// through the mutex.
type Series struct {
	mu       sync.RWMutex
	capacity int
	candles  []Candle
}

// DefaultWindow is the historical window length requested from upstream
// sources and enforced by the series.
const DefaultWindow = 100

// NewSeries creates an empty series with the given capacity. A capacity of
// zero or less falls back to DefaultWindow.
func NewSeries(capacity int) *Series {
	if capacity <= 0 {
		capacity = DefaultWindow
	}
	return &Series{
		capacity: capacity,
		candles:  make([]Candle, 0, capacity),
	}
}

// Reset replaces the window contents with the given candles, keeping only the
// newest entries when the input exceeds capacity. Used on initial fetch and on
// instrument change.
func (s *Series) Reset(candles []Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(candles) > s.capacity {
		candles = candles[len(candles)-s.capacity:]
	}
	s.candles = s.candles[:0]
	s.candles = append(s.candles, candles...)
}

// Apply reconciles one incoming candle against the window:
//
//	time == last  -> replace in place (same-period update)
//	time >  last  -> append, evicting the oldest when full
//	otherwise     -> discard (stale or duplicate tick)
//
// An empty series accepts any candle. Returns true when the window changed.
func (s *Series) Apply(c Candle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.candles) == 0 {
		s.candles = append(s.candles, c)
		return true
	}

	last := s.candles[len(s.candles)-1]
	switch {
	case c.Time == last.Time:
		s.candles[len(s.candles)-1] = c
		return true
	case c.Time > last.Time:
		if len(s.candles) >= s.capacity {
			copy(s.candles, s.candles[1:])
			s.candles[len(s.candles)-1] = c
		} else {
			s.candles = append(s.candles, c)
		}
		return true
	default:
		return false
	}
}

// Snapshot returns a copy of the current window.
func (s *Series) Snapshot() []Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Candle, len(s.candles))
	copy(out, s.candles)
	return out
}

// Len returns the number of stored candles.
func (s *Series) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.candles)
}

// Capacity returns the fixed window capacity.
func (s *Series) Capacity() int {
	return s.capacity
}
