package market

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/qiuyin/AgentDesk/internal/models"
)

// Stream subscribes to the exchange kline websocket feed for one instrument.
// The stream performs no reconnection: transport recovery is the embedding
// application's concern, not the reconciler's.
type Stream struct {
	URL string
	log *zap.Logger
}

func NewStream(log *zap.Logger) *Stream {
	return &Stream{URL: defaultStreamURL, log: log}
}

// klineEvent is the exchange's kline push frame.
type klineEvent struct {
	Event string `json:"e"`
	K     struct {
		OpenTime int64  `json:"t"`
		Open     string `json:"o"`
		High     string `json:"h"`
		Low      string `json:"l"`
		Close    string `json:"c"`
		Volume   string `json:"v"`
		Final    bool   `json:"x"`
	} `json:"k"`
}

// Subscription is a handle on one live feed. Unsubscribe closes the
// connection and flips the liveness flag; ticks already in flight when the
// flag flips are dropped, so a handler never fires for a dead subscription.
type Subscription struct {
	conn      *websocket.Conn
	live      atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// Subscribe opens the kline stream for symbol and invokes onUpdate for every
// tick until Unsubscribe is called or the transport fails.
func (s *Stream) Subscribe(symbol, interval string, onUpdate func(models.Candle)) (*Subscription, error) {
	sym := strings.ToLower(cleanSymbol(symbol))
	wsURL := fmt.Sprintf("%s/%s@kline_%s", s.URL, sym, interval)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial kline stream: %w", err)
	}

	sub := &Subscription{conn: conn, done: make(chan struct{})}
	sub.live.Store(true)

	s.log.Info("kline stream connected",
		zap.String("symbol", sym), zap.String("interval", interval))

	go s.readLoop(sub, onUpdate)
	return sub, nil
}

func (s *Stream) readLoop(sub *Subscription, onUpdate func(models.Candle)) {
	defer close(sub.done)
	for {
		_, raw, err := sub.conn.ReadMessage()
		if err != nil {
			if sub.live.Load() {
				s.log.Warn("kline stream closed", zap.Error(err))
			}
			return
		}
		// Liveness is checked per message: a frame read concurrently with
		// Unsubscribe must not reach the handler.
		if !sub.live.Load() {
			return
		}

		var ev klineEvent
		if err := json.Unmarshal(raw, &ev); err != nil || ev.Event != "kline" {
			continue
		}
		candle, err := ev.candle()
		if err != nil {
			s.log.Debug("dropped malformed kline tick", zap.Error(err))
			continue
		}
		onUpdate(candle)
	}
}

func (ev *klineEvent) candle() (models.Candle, error) {
	vals := make([]float64, 5)
	for i, s := range []string{ev.K.Open, ev.K.High, ev.K.Low, ev.K.Close, ev.K.Volume} {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.Candle{}, fmt.Errorf("kline tick field %d: %w", i, err)
		}
		vals[i] = v
	}
	return models.Candle{
		Time:   ev.K.OpenTime,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

// Unsubscribe tears the feed down. Safe to call more than once and safe to
// race with in-flight ticks.
func (sub *Subscription) Unsubscribe() {
	sub.live.Store(false)
	sub.closeOnce.Do(func() {
		_ = sub.conn.Close()
	})
}

// Done is closed when the read loop exits.
func (sub *Subscription) Done() <-chan struct{} {
	return sub.done
}
