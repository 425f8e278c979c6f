package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/qiuyin/AgentDesk/internal/models"
)

const klineBody = `[
	[1700000000000,"100.0","110.0","95.0","105.0","1000.0",1700003599999,"0",0,"0","0","0"],
	[1700003600000,"105.0","112.0","101.0","108.0","900.0",1700007199999,"0",0,"0","0","0"]
]`

func testFetcher(t *testing.T) *Fetcher {
	t.Helper()
	f := NewFetcher(zap.NewNop(), "1h", 100)
	// A closed server stands in for every source the test does not wire up.
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()
	f.FuturesURL = dead.URL
	f.SpotURL = dead.URL
	f.USURL = dead.URL
	f.ProxyURL = dead.URL
	return f
}

func serve(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchCandlesFromFutures(t *testing.T) {
	f := testFetcher(t)
	futures := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fapi/v1/klines" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, klineBody)
	})
	f.FuturesURL = futures.URL

	candles := f.FetchCandles(context.Background(), "btc/usdt")
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	if candles[0].Open != 100 || candles[1].Close != 108 {
		t.Fatalf("unexpected candle values: %+v", candles)
	}
}

func TestFetchCandlesFallsBackToSpot(t *testing.T) {
	f := testFetcher(t)
	spot := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, klineBody)
	})
	f.SpotURL = spot.URL

	candles := f.FetchCandles(context.Background(), "BTCUSDT")
	if len(candles) != 2 {
		t.Fatalf("expected spot candles, got %d", len(candles))
	}
}

func TestFetchCandlesRetriesThroughProxy(t *testing.T) {
	f := testFetcher(t)
	proxied := false
	proxy := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("url") == "" {
			t.Error("proxy called without url parameter")
		}
		proxied = true
		fmt.Fprint(w, klineBody)
	})
	f.ProxyURL = proxy.URL

	candles := f.FetchCandles(context.Background(), "BTCUSDT")
	if !proxied {
		t.Fatal("proxy was never consulted")
	}
	if len(candles) != 2 {
		t.Fatalf("expected proxied candles, got %d", len(candles))
	}
}

func TestFetchCandlesGeoRestrictionUnlocksUSMirror(t *testing.T) {
	f := testFetcher(t)
	restricted := serve(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":0,"msg":"Service unavailable from a restricted location"}`)
	})
	mirror := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, klineBody)
	})
	f.FuturesURL = restricted.URL
	f.SpotURL = restricted.URL
	f.ProxyURL = restricted.URL
	f.USURL = mirror.URL

	candles := f.FetchCandles(context.Background(), "BTCUSDT")
	if len(candles) != 2 {
		t.Fatalf("expected mirror candles, got %d", len(candles))
	}
}

func TestFetchCandlesSyntheticFloor(t *testing.T) {
	f := testFetcher(t)

	candles := f.FetchCandles(context.Background(), "ETHUSDT")
	if len(candles) != f.Window {
		t.Fatalf("expected a full synthetic window of %d, got %d", f.Window, len(candles))
	}
	// The walk must be anchored near the instrument's own price level.
	if candles[0].Open < 3300*0.5 || candles[0].Open > 3300*2 {
		t.Fatalf("synthetic ETH walk anchored at %v", candles[0].Open)
	}
}

func TestParseKlineRowsRejectsMalformed(t *testing.T) {
	if _, err := parseKlineRows([]byte(`{"not":"an array"}`)); err == nil {
		t.Fatal("expected error for non-array payload")
	}
	if _, err := parseKlineRows([]byte(`[]`)); err == nil {
		t.Fatal("expected error for empty payload")
	}
	if _, err := parseKlineRows([]byte(`[[1700000000000,"x","1","1","1","1"]]`)); err == nil {
		t.Fatal("expected error for non-numeric field")
	}
}

func TestParseKlineRowsClassifiesGeoPayload(t *testing.T) {
	_, err := parseKlineRows([]byte(`{"code":0,"msg":"Service unavailable from a restricted location"}`))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrGeoRestricted) {
		t.Fatalf("expected geo classification, got %v", err)
	}
}

func TestFetchOrderBookFallsBackToSpot(t *testing.T) {
	f := testFetcher(t)
	spot := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/depth" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"lastUpdateId":1,"bids":[["100.0","2.0"]],"asks":[["101.0","3.0"]]}`)
	})
	f.SpotURL = spot.URL

	book := f.FetchOrderBook(context.Background(), "BTCUSDT")
	if book == nil {
		t.Fatal("expected order book from spot fallback")
	}
	if book.Bids[0][0] != "100.0" {
		t.Fatalf("unexpected bid: %v", book.Bids[0])
	}
}

func TestFetchOrderBookNilWhenUnavailable(t *testing.T) {
	f := testFetcher(t)
	if book := f.FetchOrderBook(context.Background(), "BTCUSDT"); book != nil {
		t.Fatalf("expected nil book, got %+v", book)
	}
}

func TestFetchFundingRateSilentNil(t *testing.T) {
	f := testFetcher(t)
	if rate := f.FetchFundingRate(context.Background(), "BTCUSDT"); rate != nil {
		t.Fatalf("expected nil rate, got %+v", rate)
	}

	futures := serve(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"symbol":"BTCUSDT","markPrice":"95000.0","lastFundingRate":"0.0001","nextFundingTime":1700000000000}`)
	})
	f.FuturesURL = futures.URL
	rate := f.FetchFundingRate(context.Background(), "BTCUSDT")
	if rate == nil || rate.LastFundingRate != "0.0001" {
		t.Fatalf("unexpected rate: %+v", rate)
	}
}

type memoryCache struct {
	saved   map[string][]models.Candle
	loadErr error
}

func (m *memoryCache) key(symbol, interval string) string { return symbol + "|" + interval }

func (m *memoryCache) SaveWindow(_ context.Context, symbol, interval string, candles []models.Candle) error {
	if m.saved == nil {
		m.saved = make(map[string][]models.Candle)
	}
	m.saved[m.key(symbol, interval)] = candles
	return nil
}

func (m *memoryCache) LoadWindow(_ context.Context, symbol, interval string) ([]models.Candle, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.saved[m.key(symbol, interval)], nil
}

func TestFetchCandlesRefreshesCacheOnSuccess(t *testing.T) {
	f := testFetcher(t)
	futures := serve(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, klineBody)
	})
	f.FuturesURL = futures.URL
	cache := &memoryCache{}
	f.Cache = cache

	f.FetchCandles(context.Background(), "ethusdt")

	got := cache.saved["ETHUSDT|1h"]
	if len(got) != 2 || got[0].Time != 1700000000000 {
		t.Fatalf("cache not refreshed with fetched window: %+v", got)
	}
}

func TestFetchCandlesServesCacheBeforeSynthetic(t *testing.T) {
	f := testFetcher(t)
	cached := []models.Candle{
		{Time: 1700000000000, Open: 42, High: 43, Low: 41, Close: 42.5, Volume: 5},
	}
	f.Cache = &memoryCache{saved: map[string][]models.Candle{"ETHUSDT|1h": cached}}

	candles := f.FetchCandles(context.Background(), "ETHUSDT")
	if len(candles) != 1 || candles[0].Close != 42.5 {
		t.Fatalf("expected cached window, got %+v", candles)
	}
}

func TestFetchCandlesSyntheticWhenCacheFails(t *testing.T) {
	f := testFetcher(t)
	f.Cache = &memoryCache{loadErr: errors.New("disk gone")}

	candles := f.FetchCandles(context.Background(), "ETHUSDT")
	if len(candles) != f.Window {
		t.Fatalf("expected synthetic window of %d, got %d", f.Window, len(candles))
	}
}
