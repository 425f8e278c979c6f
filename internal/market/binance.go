package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/qiuyin/AgentDesk/internal/models"
)

// FetchCandles resolves the historical window for an instrument through the
// source cascade: futures, then spot, then (only for restricted-location
// failures) the US spot mirror, then the cached last good window, then the
// synthetic generator. This path never fails and never returns an empty
// series.
func (f *Fetcher) FetchCandles(ctx context.Context, symbol string) []models.Candle {
	sym := cleanSymbol(symbol)
	params := fmt.Sprintf("symbol=%s&interval=%s&limit=%d", sym, f.Interval, f.Window)

	candles, err := f.fetchCandlesURL(ctx, f.FuturesURL+"/fapi/v1/klines?"+params)
	if err == nil {
		f.cacheWindow(ctx, sym, candles)
		return candles
	}
	f.log.Warn("futures candles failed, falling back to spot",
		zap.String("symbol", sym), zap.Error(err))

	candles, spotErr := f.fetchCandlesURL(ctx, f.SpotURL+"/api/v3/klines?"+params)
	if spotErr == nil {
		f.cacheWindow(ctx, sym, candles)
		return candles
	}

	if errors.Is(err, ErrGeoRestricted) || errors.Is(spotErr, ErrGeoRestricted) {
		f.log.Info("geo restriction detected, trying US mirror", zap.String("symbol", sym))
		// The mirror is region-local; it gets one direct attempt, no proxy.
		if body, usErr := f.get(ctx, f.USURL+"/api/v3/klines?"+params); usErr == nil {
			if candles, parseErr := parseKlineRows(body); parseErr == nil {
				f.cacheWindow(ctx, sym, candles)
				return candles
			}
		}
	}

	if cached := f.cachedWindow(ctx, sym); len(cached) > 0 {
		f.log.Warn("all candle sources failed, serving cached window",
			zap.String("symbol", sym), zap.Error(spotErr))
		return cached
	}

	f.log.Warn("all candle sources failed, using synthetic data",
		zap.String("symbol", sym), zap.Error(spotErr))
	return SyntheticCandles(sym, f.Interval, f.Window)
}

func (f *Fetcher) cacheWindow(ctx context.Context, symbol string, candles []models.Candle) {
	if f.Cache == nil {
		return
	}
	if err := f.Cache.SaveWindow(ctx, symbol, f.Interval, candles); err != nil {
		f.log.Debug("cache window failed", zap.String("symbol", symbol), zap.Error(err))
	}
}

func (f *Fetcher) cachedWindow(ctx context.Context, symbol string) []models.Candle {
	if f.Cache == nil {
		return nil
	}
	candles, err := f.Cache.LoadWindow(ctx, symbol, f.Interval)
	if err != nil {
		f.log.Debug("cache lookup failed", zap.String("symbol", symbol), zap.Error(err))
		return nil
	}
	return candles
}

func (f *Fetcher) fetchCandlesURL(ctx context.Context, url string) ([]models.Candle, error) {
	body, err := f.fetchJSON(ctx, url)
	if err != nil {
		return nil, classify(err)
	}
	candles, err := parseKlineRows(body)
	if err != nil {
		return nil, err
	}
	return candles, nil
}

// parseKlineRows decodes the exchange kline array-of-arrays shape. A non-array
// payload carrying a msg field is folded into an error (possibly
// geo-classified) so the cascade continues instead of crashing.
func parseKlineRows(body []byte) ([]models.Candle, error) {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		var payload apiError
		if json.Unmarshal(body, &payload) == nil && payload.Msg != "" {
			return nil, classify(fmt.Errorf("%s", payload.Msg))
		}
		return nil, fmt.Errorf("invalid kline response shape")
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty kline response")
	}

	candles := make([]models.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("kline row too short: %d fields", len(row))
		}
		var t int64
		if err := json.Unmarshal(row[0], &t); err != nil {
			return nil, fmt.Errorf("kline open time: %w", err)
		}
		vals := make([]float64, 5)
		for i := 0; i < 5; i++ {
			var s string
			if err := json.Unmarshal(row[i+1], &s); err != nil {
				return nil, fmt.Errorf("kline field %d: %w", i+1, err)
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("kline field %d: %w", i+1, err)
			}
			vals[i] = v
		}
		candles = append(candles, models.Candle{
			Time:   t,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return candles, nil
}

// FetchOrderBook returns the top book levels, futures first with a spot
// fallback, or nil when every source fails. Callers treat nil as "no depth
// context", never as an abort.
func (f *Fetcher) FetchOrderBook(ctx context.Context, symbol string) *models.OrderBook {
	sym := cleanSymbol(symbol)
	params := fmt.Sprintf("symbol=%s&limit=20", sym)

	book, err := f.fetchBookURL(ctx, f.FuturesURL+"/fapi/v1/depth?"+params)
	if err != nil {
		book, err = f.fetchBookURL(ctx, f.SpotURL+"/api/v3/depth?"+params)
	}
	if err == nil {
		return book
	}

	if errors.Is(err, ErrGeoRestricted) {
		if body, usErr := f.get(ctx, f.USURL+"/api/v3/depth?"+params); usErr == nil {
			var us models.OrderBook
			if json.Unmarshal(body, &us) == nil && (len(us.Bids) > 0 || len(us.Asks) > 0) {
				return &us
			}
		}
	}

	f.log.Warn("order book unavailable", zap.String("symbol", sym), zap.Error(err))
	return nil
}

func (f *Fetcher) fetchBookURL(ctx context.Context, url string) (*models.OrderBook, error) {
	body, err := f.fetchJSON(ctx, url)
	if err != nil {
		return nil, classify(err)
	}
	var book models.OrderBook
	if err := json.Unmarshal(body, &book); err != nil || (len(book.Bids) == 0 && len(book.Asks) == 0) {
		var payload apiError
		if json.Unmarshal(body, &payload) == nil && payload.Msg != "" {
			return nil, classify(fmt.Errorf("%s", payload.Msg))
		}
		return nil, fmt.Errorf("invalid order book data")
	}
	return &book, nil
}

// FetchFundingRate returns the current premium-index snapshot or nil. The nil
// path is deliberately silent: the endpoint is frequently blocked and the
// signal is the least critical of the three.
func (f *Fetcher) FetchFundingRate(ctx context.Context, symbol string) *models.FundingRate {
	sym := cleanSymbol(symbol)
	body, err := f.fetchJSON(ctx, f.FuturesURL+"/fapi/v1/premiumIndex?symbol="+sym)
	if err != nil {
		return nil
	}
	var rate models.FundingRate
	if json.Unmarshal(body, &rate) != nil || rate.Symbol == "" {
		return nil
	}
	return &rate
}
