// Package market resolves candle history, supplemental signals, and the live
// kline feed for one instrument. Every REST endpoint goes through the same
// cascade-and-proxy discipline: try the call directly, retry once through a
// CORS-relaxing proxy, then let the caller escalate to the next source.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/qiuyin/AgentDesk/internal/models"
)

const (
	defaultFuturesURL   = "https://fapi.binance.com"
	defaultSpotURL      = "https://api.binance.com"
	defaultUSURL        = "https://api.binance.us"
	defaultProxyURL     = "https://api.allorigins.win/raw"
	defaultEtherscanURL = "https://api.etherscan.io/api"
	defaultStreamURL    = "wss://fstream.binance.com/ws"
)

// ErrGeoRestricted marks a provider refusal tied to the caller's region. The
// cascade treats it specially: only this class of failure unlocks the
// region-restricted fallback source.
var ErrGeoRestricted = errors.New("market: geo restricted")

// CandleCache stores the last good window per instrument so the cascade can
// fall back to recent real data before resorting to the synthetic generator.
type CandleCache interface {
	SaveWindow(ctx context.Context, symbol, interval string, candles []models.Candle) error
	LoadWindow(ctx context.Context, symbol, interval string) ([]models.Candle, error)
}

// Fetcher resolves market data through the source cascade. The zero value is
// not usable; construct with NewFetcher.
type Fetcher struct {
	client *resty.Client
	log    *zap.Logger

	FuturesURL   string
	SpotURL      string
	USURL        string
	ProxyURL     string
	EtherscanURL string

	Interval string
	Window   int

	// Cache, when set, is consulted after every live source has failed and
	// refreshed after every live success. Optional.
	Cache CandleCache
}

func NewFetcher(log *zap.Logger, interval string, window int) *Fetcher {
	client := resty.New()
	client.SetTimeout(15 * time.Second)

	return &Fetcher{
		client:       client,
		log:          log,
		FuturesURL:   defaultFuturesURL,
		SpotURL:      defaultSpotURL,
		USURL:        defaultUSURL,
		ProxyURL:     defaultProxyURL,
		EtherscanURL: defaultEtherscanURL,
		Interval:     interval,
		Window:       window,
	}
}

// apiError is the error payload shape shared by the candle, depth, and
// premium-index endpoints.
type apiError struct {
	Code int64  `json:"code"`
	Msg  string `json:"msg"`
}

// restrictedMessage reports whether a provider error message belongs to the
// restricted-location class. Detection is by message text, not HTTP status:
// the provider answers 451 and 200-with-error-body interchangeably.
func restrictedMessage(msg string) bool {
	return strings.Contains(msg, "restricted location") ||
		strings.Contains(msg, "Service unavailable")
}

// classify wraps err as ErrGeoRestricted when its text marks a regional
// refusal, so the cascade can unlock the region fallback.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if restrictedMessage(err.Error()) {
		return fmt.Errorf("%w: %v", ErrGeoRestricted, err)
	}
	return err
}

// fetchJSON performs one direct request and, on any failure, one retry
// through the proxy. The returned bytes are the raw response body; shape
// validation is the caller's job.
func (f *Fetcher) fetchJSON(ctx context.Context, rawURL string) ([]byte, error) {
	body, directErr := f.get(ctx, rawURL)
	if directErr == nil {
		return body, nil
	}

	proxyURL := fmt.Sprintf("%s?url=%s&t=%d", f.ProxyURL, url.QueryEscape(rawURL), time.Now().UnixMilli())
	body, proxyErr := f.get(ctx, proxyURL)
	if proxyErr == nil {
		return body, nil
	}

	// A specific direct error (geo restriction) outranks the generic proxy
	// failure so the caller can still route on it.
	if errors.Is(classify(directErr), ErrGeoRestricted) {
		return nil, classify(directErr)
	}
	f.log.Debug("proxy fallback failed",
		zap.String("url", rawURL),
		zap.Error(proxyErr))
	return nil, fmt.Errorf("direct: %v; proxy: %w", directErr, proxyErr)
}

// get performs a single GET and folds non-2xx answers into errors, preferring
// the provider's msg field over the bare status line.
func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, err
	}
	if resp.IsSuccess() {
		return resp.Body(), nil
	}

	var payload apiError
	if json.Unmarshal(resp.Body(), &payload) == nil && payload.Msg != "" {
		return nil, fmt.Errorf("%s", payload.Msg)
	}
	return nil, fmt.Errorf("fetch failed: %d %s", resp.StatusCode(), resp.Status())
}

// cleanSymbol normalizes operator input ("btc/usdt") to the exchange form.
func cleanSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

// intervalDuration maps an exchange interval code to its duration. Unknown
// codes fall back to one hour, the desk's working interval.
func intervalDuration(interval string) time.Duration {
	switch interval {
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1h":
		return time.Hour
	case "4h":
		return 4 * time.Hour
	case "1d":
		return 24 * time.Hour
	default:
		return time.Hour
	}
}
