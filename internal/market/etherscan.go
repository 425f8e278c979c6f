package market

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/qiuyin/AgentDesk/internal/models"
)

// gasOracleResponse is the chain-explorer envelope: status "1" means the
// result field is populated.
type gasOracleResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  struct {
		SafeGasPrice    string `json:"SafeGasPrice"`
		ProposeGasPrice string `json:"ProposeGasPrice"`
		FastGasPrice    string `json:"FastGasPrice"`
		SuggestBaseFee  string `json:"suggestBaseFee"`
	} `json:"result"`
}

// FetchGasOracle returns the current gas price tiers, or nil when the API key
// is absent or the call fails. The key is caller-supplied; without one the
// fetch is skipped entirely.
func (f *Fetcher) FetchGasOracle(ctx context.Context, apiKey string) *models.GasOracle {
	if apiKey == "" {
		return nil
	}

	url := fmt.Sprintf("%s?module=gastracker&action=gasoracle&apikey=%s", f.EtherscanURL, apiKey)
	body, err := f.fetchJSON(ctx, url)
	if err != nil {
		f.log.Warn("gas oracle fetch failed", zap.Error(err))
		return nil
	}

	var resp gasOracleResponse
	if json.Unmarshal(body, &resp) != nil || resp.Status != "1" {
		f.log.Warn("gas oracle returned error", zap.String("message", resp.Message))
		return nil
	}

	return &models.GasOracle{
		SafeGasPrice:    resp.Result.SafeGasPrice,
		ProposeGasPrice: resp.Result.ProposeGasPrice,
		FastGasPrice:    resp.Result.FastGasPrice,
		SuggestBaseFee:  resp.Result.SuggestBaseFee,
	}
}
