package models

// Decision actions emitted by the CEO.
const (
	ActionLong  = "LONG"
	ActionShort = "SHORT"
	ActionWait  = "WAIT"
)

// TradingDecision is the single structured result of a successful run. Price
// fields are free-form strings because the model may answer with ranges
// ("$65,200 - $65,500").
type TradingDecision struct {
	Action     string `json:"action"`
	Confidence int    `json:"confidence"`
	EntryPrice string `json:"entryPrice"`
	StopLoss   string `json:"stopLoss"`
	TakeProfit string `json:"takeProfit"`
	Reasoning  string `json:"reasoning"`
}

// OrderBook holds the top levels of the book. Bids and asks are
// [price, quantity] string pairs as delivered by the exchange.
type OrderBook struct {
	LastUpdateID int64       `json:"lastUpdateId"`
	Bids         [][2]string `json:"bids"`
	Asks         [][2]string `json:"asks"`
}

// FundingRate is the current premium-index snapshot for a perpetual contract.
type FundingRate struct {
	Symbol          string `json:"symbol"`
	MarkPrice       string `json:"markPrice"`
	LastFundingRate string `json:"lastFundingRate"`
	NextFundingTime int64  `json:"nextFundingTime"`
}

// GasOracle carries the chain-explorer gas price tiers in gwei.
type GasOracle struct {
	SafeGasPrice    string `json:"safeGasPrice"`
	ProposeGasPrice string `json:"proposeGasPrice"`
	FastGasPrice    string `json:"fastGasPrice"`
	SuggestBaseFee  string `json:"suggestBaseFee"`
}

// Signals bundles the optional supplemental market context fetched once per
// run. Any field may be nil; absence is non-fatal.
type Signals struct {
	OrderBook   *OrderBook
	FundingRate *FundingRate
	GasOracle   *GasOracle
}

// UserPosition describes an open position supplied by the operator, injected
// into prompts when position context is enabled.
type UserPosition struct {
	Type             string `json:"type"` // LONG or SHORT
	EntryPrice       string `json:"entryPrice"`
	Leverage         string `json:"leverage"`
	LiquidationPrice string `json:"liquidationPrice,omitempty"`
}
