package market

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/qiuyin/AgentDesk/internal/models"
)

// depthLevels is how many book levels from each side go into the prompt.
const depthLevels = 10

// DepthContext renders the top book levels as prompt context for the
// short-term analyst. Quantities arrive as exchange strings; sums go through
// decimal so the cumulative volumes in the prompt don't pick up float
// artifacts.
func DepthContext(book *models.OrderBook) string {
	if book == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Top %d Bids:\n", depthLevels))
	bidTotal := writeLevels(&b, book.Bids)
	b.WriteString(fmt.Sprintf("Top %d Asks:\n", depthLevels))
	askTotal := writeLevels(&b, book.Asks)

	b.WriteString(fmt.Sprintf("Cumulative Bid Vol: %s | Cumulative Ask Vol: %s",
		bidTotal.String(), askTotal.String()))
	return b.String()
}

func writeLevels(b *strings.Builder, levels [][2]string) decimal.Decimal {
	total := decimal.Zero
	for i, lvl := range levels {
		if i >= depthLevels {
			break
		}
		b.WriteString(fmt.Sprintf("Price: %s, Vol: %s\n", lvl[0], lvl[1]))
		if qty, err := decimal.NewFromString(lvl[1]); err == nil {
			total = total.Add(qty)
		}
	}
	return total
}

// FundingContext renders the funding snapshot for the quant analyst. The raw
// rate is also expressed as a percentage, again via decimal to keep the tiny
// magnitudes exact.
func FundingContext(rate *models.FundingRate) string {
	if rate == nil {
		return ""
	}

	line := fmt.Sprintf("Current Funding Rate: %s", rate.LastFundingRate)
	if r, err := decimal.NewFromString(rate.LastFundingRate); err == nil {
		line += fmt.Sprintf(" (%s%%)", r.Mul(decimal.NewFromInt(100)).String())
	}
	next := time.UnixMilli(rate.NextFundingTime)
	return fmt.Sprintf("%s\nMark Price: %s\nNext Funding Time: %s",
		line, rate.MarkPrice, next.Format("15:04:05"))
}

// GasContext renders the gas oracle tiers for the on-chain analyst.
func GasContext(gas *models.GasOracle) string {
	if gas == nil {
		return ""
	}
	return fmt.Sprintf("ETH Gas (Gwei) - Safe: %s, Propose: %s, Fast: %s",
		gas.SafeGasPrice, gas.ProposeGasPrice, gas.FastGasPrice)
}
