package agents

import "math"

// Indicator helpers feeding the prompt's market data table. All of them
// return a slice aligned with the input, padded with NaN where the lookback
// is not yet filled.

func sma(data []float64, period int) []float64 {
	out := make([]float64, len(data))
	sum := 0.0
	for i, v := range data {
		sum += v
		if i >= period {
			sum -= data[i-period]
		}
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(period)
	}
	return out
}

func stdDev(data []float64, period int, mean []float64) []float64 {
	out := make([]float64, len(data))
	for i := range data {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		variance := 0.0
		for _, v := range data[i-period+1 : i+1] {
			d := v - mean[i]
			variance += d * d
		}
		out[i] = math.Sqrt(variance / float64(period))
	}
	return out
}

// rsi is Wilder's smoothed RSI.
func rsi(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(prices) <= period {
		return out
	}

	gains, losses := 0.0, 0.0
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	out[period] = 100 - 100/(1+safeRatio(avgGain, avgLoss))

	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = 100 - 100/(1+safeRatio(avgGain, avgLoss))
	}
	return out
}

// safeRatio avoids a 0/0 RS when the window is perfectly flat.
func safeRatio(gain, loss float64) float64 {
	if loss == 0 {
		if gain == 0 {
			return 1
		}
		return math.Inf(1)
	}
	return gain / loss
}
