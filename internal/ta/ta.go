package ta

import (
	"math"

	"raven-trader/internal/types"
)

// All functions return math.NaN() when the series is too short for the window.

func SMA(closes []float64, n int) float64 {
	if len(closes) < n || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - n; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(n)
}

// EMA seeds with the SMA of the first n closes, then applies the standard
// recurrence with k = 2/(n+1) over the rest of the series in order.
func EMA(closes []float64, n int) float64 {
	if len(closes) < n || n <= 0 {
		return math.NaN()
	}
	k := 2.0 / float64(n+1)
	ema := SMA(closes[:n], n)
	for i := n; i < len(closes); i++ {
		ema = closes[i]*k + ema*(1-k)
	}
	return ema
}

func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 || period <= 0 {
		return math.NaN()
	}
	gain, loss := 0.0, 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		return 100.0
	}
	rs := (gain / float64(period)) / (loss / float64(period))
	return 100.0 - (100.0 / (1.0 + rs))
}

// Alignment classifies the ordering of short/mid/long moving averages as a
// trend-strength proxy.
func Alignment(smaShort, emaMid, smaLong float64) types.Alignment {
	if math.IsNaN(smaShort) || math.IsNaN(emaMid) || math.IsNaN(smaLong) {
		return types.AlignUnknown
	}
	if smaShort > emaMid && emaMid > smaLong {
		return types.AlignBullish
	}
	if smaLong > emaMid && emaMid > smaShort {
		return types.AlignBearish
	}
	return types.AlignMixed
}
