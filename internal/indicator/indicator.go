// Package indicator computes the MACD histogram decomposition of a candle
// series and classifies the first-green crossing event.
package indicator

import "github.com/arslanov-m/macdscan/internal/models"

// Frame holds the per-candle MACD decomposition of a series. All slices
// are parallel to the source series and share its length.
type Frame struct {
	Candles models.Series
	EMAFast []float64
	EMASlow []float64
	MACD    []float64
	Signal  []float64
	Hist    []float64
}

// EMA computes the recursive (non-adjusted) exponential moving average of
// values over the given span: alpha = 2/(span+1), seeded with the first
// value. An empty input yields nil.
func EMA(values []float64, span int) []float64 {
	if len(values) == 0 {
		return nil
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// MACD computes the full indicator frame over the series' close prices.
// The histogram is macd minus its own EMA over the signal span. The result
// always has the series' length; computation never fails.
func MACD(series models.Series, fast, slow, signal int) Frame {
	closes := series.Closes()
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)

	macd := make([]float64, len(closes))
	for i := range closes {
		macd[i] = emaFast[i] - emaSlow[i]
	}
	signalLine := EMA(macd, signal)

	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = macd[i] - signalLine[i]
	}

	return Frame{
		Candles: series,
		EMAFast: emaFast,
		EMASlow: emaSlow,
		MACD:    macd,
		Signal:  signalLine,
		Hist:    hist,
	}
}

// FirstGreen reports whether the most recently closed candle is the first
// green histogram bar: the second-to-last histogram value strictly
// negative and the last strictly positive. Frames shorter than three
// candles never qualify, and only the last two bars are inspected.
func FirstGreen(f Frame) bool {
	n := len(f.Hist)
	if n < 3 {
		return false
	}
	return f.Hist[n-2] < 0 && f.Hist[n-1] > 0
}
