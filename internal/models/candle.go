// Package models defines the core domain entities: candles, timeframes,
// signals, and per-key dedup state.
package models

// Candle is a single OHLCV bar. Start is the candle open time in epoch
// milliseconds, as returned by the exchange.
type Candle struct {
	Start    int64
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
	Turnover float64
}

// Series is an ordered sequence of candles, strictly ascending by Start
// with no duplicate timestamps.
type Series []Candle

// Closes returns the close prices of the series in order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, c := range s {
		closes[i] = c.Close
	}
	return closes
}

// Timeframe is a candle aggregation period.
type Timeframe string

const (
	Timeframe4h  Timeframe = "4h"
	Timeframe1h  Timeframe = "1h"
	Timeframe15m Timeframe = "15m"
)

// PrimaryTimeframe is the timeframe signals are detected on; the
// ConfirmationTimeframes corroborate an already-reported primary event,
// listed in evaluation order.
const PrimaryTimeframe = Timeframe4h

var ConfirmationTimeframes = []Timeframe{Timeframe1h, Timeframe15m}

// Interval returns the Bybit v5 kline interval code (minutes) for the
// timeframe, or "" for an unknown timeframe.
func (tf Timeframe) Interval() string {
	switch tf {
	case Timeframe4h:
		return "240"
	case Timeframe1h:
		return "60"
	case Timeframe15m:
		return "15"
	}
	return ""
}
