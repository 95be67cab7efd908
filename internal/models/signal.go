package models

import "time"

// SignalKind distinguishes a primary detection from a confirmed
// escalation.
type SignalKind string

const (
	SignalKindPrimary SignalKind = "signal"
	SignalKindStrong  SignalKind = "strong"
)

// Signal is one emitted notification, as delivered and as recorded in the
// signal log.
type Signal struct {
	ID         string     `json:"id"`
	Symbol     string     `json:"symbol"`
	Timeframe  Timeframe  `json:"timeframe"`
	Kind       SignalKind `json:"kind"`
	CandleTime int64      `json:"candle_time"`
	Message    string     `json:"message"`
	CreatedAt  time.Time  `json:"created_at"`
}
