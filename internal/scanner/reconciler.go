// Package scanner implements per-symbol signal reconciliation and the
// cycle orchestration across the instrument universe.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arslanov-m/macdscan/internal/indicator"
	"github.com/arslanov-m/macdscan/internal/logger"
	"github.com/arslanov-m/macdscan/internal/models"
)

// SeriesProvider supplies candle series per symbol and timeframe.
type SeriesProvider interface {
	Klines(ctx context.Context, symbol string, tf models.Timeframe) (models.Series, error)
}

// Reconciler evaluates one symbol against a snapshot of the dedup state.
type Reconciler struct {
	provider SeriesProvider
	fast     int
	slow     int
	signal   int
}

func NewReconciler(provider SeriesProvider, fast, slow, signal int) *Reconciler {
	return &Reconciler{provider: provider, fast: fast, slow: slow, signal: signal}
}

// Reconcile inspects the symbol's primary timeframe and, when the primary
// event was already reported for the current candle, its confirmation
// timeframes. It returns the state delta to merge into the cycle
// accumulator and any notifications to deliver. snapshot is never
// modified; fetch failures yield an empty delta, not an error.
func (r *Reconciler) Reconcile(ctx context.Context, symbol string, snapshot models.StateMap, force bool) (models.StateMap, []models.Signal) {
	delta := models.StateMap{}

	primary, err := r.provider.Klines(ctx, symbol, models.PrimaryTimeframe)
	if err != nil {
		logger.Warn("Failed to fetch %s %s klines: %v", symbol, models.PrimaryTimeframe, err)
		return delta, nil
	}
	if len(primary) == 0 {
		return delta, nil
	}

	frame := indicator.MACD(primary, r.fast, r.slow, r.signal)
	key := models.StateKey(symbol, models.PrimaryTimeframe)
	prev, exists := snapshot.Get(key)

	if !indicator.FirstGreen(frame) {
		// The escalation flag is only valid while the primary event persists.
		if exists && prev.EscalationFired {
			delta.Put(key, models.SignalState{LastCandleTime: prev.LastCandleTime})
		}
		return delta, nil
	}

	candleTime := primary[len(primary)-1].Start
	if candleTime != prev.LastCandleTime || force {
		// A fresh primary event resets escalation eligibility.
		delta.Put(key, models.SignalState{LastCandleTime: candleTime})
		sig := newSignal(symbol, models.PrimaryTimeframe, models.SignalKindPrimary, candleTime,
			fmt.Sprintf("⚡ Signal: %s → First Green MACD Histogram on 4H", symbol))
		return delta, []models.Signal{sig}
	}

	if prev.EscalationFired {
		return delta, nil
	}
	aligned := r.alignedConfirmations(ctx, symbol)
	if len(aligned) == 0 {
		return delta, nil
	}

	delta.Put(key, models.SignalState{LastCandleTime: prev.LastCandleTime, EscalationFired: true})
	sig := newSignal(symbol, models.PrimaryTimeframe, models.SignalKindStrong, candleTime,
		fmt.Sprintf("🚀 STRONG SIGNAL: %s → 4H aligned with %v", symbol, aligned))
	return delta, []models.Signal{sig}
}

// alignedConfirmations returns the confirmation timeframes that show their
// own first-green crossing. A failed or empty fetch counts as not aligned.
func (r *Reconciler) alignedConfirmations(ctx context.Context, symbol string) []models.Timeframe {
	var aligned []models.Timeframe
	for _, tf := range models.ConfirmationTimeframes {
		series, err := r.provider.Klines(ctx, symbol, tf)
		if err != nil {
			logger.Debug("Skipping %s confirmation for %s: %v", tf, symbol, err)
			continue
		}
		if len(series) == 0 {
			continue
		}
		if indicator.FirstGreen(indicator.MACD(series, r.fast, r.slow, r.signal)) {
			aligned = append(aligned, tf)
		}
	}
	return aligned
}

func newSignal(symbol string, tf models.Timeframe, kind models.SignalKind, candleTime int64, message string) models.Signal {
	return models.Signal{
		ID:         uuid.New().String(),
		Symbol:     symbol,
		Timeframe:  tf,
		Kind:       kind,
		CandleTime: candleTime,
		Message:    message,
		CreatedAt:  time.Now(),
	}
}
