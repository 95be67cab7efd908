package scanner

import (
	"context"
	"fmt"
	"sync"

	"github.com/arslanov-m/macdscan/internal/logger"
	"github.com/arslanov-m/macdscan/internal/models"
)

// InstrumentProvider supplies the tradable universe.
type InstrumentProvider interface {
	Instruments(ctx context.Context, quoteCoin string) ([]string, error)
}

// Notifier delivers signal messages. Delivery is best effort; failures are
// logged and never abort a cycle.
type Notifier interface {
	Send(text string) error
}

// StateStore persists the dedup state between cycles.
type StateStore interface {
	Load() (models.StateMap, error)
	Save(models.StateMap) error
}

// SignalLog records emitted signals for later inspection.
type SignalLog interface {
	Record(models.Signal) error
}

// Config carries the cycle orchestration knobs.
type Config struct {
	Workers   int
	QuoteCoin string
	Fast      int
	Slow      int
	Signal    int
}

// Scanner fans the reconciler out across the instrument universe once per
// cycle, merges the resulting state deltas, and persists the merged state.
type Scanner struct {
	instruments InstrumentProvider
	reconciler  *Reconciler
	store       StateStore
	notifier    Notifier
	signalLog   SignalLog
	workers     int
	quoteCoin   string
}

// New creates a Scanner. notifier and signalLog may be nil, which disables
// delivery and logging respectively.
func New(instruments InstrumentProvider, series SeriesProvider, store StateStore, notifier Notifier, signalLog SignalLog, cfg Config) *Scanner {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 10
	}
	quoteCoin := cfg.QuoteCoin
	if quoteCoin == "" {
		quoteCoin = "USDT"
	}
	return &Scanner{
		instruments: instruments,
		reconciler:  NewReconciler(series, cfg.Fast, cfg.Slow, cfg.Signal),
		store:       store,
		notifier:    notifier,
		signalLog:   signalLog,
		workers:     workers,
		quoteCoin:   quoteCoin,
	}
}

type symbolResult struct {
	symbol  string
	delta   models.StateMap
	signals []models.Signal
}

// RunCycle performs one full scan: load state, fetch the universe,
// reconcile every symbol with bounded parallelism against a private
// snapshot of the cycle-start state, deliver notifications as results
// complete, merge deltas serially, and persist the merged state once.
func (s *Scanner) RunCycle(ctx context.Context, force bool) error {
	state, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	symbols, err := s.instruments.Instruments(ctx, s.quoteCoin)
	if err != nil {
		return fmt.Errorf("fetch instruments: %w", err)
	}
	if len(symbols) == 0 {
		logger.Warn("No instruments fetched, skipping cycle")
		return nil
	}
	logger.Info("Scanning %d %s instruments (force=%v)", len(symbols), s.quoteCoin, force)

	jobs := make(chan string)
	results := make(chan symbolResult)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				delta, signals := s.reconcileSafely(ctx, symbol, state.Clone(), force)
				results <- symbolResult{symbol: symbol, delta: delta, signals: signals}
			}
		}()
	}

	go func() {
		for _, symbol := range symbols {
			jobs <- symbol
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	merged := state
	delivered := 0
	for res := range results {
		merged = models.Merge(merged, res.delta)
		for _, sig := range res.signals {
			s.deliver(sig)
			delivered++
		}
	}

	if err := s.store.Save(merged); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	logger.Info("Cycle complete: %d notifications, %d state keys", delivered, len(merged))
	return nil
}

// reconcileSafely contains per-symbol faults so one bad instrument cannot
// abort the cycle.
func (s *Scanner) reconcileSafely(ctx context.Context, symbol string, snapshot models.StateMap, force bool) (delta models.StateMap, signals []models.Signal) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Reconciliation panic for %s: %v", symbol, rec)
			delta, signals = models.StateMap{}, nil
		}
	}()
	return s.reconciler.Reconcile(ctx, symbol, snapshot, force)
}

func (s *Scanner) deliver(sig models.Signal) {
	if s.notifier != nil {
		if err := s.notifier.Send(sig.Message); err != nil {
			logger.Error("Failed to send notification for %s: %v", sig.Symbol, err)
		}
	}
	if s.signalLog != nil {
		if err := s.signalLog.Record(sig); err != nil {
			logger.Warn("Failed to record signal for %s: %v", sig.Symbol, err)
		}
	}
}
