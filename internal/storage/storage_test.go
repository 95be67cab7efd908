package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/arslanov-m/macdscan/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStorage_LoadEmpty(t *testing.T) {
	s := newTestStorage(t)
	state, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(state) != 0 {
		t.Errorf("fresh store returned non-empty state: %+v", state)
	}
}

func TestStorage_SaveLoadRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	want := models.StateMap{
		"BTCUSDT-4h": {LastCandleTime: 1700000000000},
		"ETHUSDT-4h": {LastCandleTime: 1700000400000, EscalationFired: true},
	}
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d keys, want %d", len(got), len(want))
	}
	for k, w := range want {
		g, ok := got.Get(k)
		if !ok {
			t.Errorf("missing key %s", k)
			continue
		}
		if g != w {
			t.Errorf("key %s = %+v, want %+v", k, g, w)
		}
	}
}

func TestStorage_SaveReplacesState(t *testing.T) {
	s := newTestStorage(t)
	if err := s.Save(models.StateMap{
		"BTCUSDT-4h": {LastCandleTime: 1000},
		"ETHUSDT-4h": {LastCandleTime: 2000},
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(models.StateMap{
		"BTCUSDT-4h": {LastCandleTime: 5000, EscalationFired: true},
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d keys, want 1 (save replaces whole map)", len(got))
	}
	if st := got["BTCUSDT-4h"]; st.LastCandleTime != 5000 || !st.EscalationFired {
		t.Errorf("unexpected state: %+v", st)
	}
}

func TestStorage_RecordAndRecentSignals(t *testing.T) {
	s := newTestStorage(t)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		sig := models.Signal{
			ID:         uuid.New().String(),
			Symbol:     fmt.Sprintf("SYM%dUSDT", i),
			Timeframe:  models.Timeframe4h,
			Kind:       models.SignalKindPrimary,
			CandleTime: int64(i) * 1000,
			Message:    fmt.Sprintf("signal %d", i),
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.Record(sig); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := s.RecentSignals(3)
	if err != nil {
		t.Fatalf("RecentSignals: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d signals, want 3", len(got))
	}
	if got[0].Symbol != "SYM4USDT" || got[2].Symbol != "SYM2USDT" {
		t.Errorf("signals not newest first: %v, %v", got[0].Symbol, got[2].Symbol)
	}
	if got[0].Kind != models.SignalKindPrimary || got[0].Timeframe != models.Timeframe4h {
		t.Errorf("round-trip mangled signal: %+v", got[0])
	}
}

func TestStorage_RecentSignalsEmpty(t *testing.T) {
	s := newTestStorage(t)
	got, err := s.RecentSignals(10)
	if err != nil {
		t.Fatalf("RecentSignals: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no signals, got %+v", got)
	}
}
