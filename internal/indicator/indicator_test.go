package indicator

import (
	"math"
	"reflect"
	"testing"

	"github.com/arslanov-m/macdscan/internal/models"
)

func seriesFromCloses(closes ...float64) models.Series {
	s := make(models.Series, len(closes))
	for i, c := range closes {
		s[i] = models.Candle{Start: int64(i+1) * 1000, Close: c}
	}
	return s
}

func TestEMA(t *testing.T) {
	// span 3 -> alpha 0.5: out[i] = 0.5*v[i] + 0.5*out[i-1]
	got := EMA([]float64{2, 4, 8}, 3)
	want := []float64{2, 3, 5.5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EMA = %v, want %v", got, want)
	}
}

func TestEMA_SeededWithFirstValue(t *testing.T) {
	got := EMA([]float64{42.5, 1, 1, 1}, 26)
	if got[0] != 42.5 {
		t.Errorf("EMA seed = %v, want first value 42.5", got[0])
	}
}

func TestEMA_Empty(t *testing.T) {
	if got := EMA(nil, 12); got != nil {
		t.Errorf("EMA(nil) = %v, want nil", got)
	}
}

func TestMACD_FrameLength(t *testing.T) {
	series := seriesFromCloses(10, 11, 12, 11, 10, 13)
	f := MACD(series, 12, 26, 9)

	for name, vals := range map[string][]float64{
		"EMAFast": f.EMAFast, "EMASlow": f.EMASlow,
		"MACD": f.MACD, "Signal": f.Signal, "Hist": f.Hist,
	} {
		if len(vals) != len(series) {
			t.Errorf("%s length = %d, want %d", name, len(vals), len(series))
		}
	}
	for i := range series {
		if f.Hist[i] != f.MACD[i]-f.Signal[i] {
			t.Errorf("Hist[%d] = %v, want MACD-Signal = %v", i, f.Hist[i], f.MACD[i]-f.Signal[i])
		}
	}
}

func TestMACD_Empty(t *testing.T) {
	f := MACD(nil, 12, 26, 9)
	if len(f.Hist) != 0 || len(f.MACD) != 0 {
		t.Errorf("empty series produced non-empty frame: %+v", f)
	}
}

func TestMACD_Deterministic(t *testing.T) {
	series := seriesFromCloses(100.1, 99.7, 101.3, 102.05, 98.4, 97.77, 103.2, 104.9)
	a := MACD(series, 12, 26, 9)
	b := MACD(series, 12, 26, 9)
	for i := range a.Hist {
		if math.Float64bits(a.Hist[i]) != math.Float64bits(b.Hist[i]) {
			t.Fatalf("Hist[%d] not bit-identical: %v vs %v", i, a.Hist[i], b.Hist[i])
		}
		if math.Float64bits(a.Signal[i]) != math.Float64bits(b.Signal[i]) {
			t.Fatalf("Signal[%d] not bit-identical: %v vs %v", i, a.Signal[i], b.Signal[i])
		}
	}
}

// MACD with fast=1, slow=3, signal=2 over closes [10 9 8 12] yields a
// histogram that is negative on the third bar and positive on the fourth.
func TestMACD_CrossingSeries(t *testing.T) {
	f := MACD(seriesFromCloses(10, 9, 8, 12), 1, 3, 2)
	n := len(f.Hist)
	if !(f.Hist[n-2] < 0 && f.Hist[n-1] > 0) {
		t.Errorf("expected negative-to-positive histogram tail, got %v", f.Hist)
	}
	if !FirstGreen(f) {
		t.Error("FirstGreen = false for a crossing frame")
	}
}

func TestFirstGreen(t *testing.T) {
	tests := []struct {
		name string
		hist []float64
		want bool
	}{
		{"crossing", []float64{-0.4, -0.1, 0.2}, true},
		{"crossing after earlier green", []float64{0.5, -0.1, 0.2}, true},
		{"still negative", []float64{-0.4, -0.2, -0.1}, false},
		{"already green", []float64{-0.1, 0.1, 0.2}, false},
		{"turned red", []float64{0.2, 0.1, -0.05}, false},
		{"zero before", []float64{-0.1, 0, 0.2}, false},
		{"zero after", []float64{-0.2, -0.1, 0}, false},
		{"two bars only", []float64{-0.1, 0.2}, false},
		{"one bar", []float64{0.2}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstGreen(Frame{Hist: tt.hist}); got != tt.want {
				t.Errorf("FirstGreen(%v) = %v, want %v", tt.hist, got, tt.want)
			}
		})
	}
}
