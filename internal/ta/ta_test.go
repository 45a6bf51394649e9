package ta

import (
	"math"
	"testing"

	"raven-trader/internal/types"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}

	if got := SMA(closes, 5); !almostEqual(got, 3) {
		t.Errorf("SMA(5) = %f, want 3", got)
	}
	if got := SMA(closes, 2); !almostEqual(got, 4.5) {
		t.Errorf("SMA(2) = %f, want 4.5", got)
	}
	if got := SMA(closes, 6); !math.IsNaN(got) {
		t.Errorf("SMA with short series = %f, want NaN", got)
	}
	if got := SMA(closes, 0); !math.IsNaN(got) {
		t.Errorf("SMA with zero period = %f, want NaN", got)
	}
}

func TestEMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}

	// Seed = SMA(1,2,3) = 2, k = 0.5:
	// ema = 4*0.5 + 2*0.5 = 3; ema = 5*0.5 + 3*0.5 = 4
	if got := EMA(closes, 3); !almostEqual(got, 4) {
		t.Errorf("EMA(3) = %f, want 4", got)
	}
	// With exactly n points the EMA equals the seed SMA.
	if got := EMA(closes, 5); !almostEqual(got, 3) {
		t.Errorf("EMA(5) = %f, want 3", got)
	}
	if got := EMA(closes[:2], 3); !math.IsNaN(got) {
		t.Errorf("EMA with short series = %f, want NaN", got)
	}
}

func TestRSIAllGains(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	// Monotonically rising: avgLoss is zero, RSI must be exactly 100.
	if got := RSI(closes, 14); got != 100.0 {
		t.Errorf("RSI on all-gains window = %f, want exactly 100", got)
	}
}

func TestRSIMixed(t *testing.T) {
	// 14 deltas alternating +2/-1 starting from 10.
	closes := []float64{10}
	for i := 0; i < 14; i++ {
		prev := closes[len(closes)-1]
		if i%2 == 0 {
			closes = append(closes, prev+2)
		} else {
			closes = append(closes, prev-1)
		}
	}
	got := RSI(closes, 14)
	if math.IsNaN(got) || got <= 0 || got >= 100 {
		t.Fatalf("RSI = %f, want a value strictly inside (0, 100)", got)
	}
	// gains = 7*2 = 14, losses = 7*1 = 7, rs = 2, rsi = 100 - 100/3
	want := 100.0 - 100.0/3.0
	if !almostEqual(got, want) {
		t.Errorf("RSI = %f, want %f", got, want)
	}
}

func TestRSIInsufficient(t *testing.T) {
	closes := []float64{1, 2, 3}
	if got := RSI(closes, 14); !math.IsNaN(got) {
		t.Errorf("RSI with short series = %f, want NaN", got)
	}
}

func TestDeterminism(t *testing.T) {
	closes := []float64{5.5, 6.1, 5.9, 6.3, 7.0, 6.8, 7.2, 7.1, 7.5, 8.0,
		7.9, 8.3, 8.1, 8.6, 9.0, 8.8, 9.2, 9.5, 9.3, 9.9}
	for i := 0; i < 3; i++ {
		if a, b := SMA(closes, 9), SMA(closes, 9); a != b {
			t.Fatalf("SMA not deterministic: %v != %v", a, b)
		}
		if a, b := EMA(closes, 9), EMA(closes, 9); a != b {
			t.Fatalf("EMA not deterministic: %v != %v", a, b)
		}
		if a, b := RSI(closes, 14), RSI(closes, 14); a != b {
			t.Fatalf("RSI not deterministic: %v != %v", a, b)
		}
	}
}

func TestAlignment(t *testing.T) {
	nan := math.NaN()
	cases := []struct {
		name             string
		short, mid, long float64
		want             types.Alignment
	}{
		{"bullish", 3, 2, 1, types.AlignBullish},
		{"bearish", 1, 2, 3, types.AlignBearish},
		{"mixed", 2, 1, 3, types.AlignMixed},
		{"equal is mixed", 2, 2, 2, types.AlignMixed},
		{"nan short", nan, 2, 1, types.AlignUnknown},
		{"nan mid", 3, nan, 1, types.AlignUnknown},
		{"nan long", 3, 2, nan, types.AlignUnknown},
	}
	for _, tc := range cases {
		if got := Alignment(tc.short, tc.mid, tc.long); got != tc.want {
			t.Errorf("%s: Alignment(%v,%v,%v) = %s, want %s", tc.name, tc.short, tc.mid, tc.long, got, tc.want)
		}
	}
}
