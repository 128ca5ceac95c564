package indicator

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

var scenarioCloses = []float64{10, 10.5, 10.2, 10.8, 11, 10.9, 11.2, 11.5, 11.3, 11.6, 11.8, 11.9, 12, 12.2, 12.1}

func engines() []Engine {
	return []Engine{NewFallback(), NewAccelerated()}
}

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s: got %.10f want %.10f (tol %g)", label, got, want, tol)
	}
}

// lcgSeries is a deterministic random walk.
func lcgSeries(n int, seed uint32) []float64 {
	out := make([]float64, n)
	price := 100.0
	s := seed
	for i := range out {
		s = s*1664525 + 1013904223
		step := (float64(s%2001) - 1000) / 500 // [-2, 2]
		price += step
		if price < 1 {
			price = 1
		}
		out[i] = price
	}
	return out
}

func trendSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		x := float64(i)
		out[i] = 50 + x + 0.8*math.Sin(x)
	}
	return out
}

func TestFallbackRSIScenario(t *testing.T) {
	rsi, err := NewFallback().RSI(scenarioCloses, 14)
	if err != nil {
		t.Fatalf("rsi: %v", err)
	}
	if len(rsi) != len(scenarioCloses) {
		t.Fatalf("expected aligned output, got len %d", len(rsi))
	}
	if rsi[12].Valid() {
		t.Fatalf("expected index 12 undefined")
	}
	if !rsi[13].Valid() {
		t.Fatalf("expected index 13 defined")
	}
	last, ok := rsi.Last().Get()
	if !ok || last < 0 || last > 100 {
		t.Fatalf("unexpected last rsi %v (ok=%v)", last, ok)
	}
	if got := rsi.FirstDefined(); got != 13 {
		t.Fatalf("expected first defined index 13, got %d", got)
	}
}

func TestFallbackRSIHandComputed(t *testing.T) {
	// deltas: +1 -1 +2 ; window 3 at index 3 covers deltas 1..3
	rsi, err := NewFallback().RSI([]float64{10, 11, 10, 12}, 3)
	if err != nil {
		t.Fatalf("rsi: %v", err)
	}
	// at index 2: gains (0,1,0)/3, losses (0,0,1)/3 -> rs = 1 -> 50
	assertClose(t, "rsi[2]", rsi[2].Float(), 50, 1e-12)
	// at index 3: gains (1,0,2)/3, losses (0,1,0)/3 -> rs = 3 -> 75
	assertClose(t, "rsi[3]", rsi[3].Float(), 75, 1e-12)
}

func TestFallbackRSIZeroLoss(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6}
	rsi, err := NewFallback().RSI(closes, 3)
	if err != nil {
		t.Fatalf("rsi: %v", err)
	}
	if got := rsi.Last().Float(); got != 100 {
		t.Fatalf("expected 100 for only gains, got %v", got)
	}

	flat, err := NewFallback().RSI([]float64{5, 5, 5, 5, 5}, 3)
	if err != nil {
		t.Fatalf("rsi: %v", err)
	}
	if flat.Defined() != 0 {
		t.Fatalf("expected flat series to stay undefined, got %d defined", flat.Defined())
	}
}

func TestShortSeriesUndefined(t *testing.T) {
	closes := lcgSeries(19, 7)
	for _, e := range engines() {
		rsi, err := e.RSI(closes[:13], 14)
		if err != nil {
			t.Fatalf("%s rsi: %v", e.Name(), err)
		}
		if rsi.Defined() != 0 || len(rsi) != 13 {
			t.Fatalf("%s: expected 13 undefined rsi values, got %d defined of %d", e.Name(), rsi.Defined(), len(rsi))
		}
		bb, err := e.Bollinger(closes, 20, 2)
		if err != nil {
			t.Fatalf("%s bollinger: %v", e.Name(), err)
		}
		if bb.Upper.Defined()+bb.Middle.Defined()+bb.Lower.Defined() != 0 {
			t.Fatalf("%s: expected undefined bands for short series", e.Name())
		}
	}

	macd, err := NewAccelerated().MACD(closes, 12, 26, 9)
	if err != nil {
		t.Fatalf("macd: %v", err)
	}
	if macd.MACD.Defined() != 0 || macd.Signal.Defined() != 0 {
		t.Fatalf("expected accelerated macd undefined inside lookback")
	}
}

func TestRSIBounded(t *testing.T) {
	for _, seed := range []uint32{1, 42, 99, 2024} {
		closes := lcgSeries(200, seed)
		for _, e := range engines() {
			rsi, err := e.RSI(closes, 14)
			if err != nil {
				t.Fatalf("%s: %v", e.Name(), err)
			}
			if rsi.Defined() == 0 {
				t.Fatalf("%s: expected defined values", e.Name())
			}
			for i, v := range rsi {
				if f, ok := v.Get(); ok && (f < 0 || f > 100) {
					t.Fatalf("%s seed %d: rsi[%d] = %v out of range", e.Name(), seed, i, f)
				}
			}
		}
	}
}

func TestMACDHistogramExact(t *testing.T) {
	closes := lcgSeries(120, 5)
	for _, e := range engines() {
		res, err := e.MACD(closes, 12, 26, 9)
		if err != nil {
			t.Fatalf("%s: %v", e.Name(), err)
		}
		if len(res.MACD) != len(closes) || len(res.Signal) != len(closes) || len(res.Histogram) != len(closes) {
			t.Fatalf("%s: expected aligned outputs", e.Name())
		}
		for i := range res.Histogram {
			h, ok := res.Histogram[i].Get()
			if !ok {
				continue
			}
			m, _ := res.MACD[i].Get()
			s, _ := res.Signal[i].Get()
			if h != m-s {
				t.Fatalf("%s: histogram[%d] = %v, want %v", e.Name(), i, h, m-s)
			}
		}
	}
}

func TestFallbackMACDDefinedFromStart(t *testing.T) {
	res, err := NewFallback().MACD([]float64{3, 4}, 12, 26, 9)
	if err != nil {
		t.Fatalf("macd: %v", err)
	}
	if !res.MACD[0].Valid() || res.MACD[0].Float() != 0 {
		t.Fatalf("expected macd[0] = 0, got %+v", res.MACD[0])
	}
	// fast and slow EMAs both move from 3 toward 4 with alpha 2/13 and 2/27
	want := (2.0/13.0 - 2.0/27.0) * 1
	assertClose(t, "macd[1]", res.MACD[1].Float(), want, 1e-12)
}

func TestEMASeededAtFirstSample(t *testing.T) {
	got := ema([]float64{1, 2, 3}, 3)
	want := []float64{1, 1.5, 2.25}
	for i := range want {
		assertClose(t, "ema", got[i], want[i], 1e-12)
	}
}

func TestBollingerOrdering(t *testing.T) {
	closes := lcgSeries(150, 11)
	for _, e := range engines() {
		for _, k := range []float64{0, 1, 2, 3.5} {
			bb, err := e.Bollinger(closes, 20, k)
			if err != nil {
				t.Fatalf("%s: %v", e.Name(), err)
			}
			for i := range bb.Middle {
				m, ok := bb.Middle[i].Get()
				if ok != bb.Upper[i].Valid() || ok != bb.Lower[i].Valid() {
					t.Fatalf("%s: undefined positions differ at %d", e.Name(), i)
				}
				if !ok {
					if i >= 19 {
						t.Fatalf("%s: expected band defined at %d", e.Name(), i)
					}
					continue
				}
				if !(bb.Upper[i].Float() >= m && m >= bb.Lower[i].Float()) {
					t.Fatalf("%s k=%v: bands out of order at %d", e.Name(), k, i)
				}
			}
		}
	}
}

func TestFallbackBollingerSampleStd(t *testing.T) {
	bb, err := NewFallback().Bollinger([]float64{1, 2, 3, 4}, 4, 1)
	if err != nil {
		t.Fatalf("bollinger: %v", err)
	}
	sd := math.Sqrt(5.0 / 3.0)
	assertClose(t, "middle", bb.Middle[3].Float(), 2.5, 1e-12)
	assertClose(t, "upper", bb.Upper[3].Float(), 2.5+sd, 1e-12)
	assertClose(t, "lower", bb.Lower[3].Float(), 2.5-sd, 1e-12)
}

func TestEnginesAgreeOnTrend(t *testing.T) {
	closes := trendSeries(120)
	fb, acc := NewFallback(), NewAccelerated()

	fr, _ := fb.RSI(closes, 14)
	ar, _ := acc.RSI(closes, 14)
	if fr.Last().Float() <= 50 || ar.Last().Float() <= 50 {
		t.Fatalf("expected both rsi above 50 on uptrend: %v %v", fr.Last(), ar.Last())
	}

	fm, _ := fb.MACD(closes, 12, 26, 9)
	am, _ := acc.MACD(closes, 12, 26, 9)
	if fm.MACD.Last().Float() <= 0 || am.MACD.Last().Float() <= 0 {
		t.Fatalf("expected positive macd on uptrend: %v %v", fm.MACD.Last(), am.MACD.Last())
	}

	fbb, _ := fb.Bollinger(closes, 20, 2)
	abb, _ := acc.Bollinger(closes, 20, 2)
	assertClose(t, "middle band", abb.Middle.Last().Float(), fbb.Middle.Last().Float(), 1e-9)
	if fbb.Middle.FirstDefined() != abb.Middle.FirstDefined() {
		t.Fatalf("expected same undefined prefix, got %d and %d", fbb.Middle.FirstDefined(), abb.Middle.FirstDefined())
	}
}

func TestAcceleratedMACDSignalOnStraightLine(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + 0.5*float64(i)
	}
	res, err := NewAccelerated().MACD(closes, 12, 26, 9)
	if err != nil {
		t.Fatalf("macd: %v", err)
	}
	if got := res.Signal.FirstDefined(); got != 33 {
		t.Fatalf("expected signal defined from 33, got %d", got)
	}
	// both EMAs trail a straight line by (period-1)/2 steps
	for i := 33; i < len(closes); i++ {
		assertClose(t, "macd", res.MACD[i].Float(), 3.5, 1e-9)
		assertClose(t, "signal", res.Signal[i].Float(), 3.5, 1e-9)
		assertClose(t, "histogram", res.Histogram[i].Float(), 0, 1e-9)
	}
}

func TestEnginesAgreeOnHistogramSignAfterLookback(t *testing.T) {
	closes := lcgSeries(150, 11)
	fm, err := NewFallback().MACD(closes, 12, 26, 9)
	if err != nil {
		t.Fatalf("fallback macd: %v", err)
	}
	am, err := NewAccelerated().MACD(closes, 12, 26, 9)
	if err != nil {
		t.Fatalf("accelerated macd: %v", err)
	}
	for i := 33; i <= 50; i++ {
		f, a := fm.Histogram[i].Float(), am.Histogram[i].Float()
		if (f > 0) != (a > 0) {
			t.Fatalf("histogram sign differs at %d: fallback %v accelerated %v", i, f, a)
		}
	}
}

func TestFlatWindowRSIUndefined(t *testing.T) {
	flat := make([]float64, 17)
	for i := range flat {
		flat[i] = 42
	}
	for _, e := range engines() {
		rsi, err := e.RSI(flat, 14)
		if err != nil {
			t.Fatalf("%s: %v", e.Name(), err)
		}
		if n := rsi.Defined(); n != 0 {
			t.Fatalf("%s: expected no defined rsi on flat series, got %d", e.Name(), n)
		}
	}

	// movement followed by a pause: defined while a move is still in the
	// window, undefined once 14 unchanged closes fill it
	closes := lcgSeries(30, 5)
	last := closes[len(closes)-1]
	for i := 0; i < 14; i++ {
		closes = append(closes, last)
	}
	for _, e := range engines() {
		rsi, err := e.RSI(closes, 14)
		if err != nil {
			t.Fatalf("%s: %v", e.Name(), err)
		}
		if !rsi[len(closes)-2].Valid() {
			t.Fatalf("%s: expected rsi defined with one move in the window", e.Name())
		}
		if rsi.Last().Valid() {
			t.Fatalf("%s: expected undefined rsi on a flat window, got %v", e.Name(), rsi.Last().Float())
		}
	}
}

func TestInvalidInput(t *testing.T) {
	for _, e := range engines() {
		if _, err := e.RSI([]float64{1, 2, 3}, 0); !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("%s: expected ErrInvalidPeriod, got %v", e.Name(), err)
		}
		if _, err := e.MACD([]float64{1, 2}, 12, -1, 9); !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("%s: expected ErrInvalidPeriod, got %v", e.Name(), err)
		}
		if _, err := e.Bollinger([]float64{1, math.NaN(), 3}, 2, 2); !errors.Is(err, ErrMalformedInput) {
			t.Fatalf("%s: expected ErrMalformedInput, got %v", e.Name(), err)
		}
		if _, err := e.RSI([]float64{1, math.Inf(1)}, 2); !errors.Is(err, ErrMalformedInput) {
			t.Fatalf("%s: expected ErrMalformedInput, got %v", e.Name(), err)
		}
	}
}

func TestVolumeSpike(t *testing.T) {
	cases := []struct {
		name string
		in   []float64
		want float64
	}{
		{"empty", nil, 0},
		{"zero mean", []float64{0, 0, 0}, 0},
		{"latest double", []float64{1, 1, 1, 3}, 2},
		{"flat", []float64{5, 5, 5}, 1},
	}
	for _, tc := range cases {
		if got := VolumeSpike(tc.in); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestValueJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Value `json:"a"`
		B Value `json:"b"`
	}{A: None(), B: Some(1.5)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"a":null,"b":1.5}` {
		t.Fatalf("unexpected json %s", b)
	}
	if Some(math.NaN()).Valid() {
		t.Fatalf("expected NaN to collapse to undefined")
	}
}
