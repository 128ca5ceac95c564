// Package indicator computes RSI, MACD, Bollinger Bands and the volume-spike
// ratio over daily close/volume arrays.
//
// Two Engine variants exist: an accelerated one backed by go-talib and a
// closed-form fallback. The variant is picked once through a Capability and
// injected where it is needed.
package indicator

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidPeriod is returned for non-positive window parameters.
	ErrInvalidPeriod = errors.New("indicator: invalid period")
	// ErrMalformedInput is returned for non-finite samples or library failures.
	ErrMalformedInput = errors.New("indicator: malformed input")
)

// Engine is implemented by every indicator backend.
type Engine interface {
	Name() string
	RSI(closes []float64, period int) (Series, error)
	MACD(closes []float64, fast, slow, signal int) (MACDResult, error)
	Bollinger(closes []float64, period int, stdDev float64) (BollingerResult, error)
}

// MACDResult holds the three aligned MACD lines.
type MACDResult struct {
	MACD      Series
	Signal    Series
	Histogram Series
}

// BollingerResult holds the three aligned bands.
type BollingerResult struct {
	Upper  Series
	Middle Series
	Lower  Series
}

// Params are the indicator windows used by the service.
type Params struct {
	RSIPeriod       int
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
	BollingerPeriod int
	BollingerStdDev float64
}

// DefaultParams returns RSI 14, MACD 12/26/9 and Bollinger 20/2.
func DefaultParams() Params {
	return Params{
		RSIPeriod:       14,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BollingerPeriod: 20,
		BollingerStdDev: 2,
	}
}

func checkPeriods(periods ...int) error {
	for _, p := range periods {
		if p <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidPeriod, p)
		}
	}
	return nil
}

func checkFinite(xs []float64) error {
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: sample %d is %v", ErrMalformedInput, i, x)
		}
	}
	return nil
}

func checkStdDev(k float64) error {
	if math.IsNaN(k) || math.IsInf(k, 0) || k < 0 {
		return fmt.Errorf("%w: std dev multiplier %v", ErrMalformedInput, k)
	}
	return nil
}

// histogramOf recomputes macd - signal wherever both lines are defined.
func histogramOf(macd, signal Series) Series {
	out := make(Series, len(macd))
	for i := range macd {
		m, ok1 := macd[i].Get()
		s, ok2 := signal[i].Get()
		if ok1 && ok2 {
			out[i] = Some(m - s)
		}
	}
	return out
}
