package indicator

import (
	"fmt"

	talib "github.com/markcheno/go-talib"
)

type talibEngine struct {
	fallback Engine
}

// NewAccelerated returns the go-talib backed engine. RSI uses Wilder
// smoothing and Bollinger uses the population standard deviation, following
// the library. Positions inside the library lookback are undefined.
// Parameters the library rejects (periods below 2) are served by the
// fallback recurrence.
func NewAccelerated() Engine { return talibEngine{fallback: NewFallback()} }

func (talibEngine) Name() string { return "accelerated" }

func (e talibEngine) RSI(closes []float64, period int) (Series, error) {
	if err := checkPeriods(period); err != nil {
		return nil, err
	}
	if err := checkFinite(closes); err != nil {
		return nil, err
	}
	if period < 2 {
		return e.fallback.RSI(closes, period)
	}
	n := len(closes)
	out := undefinedSeries(n)
	lookback := period
	if n <= lookback {
		return out, nil
	}

	var raw []float64
	if err := guard("rsi", func() { raw = talib.Rsi(closes, period) }); err != nil {
		return nil, err
	}
	fill(out, raw, lookback)
	// a window without any move is 0/0, not 0
	flat := 0
	for i := 1; i < n; i++ {
		if closes[i] == closes[i-1] {
			flat++
		} else {
			flat = 0
		}
		if i >= lookback && flat >= period {
			out[i] = None()
		}
	}
	return out, nil
}

func (e talibEngine) MACD(closes []float64, fast, slow, signal int) (MACDResult, error) {
	if err := checkPeriods(fast, slow, signal); err != nil {
		return MACDResult{}, err
	}
	if err := checkFinite(closes); err != nil {
		return MACDResult{}, err
	}
	if fast < 2 || slow < 2 {
		return e.fallback.MACD(closes, fast, slow, signal)
	}
	n := len(closes)
	res := MACDResult{MACD: undefinedSeries(n), Signal: undefinedSeries(n), Histogram: undefinedSeries(n)}
	lookback := max(fast, slow) - 1 + signal - 1
	if n <= lookback {
		return res, nil
	}

	// talib.Macd seeds its signal EMA over the zero-padded line, so the
	// signal is rebuilt from the defined part of the line instead.
	first := max(fast, slow) - 1
	var fastEMA, slowEMA, sig []float64
	if err := guard("macd", func() {
		fastEMA = talib.Ema(closes, fast)
		slowEMA = talib.Ema(closes, slow)
		line := make([]float64, n-first)
		for i := range line {
			line[i] = fastEMA[first+i] - slowEMA[first+i]
		}
		sig = talib.Ema(line, signal)
	}); err != nil {
		return MACDResult{}, err
	}
	for i := lookback; i < n; i++ {
		res.MACD[i] = Some(fastEMA[i] - slowEMA[i])
		res.Signal[i] = Some(sig[i-first])
	}
	res.Histogram = histogramOf(res.MACD, res.Signal)
	return res, nil
}

func (e talibEngine) Bollinger(closes []float64, period int, stdDev float64) (BollingerResult, error) {
	if err := checkPeriods(period); err != nil {
		return BollingerResult{}, err
	}
	if err := checkStdDev(stdDev); err != nil {
		return BollingerResult{}, err
	}
	if err := checkFinite(closes); err != nil {
		return BollingerResult{}, err
	}
	if period < 2 {
		return e.fallback.Bollinger(closes, period, stdDev)
	}
	n := len(closes)
	res := BollingerResult{Upper: undefinedSeries(n), Middle: undefinedSeries(n), Lower: undefinedSeries(n)}
	lookback := period - 1
	if n <= lookback {
		return res, nil
	}

	var upper, middle, lower []float64
	if err := guard("bbands", func() {
		upper, middle, lower = talib.BBands(closes, period, stdDev, stdDev, talib.SMA)
	}); err != nil {
		return BollingerResult{}, err
	}
	fill(res.Upper, upper, lookback)
	fill(res.Middle, middle, lookback)
	fill(res.Lower, lower, lookback)
	return res, nil
}

// fill copies raw[from:] into out; the library pads its lookback with zeros.
func fill(out Series, raw []float64, from int) {
	for i := from; i < len(out) && i < len(raw); i++ {
		out[i] = Some(raw[i])
	}
}

func guard(name string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: talib %s: %v", ErrMalformedInput, name, r)
		}
	}()
	fn()
	return nil
}
