package indicator

import "math"

type fallbackEngine struct{}

// NewFallback returns the closed-form engine. RSI uses simple moving
// averages of gains and losses; MACD uses EMAs seeded at the first sample;
// Bollinger uses the sample standard deviation.
func NewFallback() Engine { return fallbackEngine{} }

func (fallbackEngine) Name() string { return "fallback" }

func (fallbackEngine) RSI(closes []float64, period int) (Series, error) {
	if err := checkPeriods(period); err != nil {
		return nil, err
	}
	if err := checkFinite(closes); err != nil {
		return nil, err
	}
	n := len(closes)
	out := undefinedSeries(n)
	if n < period {
		return out, nil
	}

	// position 0 has no delta and contributes neither gain nor loss
	gain := make([]float64, n)
	loss := make([]float64, n)
	for i := 1; i < n; i++ {
		d := closes[i] - closes[i-1]
		switch {
		case d > 0:
			gain[i] = d
		case d < 0:
			loss[i] = -d
		}
	}

	avgGain := rollingMean(gain, period)
	avgLoss := rollingMean(loss, period)
	for i := period - 1; i < n; i++ {
		g, l := avgGain[i].Float(), avgLoss[i].Float()
		switch {
		case l == 0 && g == 0:
			// flat window: 0/0 stays undefined
		case l == 0:
			out[i] = Some(100)
		default:
			rs := g / l
			out[i] = Some(100 - 100/(1+rs))
		}
	}
	return out, nil
}

func (fallbackEngine) MACD(closes []float64, fast, slow, signal int) (MACDResult, error) {
	if err := checkPeriods(fast, slow, signal); err != nil {
		return MACDResult{}, err
	}
	if err := checkFinite(closes); err != nil {
		return MACDResult{}, err
	}
	n := len(closes)
	if n == 0 {
		return MACDResult{MACD: Series{}, Signal: Series{}, Histogram: Series{}}, nil
	}

	fastEMA := ema(closes, fast)
	slowEMA := ema(closes, slow)
	line := make([]float64, n)
	for i := range line {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	sig := ema(line, signal)

	res := MACDResult{MACD: make(Series, n), Signal: make(Series, n)}
	for i := 0; i < n; i++ {
		res.MACD[i] = Some(line[i])
		res.Signal[i] = Some(sig[i])
	}
	res.Histogram = histogramOf(res.MACD, res.Signal)
	return res, nil
}

func (fallbackEngine) Bollinger(closes []float64, period int, stdDev float64) (BollingerResult, error) {
	if err := checkPeriods(period); err != nil {
		return BollingerResult{}, err
	}
	if err := checkStdDev(stdDev); err != nil {
		return BollingerResult{}, err
	}
	if err := checkFinite(closes); err != nil {
		return BollingerResult{}, err
	}
	n := len(closes)
	res := BollingerResult{
		Upper:  undefinedSeries(n),
		Middle: undefinedSeries(n),
		Lower:  undefinedSeries(n),
	}
	// the sample std of a single observation is undefined
	if period < 2 || n < period {
		return res, nil
	}

	for i := period - 1; i < n; i++ {
		window := closes[i-period+1 : i+1]
		mean := Mean(window)
		var ss float64
		for _, x := range window {
			d := x - mean
			ss += d * d
		}
		sd := math.Sqrt(ss / float64(period-1))
		res.Middle[i] = Some(mean)
		res.Upper[i] = Some(mean + stdDev*sd)
		res.Lower[i] = Some(mean - stdDev*sd)
	}
	return res, nil
}

// ema seeds with xs[0]; alpha = 2/(span+1).
func ema(xs []float64, span int) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	alpha := 2 / (float64(span) + 1)
	out[0] = xs[0]
	for i := 1; i < len(xs); i++ {
		out[i] = alpha*xs[i] + (1-alpha)*out[i-1]
	}
	return out
}

func rollingMean(xs []float64, period int) Series {
	out := undefinedSeries(len(xs))
	for i := period - 1; i < len(xs); i++ {
		out[i] = Some(Mean(xs[i-period+1 : i+1]))
	}
	return out
}
