package usecase

import (
	"time"

	"OsloScan/internal/domain/models"
	"OsloScan/internal/indicator"
)

// indicatorOutputs bundles the full-length engine outputs for one series.
type indicatorOutputs struct {
	rsi       indicator.Series
	macd      indicator.MACDResult
	bollinger indicator.BollingerResult
}

// formatSnapshot reduces engine outputs to the latest-value record served
// by the indicators endpoint. Undefined positions stay undefined.
func formatSnapshot(ticker string, series *models.PriceSeries, out indicatorOutputs, engine string) *models.IndicatorSnapshot {
	latest := series.Latest()
	volumes := series.Volumes()

	return &models.IndicatorSnapshot{
		Ticker:      ticker,
		Symbol:      series.Symbol,
		LatestPrice: latest.Close,
		RSI:         out.rsi.Last(),
		MACD: models.MACDSnapshot{
			MACD:      out.macd.MACD.Last(),
			Signal:    out.macd.Signal.Last(),
			Histogram: out.macd.Histogram.Last(),
		},
		BollingerBands: models.BollingerSnapshot{
			Upper:  out.bollinger.Upper.Last(),
			Middle: out.bollinger.Middle.Last(),
			Lower:  out.bollinger.Lower.Last(),
		},
		Volume: models.VolumeSnapshot{
			Current:    latest.Volume,
			Average:    indicator.Mean(volumes),
			SpikeRatio: indicator.VolumeSpike(volumes),
		},
		Timestamp: latest.Time.Format(time.RFC3339),
		Bars:      series.Len(),
		Engine:    engine,
	}
}
