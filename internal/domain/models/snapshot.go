package models

import "OsloScan/internal/indicator"

// IndicatorSnapshot is the latest value of every indicator for one ticker.
// Undefined values encode as JSON null.
type IndicatorSnapshot struct {
	Ticker         string            `json:"ticker"`
	Symbol         string            `json:"symbol"`
	LatestPrice    float64           `json:"latest_price"`
	RSI            indicator.Value   `json:"rsi"`
	MACD           MACDSnapshot      `json:"macd"`
	BollingerBands BollingerSnapshot `json:"bollinger_bands"`
	Volume         VolumeSnapshot    `json:"volume"`
	Timestamp      string            `json:"timestamp"`
	Bars           int               `json:"bars"`
	Engine         string            `json:"engine"`
}

type MACDSnapshot struct {
	MACD      indicator.Value `json:"macd"`
	Signal    indicator.Value `json:"signal"`
	Histogram indicator.Value `json:"histogram"`
}

type BollingerSnapshot struct {
	Upper  indicator.Value `json:"upper"`
	Middle indicator.Value `json:"middle"`
	Lower  indicator.Value `json:"lower"`
}

type VolumeSnapshot struct {
	Current    float64 `json:"current"`
	Average    float64 `json:"average"`
	SpikeRatio float64 `json:"spike_ratio"`
}
