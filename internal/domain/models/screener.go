package models

import (
	"math"
	"time"
)

// MaxScreenerResults bounds ScreenerReport.Results.
const MaxScreenerResults = 10

// ScreenerCriteria are the admission thresholds. RSIMin <= RSIMax is the
// caller's responsibility; inverted bounds simply admit nothing.
type ScreenerCriteria struct {
	RSIMin      float64 `json:"rsi_min"`
	RSIMax      float64 `json:"rsi_max"`
	VolumeSpike float64 `json:"volume_spike"`
}

// DefaultCriteria returns rsi 30..70 and a 1.5x volume spike.
func DefaultCriteria() ScreenerCriteria {
	return ScreenerCriteria{RSIMin: 30, RSIMax: 70, VolumeSpike: 1.5}
}

// Admits reports whether rsi and spike pass the thresholds.
func (c ScreenerCriteria) Admits(rsi, spike float64) bool {
	return c.RSIMin <= rsi && rsi <= c.RSIMax && spike >= c.VolumeSpike
}

// Score ranks a match: closeness of RSI to 50 plus ten times the volume spike.
// The spike term is unbounded.
func Score(rsi, spike float64) float64 {
	return (100 - math.Abs(50-rsi)) + spike*10
}

// ScreenerMatch is one admitted ticker.
type ScreenerMatch struct {
	Ticker      string  `json:"ticker"`
	Price       float64 `json:"price"`
	RSI         float64 `json:"rsi"`
	VolumeSpike float64 `json:"volume_spike"`
	Score       float64 `json:"score"`
}

// SkippedTicker records a per-ticker failure that did not abort the batch.
type SkippedTicker struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

// ScreenerReport is the result of one screener run.
type ScreenerReport struct {
	RequestID    string           `json:"request_id,omitempty"`
	Results      []ScreenerMatch  `json:"results"`
	TotalScanned int              `json:"total_scanned"`
	Matches      int              `json:"matches"`
	Skipped      []SkippedTicker  `json:"skipped,omitempty"`
	Criteria     ScreenerCriteria `json:"criteria"`
	Engine       string           `json:"engine,omitempty"`
	GeneratedAt  time.Time        `json:"generated_at"`
}

// Scan outcome statuses.
const (
	StatusMatched  = "matched"
	StatusRejected = "rejected"
	StatusSkipped  = "skipped"
)

// ScanEvent reports the outcome of one ticker while a scan is running.
type ScanEvent struct {
	Ticker      string   `json:"ticker"`
	Index       int      `json:"index"`
	Status      string   `json:"status"`
	Reason      string   `json:"reason,omitempty"`
	RSI         *float64 `json:"rsi,omitempty"`
	VolumeSpike *float64 `json:"volume_spike,omitempty"`
	Score       *float64 `json:"score,omitempty"`
	Done        int      `json:"done"`
	Total       int      `json:"total"`
}
