package models

import (
	"strings"
	"time"
)

// Requests for the screener and indicator endpoints. Shared by the HTTP,
// WebSocket and Kafka entry points.

// CriteriaRequest carries optional criteria fields; missing ones fall back
// to DefaultCriteria.
type CriteriaRequest struct {
	RSIMin      *float64 `json:"rsi_min" validate:"omitempty,gte=0,lte=100"`
	RSIMax      *float64 `json:"rsi_max" validate:"omitempty,gte=0,lte=100"`
	VolumeSpike *float64 `json:"volume_spike" validate:"omitempty,gte=0"`
}

// ScreenerRequest accepts any number of tickers, including none; blank
// entries are dropped by NormalizedTickers.
type ScreenerRequest struct {
	RequestID string           `json:"request_id,omitempty" validate:"omitempty,max=64"`
	Tickers   []string         `json:"tickers" validate:"dive,max=32"`
	Criteria  *CriteriaRequest `json:"criteria,omitempty"`
}

// ScreenerCriteria resolves the request criteria over the defaults.
func (r *ScreenerRequest) ScreenerCriteria() ScreenerCriteria {
	c := DefaultCriteria()
	if r.Criteria == nil {
		return c
	}
	if r.Criteria.RSIMin != nil {
		c.RSIMin = *r.Criteria.RSIMin
	}
	if r.Criteria.RSIMax != nil {
		c.RSIMax = *r.Criteria.RSIMax
	}
	if r.Criteria.VolumeSpike != nil {
		c.VolumeSpike = *r.Criteria.VolumeSpike
	}
	return c
}

// NormalizedTickers trims whitespace and drops empty entries. Order and
// duplicates are preserved.
func (r *ScreenerRequest) NormalizedTickers() []string {
	out := make([]string, 0, len(r.Tickers))
	for _, t := range r.Tickers {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

type IndicatorsRequest struct {
	Ticker string `param:"ticker" validate:"required,max=32"`
}

// ScanRequestMessage is the Kafka payload on the requests topic.
type ScanRequestMessage struct {
	ScreenerRequest
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Lookback is a provider history window.
type Lookback string

const (
	Lookback3Months Lookback = "3mo"
	Lookback6Months Lookback = "6mo"
)

// Days returns the approximate calendar span of the window.
func (l Lookback) Days() int {
	switch l {
	case Lookback3Months:
		return 92
	case Lookback6Months:
		return 183
	default:
		return 92
	}
}

// Valid reports whether l is a known window.
func (l Lookback) Valid() bool {
	return l == Lookback3Months || l == Lookback6Months
}
