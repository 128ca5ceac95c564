package models

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Bar is one daily sample.
type Bar struct {
	Time   time.Time `json:"t"`
	Close  float64   `json:"c"`
	Volume float64   `json:"v"`
}

// PriceSeries is a non-empty, time-ascending sequence of bars for one ticker.
type PriceSeries struct {
	Ticker string `json:"ticker"`
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

// NewPriceSeries normalizes raw bars: drops samples with a non-finite close,
// zeroes non-finite or negative volume, sorts by time and keeps the last
// sample for a repeated timestamp. It returns ErrNoDataAvailable when
// nothing usable remains.
func NewPriceSeries(ticker, symbol string, raw []Bar) (*PriceSeries, error) {
	bars := make([]Bar, 0, len(raw))
	for _, b := range raw {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) {
			continue
		}
		if math.IsNaN(b.Volume) || math.IsInf(b.Volume, 0) || b.Volume < 0 {
			b.Volume = 0
		}
		bars = append(bars, b)
	}
	if len(bars) == 0 {
		return nil, ErrNoDataAvailable
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}

	return &PriceSeries{Ticker: ticker, Symbol: symbol, Bars: out}, nil
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int { return len(s.Bars) }

// Closes returns close prices in time order.
func (s *PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Volumes returns volumes in time order.
func (s *PriceSeries) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Volume
	}
	return out
}

// Latest returns the most recent bar.
func (s *PriceSeries) Latest() Bar { return s.Bars[len(s.Bars)-1] }

// ExchangeSymbol upper-cases a ticker and appends suffix unless it is
// already present, e.g. "eqnr" -> "EQNR.OL".
func ExchangeSymbol(ticker, suffix string) string {
	sym := strings.ToUpper(strings.TrimSpace(ticker))
	suffix = strings.ToUpper(strings.TrimSpace(suffix))
	if suffix == "" || strings.HasSuffix(sym, suffix) {
		return sym
	}
	return sym + suffix
}
