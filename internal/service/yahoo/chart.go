package yahoo

import (
	"time"

	"OsloScan/internal/domain/models"
	"OsloScan/pkg/util"
)

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol               string `json:"symbol"`
		Currency             string `json:"currency"`
		ExchangeName         string `json:"exchangeName"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// decodeBars turns the first chart result into bars stamped in the
// exchange time zone. Bars without a close are skipped; a missing volume
// counts as zero.
func decodeBars(chart *chartResponse, def *time.Location) ([]models.Bar, *time.Location, error) {
	if len(chart.Chart.Result) == 0 {
		return nil, def, models.ErrNoDataAvailable
	}
	res := chart.Chart.Result[0]
	loc := util.InLocation(res.Meta.ExchangeTimezoneName, def)
	if len(res.Timestamp) == 0 || len(res.Indicators.Quote) == 0 {
		return nil, loc, models.ErrNoDataAvailable
	}

	quote := res.Indicators.Quote[0]
	bars := make([]models.Bar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		var vol float64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			vol = *quote.Volume[i]
		}
		bars = append(bars, models.Bar{
			Time:   util.UnixIn(ts, loc),
			Close:  *quote.Close[i],
			Volume: vol,
		})
	}
	if len(bars) == 0 {
		return nil, loc, models.ErrNoDataAvailable
	}
	return bars, loc, nil
}
