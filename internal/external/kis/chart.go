package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/wonny/aegis-screener/internal/contracts"
)

// HistoryLookbackDays covers ~120 trading days after weekends and holidays
const HistoryLookbackDays = 200

// dailyBar is one output2 row of inquire-daily-itemchartprice
type dailyBar struct {
	Date   string `json:"stck_bsop_date"`
	Open   string `json:"stck_oprc"`
	High   string `json:"stck_hgpr"`
	Low    string `json:"stck_lwpr"`
	Close  string `json:"stck_clpr"`
	Volume string `json:"acml_vol"`
}

// GetDailyChart gets daily bars from 200 days before asOf to asOf (KST), oldest first
func (c *Client) GetDailyChart(ctx context.Context, code string, asOf time.Time) (contracts.CandleSeries, error) {
	path := "/uapi/domestic-stock/v1/quotations/inquire-daily-itemchartprice"
	trID := "FHKST03010100" // 국내주식 기간별 시세

	end := asOf.In(contracts.KST)
	start := end.AddDate(0, 0, -HistoryLookbackDays)

	params := url.Values{}
	params.Set("FID_COND_MRKT_DIV_CODE", "J")
	params.Set("FID_INPUT_ISCD", code)
	params.Set("FID_INPUT_DATE_1", start.Format("20060102"))
	params.Set("FID_INPUT_DATE_2", end.Format("20060102"))
	params.Set("FID_PERIOD_DIV_CODE", "D")
	params.Set("FID_ORG_ADJ_PRC", "0")

	body, err := c.get(ctx, path, trID, params, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Output2 []dailyBar `json:"output2"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("chart %s: %w: %v", code, ErrMalformedResponse, err)
	}
	if result.Output2 == nil {
		return nil, fmt.Errorf("chart %s: %w: missing output2", code, ErrMalformedResponse)
	}

	return buildSeries(code, result.Output2)
}

// buildSeries converts newest-first rows into a chronological series
func buildSeries(code string, rows []dailyBar) (contracts.CandleSeries, error) {
	series := make(contracts.CandleSeries, 0, len(rows))

	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if row.Date == "" {
			continue // KIS pads short ranges with empty rows
		}

		date, err := time.ParseInLocation("20060102", row.Date, contracts.KST)
		if err != nil {
			return nil, fmt.Errorf("chart %s: %w: date %q", code, ErrMalformedResponse, row.Date)
		}

		var vals [5]float64
		for j, s := range []string{row.Open, row.High, row.Low, row.Close, row.Volume} {
			v, err := parseNumber(s)
			if err != nil {
				return nil, fmt.Errorf("chart %s: %w: %v", code, ErrMalformedResponse, err)
			}
			vals[j] = v
		}

		series = append(series, contracts.PricePoint{
			Date:   date,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: int64(vals[4]),
		})
	}

	return series, nil
}
