package kis

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/wonny/aegis-screener/internal/contracts"
)

// RankingLimit caps the primary universe source
const RankingLimit = 30

// Ranking returns the market-cap ranking (국내주식 시가총액 상위), at most 30 symbols.
// Transport failures, non-"0" envelopes and empty or malformed payloads are errors.
func (c *Client) Ranking(ctx context.Context) ([]contracts.Symbol, error) {
	path := "/uapi/domestic-stock/v1/ranking/market-cap"
	trID := "FHPST01710000" // 시가총액 상위

	params := url.Values{}
	params.Set("fid_cond_mrkt_div_code", "J")    // 주식
	params.Set("fid_cond_scr_div_code", "20171") // 시가총액 상위
	params.Set("fid_input_iscd", "0000")         // 전체
	params.Set("fid_div_cls_code", "0")
	params.Set("fid_trgt_cls_code", "0")
	params.Set("fid_trgt_exls_cls_code", "0")
	params.Set("fid_input_price_1", "")
	params.Set("fid_input_price_2", "")
	params.Set("fid_vol_cnt", "")

	body, err := c.get(ctx, path, trID, params, map[string]string{"custtype": "P"})
	if err != nil {
		return nil, err
	}

	return parseRanking(body)
}

func parseRanking(body []byte) ([]contracts.Symbol, error) {
	output := gjson.GetBytes(body, "output")
	if !output.IsArray() {
		return nil, fmt.Errorf("ranking: %w: output is not an array", ErrMalformedResponse)
	}

	symbols := make([]contracts.Symbol, 0, RankingLimit)
	for _, item := range output.Array() {
		code := item.Get("mksc_shrn_iscd").String()
		if code == "" {
			code = item.Get("stck_shrn_iscd").String()
		}
		name := item.Get("hts_kor_isnm").String()
		if code == "" || name == "" {
			return nil, fmt.Errorf("ranking: %w: entry without code or name", ErrMalformedResponse)
		}

		symbols = append(symbols, contracts.Symbol{Code: code, Name: name})
		if len(symbols) == RankingLimit {
			break
		}
	}

	if len(symbols) == 0 {
		return nil, fmt.Errorf("ranking: %w: no entries", ErrEmptyResponse)
	}

	return symbols, nil
}
