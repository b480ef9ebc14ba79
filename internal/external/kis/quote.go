package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/wonny/aegis-screener/internal/contracts"
)

const (
	// AvgVolumeProxy estimates average volume from today's volume
	AvgVolumeProxy = 0.7
	// DefaultPER / DefaultPBR substitute missing valuation ratios
	DefaultPER = 12.0
	DefaultPBR = 1.2
)

// priceOutput is the inquire-price output block (all values are strings)
type priceOutput struct {
	CurrentPrice string `json:"stck_prpr"`
	ChangeRate   string `json:"prdy_ctrt"`
	Volume       string `json:"acml_vol"`
	PER          string `json:"per"`
	PBR          string `json:"pbr"`
}

// GetQuote gets the current price snapshot for a stock (국내주식 현재가)
func (c *Client) GetQuote(ctx context.Context, sym contracts.Symbol) (*contracts.Quote, error) {
	path := "/uapi/domestic-stock/v1/quotations/inquire-price"
	trID := "FHKST01010100"

	params := url.Values{}
	params.Set("fid_cond_mrkt_div_code", "J")
	params.Set("fid_input_iscd", sym.Code)

	body, err := c.get(ctx, path, trID, params, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Output *priceOutput `json:"output"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("quote %s: %w: %v", sym.Code, ErrMalformedResponse, err)
	}
	if result.Output == nil {
		return nil, fmt.Errorf("quote %s: %w: missing output", sym.Code, ErrMalformedResponse)
	}

	return buildQuote(sym, result.Output)
}

func buildQuote(sym contracts.Symbol, out *priceOutput) (*contracts.Quote, error) {
	price, err := parseNumber(out.CurrentPrice)
	if err != nil || price <= 0 {
		return nil, fmt.Errorf("quote %s: %w: price %q", sym.Code, ErrMalformedResponse, out.CurrentPrice)
	}

	change, err := parseNumber(out.ChangeRate)
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w: change %q", sym.Code, ErrMalformedResponse, out.ChangeRate)
	}

	volume, err := parseNumber(out.Volume)
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w: volume %q", sym.Code, ErrMalformedResponse, out.Volume)
	}

	return &contracts.Quote{
		Symbol:    sym,
		Price:     price,
		ChangePct: change,
		Volume:    int64(volume),
		AvgVolume: int64(math.Round(volume * AvgVolumeProxy)),
		PER:       ratioOrDefault(out.PER, DefaultPER),
		PBR:       ratioOrDefault(out.PBR, DefaultPBR),
	}, nil
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite %q", s)
	}
	return v, nil
}

// ratioOrDefault parses s, falling back when it is missing, unparsable or zero
func ratioOrDefault(s string, fallback float64) float64 {
	v, err := parseNumber(s)
	if err != nil || v == 0 {
		return fallback
	}
	return v
}
