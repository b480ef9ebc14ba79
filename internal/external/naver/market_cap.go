package naver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/aegis-screener/internal/contracts"
)

// RankingLimit caps the primary universe source
const RankingLimit = 30

// ErrNoRows is returned when the market-cap table has no parsable rows
var ErrNoRows = errors.New("naver: no market cap rows")

var codeRe = regexp.MustCompile(`code=(\d{6})`)

// Ranking scrapes the KOSPI market-cap ranking (시가총액 상위), at most 30 symbols
// ⭐ SSOT: Naver 시가총액 순위 조회는 이 함수에서만
func (c *Client) Ranking(ctx context.Context) ([]contracts.Symbol, error) {
	params := url.Values{}
	params.Set("sosok", "0") // 0: KOSPI, 1: KOSDAQ
	params.Set("page", "1")

	page, err := c.fetchHTML(ctx, "/sise/sise_market_sum.naver", params)
	if err != nil {
		return nil, fmt.Errorf("market cap page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return nil, fmt.Errorf("parse market cap page: %w", err)
	}

	symbols := parseMarketCapTable(doc)
	if len(symbols) == 0 {
		return nil, ErrNoRows
	}

	c.logger.WithField("count", len(symbols)).Debug("Fetched Naver market cap ranking")
	return symbols, nil
}

// parseMarketCapTable reads rows of table.type_2 ordered by the N (rank) column
func parseMarketCapTable(doc *goquery.Document) []contracts.Symbol {
	symbols := make([]contracts.Symbol, 0, RankingLimit)

	doc.Find("table.type_2 tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return true
		}

		if _, err := strconv.Atoi(strings.TrimSpace(cells.Eq(0).Text())); err != nil {
			return true // 구분선/빈 행
		}

		link := row.Find("a.tltle")
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		m := codeRe.FindStringSubmatch(href)
		name := strings.TrimSpace(link.Text())
		if m == nil || name == "" {
			return true
		}

		symbols = append(symbols, contracts.Symbol{Code: m[1], Name: name})
		return len(symbols) < RankingLimit
	})

	return symbols
}

var _ contracts.RankingSource = (*Client)(nil)
