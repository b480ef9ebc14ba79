package naver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/pkg/config"
	"github.com/wonny/aegis-screener/pkg/httputil"
	"github.com/wonny/aegis-screener/pkg/logger"
)

const marketSumPage = `<html><body>
<table class="type_2">
<thead><tr><th>N</th><th>종목명</th><th>현재가</th></tr></thead>
<tbody>
<tr><td class="blank_08" colspan="13"></td></tr>
<tr>
  <td class="no">1</td>
  <td><a href="/item/main.naver?code=005930" class="tltle">삼성전자</a></td>
  <td class="number">71,500</td>
</tr>
<tr>
  <td class="no">2</td>
  <td><a href="/item/main.naver?code=000660" class="tltle">SK하이닉스</a></td>
  <td class="number">180,000</td>
</tr>
<tr><td class="division_line" colspan="13"></td></tr>
<tr>
  <td class="no">3</td>
  <td><a href="/item/main.naver?code=373220" class="tltle">LG에너지솔루션</a></td>
  <td class="number">390,000</td>
</tr>
</tbody>
</table>
</body></html>`

func newTestClient(baseURL string) *Client {
	httpClient := httputil.New(&config.Config{}, logger.NewNop()).DisableRetry()
	return NewClient(config.NaverConfig{BaseURL: baseURL}, httpClient, logger.NewNop())
}

func TestRanking(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sise/sise_market_sum.naver", r.URL.Path)
		assert.Equal(t, "0", r.URL.Query().Get("sosok"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, marketSumPage)
	}))
	defer server.Close()

	symbols, err := newTestClient(server.URL).Ranking(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []contracts.Symbol{
		{Code: "005930", Name: "삼성전자"},
		{Code: "000660", Name: "SK하이닉스"},
		{Code: "373220", Name: "LG에너지솔루션"},
	}, symbols)
}

func TestRanking_EUCKR(t *testing.T) {
	encoded, err := korean.EUCKR.NewEncoder().String(marketSumPage)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html;charset=EUC-KR")
		fmt.Fprint(w, encoded)
	}))
	defer server.Close()

	symbols, err := newTestClient(server.URL).Ranking(context.Background())
	require.NoError(t, err)
	require.Len(t, symbols, 3)
	assert.Equal(t, "삼성전자", symbols[0].Name)
}

func TestRanking_CapsAtThirty(t *testing.T) {
	var rows strings.Builder
	for i := 1; i <= 45; i++ {
		fmt.Fprintf(&rows, `<tr><td class="no">%d</td><td><a href="/item/main.naver?code=%06d" class="tltle">종목%d</a></td></tr>`, i, i, i)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<table class="type_2">%s</table>`, rows.String())
	}))
	defer server.Close()

	symbols, err := newTestClient(server.URL).Ranking(context.Background())
	require.NoError(t, err)
	assert.Len(t, symbols, RankingLimit)
	assert.Equal(t, "000030", symbols[RankingLimit-1].Code)
}

func TestRanking_Failures(t *testing.T) {
	t.Run("no rows", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html><body>점검중</body></html>`)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Ranking(context.Background())
		assert.True(t, errors.Is(err, ErrNoRows))
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Ranking(context.Background())
		assert.Error(t, err)
	})
}

func TestIsEUCKR(t *testing.T) {
	assert.True(t, isEUCKR("text/html;charset=EUC-KR"))
	assert.True(t, isEUCKR("text/html; charset=ks_c_5601-1987"))
	assert.False(t, isEUCKR("text/html; charset=utf-8"))
	assert.False(t, isEUCKR(""))
}
