package kis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/wonny/aegis-screener/pkg/config"
	"github.com/wonny/aegis-screener/pkg/httputil"
	"github.com/wonny/aegis-screener/pkg/kvstore"
	"github.com/wonny/aegis-screener/pkg/logger"
)

const (
	// TokenStoreKey is the kvstore key of the cached access token
	TokenStoreKey = "kis_access_token"
	// TokenTTL is how long an issued token is reused
	TokenTTL = 23 * time.Hour
)

var (
	// ErrNoToken is returned when no access token could be obtained
	ErrNoToken = errors.New("kis: no access token")
	// ErrEmptyResponse is returned for an empty response body
	ErrEmptyResponse = errors.New("kis: empty response")
	// ErrMalformedResponse is returned when the payload is not the expected JSON shape
	ErrMalformedResponse = errors.New("kis: malformed response")
)

// APIError is a non-success rt_cd envelope
type APIError struct {
	TrID    string
	RtCd    string
	MsgCd   string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kis %s: rt_cd=%q %s %s", e.TrID, e.RtCd, e.MsgCd, e.Message)
}

// Client handles communication with KIS (한국투자증권) API
// ⭐ SSOT: KIS API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.KISConfig
	store      kvstore.Store
	now        func() time.Time

	// Token management
	accessToken string
	tokenExpiry time.Time
	tokenMu     sync.RWMutex
}

// NewClient creates a new KIS API client. store may be nil (memory-only token cache).
func NewClient(cfg config.KISConfig, httpClient *httputil.Client, store kvstore.Store, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
		store:      store,
		now:        time.Now,
	}
}

// TokenResponse represents the OAuth token response
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// storedToken is the persisted form of the access token
type storedToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// getToken gets a valid access token, refreshing if necessary
func (c *Client) getToken(ctx context.Context) (string, error) {
	c.tokenMu.RLock()
	if c.accessToken != "" && c.now().Before(c.tokenExpiry) {
		token := c.accessToken
		c.tokenMu.RUnlock()
		return token, nil
	}
	c.tokenMu.RUnlock()

	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	// Double-check after acquiring write lock
	if c.accessToken != "" && c.now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	if tok, ok := c.loadStoredToken(ctx); ok {
		c.accessToken = tok.AccessToken
		c.tokenExpiry = tok.ExpiresAt
		return c.accessToken, nil
	}

	tokenResp, err := c.issueToken(ctx)
	if err != nil {
		return "", err
	}

	expiry := c.now().Add(TokenTTL)
	if tokenResp.ExpiresIn > 0 {
		if issued := c.now().Add(time.Duration(tokenResp.ExpiresIn-60) * time.Second); issued.Before(expiry) {
			expiry = issued // 1분 여유
		}
	}

	c.accessToken = tokenResp.AccessToken
	c.tokenExpiry = expiry
	c.saveToken(ctx, storedToken{AccessToken: c.accessToken, ExpiresAt: expiry})

	c.logger.WithFields(map[string]interface{}{
		"expires_at": expiry.Format(time.RFC3339),
	}).Info("KIS access token refreshed")

	return c.accessToken, nil
}

func (c *Client) issueToken(ctx context.Context) (*TokenResponse, error) {
	payload := map[string]string{
		"grant_type": "client_credentials",
		"appkey":     c.cfg.AppKey,
		"appsecret":  c.cfg.AppSecret,
	}

	resp, err := c.httpClient.PostJSON(ctx, c.cfg.BaseURL+"/oauth2/tokenP", payload)
	if err != nil {
		return nil, fmt.Errorf("%w: token request failed: %v", ErrNoToken, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: token request status %d: %s", ErrNoToken, resp.StatusCode, string(respBody))
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("%w: decode token response: %v", ErrNoToken, err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("%w: response carried no access_token", ErrNoToken)
	}

	return &tokenResp, nil
}

func (c *Client) loadStoredToken(ctx context.Context) (storedToken, bool) {
	if c.store == nil {
		return storedToken{}, false
	}

	data, found, err := c.store.Get(ctx, TokenStoreKey)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to read cached KIS token")
		return storedToken{}, false
	}
	if !found {
		return storedToken{}, false
	}

	var tok storedToken
	if err := json.Unmarshal(data, &tok); err != nil || tok.AccessToken == "" {
		return storedToken{}, false
	}
	if !c.now().Before(tok.ExpiresAt) {
		return storedToken{}, false
	}

	return tok, true
}

func (c *Client) saveToken(ctx context.Context, tok storedToken) {
	if c.store == nil {
		return
	}

	data, err := json.Marshal(tok)
	if err != nil {
		return
	}
	if err := c.store.Put(ctx, TokenStoreKey, data, tok.ExpiresAt.Sub(c.now())); err != nil {
		c.logger.WithError(err).Warn("Failed to persist KIS token")
	}
}

// get makes an authenticated GET request and returns the body once the envelope is verified
func (c *Client) get(ctx context.Context, path, trID string, params url.Values, headers map[string]string) ([]byte, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.cfg.BaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("authorization", "Bearer "+token)
	req.Header.Set("appkey", c.cfg.AppKey)
	req.Header.Set("appsecret", c.cfg.AppSecret)
	req.Header.Set("tr_id", trID)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kis %s: %w", trID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("kis %s: read body: %w", trID, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kis %s: status %d: %s", trID, resp.StatusCode, truncate(string(body), 100))
	}

	if err := checkEnvelope(trID, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkEnvelope verifies the rt_cd == "0" success convention
func checkEnvelope(trID string, body []byte) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return fmt.Errorf("kis %s: %w", trID, ErrEmptyResponse)
	}
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("kis %s: %w", trID, ErrMalformedResponse)
	}

	result := gjson.GetManyBytes(body, "rt_cd", "msg_cd", "msg1")
	if result[0].String() != "0" {
		return &APIError{
			TrID:    trID,
			RtCd:    result[0].String(),
			MsgCd:   result[1].String(),
			Message: result[2].String(),
		}
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
