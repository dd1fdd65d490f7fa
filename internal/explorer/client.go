package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"txLogScope/internal/cache"
	"txLogScope/internal/metrics"
	"txLogScope/internal/model"
)

const (
	DefaultBaseURL = "https://api.etherscan.io/v2/api"
	defaultTimeout = 30 * time.Second
)

// Config holds explorer connection settings.
type Config struct {
	BaseURL           string
	APIKey            string
	ChainID           uint64
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client talks to an Etherscan-compatible contract API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	sources    *cache.Memo[*model.SourceMetadata]
	logger     *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		sources:    cache.NewMemo[*model.SourceMetadata](),
		logger:     logger,
	}
}

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type sourceRecord struct {
	SourceCode      string `json:"SourceCode"`
	ABI             string `json:"ABI"`
	ContractName    string `json:"ContractName"`
	CompilerVersion string `json:"CompilerVersion"`
	Proxy           string `json:"Proxy"`
	Implementation  string `json:"Implementation"`
}

const unverifiedABI = "Contract source code not verified"

// GetABI returns the verified ABI JSON for address, or model.ErrNotFound.
func (c *Client) GetABI(ctx context.Context, address common.Address) (string, error) {
	resp, err := c.call(ctx, "getabi", address)
	if err != nil {
		return "", err
	}
	if resp.Status != "1" {
		return "", fmt.Errorf("getabi %s: %s: %w", address.Hex(), resultText(resp), model.ErrNotFound)
	}

	var abiJSON string
	if err := json.Unmarshal(resp.Result, &abiJSON); err != nil {
		return "", fmt.Errorf("getabi %s: decode result: %w", address.Hex(), err)
	}
	if strings.TrimSpace(abiJSON) == "" || abiJSON == unverifiedABI {
		return "", fmt.Errorf("getabi %s: %w", address.Hex(), model.ErrNotFound)
	}
	return abiJSON, nil
}

// GetSourceMetadata returns the verified source record for address, or
// model.ErrNotFound. Answers, including not-found, are remembered per client.
func (c *Client) GetSourceMetadata(ctx context.Context, address common.Address) (*model.SourceMetadata, error) {
	key := strings.ToLower(address.Hex())
	meta, err := c.sources.Load(key, func() (*model.SourceMetadata, error) {
		return c.fetchSource(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, fmt.Errorf("getsourcecode %s: %w", address.Hex(), model.ErrNotFound)
	}
	return meta, nil
}

func (c *Client) fetchSource(ctx context.Context, address common.Address) (*model.SourceMetadata, error) {
	resp, err := c.call(ctx, "getsourcecode", address)
	if err != nil {
		return nil, err
	}
	if resp.Status != "1" {
		return nil, nil
	}

	var records []sourceRecord
	if err := json.Unmarshal(resp.Result, &records); err != nil {
		return nil, fmt.Errorf("getsourcecode %s: decode result: %w", address.Hex(), err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	rec := records[0]
	meta := &model.SourceMetadata{
		SourceCode:      rec.SourceCode,
		ContractName:    rec.ContractName,
		CompilerVersion: rec.CompilerVersion,
		IsProxy:         rec.Proxy == "1",
	}
	if rec.ABI != unverifiedABI {
		meta.ABI = rec.ABI
	}
	if impl := strings.TrimSpace(rec.Implementation); common.IsHexAddress(impl) {
		addr := common.HexToAddress(impl)
		if addr != (common.Address{}) {
			meta.Implementation = &addr
		}
	}
	if meta.SourceCode == "" && meta.ABI == "" && !meta.IsProxy {
		return nil, nil
	}
	return meta, nil
}

func (c *Client) call(ctx context.Context, action string, address common.Address) (*apiResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: rate limiter: %w", action, err)
	}

	endpoint, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid explorer url: %w", err)
	}
	q := endpoint.Query()
	if c.cfg.ChainID != 0 {
		q.Set("chainid", strconv.FormatUint(c.cfg.ChainID, 10))
	}
	q.Set("module", "contract")
	q.Set("action", action)
	q.Set("address", strings.ToLower(address.Hex()))
	if c.cfg.APIKey != "" {
		q.Set("apikey", c.cfg.APIKey)
	}
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", action, err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ExplorerRequestsTotal.WithLabelValues(action, "error").Inc()
		return nil, fmt.Errorf("%s: %w: %w", action, model.ErrNetworkFailure, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 32<<20))
	if err != nil {
		metrics.ExplorerRequestsTotal.WithLabelValues(action, "error").Inc()
		return nil, fmt.Errorf("%s: read body: %w: %w", action, model.ErrNetworkFailure, err)
	}
	if res.StatusCode != http.StatusOK {
		metrics.ExplorerRequestsTotal.WithLabelValues(action, "error").Inc()
		return nil, fmt.Errorf("%s: http status %d: %w", action, res.StatusCode, model.ErrNetworkFailure)
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		metrics.ExplorerRequestsTotal.WithLabelValues(action, "error").Inc()
		return nil, fmt.Errorf("%s: decode response: %w", action, err)
	}
	if resp.Status != "1" && isRateLimited(resp) {
		metrics.ExplorerRequestsTotal.WithLabelValues(action, "rate_limited").Inc()
		return nil, fmt.Errorf("%s: %s: %w", action, resultText(&resp), model.ErrNetworkFailure)
	}

	metrics.ExplorerRequestsTotal.WithLabelValues(action, "ok").Inc()
	c.logger.Debug("explorer response",
		zap.String("action", action),
		zap.String("address", address.Hex()),
		zap.String("status", resp.Status),
	)
	return &resp, nil
}

func isRateLimited(resp apiResponse) bool {
	text := strings.ToLower(resultText(&resp))
	return strings.Contains(text, "rate limit")
}

func resultText(resp *apiResponse) string {
	var text string
	if err := json.Unmarshal(resp.Result, &text); err == nil && text != "" {
		return text
	}
	return resp.Message
}
