package gilt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"daily-treasure/internal/config"
	"daily-treasure/internal/domain"

	"go.uber.org/zap"
)

var (
	// ErrUpstream covers every failure mode of the sale API: unreachable
	// host, non-200 status, or a payload that does not match the contract.
	// Callers treat it as "no data available for this attempt".
	ErrUpstream = errors.New("upstream sale API unavailable")
)

// Client defines the interface for fetching active sales from the upstream API
type Client interface {
	FetchActiveSales(ctx context.Context) ([]domain.Sale, error)
}

type httpClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a Client backed by the Gilt REST API
func NewClient(cfg config.GiltConfig, logger *zap.Logger) Client {
	return &httpClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// activeSalesResponse is the typed shape of /v1/sales/active.json. Anything
// that does not decode into it is an upstream contract violation.
type activeSalesResponse struct {
	Sales []domain.Sale `json:"sales"`
}

// FetchActiveSales retrieves the currently active sales with product detail
func (c *httpClient) FetchActiveSales(ctx context.Context) ([]domain.Sale, error) {
	query := url.Values{}
	query.Set("product_detail", "true")
	query.Set("apikey", c.apiKey)

	endpoint := fmt.Sprintf("%s/v1/sales/active.json?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrUpstream, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("Sale API request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Sale API returned non-success status",
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var payload activeSalesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Warn("Sale API returned undecodable payload", zap.Error(err))
		return nil, fmt.Errorf("%w: decoding payload: %v", ErrUpstream, err)
	}

	return payload.Sales, nil
}
