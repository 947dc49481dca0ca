// Package connector is the HTTP client for the sync connector's records
// API. The connector pushes webhooks when a sync finishes; this client
// pulls the changed records the webhook announced.
package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/domain/record"
)

// DefaultTimeout bounds one records request.
const DefaultTimeout = 30 * time.Second

// Config holds the connector API settings.
type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
	Logger    *zap.Logger
}

// Client implements usecase/sync.RecordFetcher against the connector's
// records endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secret     string
	logger     *zap.Logger
}

// NewClient creates a connector API client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		secret:     cfg.SecretKey,
		logger:     log,
	}
}

// recordsPage is one page of the records endpoint response.
type recordsPage struct {
	Records    []record.Record `json:"records"`
	NextCursor string          `json:"next_cursor"`
}

// ListRecords fetches every changed record for a model, following the
// cursor until the connector reports no more pages. limit bounds the
// page size, not the total.
func (c *Client) ListRecords(
	ctx context.Context, connectionID, providerConfigKey, model string, limit int,
) ([]record.Record, error) {
	var all []record.Record
	cursor := ""

	for {
		page, err := c.fetchPage(ctx, connectionID, providerConfigKey, model, limit, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Records...)
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	c.logger.Debug("records fetched",
		zap.String("model", model),
		zap.String("connection_id", connectionID),
		zap.Int("count", len(all)),
	)
	return all, nil
}

func (c *Client) fetchPage(
	ctx context.Context, connectionID, providerConfigKey, model string, limit int, cursor string,
) (recordsPage, error) {
	q := url.Values{}
	q.Set("model", model)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/records?"+q.Encode(), nil)
	if err != nil {
		return recordsPage{}, fmt.Errorf("build records request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Connection-Id", connectionID)
	req.Header.Set("Provider-Config-Key", providerConfigKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return recordsPage{}, fmt.Errorf("records request for model %s: %w", model, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return recordsPage{}, fmt.Errorf("connector records API: %w", domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return recordsPage{}, fmt.Errorf("connector records API status %d: %s", resp.StatusCode, body)
	}

	var page recordsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return recordsPage{}, fmt.Errorf("decode records response: %w", err)
	}
	return page, nil
}
