// Package chroma is the HTTP client for the Chroma vector store's v2
// API. Each user gets their own tenant and database, carried in the
// credentials resolved per connection.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/domain/account"
	"github.com/kailas-cloud/vecsync/internal/domain/chunk"
	"github.com/kailas-cloud/vecsync/internal/domain/where"
)

// DefaultTimeout bounds one vector-store request.
const DefaultTimeout = 60 * time.Second

// Config holds the vector store connection settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Client talks to the vector store's collection API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// NewClient creates a vector store client.
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
		logger:     log,
	}
}

// GetOrCreate opens the named collection in the tenant and database the
// credentials identify, creating it on first use.
func (c *Client) GetOrCreate(ctx context.Context, creds account.Credentials, name string) (*Collection, error) {
	base := fmt.Sprintf("%s/api/v2/tenants/%s/databases/%s/collections",
		c.baseURL, creds.TenantID, creds.DatabaseName)

	body := map[string]any{
		"name":          name,
		"get_or_create": true,
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, base, creds.APIKey, body, &resp); err != nil {
		return nil, fmt.Errorf("get or create collection %s: %w", name, err)
	}

	return &Collection{
		client: c,
		url:    base + "/" + resp.ID,
		apiKey: creds.APIKey,
	}, nil
}

// Collection is one open collection, scoped to a user's credentials.
// It implements usecase/sync.Collection.
type Collection struct {
	client *Client
	url    string
	apiKey string
}

// Upsert writes a batch of chunks. Embeddings are sent only when
// precomputed; otherwise the store embeds server-side.
func (col *Collection) Upsert(ctx context.Context, batch chunk.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	body := map[string]any{
		"ids":       batch.IDs,
		"documents": batch.Documents,
		"metadatas": batch.Metadatas,
	}
	if batch.Embeddings != nil {
		body["embeddings"] = batch.Embeddings
	}
	if err := col.client.post(ctx, col.url+"/upsert", col.apiKey, body, nil); err != nil {
		return fmt.Errorf("upsert %d chunks: %w", batch.Len(), err)
	}
	return nil
}

// Delete removes every chunk matching the clause. Clauses are sent as
// built; the store is the authority on filter shape.
func (col *Collection) Delete(ctx context.Context, clause where.Clause) error {
	body := map[string]any{"where": clause}
	if err := col.client.post(ctx, col.url+"/delete", col.apiKey, body, nil); err != nil {
		return fmt.Errorf("delete by filter: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, url, apiKey string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-Chroma-Token", apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vector store request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("vector store: %w", domain.ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("vector store status %d: %s", resp.StatusCode, detail)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
