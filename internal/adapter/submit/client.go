// Package submit implements the device side of the sync endpoint: a thin
// HTTP client that posts signed tuple batches and decodes per-tuple results.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"offline-pay/internal/core/domain"
	"offline-pay/internal/core/ports"

	"github.com/rs/zerolog"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client posts sync batches to the reconciliation endpoint.
type Client struct {
	baseURL    string
	token      func() string // returns the current device session token
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewClient creates a submission client. token is called per request so a
// refreshed session token is picked up without rebuilding the client.
func NewClient(baseURL string, token func() string, httpClient HTTPClient, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
		log:        log,
	}
}

type syncRequest struct {
	Batch []ports.SubmissionTuple `json:"batch"`
}

type syncEnvelope struct {
	Data struct {
		Results []domain.SyncResult `json:"results"`
	} `json:"data"`
}

type errorEnvelope struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// Submit posts one batch and returns per-tuple results in batch order.
func (c *Client) Submit(ctx context.Context, deviceID string, batch []ports.SubmissionTuple) ([]domain.SyncResult, error) {
	body, err := json.Marshal(syncRequest{Batch: batch})
	if err != nil {
		return nil, fmt.Errorf("marshal sync request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/sync", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != nil {
		req.Header.Set("Authorization", "Bearer "+c.token())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post sync batch: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read sync response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var envlp errorEnvelope
		if jsonErr := json.Unmarshal(raw, &envlp); jsonErr == nil && envlp.ErrorCode != "" {
			c.log.Warn().
				Str("device_id", deviceID).
				Int("status", resp.StatusCode).
				Str("error_code", envlp.ErrorCode).
				Msg("sync rejected by server")
			return nil, fmt.Errorf("sync rejected: %s (%s)", envlp.Message, envlp.ErrorCode)
		}
		return nil, fmt.Errorf("sync failed with status %d", resp.StatusCode)
	}

	var envlp syncEnvelope
	if err := json.Unmarshal(raw, &envlp); err != nil {
		return nil, fmt.Errorf("decode sync response: %w", err)
	}
	if len(envlp.Data.Results) != len(batch) {
		return nil, fmt.Errorf("sync returned %d results for %d tuples", len(envlp.Data.Results), len(batch))
	}
	return envlp.Data.Results, nil
}
