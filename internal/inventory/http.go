package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/stockstage/internal/core"
)

// DefaultTimeout is the HTTP client timeout used when none is given.
const DefaultTimeout = 30 * time.Second

// HTTPClient submits batches to a remote inventory service.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

type batchRequest struct {
	Items []core.BatchItem `json:"items"`
}

// NewHTTPClient creates a client for the inventory API at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// SubmitBatch posts items to {baseURL}/inventory/batch. Any non-2xx status
// is a failure of the whole batch.
func (c *HTTPClient) SubmitBatch(ctx context.Context, items []core.BatchItem) (core.BatchResponse, error) {
	body, err := json.Marshal(batchRequest{Items: items})
	if err != nil {
		return core.BatchResponse{}, fmt.Errorf("encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/inventory/batch", bytes.NewReader(body))
	if err != nil {
		return core.BatchResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Warn("inventory batch call failed", "items", len(items), "error", err)
		return core.BatchResponse{}, fmt.Errorf("inventory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return core.BatchResponse{}, fmt.Errorf("inventory batch returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out core.BatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return core.BatchResponse{}, fmt.Errorf("decode inventory response: %w", err)
	}
	return out, nil
}
