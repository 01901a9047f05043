// Package serper implements the Serper.dev search client.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultEndpoint = "https://google.serper.dev/search"

// ClientConfig configures the Serper client.
type ClientConfig struct {
	APIKey   string
	Endpoint string
	GL       string // country code, e.g. "tw"
	HL       string // interface language, e.g. "zh-tw"
	Timeout  time.Duration
}

// Client issues one search request per keyword. It performs no retries;
// failed keywords are retried by the next scheduled run of the pipeline.
type Client struct {
	cfg    ClientConfig
	client *http.Client
}

// NewClient builds a client with bounded request timeouts.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type searchRequest struct {
	Q  string `json:"q"`
	GL string `json:"gl,omitempty"`
	HL string `json:"hl,omitempty"`
}

// Fetch performs one search call for a keyword and returns the decoded
// response document. Transport errors and non-2xx statuses come back as a
// *RequestError carrying the cause and, when available, the HTTP status.
func (c *Client) Fetch(ctx context.Context, keyword string) (map[string]any, error) {
	payload, err := json.Marshal(searchRequest{Q: keyword, GL: c.cfg.GL, HL: c.cfg.HL})
	if err != nil {
		return nil, &RequestError{Keyword: keyword, Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &RequestError{Keyword: keyword, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("X-API-KEY", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &RequestError{Keyword: keyword, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Keyword: keyword, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &RequestError{
			Keyword:    keyword,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("serper api error (status %d): %s", resp.StatusCode, truncate(body, 200)),
		}
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &RequestError{Keyword: keyword, StatusCode: resp.StatusCode, Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	if slog.Default().Enabled(ctx, slog.LevelDebug) {
		keys := make([]string, 0, len(raw))
		for key := range raw {
			keys = append(keys, key)
		}
		slog.Debug("serper response",
			slog.String("keyword", keyword),
			slog.Any("keys", keys),
		)
	}

	return raw, nil
}

func truncate(body []byte, limit int) string {
	if len(body) > limit {
		body = body[:limit]
	}
	return string(body)
}
