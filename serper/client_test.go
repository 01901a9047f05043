package serper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
)

const testEndpoint = "https://google.serper.dev/search"

func newTestClient() (*Client, *httpmock.MockTransport) {
	c := NewClient(ClientConfig{
		APIKey:   "test-key",
		Endpoint: testEndpoint,
		GL:       "tw",
		HL:       "zh-tw",
	})
	transport := httpmock.NewMockTransport()
	c.client.Transport = transport
	return c, transport
}

func TestFetchDecodesResponse(t *testing.T) {
	c, transport := newTestClient()

	var gotPayload map[string]any
	var gotAPIKey string
	transport.RegisterResponder("POST", testEndpoint,
		func(req *http.Request) (*http.Response, error) {
			gotAPIKey = req.Header.Get("X-API-KEY")
			body, err := io.ReadAll(req.Body)
			if err != nil {
				return nil, err
			}
			if err := json.Unmarshal(body, &gotPayload); err != nil {
				return nil, err
			}
			return httpmock.NewStringResponse(200, `{"ads": [{"title": "Ad"}]}`), nil
		})

	raw, err := c.Fetch(context.Background(), "牙醫診所")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if gotAPIKey != "test-key" {
		t.Fatalf("X-API-KEY = %q, want test-key", gotAPIKey)
	}
	if gotPayload["q"] != "牙醫診所" || gotPayload["gl"] != "tw" || gotPayload["hl"] != "zh-tw" {
		t.Fatalf("unexpected request payload: %v", gotPayload)
	}

	ads, ok := raw["ads"].([]any)
	if !ok || len(ads) != 1 {
		t.Fatalf("unexpected response document: %v", raw)
	}
}

func TestFetchNon2xxStatus(t *testing.T) {
	tests := []struct {
		status    int
		wantLabel string
	}{
		{status: http.StatusUnauthorized, wantLabel: "auth"},
		{status: http.StatusForbidden, wantLabel: "auth"},
		{status: http.StatusTooManyRequests, wantLabel: "rate_limited"},
		{status: http.StatusBadRequest, wantLabel: "client"},
		{status: http.StatusBadGateway, wantLabel: "server"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			c, transport := newTestClient()
			transport.RegisterResponder("POST", testEndpoint,
				httpmock.NewStringResponder(tt.status, `{"message":"nope"}`))

			_, err := c.Fetch(context.Background(), "keyword")
			if err == nil {
				t.Fatalf("expected error for status %d", tt.status)
			}

			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("expected *RequestError, got %T", err)
			}
			if reqErr.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", reqErr.StatusCode, tt.status)
			}
			if got := ErrorTypeLabel(err); got != tt.wantLabel {
				t.Fatalf("label = %q, want %q", got, tt.wantLabel)
			}
		})
	}
}

func TestFetchTransportError(t *testing.T) {
	c, transport := newTestClient()
	transport.RegisterResponder("POST", testEndpoint,
		httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := c.Fetch(context.Background(), "keyword")
	if err == nil {
		t.Fatalf("expected transport error")
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *RequestError, got %T", err)
	}
	if reqErr.StatusCode != 0 {
		t.Fatalf("status = %d, want 0 for transport failure", reqErr.StatusCode)
	}
	if reqErr.Keyword != "keyword" {
		t.Fatalf("keyword = %q, want keyword", reqErr.Keyword)
	}
}

func TestFetchMalformedBody(t *testing.T) {
	c, transport := newTestClient()
	transport.RegisterResponder("POST", testEndpoint,
		httpmock.NewStringResponder(200, "not json"))

	if _, err := c.Fetch(context.Background(), "keyword"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(ClientConfig{APIKey: "k"})
	if c.cfg.Endpoint != defaultEndpoint {
		t.Fatalf("endpoint = %q, want default", c.cfg.Endpoint)
	}
	if c.client.Timeout != 30*time.Second {
		t.Fatalf("timeout = %v, want 30s", c.client.Timeout)
	}
}

func TestErrorTypeLabel(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil", err: nil, expected: "unknown"},
		{name: "context timeout", err: context.DeadlineExceeded, expected: "timeout"},
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, expected: "timeout"},
		{
			name:     "connection",
			err:      &RequestError{Keyword: "k", Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}},
			expected: "connection",
		},
		{name: "transport", err: &RequestError{Keyword: "k", Err: errors.New("eof")}, expected: "transport"},
		{name: "other", err: errors.New("some other error"), expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorTypeLabel(tt.err); got != tt.expected {
				t.Fatalf("ErrorTypeLabel(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}
