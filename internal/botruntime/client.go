package botruntime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"telegram-catalog/internal/config"
)

// Client calls endpoints exposed by the bot runtimes. Requests authenticate
// with the bot's API key, the same key the runtime uses against /telegram.
type Client struct {
	http *http.Client
}

func NewClient(cfg config.RuntimeConfig) *Client {
	return &Client{http: &http.Client{Timeout: cfg.Timeout}}
}

// Response is what the runtime answered. Body is the decoded JSON, or nil
// when the body is empty or not JSON.
type Response struct {
	StatusCode int
	Body       interface{}
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// CleanCache asks a runtime to drop its cached catalog. Any status the
// runtime answers with is returned as a Response; err is only set when no
// answer was received.
func (c *Client) CleanCache(ctx context.Context, endpoint, apiKey string) (*Response, error) {
	return c.sendRequest(ctx, http.MethodDelete, endpoint, apiKey)
}

func (c *Client) sendRequest(ctx context.Context, method, url, apiKey string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	out := &Response{StatusCode: resp.StatusCode}
	if len(raw) > 0 {
		var body interface{}
		if json.Unmarshal(raw, &body) == nil {
			out.Body = body
		}
	}
	return out, nil
}
