// Package remote holds the optional hosted-backend client. The clinic
// services never call it; it is only probed by the health endpoint.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("remote backend not configured")

type Client struct {
	baseURL string
	key     string
	http    *http.Client
}

func New(baseURL, key string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		key:     strings.TrimSpace(key),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Configured reports whether both the URL and the key are set.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != "" && c.key != ""
}

func (c *Client) Ping(ctx context.Context) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rest/v1/", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("remote backend status %d", resp.StatusCode)
	}
	return nil
}
