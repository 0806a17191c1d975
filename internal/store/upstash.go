package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// UpstashStore talks to an Upstash Redis REST endpoint.
type UpstashStore struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewUpstashStore(baseURL, token string, client *http.Client) *UpstashStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &UpstashStore{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: client,
	}
}

type upstashResponse struct {
	Result *string `json:"result"`
	Error  string  `json:"error"`
}

func (u *UpstashStore) Get(ctx context.Context, key string) (string, bool, error) {
	resp, err := u.do(ctx, "/get/"+url.PathEscape(key))
	if err != nil {
		return "", false, fmt.Errorf("kv get %s: %w", key, err)
	}
	if resp.Result == nil {
		return "", false, nil
	}
	return *resp.Result, true, nil
}

func (u *UpstashStore) Set(ctx context.Context, key, value string) error {
	if _, err := u.do(ctx, "/set/"+url.PathEscape(key)+"/"+url.PathEscape(value)); err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

func (u *UpstashStore) do(ctx context.Context, path string) (*upstashResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+u.Token)

	resp, err := u.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out upstashResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, out.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return &out, nil
}
