package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPBackend reaches a configuration server over its REST API:
// keys live under {base}/v1/kv, values travel as request/response
// bodies, and ?recursive=true returns the sub-tree as a JSON Node.
type HTTPBackend struct {
	base   string
	client *http.Client
}

// Dial validates uri and returns an HTTPBackend for it.
func Dial(uri string) (*HTTPBackend, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse server URI %q: %w", uri, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf(
			"server URI %q: unsupported scheme %q", uri, u.Scheme,
		)
	}

	return &HTTPBackend{
		base:   strings.TrimRight(uri, "/") + "/v1/kv",
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// PutString stores value under key.
func (b *HTTPBackend) PutString(ctx context.Context, key, value string) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPut, b.base+key, strings.NewReader(value),
	)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	res, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		return fmt.Errorf("put %s: server returned %s", key, res.Status)
	}

	return nil
}

// GetString fetches the value under key. A missing key yields ok=false
// with a nil error.
func (b *HTTPBackend) GetString(ctx context.Context, key string) (string, bool, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, b.base+key, nil,
	)
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}

	res, err := b.client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(res.Body)
		if err != nil {
			return "", false, fmt.Errorf("get %s: read body: %w", key, err)
		}

		return string(body), true, nil

	case http.StatusNotFound:
		return "", false, nil

	default:
		return "", false, fmt.Errorf(
			"get %s: server returned %s", key, res.Status,
		)
	}
}

// GetRecursive fetches the sub-tree rooted at prefix.
func (b *HTTPBackend) GetRecursive(ctx context.Context, prefix string) (*Node, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, b.base+prefix+"?recursive=true", nil,
	)
	if err != nil {
		return nil, fmt.Errorf("get recursive %s: %w", prefix, err)
	}

	res, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get recursive %s: %w", prefix, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"get recursive %s: server returned %s", prefix, res.Status,
		)
	}

	var node Node
	if err := json.NewDecoder(res.Body).Decode(&node); err != nil {
		return nil, fmt.Errorf("get recursive %s: decode tree: %w", prefix, err)
	}

	return &node, nil
}

// Close releases idle connections held by the client.
func (b *HTTPBackend) Close() error {
	b.client.CloseIdleConnections()

	return nil
}
