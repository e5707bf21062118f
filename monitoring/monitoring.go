// Package monitoring pushes tagged benchmark samples to an external
// metrics collector. Samples are fire-and-forget, but a failed send is
// surfaced to the caller: silently losing a run's measurements would
// defeat the point of running it.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Tag annotates a sample so results from different run shapes can be
// distinguished downstream.
type Tag struct {
	Key   string
	Value string
}

// Sender submits one tagged numeric sample per call.
type Sender interface {
	SendTagged(ctx context.Context, value int64, metric string, tags []Tag) error
	Close() error
}

type sample struct {
	Metric    string            `json:"metric"`
	Value     int64             `json:"value"`
	Timestamp int64             `json:"timestamp"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// HTTPSender posts samples as JSON to a collector endpoint.
type HTTPSender struct {
	uri    string
	client *http.Client
}

// Dial validates uri and returns an HTTPSender for it.
func Dial(uri string) (*HTTPSender, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse monitoring URI %q: %w", uri, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf(
			"monitoring URI %q: unsupported scheme %q", uri, u.Scheme,
		)
	}

	return &HTTPSender{
		uri:    uri,
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// SendTagged posts one sample to the collector.
func (s *HTTPSender) SendTagged(
	ctx context.Context, value int64, metric string, tags []Tag,
) error {
	body := sample{
		Metric:    metric,
		Value:     value,
		Timestamp: time.Now().UnixMilli(),
	}

	if len(tags) > 0 {
		body.Tags = make(map[string]string, len(tags))
		for _, tag := range tags {
			body.Tags[tag.Key] = tag.Value
		}
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return fmt.Errorf("encode sample %s: %w", metric, err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, s.uri, &buf,
	)
	if err != nil {
		return fmt.Errorf("send sample %s: %w", metric, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sample %s: %w", metric, err)
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		return fmt.Errorf(
			"send sample %s: collector returned %s", metric, res.Status,
		)
	}

	return nil
}

// Close releases idle connections held by the client.
func (s *HTTPSender) Close() error {
	s.client.CloseIdleConnections()

	return nil
}
