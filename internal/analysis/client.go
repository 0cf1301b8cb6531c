package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUpstreamUnavailable reports an unreachable analysis service or a non-2xx answer.
var ErrUpstreamUnavailable = errors.New("analysis service unavailable")

const maxUpstreamBody = 8 << 20

// Client talks to the external analysis service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client whose requests time out after timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Response is a pass-through reply from the analysis service.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Analyze posts the payload to /analyze/ and decodes the JSON object it returns.
func (c *Client) Analyze(ctx context.Context, payload any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis payload: %w", err)
	}
	resp, err := c.Forward(ctx, "/analyze/", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if resp.Status < 200 || resp.Status > 299 {
		return nil, fmt.Errorf("%w: /analyze/ responded with status %d", ErrUpstreamUnavailable, resp.Status)
	}
	var out map[string]any
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode /analyze/ response: %w", ErrUpstreamUnavailable, err)
	}
	return out, nil
}

// Forward sends body to path unchanged and returns whatever the service answered.
// Only transport failures are errors; the caller decides what a status means.
func (c *Client) Forward(ctx context.Context, path, contentType string, body io.Reader) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return Response{}, fmt.Errorf("%w: read %s response: %w", ErrUpstreamUnavailable, path, err)
	}
	return Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}
