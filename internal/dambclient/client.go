package dambclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/park285/dambrete/pkg/damdto"
	"github.com/valyala/fasthttp"
)

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

// Client reads the REST API of a dambrete server.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Health struct {
	OK     bool `json:"ok"`
	Online int  `json:"online"`
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.doJSON(ctx, "/healthz", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) Rooms(ctx context.Context) ([]damdto.RoomSummary, error) {
	var out struct {
		Rooms []damdto.RoomSummary `json:"rooms"`
	}
	if err := c.doJSON(ctx, "/api/rooms", &out); err != nil {
		return nil, err
	}
	return out.Rooms, nil
}

func (c *Client) Room(ctx context.Context, id string) (*damdto.SessionState, error) {
	var out struct {
		Room damdto.SessionState `json:"room"`
	}
	if err := c.doJSON(ctx, "/api/rooms/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out.Room, nil
}

func (c *Client) Leaderboard(ctx context.Context) ([]damdto.PlayerStats, error) {
	var out struct {
		Top []damdto.PlayerStats `json:"top"`
	}
	if err := c.doJSON(ctx, "/api/leaderboard", &out); err != nil {
		return nil, err
	}
	return out.Top, nil
}

// BoardPNG fetches the rendered board of room id.
func (c *Client) BoardPNG(ctx context.Context, id string) ([]byte, error) {
	var img []byte
	err := c.do(ctx, "/api/rooms/"+url.PathEscape(id)+"/board.png", func(body []byte) error {
		img = append([]byte(nil), body...)
		return nil
	})
	return img, err
}

// APIError is a non-2xx answer carrying the server's domain error.
type APIError struct {
	Status int
	damdto.DomainError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dambrete api error: status=%d code=%s", e.Status, e.Code)
}

func (c *Client) doJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, path, func(body []byte) error {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}

func (c *Client) do(ctx context.Context, path string, onBody func([]byte) error) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(c.baseURL + path)
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}

	attempts := c.retryMax
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
		} else if status := resp.StatusCode(); status < 200 || status >= 300 {
			apiErr := &APIError{Status: status}
			var env struct {
				Error damdto.DomainError `json:"error"`
			}
			if json.Unmarshal(resp.Body(), &env) == nil {
				apiErr.DomainError = env.Error
			}
			if !shouldRetryStatus(status) {
				return apiErr
			}
			lastErr = apiErr
		} else {
			return onBody(resp.Body())
		}
		if attempt == attempts {
			break
		}
		if err := sleepWithContext(ctx, backoffDuration(attempt)); err != nil {
			return lastErr
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
