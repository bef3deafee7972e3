package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/chess-humanmoves/pkg/chessdto"
)

// Client talks to a running humanmoves server.
type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the network dialer, e.g. with an in-memory listener.
func WithDial(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 2 * time.Minute, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: time.Minute,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) HumanMoves(ctx context.Context, engine, fen string) (*chessdto.AnalysisDTO, error) {
	path := "/chess/engine/" + url.PathEscape(engine) + "/HumanMoves?fen=" + url.QueryEscape(fen)
	var out chessdto.AnalysisDTO
	body, err := c.do(ctx, fasthttp.MethodGet, path, nil, true)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// ProcessText is never retried: the script may not be idempotent.
func (c *Client) ProcessText(ctx context.Context, engine, script string) (string, error) {
	body, err := c.do(ctx, fasthttp.MethodPost, "/chess/engine/"+url.PathEscape(engine)+"/ProcessText", []byte(script), false)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) History(ctx context.Context, limit int) ([]chessdto.HistoryEntry, error) {
	body, err := c.do(ctx, fasthttp.MethodGet, "/chess/history?limit="+strconv.Itoa(limit), nil, true)
	if err != nil {
		return nil, err
	}
	var out chessdto.HistoryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Entries, nil
}

func (c *Client) BoardPNG(ctx context.Context, fen, move string) ([]byte, error) {
	q := url.Values{}
	q.Set("fen", fen)
	if move != "" {
		q.Set("move", move)
	}
	return c.do(ctx, fasthttp.MethodGet, "/chess/board.png?"+q.Encode(), nil, true)
}

func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, fasthttp.MethodGet, "/health", nil, false)
	return err
}

// do returns the response body of a 2xx reply. Error replies carrying a
// JSON DomainError are returned as that DomainError.
func (c *Client) do(ctx context.Context, method, path string, body []byte, retry bool) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if body != nil {
		req.Header.SetContentType("text/plain; charset=utf-8")
		req.SetBody(body)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
		} else {
			status := resp.StatusCode()
			if status >= 200 && status < 300 {
				return append([]byte(nil), resp.Body()...), nil
			}
			lastErr = decodeError(status, resp.Body())
			if !shouldRetryStatus(status) {
				return nil, lastErr
			}
		}
		if attempt == attempts {
			break
		}
		if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
			return nil, lastErr
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, lastErr
}

func decodeError(status int, body []byte) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error.Code != "" {
		return eb.Error
	}
	return fmt.Errorf("humanmoves api error: status=%d body=%s", status, truncate(string(body), 512))
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
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
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
