// Package client talks to a running isomatch HTTP API.
//
// Requests that fail with a network error or a 5xx status are retried with
// exponential backoff; 4xx answers are returned at once as coded errors.
//
//	c := client.New("http://localhost:8080")
//	rep, err := c.Match(ctx, client.MatchRequest{Targets: db, Queries: q})
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	errs "github.com/matzehuels/isomatch/pkg/errors"
	"github.com/matzehuels/isomatch/pkg/report"
)

const (
	defaultTimeout  = 5 * time.Minute
	defaultAttempts = 3
	defaultDelay    = time.Second
)

// MatchRequest mirrors the body of POST /v1/match.
type MatchRequest struct {
	Targets       string `json:"targets"`
	Queries       string `json:"queries"`
	Format        string `json:"format,omitempty"`
	QueriesFormat string `json:"queries_format,omitempty"`
	Name          string `json:"name,omitempty"`
	Options       any    `json:"options,omitempty"`
}

// Client is an isomatch API client. It is safe for concurrent use.
type Client struct {
	base     string
	http     *http.Client
	attempts int
	delay    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetry sets the number of attempts and the initial backoff delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.delay = delay
	}
}

// New returns a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:     strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: defaultTimeout},
		attempts: defaultAttempts,
		delay:    defaultDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Match submits graphs for matching and returns the stored report.
func (c *Client) Match(ctx context.Context, req MatchRequest) (*report.Report, error) {
	var rep report.Report
	if err := c.do(ctx, http.MethodPost, "/v1/match", req, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// Report fetches a stored report.
func (c *Client) Report(ctx context.Context, id string) (*report.Report, error) {
	var rep report.Report
	if err := c.do(ctx, http.MethodGet, "/v1/reports/"+url.PathEscape(id), nil, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// Reports lists recent report summaries, newest first.
func (c *Client) Reports(ctx context.Context, limit int) ([]report.Summary, error) {
	path := "/v1/reports"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var list []report.Summary
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	return Retry(ctx, c.attempts, c.delay, func() error {
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &RetryableError{Err: errs.Wrap(errs.ErrCodeNetwork, err, "%s %s", method, path)}
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusBadRequest {
			apiErr := decodeError(resp)
			if resp.StatusCode >= http.StatusInternalServerError {
				return &RetryableError{Err: apiErr}
			}
			return apiErr
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode %s response", path)
		}
		return nil
	})
}

// decodeError turns an error response into a coded error, keeping the
// server's code when the body carries one.
func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error struct {
			Code    errs.Code `json:"code"`
			Message string    `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error.Code != "" {
		return errs.New(body.Error.Code, "%s", body.Error.Message)
	}
	code := errs.ErrCodeInternal
	switch resp.StatusCode {
	case http.StatusNotFound:
		code = errs.ErrCodeNotFound
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		code = errs.ErrCodeNetwork
	case http.StatusGatewayTimeout:
		code = errs.ErrCodeTimeout
	}
	return errs.New(code, "%s: %s", resp.Status, strings.TrimSpace(string(data)))
}

// IsNotFound reports whether err is a not-found answer from the API.
func IsNotFound(err error) bool {
	return errs.Is(err, errs.ErrCodeNotFound) || errs.Is(err, errs.ErrCodeReportNotFound)
}
