package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/five82/logmon/internal/catalog"
	"github.com/five82/logmon/internal/config"
)

// Fetcher is the read side of the logmon API used by the viewer. *Client
// implements it; tests substitute fakes.
type Fetcher interface {
	FetchLogs(ctx context.Context) (LogList, error)
	Refresh(ctx context.Context) (LogList, error)
	FetchConfig(ctx context.Context) (config.File, error)
	FetchTags(ctx context.Context) ([]catalog.TagCount, error)
	FetchContent(ctx context.Context, webPath string) (Content, error)
}

var _ Fetcher = (*Client)(nil)

// Client talks to a logmon server.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultServer    = "127.0.0.1:8080"
	defaultUserAgent = "logmon/0.1"
	requestTimeout   = 5 * time.Second
	// errorBodyLimit caps how much of an error response is read for the
	// message.
	errorBodyLimit = 4 << 10
)

// New builds a Client for server, a host:port or URL. Empty means the local
// default.
func New(server string) (*Client, error) {
	base, err := parseBaseURL(server)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the server address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchLogs returns the currently published catalog.
func (c *Client) FetchLogs(ctx context.Context) (LogList, error) {
	if c == nil {
		return LogList{}, fmt.Errorf("client is nil")
	}
	var payload LogList
	if err := c.do(ctx, http.MethodGet, "/api/logs", &payload); err != nil {
		return LogList{}, err
	}
	return payload, nil
}

// Refresh asks the server to rediscover log files and returns the new
// catalog.
func (c *Client) Refresh(ctx context.Context) (LogList, error) {
	if c == nil {
		return LogList{}, fmt.Errorf("client is nil")
	}
	var payload LogList
	if err := c.do(ctx, http.MethodPost, "/api/refresh", &payload); err != nil {
		return LogList{}, err
	}
	return payload, nil
}

// FetchConfig returns the server configuration.
func (c *Client) FetchConfig(ctx context.Context) (config.File, error) {
	if c == nil {
		return config.File{}, fmt.Errorf("client is nil")
	}
	var payload config.File
	if err := c.do(ctx, http.MethodGet, "/api/config", &payload); err != nil {
		return config.File{}, err
	}
	return payload, nil
}

// FetchTags returns tag counts in first-seen order.
func (c *Client) FetchTags(ctx context.Context) ([]catalog.TagCount, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload TagList
	if err := c.do(ctx, http.MethodGet, "/api/tags", &payload); err != nil {
		return nil, err
	}
	return payload.Tags, nil
}

// FetchContent downloads a log file (its tail for large files) by web path.
func (c *Client) FetchContent(ctx context.Context, webPath string) (Content, error) {
	if c == nil {
		return Content{}, fmt.Errorf("client is nil")
	}
	webPath = strings.TrimLeft(strings.TrimSpace(webPath), "/")
	if webPath == "" {
		return Content{}, fmt.Errorf("log path required")
	}

	resp, err := c.send(ctx, http.MethodGet, &url.URL{Path: "/" + webPath}, "text/plain")
	if err != nil {
		return Content{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Content{}, fmt.Errorf("read content: %w", err)
	}
	return Content{
		Data:    data,
		Partial: resp.Header.Get(HeaderPartialContent) == "true",
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, dest any) error {
	rel := &url.URL{Path: path}
	return c.doURL(ctx, method, rel, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, dest any) error {
	resp, err := c.send(ctx, method, rel, "application/json")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// send executes a request and turns 4xx/5xx responses into *APIError. The
// caller closes the body of a successful response.
func (c *Client) send(ctx context.Context, method string, rel *url.URL, accept string) (*http.Response, error) {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode >= 400 {
		defer func() { _ = resp.Body.Close() }()
		return nil, newAPIError(rel.Path, resp)
	}
	return resp, nil
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
	}
	return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func newAPIError(path string, resp *http.Response) *APIError {
	apiErr := &APIError{Path: path, Status: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Message = payload.Error
	}
	return apiErr
}

func parseBaseURL(server string) (*url.URL, error) {
	trimmed := strings.TrimSpace(server)
	if trimmed == "" {
		trimmed = defaultServer
	}
	if strings.HasPrefix(trimmed, ":") {
		trimmed = "127.0.0.1" + trimmed
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server address %q: %w", server, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
