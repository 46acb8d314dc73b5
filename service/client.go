package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"buskport-cli/model"
)

const (
	DefaultBaseURL     = "http://localhost:8080/api/v1"
	defaultUserAgent   = "buskport-cli"
	defaultMaxAttempts = 1
	defaultRetryBase   = 200 * time.Millisecond
	defaultRetryCap    = 1200 * time.Millisecond
)

// Client wraps HTTP access to the BuskPort API. Authentication rides on the
// cookie jar of the underlying http.Client.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	maxAttempts int
	retryBase   time.Duration
	retryCap    time.Duration
	logger      *zap.Logger
}

type Option func(*Client)

func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" {
			c.baseURL = base
		}
	}
}

// WithMaxAttempts enables retries of GET requests on 429/5xx and transport
// errors. Writes are never retried.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new API client. If httpClient is nil, a default client is used.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	c := &Client{
		httpClient:  httpClient,
		baseURL:     DefaultBaseURL,
		userAgent:   defaultUserAgent,
		maxAttempts: defaultMaxAttempts,
		retryBase:   defaultRetryBase,
		retryCap:    defaultRetryCap,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL is the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetLocations returns every venue.
func (c *Client) GetLocations(ctx context.Context) ([]model.Location, error) {
	var locations []model.Location
	if err := c.getJSON(ctx, c.baseURL+"/locations", &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// GetLocation fetches a single venue.
func (c *Client) GetLocation(ctx context.Context, id int) (model.Location, error) {
	if id <= 0 {
		return model.Location{}, errors.New("location id is required")
	}
	var location model.Location
	if err := c.getJSON(ctx, fmt.Sprintf("%s/locations/%d", c.baseURL, id), &location); err != nil {
		return model.Location{}, err
	}
	return location, nil
}

// GetPerformances returns performances between start and end, both days inclusive.
func (c *Client) GetPerformances(ctx context.Context, start time.Time, end time.Time) ([]model.Performance, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("invalid range: %s is before %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	query := url.Values{}
	query.Set("start", start.Format(time.DateOnly))
	query.Set("end", end.Format(time.DateOnly))
	endpoint := c.baseURL + "/performances?" + query.Encode()

	var perfs []model.Performance
	if err := c.getJSON(ctx, endpoint, &perfs); err != nil {
		return nil, err
	}
	return perfs, nil
}

// CreatePerformance submits a booking. The API may answer with the stored
// performance or an empty body; the latter yields a zero value.
func (c *Client) CreatePerformance(ctx context.Context, perf model.Performance) (model.Performance, error) {
	var created model.Performance
	if err := c.sendJSON(ctx, http.MethodPost, c.baseURL+"/performances", perf, &created); err != nil {
		return model.Performance{}, err
	}
	return created, nil
}

// GetPosts lists community posts of a category.
func (c *Client) GetPosts(ctx context.Context, category model.PostCategory) ([]model.Post, error) {
	if category == "" {
		category = model.CategoryGeneral
	}
	endpoint := c.baseURL + "/posts?category=" + url.QueryEscape(string(category))
	var posts []model.Post
	if err := c.getJSON(ctx, endpoint, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost fetches a single post.
func (c *Client) GetPost(ctx context.Context, id int) (model.Post, error) {
	if id <= 0 {
		return model.Post{}, errors.New("post id is required")
	}
	var post model.Post
	if err := c.getJSON(ctx, fmt.Sprintf("%s/posts/%d", c.baseURL, id), &post); err != nil {
		return model.Post{}, err
	}
	return post, nil
}

// CreatePost publishes a post. Requires a logged-in session.
func (c *Client) CreatePost(ctx context.Context, post model.NewPost) (model.Post, error) {
	if strings.TrimSpace(post.Title) == "" || strings.TrimSpace(post.Content) == "" {
		return model.Post{}, fmt.Errorf("title and content are required: %w", ErrValidation)
	}
	if post.Category == "" {
		post.Category = model.CategoryGeneral
	}
	var created model.Post
	if err := c.sendJSON(ctx, http.MethodPost, c.baseURL+"/posts", post, &created); err != nil {
		return model.Post{}, err
	}
	return created, nil
}

// Login authenticates; the backend answers with a session cookie that the
// http.Client's jar keeps.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) error {
	if strings.TrimSpace(req.UserId) == "" || req.Password == "" {
		return fmt.Errorf("id and password are required: %w", ErrValidation)
	}
	return c.sendJSON(ctx, http.MethodPost, c.baseURL+"/auth/login", req, nil)
}

// Signup registers a local account.
func (c *Client) Signup(ctx context.Context, req model.SignupRequest) error {
	if strings.TrimSpace(req.SocialId) == "" || req.Password == "" || strings.TrimSpace(req.Nickname) == "" {
		return fmt.Errorf("id, password and nickname are required: %w", ErrValidation)
	}
	if req.SocialProvider == "" {
		req.SocialProvider = model.ProviderLocal
	}
	if req.Position == "" {
		req.Position = model.DefaultPosition
	}
	return c.sendJSON(ctx, http.MethodPost, c.baseURL+"/users/regist", req, nil)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	maxAttempts := c.maxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, err := c.do(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			if c.shouldRetryNetworkError(ctx, err) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return err
		}

		if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
			apiErr := readAPIError(res, http.MethodGet, endpoint)
			if c.shouldRetryStatus(res.StatusCode) && attempt < maxAttempts {
				c.logger.Debug("retrying request", zap.String("endpoint", endpoint), zap.Int("status", res.StatusCode), zap.Int("attempt", attempt))
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			c.logger.Warn("request failed", zap.String("method", http.MethodGet), zap.String("endpoint", endpoint), zap.Int("status", res.StatusCode))
			return apiErr
		}

		return decodeBody(res, endpoint, out)
	}

	return errors.New("request failed after retries")
}

func (c *Client) sendJSON(ctx context.Context, method string, endpoint string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	res, err := c.do(ctx, method, endpoint, payload)
	if err != nil {
		return err
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		apiErr := readAPIError(res, method, endpoint)
		c.logger.Warn("request failed", zap.String("method", method), zap.String("endpoint", endpoint), zap.Int("status", res.StatusCode))
		return apiErr
	}
	if out == nil || res.StatusCode == http.StatusNoContent || res.StatusCode == http.StatusAccepted {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
		return nil
	}
	return decodeBody(res, endpoint, out)
}

func (c *Client) do(ctx context.Context, method string, endpoint string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		c.logger.Warn("request error", zap.String("method", method), zap.String("endpoint", endpoint), zap.Error(err))
		return nil, &NetworkError{Endpoint: endpoint, Err: err}
	}
	c.logger.Debug("request",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", res.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)
	return res, nil
}

func readAPIError(res *http.Response, method string, endpoint string) *APIError {
	snippet, _ := io.ReadAll(io.LimitReader(res.Body, 8<<10))
	_ = res.Body.Close()
	return &APIError{
		Method:     method,
		StatusCode: res.StatusCode,
		Status:     res.Status,
		Endpoint:   endpoint,
		Body:       strings.TrimSpace(string(snippet)),
	}
}

func decodeBody(res *http.Response, endpoint string, out any) error {
	dec := json.NewDecoder(res.Body)
	err := dec.Decode(out)
	_ = res.Body.Close()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response from %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) shouldRetryStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// shouldRetryNetworkError retries transport failures, including client
// timeouts, unless the caller's context is done.
func (c *Client) shouldRetryNetworkError(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() == nil && errors.Is(err, ErrNetwork)
}

func (c *Client) waitRetry(ctx context.Context, attempt int) error {
	delay := c.retryDelay(attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := c.retryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	limit := c.retryCap
	if limit <= 0 {
		limit = defaultRetryCap
	}

	delay := base
	for i := 1; i < attempt; i++ {
		if delay >= limit/2 {
			return limit
		}
		delay *= 2
	}
	if delay > limit {
		return limit
	}
	return delay
}
