package api

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

	"github.com/five82/seer/internal/tokens"
)

// Client talks to the fortune backend's REST API. It attaches the stored
// access token to every request and transparently refreshes it once when the
// backend answers 401.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	tokens    tokens.Store
	log       *zap.Logger
	onReauth  func(error)
	refresher *refresher
}

const (
	defaultBaseURL   = "http://localhost:8000"
	defaultUserAgent = "seer/0.1"
	requestTimeout   = 30 * time.Second
	refreshTimeout   = 15 * time.Second
	maxErrorBody     = 1 << 20
)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithTokenStore sets where tokens are read from and written to.
func WithTokenStore(s tokens.Store) Option {
	return func(c *Client) {
		if s != nil {
			c.tokens = s
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithReauthHandler registers fn to be called whenever the session is lost
// and the user has to log in again.
func WithReauthHandler(fn func(error)) Option {
	return func(c *Client) {
		c.onReauth = fn
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient builds a Client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		tokens:    tokens.NewMemoryStore(tokens.Pair{}),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named("api")
	c.refresher = newRefresher(c.tokens, c.refreshTokens, c.signalReauth, c.log)
	return c, nil
}

// BaseURL returns the normalized backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// TokenStore exposes the store the client reads credentials from.
func (c *Client) TokenStore() tokens.Store {
	return c.tokens
}

// Do performs an authenticated JSON call against a path relative to the base
// URL. payload may be nil; dest may be nil, a pointer to decode into, or an
// io.Writer that receives the raw body.
func (c *Client) Do(ctx context.Context, method, path string, payload, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	req, err := c.newRequest(method, path, nil, payload)
	if err != nil {
		return err
	}
	return c.roundTrip(ctx, req, dest)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	req, err := c.newRequest(http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return c.roundTrip(ctx, req, dest)
}

func (c *Client) send(ctx context.Context, method, path string, payload, dest any) error {
	return c.Do(ctx, method, path, payload, dest)
}

// request describes one logical API call. It is rebuilt into a fresh
// *http.Request for every attempt so a replay never carries stale headers.
type request struct {
	method string
	rel    *url.URL
	body   []byte
	accept string
	id     string

	// anonymous requests never carry a token and never refresh.
	anonymous bool
	retried   bool
	// sentToken is the access token attached to the latest attempt.
	sentToken string
}

func (r *request) path() string {
	return r.rel.Path
}

func (c *Client) newRequest(method, path string, query url.Values, payload any) (*request, error) {
	rel := &url.URL{Path: path}
	if len(query) > 0 {
		rel.RawQuery = query.Encode()
	}
	req := &request{
		method: method,
		rel:    rel,
		accept: "application/json",
		id:     uuid.NewString(),
	}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, &Error{Kind: KindRequest, Method: method, Path: path, Err: fmt.Errorf("encode body: %w", err)}
		}
		req.body = body
	}
	return req, nil
}

// roundTrip runs the request, recovering from one expired access token.
func (c *Client) roundTrip(ctx context.Context, req *request, dest any) error {
	for {
		resp, err := c.dispatch(ctx, req)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusUnauthorized || req.anonymous {
			return c.finish(req, resp, dest)
		}
		if req.retried {
			apiErr := c.readError(req, resp)
			c.log.Warn("unauthorized after token refresh",
				zap.String("request_id", req.id),
				zap.String("method", req.method),
				zap.String("path", req.path()),
			)
			return apiErr
		}
		drain(resp)
		req.retried = true
		if err := c.refresher.recover(ctx, req); err != nil {
			return err
		}
	}
}

func (c *Client) dispatch(ctx context.Context, r *request) (*http.Response, error) {
	reqURL := c.baseURL.ResolveReference(r.rel)
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, reqURL.String(), body)
	if err != nil {
		return nil, &Error{Kind: KindRequest, Method: r.method, Path: r.path(), Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", r.accept)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", r.id)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	r.sentToken = ""
	if !r.anonymous {
		pair, err := c.tokens.Tokens(ctx)
		if err != nil {
			return nil, &Error{Kind: KindRequest, Method: r.method, Path: r.path(), Err: fmt.Errorf("read tokens: %w", err)}
		}
		if pair.Access != "" {
			req.Header.Set("Authorization", "Bearer "+pair.Access)
			r.sentToken = pair.Access
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("no response from backend",
			zap.String("request_id", r.id),
			zap.String("method", r.method),
			zap.String("path", r.path()),
			zap.Error(err),
		)
		return nil, &Error{Kind: KindNetwork, Method: r.method, Path: r.path(), Err: fmt.Errorf("execute request: %w", err)}
	}
	return resp, nil
}

func (c *Client) finish(r *request, resp *http.Response, dest any) error {
	if resp.StatusCode >= 400 {
		return c.readError(r, resp)
	}
	defer func() { _ = resp.Body.Close() }()

	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if w, ok := dest.(io.Writer); ok {
		if _, err := io.Copy(w, resp.Body); err != nil {
			return &Error{Kind: KindNetwork, Method: r.method, Path: r.path(), Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
		}
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &Error{Kind: KindDecode, Method: r.method, Path: r.path(), Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// readError consumes a failed response and logs it by kind. The payload is
// returned untouched.
func (c *Client) readError(r *request, resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := statusError(r.method, r.path(), resp.StatusCode, body)

	fields := []zap.Field{
		zap.String("request_id", r.id),
		zap.String("method", r.method),
		zap.String("path", r.path()),
		zap.Int("status", resp.StatusCode),
		zap.Stringer("kind", apiErr.Kind),
	}
	switch apiErr.Kind {
	case KindServer:
		c.log.Error("server error", append(fields, zap.ByteString("body", body))...)
	case KindForbidden:
		c.log.Warn("insufficient permissions", fields...)
	case KindNotFound:
		c.log.Info("resource not found", fields...)
	case KindValidation:
		c.log.Info("validation error", append(fields, zap.Any("fields", apiErr.Fields))...)
	default:
		c.log.Warn("api error", fields...)
	}
	return apiErr
}

// refreshTokens exchanges a refresh token for a new access token. It bypasses
// the refresh path so its own 401 is a plain failure.
func (c *Client) refreshTokens(ctx context.Context, refresh string) (tokens.Pair, error) {
	req, err := c.newRequest(http.MethodPost, pathAuthRefresh, nil, map[string]string{"refresh": refresh})
	if err != nil {
		return tokens.Pair{}, err
	}
	req.anonymous = true

	var payload struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := c.roundTrip(ctx, req, &payload); err != nil {
		return tokens.Pair{}, err
	}
	if payload.Access == "" {
		return tokens.Pair{}, &Error{Kind: KindDecode, Method: req.method, Path: req.path(), Err: errors.New("refresh response has no access token")}
	}
	return tokens.Pair{Access: payload.Access, Refresh: payload.Refresh}, nil
}

func (c *Client) signalReauth(err error) {
	c.log.Warn("session lost, login required", zap.Error(err))
	if c.onReauth != nil {
		c.onReauth(err)
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", raw)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
