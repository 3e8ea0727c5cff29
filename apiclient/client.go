// Package apiclient is the authenticated HTTP client every marketplace call
// goes through. It attaches the stored access token, and when the server
// answers 401 it refreshes the token once on behalf of all concurrent callers
// and replays their requests.
package apiclient

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-market-client/credentials"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultRefreshPath = "/auth/refresh-token"
	LoginPath          = "/auth/login"

	headerRequestID = "X-Request-ID"
)

// attempt is threaded through the retry decorator instead of mutating the
// caller's request. token, when set, replaces the store lookup.
type attempt struct {
	retried bool
	token   string
}

type sendFunc func(ctx context.Context, req *Request, at attempt) (*Response, error)

// tokenEnvelope is the login and refresh response body
type tokenEnvelope struct {
	Data credentials.Credentials `json:"data"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Client issues requests against a fixed base URL
type Client struct {
	baseURL     string
	refreshPath string
	httpClient  *http.Client
	timeout     time.Duration
	store       credentials.Store
	gate        *refreshGate
	logger      zerolog.Logger
	registerer  prometheus.Registerer
	metrics     *metrics

	logoutHandlers []func(error)
	logouts        chan error

	do sendFunc
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTransport sets the round tripper, e.g. an instrumented one
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Transport = rt
		c.httpClient = &hc
	}
}

// WithTimeout bounds every network call, including the refresh
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics registers the client's collectors with reg
func WithMetrics(reg prometheus.Registerer) ClientOption {
	return func(c *Client) {
		c.registerer = reg
	}
}

// WithLogoutHandler is called once per unrecoverable refresh failure
func WithLogoutHandler(fn func(reason error)) ClientOption {
	return func(c *Client) {
		if fn != nil {
			c.logoutHandlers = append(c.logoutHandlers, fn)
		}
	}
}

// WithRefreshPath overrides the refresh endpoint
func WithRefreshPath(path string) ClientOption {
	return func(c *Client) {
		c.refreshPath = path
	}
}

// New creates a client for baseURL that keeps its tokens in store
func New(baseURL string, store credentials.Store, options ...ClientOption) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[New] baseURL is required")
	}
	if store == nil {
		return nil, errors.New("[New] credential store is required")
	}

	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		refreshPath: DefaultRefreshPath,
		httpClient:  &http.Client{},
		store:       store,
		logger:      log.Logger,
		logouts:     make(chan error, 1),
	}
	for _, opt := range options {
		opt(c)
	}

	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	c.metrics = newMetrics(c.registerer)
	c.gate = newRefreshGate(c.logger)
	c.do = c.withAuthRetry(c.send)
	return c, nil
}

// Do dispatches req. A 401 caused by an expired access token is recovered
// transparently; every other failure is returned as a *TransportError,
// *HTTPStatusError or *AuthenticationError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errors.New("[Do] request is required")
	}
	return c.do(ctx, req, attempt{})
}

// Logouts delivers the reason for a forced logout. The channel holds one
// signal; if the previous one was not consumed the new one is dropped.
func (c *Client) Logouts() <-chan error {
	return c.logouts
}

// Login exchanges email and password for a token pair and stores it
func (c *Client) Login(ctx context.Context, email, password string) error {
	req, err := NewJSONRequest(http.MethodPost, LoginPath, loginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	req.NoAuthRetry = true

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	var out tokenEnvelope
	if err := resp.DecodeJSON(&out); err != nil {
		return errors.Wrap(err, "[Login] decode tokens")
	}
	if out.Data.AccessToken == "" {
		return ErrMalformedTokenResponse
	}
	if err := credentials.Save(ctx, c.store, out.Data); err != nil {
		return errors.Wrap(err, "[Login] store tokens")
	}
	c.logger.Info().Msg("logged in")
	return nil
}

// Logout erases the stored token pair. It does not emit a logout signal;
// those are reserved for sessions the client could not recover.
func (c *Client) Logout(ctx context.Context) error {
	if err := credentials.Clear(ctx, c.store); err != nil {
		return errors.Wrap(err, "[Logout] clear credentials")
	}
	c.logger.Info().Msg("logged out")
	return nil
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// send dispatches one request. The access token is read from the store on
// every call so a token written by a concurrent refresh is picked up.
func (c *Client) send(ctx context.Context, req *Request, at attempt) (*Response, error) {
	target := c.url(req.Path)
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, req.bodyReader())
	if err != nil {
		return nil, errors.Wrapf(err, "[send] build %s %s", req.Method, req.Path)
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	token := at.token
	if token == "" {
		stored, _, err := c.store.Get(ctx, credentials.KeyAccessToken)
		if err != nil {
			return nil, errors.Wrap(err, "[send] read access token")
		}
		token = stored
	}
	if token != "" {
		credentials.Credentials{AccessToken: token}.Token().SetAuthHeader(httpReq)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set(headerRequestID, requestID)

	started := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.observeRequest(req.Method, 0)
		c.logger.Debug().Err(err).Str("request_id", requestID).Str("method", req.Method).Str("path", req.Path).Msg("transport error")
		return nil, &TransportError{Method: req.Method, URL: target, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.metrics.observeRequest(req.Method, 0)
		return nil, &TransportError{Method: req.Method, URL: target, Err: errors.Wrap(err, "read body")}
	}

	c.metrics.observeRequest(req.Method, httpResp.StatusCode)
	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", httpResp.StatusCode).
		Bool("retried", at.retried).
		Dur("elapsed", time.Since(started)).
		Msg("request")

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &HTTPStatusError{
			Method:     req.Method,
			URL:        target,
			StatusCode: httpResp.StatusCode,
			Body:       body,
		}
	}
	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: body}, nil
}

func (c *Client) isRefreshPath(path string) bool {
	return "/"+strings.Trim(path, "/") == "/"+strings.Trim(c.refreshPath, "/")
}

func (c *Client) shouldRefresh(req *Request, at attempt, err error) bool {
	if at.retried || req.NoAuthRetry || c.isRefreshPath(req.Path) {
		return false
	}
	return IsUnauthorized(err)
}

// withAuthRetry decorates next with the 401 recovery: one refresh shared by
// all concurrent callers, then a single redispatch per request.
func (c *Client) withAuthRetry(next sendFunc) sendFunc {
	var retrying sendFunc
	retrying = func(ctx context.Context, req *Request, at attempt) (*Response, error) {
		resp, err := next(ctx, req, at)
		if err == nil || !c.shouldRefresh(req, at, err) {
			return resp, err
		}

		pending, refresher := c.gate.acquireOrEnqueue()
		if !refresher {
			c.metrics.queued.Inc()
			c.logger.Debug().Str("pending_id", pending.id).Str("path", req.Path).Msg("queued behind token refresh")
			select {
			case res := <-pending.done:
				if res.err != nil {
					return nil, res.err
				}
				return retrying(ctx, req, attempt{retried: true, token: res.token})
			case <-ctx.Done():
				// the entry stays queued and is still settled by the refresher
				return nil, ctx.Err()
			}
		}

		token, err := c.refreshSession(ctx)
		if err != nil {
			return nil, err
		}
		return retrying(ctx, req, attempt{retried: true, token: token})
	}
	return retrying
}

// refreshSession runs the refresh as the gate holder and settles the queue.
// The refresh is detached from the caller's cancellation: abandoning it would
// log out every queued caller.
func (c *Client) refreshSession(ctx context.Context) (string, error) {
	ctx = context.WithoutCancel(ctx)
	c.logger.Info().Msg("access token rejected, refreshing")

	token, outcome, err := c.refreshTokens(ctx)
	c.metrics.observeRefresh(outcome)
	if err == nil {
		n := c.gate.release(refreshResult{token: token})
		c.logger.Info().Int("replayed", n).Msg("token refreshed")
		return token, nil
	}

	rejected := c.gate.settle(refreshResult{err: err})
	if clearErr := credentials.Clear(ctx, c.store); clearErr != nil {
		c.logger.Err(clearErr).Msg("failed to clear credentials after refresh failure")
	}
	c.signalLogout(err)
	rejected += c.gate.release(refreshResult{err: err})
	c.logger.Warn().Err(err).Int("rejected", rejected).Msg("token refresh failed, session ended")
	return "", err
}

// refreshTokens exchanges the stored refresh token for a new pair and persists it
func (c *Client) refreshTokens(ctx context.Context) (string, string, error) {
	refreshToken, found, err := c.store.Get(ctx, credentials.KeyRefreshToken)
	if err != nil {
		return "", outcomeFailure, &AuthenticationError{Reason: "refresh token unreadable", Err: err}
	}
	if !found || refreshToken == "" {
		return "", outcomeMissing, &AuthenticationError{Reason: "cannot refresh session", Err: ErrRefreshTokenMissing}
	}

	req, err := NewJSONRequest(http.MethodPost, c.refreshPath, refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return "", outcomeFailure, &AuthenticationError{Reason: "build refresh request", Err: err}
	}
	resp, err := c.send(ctx, req, attempt{retried: true})
	if err != nil {
		return "", outcomeFailure, &AuthenticationError{Reason: "refresh rejected", Err: err}
	}

	var out tokenEnvelope
	if err := resp.DecodeJSON(&out); err != nil {
		return "", outcomeFailure, &AuthenticationError{Reason: "refresh response", Err: err}
	}
	if out.Data.AccessToken == "" {
		return "", outcomeFailure, &AuthenticationError{Reason: "refresh response", Err: ErrMalformedTokenResponse}
	}
	if err := credentials.Save(ctx, c.store, out.Data); err != nil {
		return "", outcomeFailure, &AuthenticationError{Reason: "store refreshed tokens", Err: err}
	}
	return out.Data.AccessToken, outcomeSuccess, nil
}

func (c *Client) signalLogout(reason error) {
	c.metrics.logouts.Inc()

	for _, fn := range c.logoutHandlers {
		fn(reason)
	}
	select {
	case c.logouts <- reason:
	default:
		c.logger.Debug().Msg("logout signal dropped, previous one unread")
	}
}
