package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-market-client/credentials"
	credentialsrepofake "github.com/jrsteele09/go-market-client/credentials/repofake"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "john.doe@example.com"
	testPassword = "password123"
)

// fakeBackend accepts exactly one access token at a time and rotates it on refresh
type fakeBackend struct {
	server *httptest.Server

	lock          sync.Mutex
	validAccess   string
	validRefresh  string
	issueAccess   string
	issueRefresh  string
	rejectRefresh bool
	neverAccept   bool
	authHeaders   []string
	beforeRefresh func() bool

	productCalls atomic.Int32
	refreshCalls atomic.Int32
	unauthorized atomic.Int32
}

// newFakeBackend applies configure before the server starts accepting requests
func newFakeBackend(t *testing.T, configure ...func(*fakeBackend)) *fakeBackend {
	t.Helper()

	b := &fakeBackend{
		validAccess:  "a1",
		validRefresh: "r1",
		issueAccess:  "a2",
		issueRefresh: "r2",
	}
	for _, fn := range configure {
		fn(b)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", b.login)
	mux.HandleFunc("POST /api/auth/refresh-token", b.refresh)
	mux.HandleFunc("GET /api/products", b.products)
	mux.HandleFunc("GET /api/fail", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
	})
	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) baseURL() string {
	return b.server.URL + "/api"
}

func (b *fakeBackend) setBeforeRefresh(fn func() bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.beforeRefresh = fn
}

func (b *fakeBackend) headers() []string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append([]string{}, b.authHeaders...)
}

func (b *fakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Email != testEmail || body.Password != testPassword {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid credentials"})
		return
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{
		"accessToken":  b.validAccess,
		"refreshToken": b.validRefresh,
	}})
}

func (b *fakeBackend) refresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)
	b.lock.Lock()
	hook := b.beforeRefresh
	b.lock.Unlock()
	if hook != nil && !hook() {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "test hook timed out"})
		return
	}

	var body refreshRequest
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.lock.Lock()
	defer b.lock.Unlock()
	if b.rejectRefresh || body.RefreshToken != b.validRefresh {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid refresh token"})
		return
	}
	b.validAccess = b.issueAccess
	data := map[string]string{"accessToken": b.issueAccess}
	if b.issueRefresh != "" {
		b.validRefresh = b.issueRefresh
		data["refreshToken"] = b.issueRefresh
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func (b *fakeBackend) products(w http.ResponseWriter, r *http.Request) {
	b.productCalls.Add(1)
	header := r.Header.Get("Authorization")

	b.lock.Lock()
	b.authHeaders = append(b.authHeaders, header)
	ok := !b.neverAccept && header == "Bearer "+b.validAccess
	b.lock.Unlock()

	if !ok {
		b.unauthorized.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []map[string]string{{"_id": "p1"}}})
}

// expiredAccess makes the seeded "a1" token stale
func expiredAccess(b *fakeBackend) {
	b.validAccess = "a-current"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// waitFor polls cond; it is safe to call from handler goroutines
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

type logoutRecorder struct {
	count   atomic.Int32
	reasons chan error
}

func newLogoutRecorder() *logoutRecorder {
	return &logoutRecorder{reasons: make(chan error, 16)}
}

func (l *logoutRecorder) handle(reason error) {
	l.count.Add(1)
	l.reasons <- reason
}

func setupClient(t *testing.T, b *fakeBackend, seed map[string]string, options ...ClientOption) (*Client, *credentialsrepofake.FakeStore, *logoutRecorder) {
	t.Helper()

	store := credentialsrepofake.NewFakeStoreWith(seed)
	logouts := newLogoutRecorder()
	options = append([]ClientOption{WithLogoutHandler(logouts.handle), WithTimeout(10 * time.Second)}, options...)
	c, err := New(b.baseURL(), store, options...)
	require.NoError(t, err)
	return c, store, logouts
}

func getProducts(t *testing.T, c *Client) (*Response, error) {
	t.Helper()
	return c.Do(context.Background(), NewRequest(http.MethodGet, "/products"))
}

func TestNewValidatesDependencies(t *testing.T) {
	_, err := New("", credentialsrepofake.NewFakeStore())
	require.Error(t, err)

	_, err = New("http://localhost", nil)
	require.Error(t, err)
}

func TestValidTokenMakesExactlyOneCall(t *testing.T) {
	b := newFakeBackend(t)
	c, _, logouts := setupClient(t, b, map[string]string{
		credentials.KeyAccessToken:  "a1",
		credentials.KeyRefreshToken: "r1",
	})

	for i := 0; i < 5; i++ {
		resp, err := getProducts(t, c)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	require.Equal(t, int32(5), b.productCalls.Load())
	require.Equal(t, int32(0), b.refreshCalls.Load())
	require.Equal(t, int32(0), logouts.count.Load())
	for _, h := range b.headers() {
		require.Equal(t, "Bearer a1", h)
	}
}

func TestNoTokenSendsNoAuthorizationHeader(t *testing.T) {
	b := newFakeBackend(t)
	c, _, _ := setupClient(t, b, nil)

	_, err := c.Do(context.Background(), NewRequest(http.MethodGet, "/fail"))
	require.Error(t, err)

	_, err = getProducts(t, c)
	require.Error(t, err)
	require.Equal(t, []string{""}, b.headers())
}

// GET /products -> 401 -> refresh with r1 -> a2/r2 stored -> replay with Bearer a2
func TestExpiredTokenIsRefreshedAndReplayed(t *testing.T) {
	b := newFakeBackend(t, expiredAccess)
	c, store, logouts := setupClient(t, b, map[string]string{
		credentials.KeyAccessToken:  "a1",
		credentials.KeyRefreshToken: "r1",
	})

	resp, err := getProducts(t, c)
	require.NoError(t, err)
	require.JSONEq(t, `{"success":true,"data":[{"_id":"p1"}]}`, string(resp.Body))

	require.Equal(t, int32(1), b.refreshCalls.Load())
	require.Equal(t, int32(2), b.productCalls.Load())
	require.Equal(t, []string{"Bearer a1", "Bearer a2"}, b.headers())
	require.Equal(t, "a2", store.Value(credentials.KeyAccessToken))
	require.Equal(t, "r2", store.Value(credentials.KeyRefreshToken))
	require.Equal(t, int32(0), logouts.count.Load())
	require.False(t, c.gate.refreshing())
}

func TestRefreshWithoutRotationKeepsRefreshToken(t *testing.T) {
	b := newFakeBackend(t, func(b *fakeBackend) {
		b.validAccess = "a-current"
		b.issueRefresh = ""
	})
	c, store, _ := setupClient(t, b, map[string]string{
		credentials.KeyAccessToken:  "a1",
		credentials.KeyRefreshToken: "r1",
	})

	_, err := getProducts(t, c)
	require.NoError(t, err)
	require.Equal(t, "a2", store.Value(credentials.KeyAccessToken))
	require.Equal(t, "r1", store.Value(credentials.KeyRefreshToken))
}

func runConcurrent(n int, fn func(i int)) {
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			fn(i)
		}(i)
	}
	wg.Wait()
}

func TestConcurrentUnauthorizedRequestsShareOneRefresh(t *testing.T) {
	for _, n := range []int{3, 10} {
		b := newFakeBackend(t, expiredAccess)
		c, store, logouts := setupClient(t, b, map[string]string{
			credentials.KeyAccessToken:  "a1",
			credentials.KeyRefreshToken: "r1",
		})
		// hold the refresh open until every other caller is queued behind it
		b.setBeforeRefresh(func() bool {
			return waitFor(func() bool { return c.gate.pending() == n-1 })
		})

		errs := make([]error, n)
		runConcurrent(n, func(i int) {
			_, errs[i] = getProducts(t, c)
		})

		for _, err := range errs {
			require.NoError(t, err)
		}
		require.Equal(t, int32(1), b.refreshCalls.Load(), "n=%d", n)
		require.Equal(t, int32(n), b.unauthorized.Load())
		require.Equal(t, int32(2*n), b.productCalls.Load())
		require.Equal(t, "a2", store.Value(credentials.KeyAccessToken))
		require.Equal(t, 1, store.SetCount(credentials.KeyAccessToken))
		require.Equal(t, int32(0), logouts.count.Load())
		require.Equal(t, 0, c.gate.pending())
		require.False(t, c.gate.refreshing())
	}
}

func TestRefreshFailureRejectsEveryQueuedRequest(t *testing.T) {
	const n = 5
	b := newFakeBackend(t, func(b *fakeBackend) {
		b.validAccess = "a-current"
		b.rejectRefresh = true
	})
	c, store, logouts := setupClient(t, b, map[string]string{
		credentials.KeyAccessToken:  "a1",
		credentials.KeyRefreshToken: "r1",
	})
	b.setBeforeRefresh(func() bool {
		return waitFor(func() bool { return c.gate.pending() == n-1 })
	})

	errs := make([]error, n)
	runConcurrent(n, func(i int) {
		_, errs[i] = getProducts(t, c)
	})

	var first *AuthenticationError
	require.True(t, errors.As(errs[0], &first))
	require.Equal(t, http.StatusUnauthorized, StatusCode(first))
	for _, err := range errs {
		var authErr *AuthenticationError
		require.True(t, errors.As(err, &authErr))
		require.Same(t, first, authErr)
	}

	require.Equal(t, int32(1), b.refreshCalls.Load())
	require.Equal(t, int32(n), b.productCalls.Load())
	require.Equal(t, int32(1), logouts.count.Load())
	require.Same(t, first, <-c.Logouts())
	require.Empty(t, store.Value(credentials.KeyAccessToken))
	require.Empty(t, store.Value(credentials.KeyRefreshToken))
	require.False(t, c.gate.refreshing())
}

func TestMissingRefreshTokenFailsWithoutNetworkRefresh(t *testing.T) {
	b := newFakeBackend(t, expiredAccess)
	c, store, logouts := setupClient(t, b, map[string]string{
		credentials.KeyAccessToken: "a1",
	})

	_, err := getProducts(t, c)
	require.True(t, IsAuthenticationError(err))
	require.ErrorIs(t, err, ErrRefreshTokenMissing)

	require.Equal(t, int32(0), b.refreshCalls.Load())
	require.Equal(t, int32(1), b.productCalls.Load())
	require.Equal(t, int32(1), logouts.count.Load())
	require.Empty(t, store.Value(credentials.KeyAccessToken))
	require.Equal(t, 1, store.RemoveCount(credentials.KeyAccessToken))
}

func TestReplayedRequestRejectedAgainIsNotRetried(t *testing.T) {
	b := newFakeBackend(t, func(b *fakeBackend) { b.neverAccept = true })
	c, store, logouts := setupClient(t, b, map[string]string{
		credentials.KeyAccessToken:  "a1",
		credentials.KeyRefreshToken: "r1",
	})

	_, err := getProducts(t, c)
	require.True(t, IsUnauthorized(err))
	require.False(t, IsAuthenticationError(err))

	require.Equal(t, int32(1), b.refreshCalls.Load())
	require.Equal(t, int32(2), b.productCalls.Load())
	require.Equal(t, []string{"Bearer a1", "Bearer a2"}, b.headers())
	require.Equal(t, int32(0), logouts.count.Load())
	require.Equal(t, "a2", store.Value(credentials.KeyAccessToken))
}

func TestRefreshEndpointIsNeverRetried(t *testing.T) {
	b := newFakeBackend(t)
	c, _, logouts := setupClient(t, b, map[string]string{
		credentials.KeyAccessToken:  "a1",
		credentials.KeyRefreshToken: "r1",
	})

	req, err := NewJSONRequest(http.MethodPost, DefaultRefreshPath, refreshRequest{RefreshToken: "stale"})
	require.NoError(t, err)
	_, err = c.Do(context.Background(), req)
	require.True(t, IsUnauthorized(err))
	require.Equal(t, "Invalid refresh token", ErrorMessage(err))

	require.Equal(t, int32(1), b.refreshCalls.Load())
	require.Equal(t, int32(0), logouts.count.Load())
}

func TestNon401FailuresAreSurfacedUnchanged(t *testing.T) {
	b := newFakeBackend(t)
	c, _, _ := setupClient(t, b, map[string]string{
		credentials.KeyAccessToken:  "a1",
		credentials.KeyRefreshToken: "r1",
	})

	_, err := c.Do(context.Background(), NewRequest(http.MethodGet, "/fail"))
	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	require.Equal(t, "boom", statusErr.Message())
	require.Equal(t, int32(0), b.refreshCalls.Load())
}

func TestTransportErrorIsNotRetried(t *testing.T) {
	b := newFakeBackend(t)
	c, _, logouts := setupClient(t, b, map[string]string{
		credentials.KeyAccessToken:  "a1",
		credentials.KeyRefreshToken: "r1",
	})
	b.server.Close()

	_, err := getProducts(t, c)
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	require.Equal(t, int32(0), logouts.count.Load())
}

func TestLoginStoresTokensAndBadCredentialsDoNotRefresh(t *testing.T) {
	b := newFakeBackend(t)
	c, store, logouts := setupClient(t, b, nil)
	ctx := context.Background()

	err := c.Login(ctx, testEmail, "wrong")
	require.True(t, IsUnauthorized(err))
	require.Equal(t, "Invalid credentials", ErrorMessage(err))
	require.Equal(t, int32(0), b.refreshCalls.Load())
	require.Equal(t, int32(0), logouts.count.Load())

	require.NoError(t, c.Login(ctx, testEmail, testPassword))
	require.Equal(t, "a1", store.Value(credentials.KeyAccessToken))
	require.Equal(t, "r1", store.Value(credentials.KeyRefreshToken))

	require.NoError(t, c.Logout(ctx))
	require.Empty(t, store.Value(credentials.KeyAccessToken))
	require.Equal(t, int32(0), logouts.count.Load())
}

func TestQueuedCallerCanStopWaiting(t *testing.T) {
	b := newFakeBackend(t, expiredAccess)
	c, _, _ := setupClient(t, b, map[string]string{
		credentials.KeyAccessToken:  "a1",
		credentials.KeyRefreshToken: "r1",
	})

	// pretend another caller holds the refresh
	_, refresher := c.gate.acquireOrEnqueue()
	require.True(t, refresher)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err := c.Do(ctx, NewRequest(http.MethodGet, "/products"))
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// the abandoned entry is still settled by the refresher
	require.Equal(t, 1, c.gate.pending())
	require.Equal(t, 1, c.gate.release(refreshResult{token: "a2"}))
	require.Equal(t, int32(0), b.refreshCalls.Load())
}

func TestMetricsCountRequestsAndRefreshes(t *testing.T) {
	b := newFakeBackend(t, expiredAccess)
	reg := prometheus.NewRegistry()
	c, _, _ := setupClient(t, b, map[string]string{
		credentials.KeyAccessToken:  "a1",
		credentials.KeyRefreshToken: "r1",
	}, WithMetrics(reg))

	_, err := getProducts(t, c)
	require.NoError(t, err)

	require.Equal(t, 1.0, testutil.ToFloat64(c.metrics.refreshes.WithLabelValues(outcomeSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(c.metrics.requests.WithLabelValues(http.MethodGet, "401")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.metrics.requests.WithLabelValues(http.MethodGet, "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.metrics.requests.WithLabelValues(http.MethodPost, "200")))

	count, err := testutil.GatherAndCount(reg, "market_client_token_refreshes_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
