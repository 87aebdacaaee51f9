package session

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movieswipe/cli/internal/backendtest"
	apperr "movieswipe/cli/internal/errors"
	"movieswipe/cli/internal/keychain"
)

func (h *harness) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := h.m.Client(nil).Get(h.srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestTransport_AttachesBearer(t *testing.T) {
	h := newHarness(t)
	access := h.access(time.Hour)
	h.seed(t, access, h.refresh(24*time.Hour))

	resp := h.get(t, "/groups")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer "+access, h.srv.LastAuthorization(backendtest.RouteListGroups))
	saves, clears := h.store.mutations()
	assert.Zero(t, saves)
	assert.Zero(t, clears)
	assert.Zero(t, h.expiredCount())
}

func TestTransport_ReplacesCallerAuthorization(t *testing.T) {
	h := newHarness(t)
	access := h.access(time.Hour)
	h.seed(t, access, h.refresh(24*time.Hour))

	req, err := http.NewRequest(http.MethodGet, h.srv.URL+"/groups", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer stale")

	resp, err := h.m.Client(nil).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer "+access, h.srv.LastAuthorization(backendtest.RouteListGroups))
	assert.Equal(t, "Bearer stale", req.Header.Get("Authorization"), "caller's request is not mutated")
}

func TestTransport_NoTokenSendsUnchanged(t *testing.T) {
	h := newHarness(t)

	resp := h.get(t, "/groups")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, h.srv.LastAuthorization(backendtest.RouteListGroups))
	assert.Zero(t, h.srv.Calls(backendtest.RouteRefresh))
	assert.Equal(t, 1, h.expiredCount())
}

func TestTransport_NonUnauthorizedPassesThrough(t *testing.T) {
	h := newHarness(t)
	h.seed(t, h.access(time.Hour), h.refresh(24*time.Hour))

	resp := h.get(t, "/groups/does-not-exist")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	saves, clears := h.store.mutations()
	assert.Zero(t, saves)
	assert.Zero(t, clears)
	assert.Zero(t, h.srv.Calls(backendtest.RouteRefresh))
}

func TestTransport_UnauthorizedWithValidAccessClears(t *testing.T) {
	h := newHarness(t)
	h.seed(t, h.access(time.Hour), h.refresh(24*time.Hour))
	h.srv.RejectNext(backendtest.RouteListGroups, 1)

	resp := h.get(t, "/groups")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, h.srv.Calls(backendtest.RouteRefresh), "a valid access token is never refreshed")
	assert.Equal(t, 1, h.srv.Calls(backendtest.RouteListGroups))
	_, clears := h.store.mutations()
	assert.Equal(t, 1, clears)
	assert.Equal(t, 1, h.expiredCount())

	a, r := h.stored(t)
	assert.Empty(t, a)
	assert.Empty(t, r)
}

func TestTransport_UnauthorizedWithExpiredAccessRefreshesAndRetries(t *testing.T) {
	h := newHarness(t)
	oldAccess, refresh := h.access(-time.Minute), h.refresh(24*time.Hour)
	h.seed(t, oldAccess, refresh)

	resp := h.get(t, "/groups")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, h.srv.Calls(backendtest.RouteRefresh))
	assert.Equal(t, 2, h.srv.Calls(backendtest.RouteListGroups))

	a, r := h.stored(t)
	assert.NotEqual(t, oldAccess, a)
	assert.Equal(t, refresh, r)
	assert.Equal(t, "Bearer "+a, h.srv.LastAuthorization(backendtest.RouteListGroups))

	saves, clears := h.store.mutations()
	assert.Equal(t, 1, saves)
	assert.Zero(t, clears)
	assert.Zero(t, h.expiredCount())
}

func TestTransport_RetriesAtMostOnce(t *testing.T) {
	h := newHarness(t)
	// Expiring but still accepted by the server, so only RejectNext produces 401s.
	h.seed(t, h.access(30*time.Second), h.refresh(24*time.Hour))
	h.srv.RejectNext(backendtest.RouteListGroups, 2)

	resp := h.get(t, "/groups")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 1, h.srv.Calls(backendtest.RouteRefresh))
	assert.Equal(t, 2, h.srv.Calls(backendtest.RouteListGroups))
	assert.Zero(t, h.expiredCount())
}

func TestTransport_RefreshFailureClearsAndReturnsOriginal(t *testing.T) {
	h := newHarness(t)
	h.seed(t, h.access(-time.Minute), h.refresh(24*time.Hour))
	h.srv.FailRefresh(http.StatusUnauthorized)

	resp := h.get(t, "/groups")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Invalid token", "original response body is intact")
	assert.Equal(t, 1, h.srv.Calls(backendtest.RouteRefresh))
	assert.Equal(t, 1, h.srv.Calls(backendtest.RouteListGroups))
	assert.Equal(t, 1, h.expiredCount())

	h.mu.Lock()
	reason := h.expired[0]
	h.mu.Unlock()
	assert.True(t, apperr.Is(reason, apperr.AuthExpired))

	a, r := h.stored(t)
	assert.Empty(t, a)
	assert.Empty(t, r)
}

func TestTransport_MissingRefreshClears(t *testing.T) {
	h := newHarness(t)
	h.seed(t, h.access(-time.Minute), h.refresh(24*time.Hour))
	h.m.store = &accessOnlyStore{TokenStore: h.store}

	resp := h.get(t, "/groups")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, h.srv.Calls(backendtest.RouteRefresh))
	_, clears := h.store.mutations()
	assert.Equal(t, 1, clears)
	assert.Equal(t, 1, h.expiredCount())
}

func TestTransport_MissingAccessRefreshesWhenRefreshStored(t *testing.T) {
	h := newHarness(t)
	refresh := h.refresh(24 * time.Hour)
	h.seed(t, h.access(time.Hour), refresh)
	h.m.store = &refreshOnlyStore{TokenStore: h.store}

	resp := h.get(t, "/groups")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, h.srv.Calls(backendtest.RouteRefresh))
	assert.Equal(t, 2, h.srv.Calls(backendtest.RouteListGroups))
	_, clears := h.store.mutations()
	assert.Zero(t, clears)
	assert.Zero(t, h.expiredCount())

	_, r := h.stored(t)
	assert.Equal(t, refresh, r)
}

func TestTransport_ReplaysBodyOnRetry(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []string
		auths  []string
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b))
		auths = append(auths, r.Header.Get("Authorization"))
		first := len(bodies) == 1
		mu.Unlock()
		if first {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	srv := backendtest.New()
	t.Cleanup(srv.Close)
	h := newHarnessWith(t, srv, refresherFunc(func(context.Context, string) (string, error) {
		return "fresh-access", nil
	}))
	h.seed(t, "expired-access", h.refresh(24*time.Hour))

	req, err := http.NewRequest(http.MethodPost, ts.URL, io.NopCloser(bytes.NewBufferString(`{"name":"movie night"}`)))
	require.NoError(t, err)
	req.GetBody = nil

	resp, err := h.m.Client(nil).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, bodies, 2)
	assert.Equal(t, bodies[0], bodies[1])
	assert.Equal(t, []string{"Bearer expired-access", "Bearer fresh-access"}, auths)
}

func TestTransport_ConcurrentRefreshIsCoalesced(t *testing.T) {
	h := newHarness(t)
	h.seed(t, h.access(-time.Minute), h.refresh(24*time.Hour))
	h.srv.SlowRefresh(300 * time.Millisecond)

	const n = 5
	client := h.m.Client(nil)
	start := make(chan struct{})
	codes := make([]int, n)

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			resp, err := client.Get(h.srv.URL + "/groups")
			if !assert.NoError(t, err) {
				return
			}
			codes[i] = resp.StatusCode
			resp.Body.Close()
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, h.srv.Calls(backendtest.RouteRefresh))
	for _, c := range codes {
		assert.Equal(t, http.StatusOK, c)
	}
}

func TestTransport_CancelledDuringRefreshKeepsSession(t *testing.T) {
	h := newHarness(t)
	refresh := h.refresh(24 * time.Hour)
	h.seed(t, h.access(-time.Minute), refresh)
	h.srv.SlowRefresh(300 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.srv.URL+"/groups", nil)
	require.NoError(t, err)

	resp, err := h.m.Client(nil).Do(req)
	if resp != nil {
		resp.Body.Close()
	}

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	_, clears := h.store.mutations()
	assert.Zero(t, clears)
	assert.Zero(t, h.expiredCount())

	_, r := h.stored(t)
	assert.Equal(t, refresh, r)
}

func TestTransport_StoreReadFailure(t *testing.T) {
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer ts.Close()

	m := New(Config{Store: &brokenStore{}, Threshold: testThreshold})
	_, err := m.Client(nil).Post(ts.URL, "application/json", strings.NewReader("{}"))

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.StorageUnavailable))
	assert.Zero(t, hits)
}

// refreshOnlyStore hides the access token.
type refreshOnlyStore struct{ TokenStore }

func (s *refreshOnlyStore) LoadAccessToken() (string, error) {
	return "", keychain.ErrNotFound
}

// accessOnlyStore hides the refresh token.
type accessOnlyStore struct{ TokenStore }

func (s *accessOnlyStore) LoadRefreshToken() (string, error) {
	return "", keychain.ErrNotFound
}
