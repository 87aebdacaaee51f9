package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/require"

	"movieswipe/cli/internal/backend"
	"movieswipe/cli/internal/backendtest"
	"movieswipe/cli/internal/config"
	"movieswipe/cli/internal/keychain"
)

const testThreshold = 120 * time.Second

// countingStore records every mutation that reaches the keychain.
type countingStore struct {
	*keychain.Manager

	mu     sync.Mutex
	saves  int
	clears int
}

func (s *countingStore) SaveTokens(a, r string) error {
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return s.Manager.SaveTokens(a, r)
}

func (s *countingStore) ClearTokens() error {
	s.mu.Lock()
	s.clears++
	s.mu.Unlock()
	return s.Manager.ClearTokens()
}

func (s *countingStore) mutations() (saves, clears int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves, s.clears
}

// brokenStore fails every read.
type brokenStore struct{ cleared bool }

func (b *brokenStore) SaveTokens(string, string) error   { return errors.New("locked") }
func (b *brokenStore) LoadAccessToken() (string, error)  { return "", errors.New("locked") }
func (b *brokenStore) LoadRefreshToken() (string, error) { return "", errors.New("locked") }
func (b *brokenStore) ClearTokens() error                { b.cleared = true; return nil }

type refresherFunc func(ctx context.Context, refresh string) (string, error)

func (f refresherFunc) RefreshToken(ctx context.Context, refresh string) (string, error) {
	return f(ctx, refresh)
}

type harness struct {
	srv     *backendtest.Server
	store   *countingStore
	m       *Manager
	mu      sync.Mutex
	expired []error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := backendtest.New()
	t.Cleanup(srv.Close)
	return newHarnessWith(t, srv, backend.New(srv.URL, config.DefaultEndpoints()))
}

func newHarnessWith(t *testing.T, srv *backendtest.Server, r Refresher) *harness {
	t.Helper()
	h := &harness{
		srv:   srv,
		store: &countingStore{Manager: keychain.NewManagerWithRing(keyring.NewArrayKeyring(nil))},
	}
	h.m = New(Config{
		Store:     h.store,
		Refresher: r,
		Threshold: testThreshold,
		OnAuthExpired: func(err error) {
			h.mu.Lock()
			h.expired = append(h.expired, err)
			h.mu.Unlock()
		},
	})
	return h
}

// seed stores a pair without counting it as a mutation under test.
func (h *harness) seed(t *testing.T, access, refresh string) {
	t.Helper()
	require.NoError(t, h.store.Manager.SaveTokens(access, refresh))
}

func (h *harness) access(in time.Duration) string {
	return h.srv.Issue("access", "user-1", time.Now().Add(in))
}

func (h *harness) refresh(in time.Duration) string {
	return h.srv.Issue("refresh", "user-1", time.Now().Add(in))
}

func (h *harness) stored(t *testing.T) (string, string) {
	t.Helper()
	a, r, err := h.m.Tokens()
	require.NoError(t, err)
	return a, r
}

func (h *harness) expiredCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.expired)
}
