// Package backendtest runs an in-process fake of the MovieSwipe backend for
// tests. It mints real HS256 JWTs, validates bearer credentials on the group
// routes, and counts calls per route so tests can assert on refresh and retry
// behavior.
package backendtest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Route names accepted by Calls and RejectNext.
const (
	RouteAuth        = "auth"
	RouteRefresh     = "refresh"
	RouteCreateGroup = "groups.create"
	RouteListGroups  = "groups.list"
	RouteGetGroup    = "groups.get"
)

// Claims is the payload of every token the fake issues.
type Claims struct {
	jwt.RegisteredClaims
	Type string `json:"typ"`
}

// User and Group mirror the backend's wire format.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Group struct {
	ID             string `json:"_id"`
	Owner          User   `json:"owner"`
	Members        []User `json:"members"`
	InvitationCode string `json:"invitationCode"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

// Server is a fake backend. The exported knobs may be changed between requests.
type Server struct {
	*httptest.Server

	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time

	mu            sync.Mutex
	calls         map[string]int
	reject        map[string]int
	refreshStatus int
	refreshDelay  time.Duration
	lastAuth      map[string]string
	groups        map[string]Group
	order         []string
}

// New starts a fake backend. Close it with t.Cleanup(s.Close).
func New() *Server {
	s := &Server{
		Secret:     []byte("backendtest-secret"),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		Now:        time.Now,
		calls:      map[string]int{},
		reject:     map[string]int{},
		lastAuth:   map[string]string{},
		groups:     map[string]Group{},
	}

	r := mux.NewRouter()
	r.HandleFunc("/auth/", s.count(RouteAuth, s.handleAuth)).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", s.count(RouteRefresh, s.handleRefresh)).Methods(http.MethodPost)
	r.HandleFunc("/groups", s.count(RouteCreateGroup, s.requireBearer(s.handleCreateGroup))).Methods(http.MethodPost)
	r.HandleFunc("/groups", s.count(RouteListGroups, s.requireBearer(s.handleListGroups))).Methods(http.MethodGet)
	r.HandleFunc("/groups/{id}", s.count(RouteGetGroup, s.requireBearer(s.handleGetGroup))).Methods(http.MethodGet)

	s.Server = httptest.NewServer(r)
	return s
}

// Issue mints a token of the given type ("access" or "refresh") expiring at exp.
func (s *Server) Issue(typ, subject string, exp time.Time) string {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(s.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Type: typ,
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		panic(err)
	}
	return tok
}

// IssuePair mints a fresh access/refresh pair for subject using the configured TTLs.
func (s *Server) IssuePair(subject string) (access, refresh string) {
	now := s.Now()
	return s.Issue("access", subject, now.Add(s.AccessTTL)), s.Issue("refresh", subject, now.Add(s.RefreshTTL))
}

// Calls returns how many requests reached route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// LastAuthorization returns the Authorization header of the latest request to route.
func (s *Server) LastAuthorization(route string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth[route]
}

// RejectNext makes the next n requests to route answer 401 regardless of credentials.
func (s *Server) RejectNext(route string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reject[route] = n
}

// FailRefresh makes every refresh answer with status. Zero restores normal behavior.
func (s *Server) FailRefresh(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshStatus = status
}

// SlowRefresh delays every refresh response by d.
func (s *Server) SlowRefresh(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshDelay = d
}

// AddGroup seeds a group owned by owner and returns it.
func (s *Server) AddGroup(owner string) Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addGroupLocked(owner)
}

func (s *Server) addGroupLocked(owner string) Group {
	u := User{ID: owner, Name: owner, Email: owner + "@example.com"}
	ts := s.Now().UTC().Format(time.RFC3339)
	g := Group{
		ID:             uuid.NewString(),
		Owner:          u,
		Members:        []User{u},
		InvitationCode: strings.ToUpper(uuid.NewString()[:6]),
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	s.groups[g.ID] = g
	s.order = append(s.order, g.ID)
	return g
}

func (s *Server) count(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[route]++
		s.lastAuth[route] = r.Header.Get("Authorization")
		forced := s.reject[route] > 0
		if forced {
			s.reject[route]--
		}
		s.mu.Unlock()

		if forced {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		next(w, r)
	}
}

func (s *Server) requireBearer(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Missing token"})
			return
		}
		claims, err := s.verify(raw, "access")
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
			return
		}
		next(w, r, claims.Subject)
	}
}

func (s *Server) verify(raw, typ string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.Now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("token type %q, want %q", claims.Type, typ)
	}
	return &claims, nil
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	var body struct {
		GoogleToken string `json:"googleToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.GoogleToken == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "googleToken is required"})
		return
	}
	if strings.HasPrefix(body.GoogleToken, "invalid") {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid Google token"})
		return
	}

	access, refresh := s.IssuePair(body.GoogleToken)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Authenticated",
		"data": map[string]any{
			"user":         User{ID: body.GoogleToken, Name: body.GoogleToken},
			"token":        access,
			"refreshToken": refresh,
		},
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status, delay := s.refreshStatus, s.refreshDelay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if status != 0 {
		writeJSON(w, status, map[string]string{"message": "Refresh unavailable"})
		return
	}

	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "refreshToken is required"})
		return
	}
	claims, err := s.verify(body.RefreshToken, "refresh")
	if err != nil {
		msg := "Invalid refresh token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			msg = "Refresh token expired"
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": msg})
		return
	}

	access := s.Issue("access", claims.Subject, s.Now().Add(s.AccessTTL))
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Token refreshed",
		"data":    map[string]string{"token": access},
	})
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, _ *http.Request, subject string) {
	s.mu.Lock()
	g := s.addGroupLocked(subject)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Group created", "data": g})
}

func (s *Server) handleListGroups(w http.ResponseWriter, _ *http.Request, subject string) {
	s.mu.Lock()
	out := []Group{}
	for _, id := range s.order {
		g := s.groups[id]
		for _, m := range g.Members {
			if m.ID == subject {
				out = append(out, g)
				break
			}
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "Groups", "data": out})
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request, _ string) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	g, ok := s.groups[id]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Group not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Group", "data": g})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
