// Copyright (c) 2025 MovieSwipe
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package groups is the client for the backend's group resource. Requests go
// through the caller's *http.Client, which is expected to be the session's
// authorizing client.
package groups

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"movieswipe/cli/internal/backend"
	"movieswipe/cli/internal/config"
	apperr "movieswipe/cli/internal/errors"
	"movieswipe/cli/internal/httperrors"
)

// User is a group member as the backend returns it.
type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Group is a movie-picking group.
type Group struct {
	ID             string    `json:"_id"`
	Owner          User      `json:"owner"`
	Members        []User    `json:"members"`
	InvitationCode string    `json:"invitationCode"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Client talks to the group endpoints.
type Client struct {
	baseURL string
	path    string
	http    *http.Client
}

// New creates a group client. httpClient defaults to http.DefaultClient.
func New(baseURL string, endpoints config.Endpoints, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	path := endpoints.Groups
	if path == "" {
		path = config.DefaultEndpoints().Groups
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    "/" + strings.Trim(path, "/"),
		http:    httpClient,
	}
}

// Create makes a new group owned by the current user.
func (c *Client) Create(ctx context.Context) (*Group, error) {
	var g *Group
	if err := c.do(ctx, "create group", http.MethodPost, c.path, &g); err != nil {
		return nil, err
	}
	return g, nil
}

// List returns the groups the current user belongs to.
func (c *Client) List(ctx context.Context) ([]Group, error) {
	var gs *[]Group
	if err := c.do(ctx, "list groups", http.MethodGet, c.path, &gs); err != nil {
		return nil, err
	}
	return *gs, nil
}

// Get fetches one group by id.
func (c *Client) Get(ctx context.Context, id string) (*Group, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.New(apperr.InvalidInput, "group id is required")
	}
	var g *Group
	if err := c.do(ctx, "get group", http.MethodGet, c.path+"/"+url.PathEscape(id), &g); err != nil {
		return nil, err
	}
	return g, nil
}

// do sends the request and decodes the envelope's data field into out,
// which must be a pointer to a nil pointer so an absent field is detectable.
func (c *Client) do(ctx context.Context, op, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, http.NoBody)
	if err != nil {
		return apperr.Wrap(apperr.InvalidInput, op, err)
	}
	backend.SetStandardHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		if apperr.KindOf(err) != "" {
			return err
		}
		return apperr.Wrap(apperr.NetworkFailure, op, err)
	}
	defer resp.Body.Close()

	if !httperrors.IsSuccess(resp.StatusCode) {
		return httperrors.FromResponse(op, resp)
	}

	env := struct {
		Message string `json:"message"`
		Data    any    `json:"data"`
	}{Data: out}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return apperr.Wrap(apperr.MalformedResponse, op+": decode body", err)
	}
	if isNil(out) {
		return apperr.New(apperr.MalformedResponse, op+": response has no data")
	}
	return nil
}

func isNil(out any) bool {
	switch v := out.(type) {
	case **Group:
		return *v == nil
	case **[]Group:
		return *v == nil
	}
	return false
}
