// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package groupsio adds and removes mailing list members through the Groups.io API.
package groupsio

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-querystring/query"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/port"
	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/httpclient"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/redaction"
)

const loginPath = "/v1/login"

// groupsioBasicAuthRoundTripper injects the cached login token as the BasicAuth username
type groupsioBasicAuthRoundTripper struct {
	client *Client
}

// RoundTrip authenticates before any non-login request
func (rt *groupsioBasicAuthRoundTripper) RoundTrip(req *http.Request, next func(*http.Request) (*http.Response, error)) (*http.Response, error) {
	// Skip auth for login requests to avoid infinite recursion
	if strings.HasSuffix(req.URL.Path, loginPath) {
		return next(req)
	}

	token, err := rt.client.getOrRefreshToken(req.Context())
	if err != nil {
		return nil, fmt.Errorf("authentication failed in RoundTripper: %w", err)
	}
	req.SetBasicAuth(token, "")
	return next(req)
}

// tokenCache holds the login token until shortly before it expires
type tokenCache struct {
	token  string
	expiry time.Time
	mu     sync.RWMutex
}

// Client handles the Groups.io subscription calls with token caching.
// It implements port.GroupMembershipWriter; groups are addressed by group name.
type Client struct {
	config     Config
	httpClient *httpclient.Client
	cache      tokenCache
	now        func() time.Time
}

// NewClient creates a new GroupsIO client with the given configuration
func NewClient(cfg Config) (*Client, error) {
	if cfg.Email == "" || cfg.Password == "" {
		return nil, errs.NewValidation("email and password are required for Groups.io client")
	}

	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaults.TokenTTL
	}
	if cfg.HTTP.Timeout <= 0 {
		cfg.HTTP = defaults.HTTP
	}

	client := &Client{
		config:     cfg,
		httpClient: httpclient.NewClient(cfg.HTTP),
		now:        time.Now,
	}
	client.httpClient.AddRoundTripper(&groupsioBasicAuthRoundTripper{client: client})

	slog.InfoContext(context.Background(), "Groups.io client initialized", "base_url", cfg.BaseURL)

	return client, nil
}

// AddMember subscribes email to group. An existing subscription is OutcomeAlreadySatisfied.
func (c *Client) AddMember(ctx context.Context, group, email string) (model.Outcome, error) {
	redacted := redaction.RedactEmail(email)
	slog.InfoContext(ctx, "adding member to Groups.io group", "group", group, "email", redacted)

	var result DirectAddResultsObject
	err := c.makeRequest(ctx, http.MethodPost, "/v1/directadd",
		DirectAddOptions{GroupName: group, Emails: email}, &result)
	if err != nil {
		if errs.IsAlreadyExists(err) {
			return model.OutcomeAlreadySatisfied, nil
		}
		return model.OutcomeApplied, err
	}

	for _, rejected := range result.Errors {
		if strings.Contains(strings.ToLower(rejected.Status), statusAlreadyMember) {
			slog.DebugContext(ctx, "member already subscribed", "group", group, "email", redacted)
			return model.OutcomeAlreadySatisfied, nil
		}
		return model.OutcomeApplied, errs.NewBackend(
			fmt.Sprintf("Groups.io rejected %s for %s: %s", redacted, group, rejected.Status))
	}

	slog.InfoContext(ctx, "member added to Groups.io group",
		"group", group,
		"email", redacted,
		"added_count", len(result.AddedMembers),
	)
	return model.OutcomeApplied, nil
}

// RemoveMember unsubscribes email from group. A missing subscription is OutcomeAlreadySatisfied.
func (c *Client) RemoveMember(ctx context.Context, group, email string) (model.Outcome, error) {
	redacted := redaction.RedactEmail(email)

	var member MemberObject
	err := c.makeRequest(ctx, http.MethodGet, "/v1/getmember",
		MemberLookupOptions{GroupName: group, Email: email}, &member)
	if errs.IsNotFound(err) {
		slog.DebugContext(ctx, "member not subscribed", "group", group, "email", redacted)
		return model.OutcomeAlreadySatisfied, nil
	}
	if err != nil {
		return model.OutcomeApplied, err
	}

	slog.InfoContext(ctx, "removing member from Groups.io group",
		"group", group, "email", redacted, "member_id", member.ID)

	err = c.makeRequest(ctx, http.MethodPost, "/v1/removemember",
		RemoveMemberOptions{GroupName: group, MemberID: member.ID}, nil)
	if errs.IsNotFound(err) {
		return model.OutcomeAlreadySatisfied, nil
	}
	if err != nil {
		return model.OutcomeApplied, err
	}

	slog.InfoContext(ctx, "member removed from Groups.io group", "group", group, "member_id", member.ID)
	return model.OutcomeApplied, nil
}

// makeRequest encodes opts as a form (POST) or query (GET) and decodes the JSON reply into result
func (c *Client) makeRequest(ctx context.Context, method, path string, opts any, result any) error {
	values, err := query.Values(opts)
	if err != nil {
		return errs.NewUnexpected("failed to encode Groups.io request", err)
	}

	req := httpclient.Request{
		Method:  method,
		URL:     c.config.BaseURL + path,
		Headers: map[string]string{},
	}
	if method == http.MethodPost {
		req.Body = []byte(values.Encode())
		req.Headers["Content-Type"] = "application/x-www-form-urlencoded"
	} else if len(values) > 0 {
		req.URL += "?" + values.Encode()
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return MapHTTPError(ctx, err)
	}

	// Some failures come back with a 200 and an error object
	var errObj ErrorObject
	if json.Unmarshal(resp.Body, &errObj) == nil && errObj.Object == "error" {
		return WrapGroupsIOError(ctx, &errObj)
	}

	if result != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, result); err != nil {
			return errs.NewUnexpected("failed to parse Groups.io response", err)
		}
	}
	return nil
}

// getOrRefreshToken returns the cached token or logs in again
func (c *Client) getOrRefreshToken(ctx context.Context) (string, error) {
	c.cache.mu.RLock()
	if c.cache.token != "" && c.now().Before(c.cache.expiry) {
		token := c.cache.token
		c.cache.mu.RUnlock()
		return token, nil
	}
	c.cache.mu.RUnlock()

	return c.getToken(ctx)
}

// getToken authenticates the account and caches the login token
func (c *Client) getToken(ctx context.Context) (string, error) {
	// Login endpoint with timeout (prevents hanging on invalid domains)
	loginCtx, cancel := context.WithTimeout(ctx, c.config.HTTP.Timeout)
	defer cancel()

	values, err := query.Values(LoginOptions{Email: c.config.Email, Password: c.config.Password, Token: true})
	if err != nil {
		return "", errs.NewUnexpected("failed to encode login request", err)
	}

	resp, err := c.httpClient.Do(loginCtx, httpclient.Request{
		Method: http.MethodGet,
		URL:    c.config.BaseURL + loginPath + "?" + values.Encode(),
	})
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", MapHTTPError(loginCtx, err))
	}

	var loginResp LoginObject
	if err := json.Unmarshal(resp.Body, &loginResp); err != nil {
		return "", errs.NewUnexpected("login response parse failed", err)
	}
	if loginResp.Token == "" {
		return "", errs.NewUnauthorized("no token in login response")
	}

	expiry := c.parseTokenExpiry(ctx, loginResp.Token)

	c.cache.mu.Lock()
	c.cache.token = loginResp.Token
	c.cache.expiry = expiry
	c.cache.mu.Unlock()

	slog.InfoContext(ctx, "Groups.io authentication successful", "expires_at", expiry.Format(time.RFC3339))

	return loginResp.Token, nil
}

// parseTokenExpiry reads the exp claim without verifying the signature
func (c *Client) parseTokenExpiry(ctx context.Context, token string) time.Time {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}

	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		slog.WarnContext(ctx, "failed to parse JWT token", "error", err)
		return c.now().Add(c.config.TokenTTL)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		slog.WarnContext(ctx, "no expiry in JWT token", "error", err)
		return c.now().Add(c.config.TokenTTL)
	}

	return exp.Time.Add(-c.config.RefreshMargin)
}

// IsReady checks that the account can log in
func (c *Client) IsReady(ctx context.Context) error {
	if _, err := c.getOrRefreshToken(ctx); err != nil {
		return errs.NewServiceUnavailable("Groups.io API unreachable", err)
	}
	return nil
}

var _ port.GroupMembershipWriter = (*Client)(nil)
