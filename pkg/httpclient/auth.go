// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package httpclient

import (
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// BasicAuthRoundTripper sets HTTP basic credentials on every request
type BasicAuthRoundTripper struct {
	Username string
	Password string
}

// RoundTrip implements RoundTripper
func (rt *BasicAuthRoundTripper) RoundTrip(req *http.Request, next func(*http.Request) (*http.Response, error)) (*http.Response, error) {
	req.SetBasicAuth(rt.Username, rt.Password)
	return next(req)
}

// BearerTokenRoundTripper authorizes requests with tokens from an oauth2.TokenSource.
// Wrap the source with oauth2.ReuseTokenSource to avoid a fetch per request.
type BearerTokenRoundTripper struct {
	Source oauth2.TokenSource
}

// RoundTrip implements RoundTripper
func (rt *BearerTokenRoundTripper) RoundTrip(req *http.Request, next func(*http.Request) (*http.Response, error)) (*http.Response, error) {
	token, err := rt.Source.Token()
	if err != nil {
		return nil, fmt.Errorf("obtaining access token: %w", err)
	}
	token.SetAuthHeader(req)
	return next(req)
}
