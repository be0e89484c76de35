// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package admin implements port.Directory against an admin directory REST API.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"
	"github.com/google/uuid"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/port"
	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/httpclient"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/redaction"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/utils"
)

// Directory talks to the admin directory API. Nothing is cached between calls.
type Directory struct {
	config Config
	client *httpclient.Client
}

func (d *Directory) userURL(email string) string {
	return d.config.BaseURL + "/users/" + url.PathEscape(model.NormalizeEmail(email))
}

// GetMember implements port.Directory
func (d *Directory) GetMember(ctx context.Context, email string) (*model.Member, error) {
	if model.NormalizeEmail(email) == "" {
		return nil, errs.NewValidation("email is required")
	}

	var res userResource
	if err := d.do(ctx, http.MethodGet, d.userURL(email)+"?projection=full", nil, &res); err != nil {
		return nil, err
	}
	return res.toMember(), nil
}

// AddMember implements port.Directory. The account gets a random password
// that must be changed on first sign-in.
func (d *Directory) AddMember(ctx context.Context, candidate *model.Member) (*model.Member, error) {
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	body := toResource(candidate)
	body.Password = uuid.NewString()
	body.ChangePasswordAtNextLogin = true

	slog.InfoContext(ctx, "creating directory member",
		"member", redaction.RedactEmail(candidate.PrimaryEmail),
		"generation", candidate.Generation,
	)

	var created userResource
	if err := d.do(ctx, http.MethodPost, d.config.BaseURL+"/users", body, &created); err != nil {
		return nil, err
	}
	if created.PrimaryEmail == "" {
		return candidate.Copy(), nil
	}

	stored := created.toMember()
	// Attributes the API does not echo back on insert keep the candidate's values
	if stored.JoinDate.IsZero() && stored.Expires.IsZero() {
		stored.JoinDate, stored.Expires, stored.Generation = candidate.JoinDate, candidate.Expires, candidate.Generation
	}
	return stored, nil
}

// UpdateMember implements port.Directory with PATCH semantics
func (d *Directory) UpdateMember(ctx context.Context, member *model.Member, patch model.MemberPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	return d.do(ctx, http.MethodPatch, d.userURL(member.PrimaryEmail), patchResource(patch), nil)
}

// DeleteMember implements port.Directory
func (d *Directory) DeleteMember(ctx context.Context, member *model.Member, opts port.DeleteOptions) (model.Outcome, error) {
	err := d.do(ctx, http.MethodDelete, d.userURL(member.PrimaryEmail), nil, nil)
	if errs.IsNotFound(err) {
		return model.OutcomeAlreadySatisfied, nil
	}
	if err != nil {
		return model.OutcomeApplied, err
	}

	if opts.Wait {
		gone := utils.PollUntil(ctx, d.config.WaitAttempts, d.config.WaitDelay, func() bool {
			_, errGet := d.GetMember(ctx, member.PrimaryEmail)
			return errs.IsNotFound(errGet)
		})
		if !gone {
			slog.WarnContext(ctx, "deleted member is still visible to reads",
				"member", redaction.RedactEmail(member.PrimaryEmail),
				"attempts", d.config.WaitAttempts,
			)
		}
	}
	return model.OutcomeApplied, nil
}

// ListMembers implements port.Directory, following page tokens until the last page
func (d *Directory) ListMembers(ctx context.Context, filter model.MemberFilter) ([]*model.Member, error) {
	opts := listOptions{
		Customer:   d.config.Customer,
		MaxResults: d.config.PageSize,
		Projection: "full",
	}
	if filter.OrgUnitPath != "" {
		opts.Query = fmt.Sprintf("orgUnitPath='%s'", filter.OrgUnitPath)
	}

	var out []*model.Member
	for page := 1; ; page++ {
		values, err := query.Values(opts)
		if err != nil {
			return nil, errs.NewUnexpected("failed to encode list request", err)
		}

		var res usersPage
		if err := d.do(ctx, http.MethodGet, d.config.BaseURL+"/users?"+values.Encode(), nil, &res); err != nil {
			return nil, err
		}
		for _, u := range res.Users {
			if m := u.toMember(); filter.Matches(m) {
				out = append(out, m)
			}
		}

		slog.DebugContext(ctx, "directory page listed", "page", page, "users", len(res.Users))
		if res.NextPageToken == "" {
			return out, nil
		}
		opts.PageToken = res.NextPageToken
	}
}

func (d *Directory) do(ctx context.Context, method, target string, in, out any) error {
	return mapError(ctx, d.client.DoJSON(ctx, method, target, in, out))
}

// mapError classifies API failures by their message text, falling back to the status code
func mapError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var httpErr *httpclient.RetryableError
	if !errors.As(err, &httpErr) {
		slog.ErrorContext(ctx, "directory request failed", "error", err)
		return errs.NewServiceUnavailable("directory request failed", err)
	}

	message := strings.TrimSpace(httpErr.Message)
	var body apiError
	if json.Unmarshal([]byte(httpErr.Message), &body) == nil && body.Error.Message != "" {
		message = body.Error.Message
	}

	classified := errs.ClassifyBackendMessage(message, err)
	var backend errs.Backend
	if !errors.As(classified, &backend) {
		return classified
	}

	switch httpErr.StatusCode {
	case http.StatusNotFound:
		// a 404 that names another resource (domain, customer) is not a missing member
		if message == "" {
			return errs.NewNotFound("directory resource not found", err)
		}
	case http.StatusConflict:
		return errs.NewAlreadyExists(message, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return errs.NewUnauthorized(message, err)
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return errs.NewServiceUnavailable(message, err)
	}
	slog.WarnContext(ctx, "unclassified directory error",
		"status_code", httpErr.StatusCode,
		"message", message,
	)
	return classified
}

// NewDirectory creates the directory client. With a ClientID requests carry
// client-credentials bearer tokens.
func NewDirectory(ctx context.Context, config Config) (*Directory, error) {
	if config.BaseURL == "" {
		return nil, errs.NewValidation("admin directory base URL is required")
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.PageSize <= 0 {
		config.PageSize = DefaultConfig().PageSize
	}

	client := httpclient.NewClient(noRetries(config.HTTP))
	auth := "none"
	switch {
	case config.ClientID != "":
		auth = "oauth2"
		credentials := clientcredentials.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			TokenURL:     config.TokenURL,
			Scopes:       config.Scopes,
		}
		// TokenSource reuses the token until it expires
		client.AddRoundTripper(&httpclient.BearerTokenRoundTripper{Source: credentials.TokenSource(ctx)})
	case config.Username != "":
		auth = "basic"
		client.AddRoundTripper(&httpclient.BasicAuthRoundTripper{Username: config.Username, Password: config.Password})
	}

	slog.InfoContext(ctx, "admin directory client initialized",
		"base_url", config.BaseURL,
		"auth", auth,
	)
	return &Directory{config: config, client: client}, nil
}

var _ port.Directory = (*Directory)(nil)
