// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package groupsio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/httpclient"
)

// Groups.io reports these in error extra_info and direct add results
const (
	statusAlreadyMember = "already a member"
	statusNotMember     = "not a member"
)

// MapHTTPError maps httpclient errors to domain errors with proper context logging
func MapHTTPError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var retryableErr *httpclient.RetryableError
	if errors.As(err, &retryableErr) {
		slog.WarnContext(ctx, "Groups.io HTTP error occurred",
			"status_code", retryableErr.StatusCode,
			"message", retryableErr.Message,
		)

		// Groups.io answers most failures with an error object; its type is more precise than the status
		var errObj ErrorObject
		if json.Unmarshal([]byte(retryableErr.Message), &errObj) == nil && errObj.Type != "" {
			return WrapGroupsIOError(ctx, &errObj, err)
		}

		switch retryableErr.StatusCode {
		case http.StatusNotFound:
			return errs.NewNotFound("resource not found in Groups.io", err)
		case http.StatusConflict:
			return errs.NewAlreadyExists("resource already exists in Groups.io", err)
		case http.StatusUnauthorized:
			return errs.NewUnauthorized("Groups.io authentication failed", err)
		case http.StatusForbidden:
			return errs.NewValidation("Groups.io access denied", err)
		case http.StatusTooManyRequests:
			return errs.NewServiceUnavailable("Groups.io rate limited", err)
		case http.StatusBadRequest:
			return errs.NewValidation(fmt.Sprintf("Groups.io validation error: %s", retryableErr.Message), err)
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return errs.NewServiceUnavailable("Groups.io service unavailable", err)
		default:
			slog.ErrorContext(ctx, "Unexpected Groups.io HTTP status code",
				"status_code", retryableErr.StatusCode,
				"message", retryableErr.Message,
			)
			return errs.NewUnexpected("Groups.io API error", err)
		}
	}

	// Handle other error types (network, timeout, etc.)
	slog.ErrorContext(ctx, "Groups.io request failed with non-HTTP error",
		"error", err.Error(),
	)
	return errs.NewServiceUnavailable("Groups.io request failed", err)
}

// WrapGroupsIOError wraps a Groups.io API error response with proper context logging
func WrapGroupsIOError(ctx context.Context, errObj *ErrorObject, cause ...error) error {
	if errObj == nil {
		return nil
	}

	slog.WarnContext(ctx, "Groups.io API error response",
		"error_type", errObj.Type,
		"extra_info", errObj.ExtraInfo,
	)

	message := errObj.Type
	if errObj.ExtraInfo != "" {
		message = errObj.Type + ": " + errObj.ExtraInfo
	}

	switch {
	case strings.Contains(errObj.ExtraInfo, statusAlreadyMember):
		return errs.NewAlreadyExists(message, cause...)
	case strings.Contains(errObj.ExtraInfo, statusNotMember):
		return errs.NewNotFound(message, cause...)
	}

	switch errObj.Type {
	case "bad_request", "invalid_value", "validation_error":
		return errs.NewValidation(message, cause...)
	case "not_found", "member_not_found", "group_not_found":
		return errs.NewNotFound(message, cause...)
	case "unauthorized", "bad_login":
		return errs.NewUnauthorized(message, cause...)
	case "inadequate_permissions", "forbidden":
		return errs.NewValidation(message, cause...) // Access denied, not auth failure
	case "rate_limited":
		return errs.NewServiceUnavailable(message, cause...)
	default:
		slog.ErrorContext(ctx, "Unknown Groups.io error type",
			"error_type", errObj.Type,
			"extra_info", errObj.ExtraInfo,
		)
		return errs.NewUnexpected(message, cause...)
	}
}
