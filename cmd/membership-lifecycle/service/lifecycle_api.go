// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	internalService "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/service"
	lfxerrors "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
)

// GroupMembersRequest is the body of the group membership endpoints
type GroupMembersRequest struct {
	Members []string `json:"members"`
	Groups  []string `json:"groups"`
}

type errorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// lifecycleAPI exposes the operator endpoints of the membership lifecycle
type lifecycleAPI struct {
	processor internalService.MembershipProcessor
	expiries  internalService.ExpiryProcessor
	readiness map[string]ReadinessChecker
	now       func() time.Time
}

// NewLifecycleAPI returns the HTTP handler of the operator endpoints
func NewLifecycleAPI(
	processor internalService.MembershipProcessor,
	expiries internalService.ExpiryProcessor,
	readiness map[string]ReadinessChecker,
) http.Handler {
	api := &lifecycleAPI{
		processor: processor,
		expiries:  expiries,
		readiness: readiness,
		now:       time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", api.Livez)
	mux.HandleFunc("GET /readyz", api.Readyz)
	mux.HandleFunc("POST /v1/transactions/process", api.ProcessTransactions)
	mux.HandleFunc("POST /v1/expiries/check", api.CheckExpiries)
	mux.HandleFunc("POST /v1/groups/members", api.AddGroupMembers)
	mux.HandleFunc("DELETE /v1/groups/members", api.RemoveGroupMembers)
	return mux
}

// Livez implements the livez endpoint for liveness probes.
func (a *lifecycleAPI) Livez(w http.ResponseWriter, r *http.Request) {
	slog.DebugContext(r.Context(), "liveness check completed successfully")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Readyz implements the readyz endpoint for readiness probes.
func (a *lifecycleAPI) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	names := make([]string, 0, len(a.readiness))
	for name := range a.readiness {
		names = append(names, name)
	}
	sort.Strings(names)

	var problems []string
	for _, name := range names {
		if err := a.readiness[name].IsReady(ctx); err != nil {
			slog.ErrorContext(ctx, "backend not ready", "backend", name, "error", err)
			problems = append(problems, name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{Message: "service not ready", Errors: problems})
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}

// ProcessTransactions applies the pending paid transactions now
func (a *lifecycleAPI) ProcessTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := a.processor.ProcessPending(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	slog.InfoContext(ctx, "transactions processed on request",
		"applied", len(result.Applied),
		"errors", len(result.Errors),
	)
	writeJSON(ctx, w, http.StatusOK, result)
}

// CheckExpiries fires the expiry actions due now
func (a *lifecycleAPI) CheckExpiries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := a.expiries.CheckExpiries(ctx, a.now())
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, report)
}

// AddGroupMembers adds every member to every group of the request
func (a *lifecycleAPI) AddGroupMembers(w http.ResponseWriter, r *http.Request) {
	a.groupMembers(w, r, a.processor.AddMembersToGroups)
}

// RemoveGroupMembers removes every member from every group of the request
func (a *lifecycleAPI) RemoveGroupMembers(w http.ResponseWriter, r *http.Request) {
	a.groupMembers(w, r, a.processor.RemoveMembersFromGroups)
}

func (a *lifecycleAPI) groupMembers(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, members, groups []string) error) {
	ctx := r.Context()

	var request GroupMembersRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(ctx, w, lfxerrors.NewValidation("invalid request body", err))
		return
	}
	if len(request.Members) == 0 || len(request.Groups) == 0 {
		writeError(ctx, w, lfxerrors.NewValidation("members and groups are required"))
		return
	}

	if err := apply(ctx, request.Members, request.Groups); err != nil {
		writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	slog.ErrorContext(ctx, "request failed", "error", err)

	var (
		validation  lfxerrors.Validation
		notFound    lfxerrors.NotFound
		unavailable lfxerrors.ServiceUnavailable
		aggregate   lfxerrors.Aggregate
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	case errors.As(err, &notFound):
		writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: err.Error()})
	case errors.As(err, &unavailable):
		writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{Message: err.Error()})
	case errors.As(err, &aggregate):
		// some pairs failed, the rest were applied
		writeJSON(ctx, w, http.StatusMultiStatus, errorResponse{Message: "batch completed with errors", Errors: aggregate.Errors})
	default:
		writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: err.Error()})
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
