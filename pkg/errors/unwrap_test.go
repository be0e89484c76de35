// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package errors

import (
	"errors"
	"testing"
)

// backendStatus is a test error type to demonstrate errors.As through the wrappers
type backendStatus struct {
	code int
	msg  string
}

func (b backendStatus) Error() string {
	return b.msg
}

func TestUnwrap(t *testing.T) {
	rootCause := errors.New("root cause error")

	validationErr := NewValidation("validation failed", rootCause)

	unwrapped := validationErr.Unwrap()
	if unwrapped == nil {
		t.Error("Expected unwrapped error to not be nil")
	}

	if !errors.Is(validationErr, rootCause) {
		t.Error("errors.Is should find the root cause in the wrapped error")
	}

	simpleErr := NewValidation("simple error")
	if simpleErr.Unwrap() != nil {
		t.Error("Expected Unwrap to return nil for error with no wrapped cause")
	}
}

func TestUnwrapWithDifferentErrorTypes(t *testing.T) {
	rootCause := errors.New("directory connection failed")

	testCases := []struct {
		name string
		err  error
	}{
		{"Validation", NewValidation("validation error", rootCause)},
		{"NotFound", NewNotFound("not found error", rootCause)},
		{"AlreadyExists", NewAlreadyExists("already exists error", rootCause)},
		{"Unauthorized", NewUnauthorized("unauthorized error", rootCause)},
		{"CreationIncomplete", NewCreationIncomplete("creation incomplete", rootCause)},
		{"Backend", NewBackend("backend error", rootCause)},
		{"Unexpected", NewUnexpected("unexpected error", rootCause)},
		{"ServiceUnavailable", NewServiceUnavailable("service unavailable", rootCause)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, rootCause) {
				t.Errorf("errors.Is should find root cause in %s error", tc.name)
			}

			type unwrapper interface {
				Unwrap() error
			}

			u, ok := tc.err.(unwrapper)
			if !ok {
				t.Fatalf("%s error should implement Unwrap()", tc.name)
			}
			if u.Unwrap() == nil {
				t.Errorf("Expected %s error to have an underlying error", tc.name)
			}
		})
	}
}

func TestErrorsAsThroughWrappers(t *testing.T) {
	original := backendStatus{code: 409, msg: "Entity already exists."}
	wrapped := NewAlreadyExists("member already exists", original)

	var extracted backendStatus
	if !errors.As(wrapped, &extracted) {
		t.Fatal("Should be able to extract backendStatus using errors.As")
	}
	if extracted.code != 409 {
		t.Errorf("Expected code 409, got %d", extracted.code)
	}

	expected := "member already exists: Entity already exists."
	if wrapped.Error() != expected {
		t.Errorf("Expected message %q, got %q", expected, wrapped.Error())
	}
}
