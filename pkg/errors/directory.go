// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// CreationIncomplete is reported by the directory during the consistency
// window that follows an identity creation. It is transient: the operation
// that triggered it should be retried under a bounded policy.
type CreationIncomplete struct {
	base
}

// Error returns the error message for CreationIncomplete.
func (c CreationIncomplete) Error() string {
	return c.error()
}

// NewCreationIncomplete creates a new CreationIncomplete error with the provided message.
func NewCreationIncomplete(message string, err ...error) CreationIncomplete {
	return CreationIncomplete{
		base: base{
			message: message,
			err:     errors.Join(err...),
		},
	}
}

// Backend wraps an unrecognized failure reported by an external backend.
type Backend struct {
	base
}

// Error returns the error message for Backend.
func (b Backend) Error() string {
	return b.error()
}

// NewBackend creates a new Backend error with the provided message.
func NewBackend(message string, err ...error) Backend {
	return Backend{
		base: base{
			message: message,
			err:     errors.Join(err...),
		},
	}
}

// Aggregate is raised once at the end of a batch operation when one or more
// of its items failed. Errors holds the message text of every failure in the
// order the failures happened.
type Aggregate struct {
	message string
	Errors  []string
}

// Error returns the error message for Aggregate.
func (a Aggregate) Error() string {
	return fmt.Sprintf("%s: %d error(s): %s", a.message, len(a.Errors), strings.Join(a.Errors, "; "))
}

// Count returns the number of recorded failures.
func (a Aggregate) Count() int {
	return len(a.Errors)
}

// NewAggregate creates a new Aggregate error. The messages slice is copied.
func NewAggregate(message string, messages []string) Aggregate {
	copied := make([]string, len(messages))
	copy(copied, messages)
	return Aggregate{
		message: message,
		Errors:  copied,
	}
}

// IsNotFound reports whether err is, or wraps, a NotFound error.
func IsNotFound(err error) bool {
	var target NotFound
	return errors.As(err, &target)
}

// IsAlreadyExists reports whether err is, or wraps, an AlreadyExists error.
func IsAlreadyExists(err error) bool {
	var target AlreadyExists
	return errors.As(err, &target)
}

// IsCreationIncomplete reports whether err is, or wraps, a CreationIncomplete error.
func IsCreationIncomplete(err error) bool {
	var target CreationIncomplete
	return errors.As(err, &target)
}

// IsValidation reports whether err is, or wraps, a Validation error.
func IsValidation(err error) bool {
	var target Validation
	return errors.As(err, &target)
}

// ClassifyBackendMessage maps a directory backend failure text onto the
// error kinds above. Text matching none of them becomes Backend.
func ClassifyBackendMessage(message string, err ...error) error {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "creation is not complete"):
		return NewCreationIncomplete(message, err...)
	case strings.Contains(lower, "already exists"):
		return NewAlreadyExists(message, err...)
	case strings.Contains(lower, "resource not found"):
		return NewNotFound(message, err...)
	}
	return NewBackend(message, err...)
}
