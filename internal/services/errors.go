package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// RuleViolation is a business rule that rejected a friend request. Message is
// safe to show to the caller.
type RuleViolation struct {
	Code    string
	Message string
}

func (v *RuleViolation) Error() string { return v.Message }

var (
	ErrRateLimited = &RuleViolation{
		Code:    "rate_limited",
		Message: "You have reached maximum friendship requests per minute limit. Please wait for a minute to send more requests!!",
	}
	ErrSelfRequest = &RuleViolation{
		Code:    "self_request",
		Message: "You cannot send friend request to yourself!!",
	}
	ErrDuplicatePending = &RuleViolation{
		Code:    "duplicate_pending",
		Message: "One request is already pending with same receiver!!",
	}
	ErrAlreadyFriends = &RuleViolation{
		Code:    "already_friends",
		Message: "You both are already friends!!",
	}
)

var (
	// ErrRequestNotEligible covers a missing request, a request addressed to
	// someone else and an already decided one alike.
	ErrRequestNotEligible = errors.New("no such pending friend request for this user")
	ErrReceiverNotFound   = errors.New("receiver does not exist")
	ErrInvalidAction      = errors.New("invalid action")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrWeakPassword       = errors.New("weak password")
)

// ValidationError carries field-keyed messages for malformed input.
type ValidationError struct {
	Fields map[string][]string
	causes []error
}

func (e *ValidationError) Add(field, message string, cause error) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
	if cause != nil {
		e.causes = append(e.causes, cause)
	}
}

func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() []error { return e.causes }

func fieldError(field, message string, cause error) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message, cause)
	return v
}
