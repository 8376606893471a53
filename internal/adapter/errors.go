package adapter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies an integration failure.
type ErrorKind string

const (
	KindAuthExpired         ErrorKind = "auth_expired"
	KindRateLimited         ErrorKind = "rate_limited"
	KindProviderUnavailable ErrorKind = "provider_unavailable"
	KindInvalidRequest      ErrorKind = "invalid_request"
)

// ErrIntegration is the sentinel all IntegrationErrors unwrap to.
var ErrIntegration = errors.New("integration error")

// ErrNotSupported is returned by optional operations the provider does not
// implement (for example FetchTeams on a provider without group sync).
var ErrNotSupported = errors.New("operation not supported by this adapter")

// IntegrationError is a classified failure from a provider operation.
type IntegrationError struct {
	Kind      ErrorKind
	Status    int
	Message   string
	RateLimit *RateLimitInfo
}

func (e *IntegrationError) Error() string {
	if e == nil {
		return ""
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		return fmt.Sprintf("integration error: %s", e.Kind)
	}
	return fmt.Sprintf("integration error: %s: %s", e.Kind, msg)
}

func (e *IntegrationError) Unwrap() error {
	return ErrIntegration
}

// NewIntegrationError builds a classified failure.
func NewIntegrationError(kind ErrorKind, status int, message string) *IntegrationError {
	return &IntegrationError{Kind: kind, Status: status, Message: message}
}

// KindOf extracts the error kind, or "" for errors outside the taxonomy.
func KindOf(err error) ErrorKind {
	var ie *IntegrationError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}
