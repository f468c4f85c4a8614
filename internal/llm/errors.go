package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrProviderTimeout means a provider did not answer in time
	ErrProviderTimeout = errors.New("provider timeout")

	// ErrProviderUnavailable covers connection failures, non-2xx responses,
	// empty output and undecodable output
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderExhausted means every configured provider failed
	ErrProviderExhausted = errors.New("all providers exhausted")

	// ErrEmptyResponse is returned by providers that answered with no text
	ErrEmptyResponse = errors.New("empty response")
)

// ProviderError records why one provider failed. Kind is ErrProviderTimeout
// or ErrProviderUnavailable.
type ProviderError struct {
	Provider string
	Kind     error
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is
func (e *ProviderError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// ValidationError describes a malformed field in model output. The
// normalizer records these as warnings and substitutes defaults.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// classify wraps err as a ProviderError of the right kind
func classify(provider string, err error) *ProviderError {
	kind := ErrProviderUnavailable
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrProviderTimeout) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		kind = ErrProviderTimeout
	}
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}
