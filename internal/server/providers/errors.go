// Package providers holds what the external collaborators share: error
// classification by HTTP status and a bounded retry loop with a per-attempt
// timeout.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/ermil/internal/common"
)

// Error describes a failed provider call. It matches common.ErrProviderClient
// or common.ErrProviderTransient with errors.Is, and also the cause.
type Error struct {
	Provider string
	Op       string
	Status   int
	Err      error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.class(), e.Err}
}

func (e *Error) class() error {
	if e.Status == 0 || e.Status >= 500 || e.Status == http.StatusTooManyRequests || e.Status == http.StatusRequestTimeout {
		return common.ErrProviderTransient
	}
	return common.ErrProviderClient
}

// StatusError builds the error for a non-2xx response.
func StatusError(provider, op string, status int, body string) error {
	return &Error{Provider: provider, Op: op, Status: status, Err: fmt.Errorf("unexpected response: %q", body)}
}

// TransportError wraps a failure to get any response at all. It is always
// transient.
func TransportError(provider, op string, err error) error {
	return &Error{Provider: provider, Op: op, Err: err}
}

// ClientError reports a response the provider accepted but that cannot be
// used. Retrying will not help.
func ClientError(provider, op string, status int, err error) error {
	if status == 0 || status >= 500 {
		status = http.StatusUnprocessableEntity
	}
	return &Error{Provider: provider, Op: op, Status: status, Err: err}
}

// IsNotFound reports whether err is a provider 404.
func IsNotFound(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Status == http.StatusNotFound
}

// Outcome is the metrics label for the result of a call.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, common.ErrProviderClient):
		return "client_error"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "transient_error"
	}
}
