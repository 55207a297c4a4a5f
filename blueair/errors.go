package blueair

import (
	"fmt"
	"time"
)

// ConfigError reports invalid construction-time configuration: a missing
// credential or an unsupported region. It is fatal; retrying without
// changing the configuration cannot succeed.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "blueair config: " + e.Reason
}

// Login step names carried by AuthError.
const (
	StepLogin          = "login"
	StepTokenExchange  = "token-exchange"
	StepAccessExchange = "access-exchange"
)

// AuthError reports a failed step of the three-step login sequence.
// Previously stored credentials, if any, are left untouched.
type AuthError struct {
	Step string
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("blueair auth %s: %v", e.Step, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// TransportError reports a network failure or timeout on an outbound
// call. Transport failures are always safe to retry.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("blueair transport %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError reports a non-2xx status or an unparsable body from an
// authenticated gateway call. The raw body is retained for diagnostics;
// a repeated APIError right after a fresh login usually means an
// account or service problem rather than a stale token.
type APIError struct {
	Op      string
	Service string
	Status  int
	Body    string
	Err     error
}

func (e *APIError) Error() string {
	op := e.Op
	if e.Service != "" {
		op += " " + e.Service
	}
	if e.Err != nil {
		return fmt.Sprintf("blueair api %s: %v", op, e.Err)
	}
	return fmt.Sprintf("blueair api %s: status %d: %s", op, e.Status, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// RateLimitError reports a call blocked locally while the gateway's
// rate-limit cooldown is in effect.
type RateLimitError struct {
	RetryAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("blueair rate limited (retry at %s)", e.RetryAt.UTC().Format(time.RFC3339))
}
