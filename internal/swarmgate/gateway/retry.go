package gateway

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"

	"github.com/sony/gobreaker/v2"
)

// idempotencyClass splits the gateway operations into those that can be
// replayed freely and those with side effects on the gateway.
type idempotencyClass int

const (
	// classIdempotent: reads, safe to retry on any transport failure.
	classIdempotent idempotencyClass = iota
	// classMutating: purchase/extend/upload. Replaying after an ambiguous
	// failure risks a duplicate purchase, so these retry only when the
	// request provably never reached the gateway.
	classMutating
)

// failureClass describes how far a failed attempt got.
type failureClass int

const (
	failNone failureClass = iota
	// failDial: connection establishment failed, nothing was sent.
	failDial
	// failTransport: the connection dropped mid-flight; the gateway may or
	// may not have processed the request.
	failTransport
	// failServerStatus: a complete 5xx response.
	failServerStatus
)

// RetryPolicy is the single place retry behavior is decided. MaxRetries
// counts attempts beyond the first; backoff doubles per retry up to
// BackoffMax.
type RetryPolicy struct {
	MaxRetries  int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// DefaultRetryPolicy mirrors the shipped configuration defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
		BackoffMax:  5 * time.Second,
	}
}

// Attempts returns the total attempt budget.
func (p RetryPolicy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// Backoff returns the delay before the given retry (1-based).
func (p RetryPolicy) Backoff(retry int) time.Duration {
	if p.BackoffBase <= 0 || retry < 1 {
		return 0
	}
	d := p.BackoffBase << (retry - 1)
	if d <= 0 || (p.BackoffMax > 0 && d > p.BackoffMax) {
		return p.BackoffMax
	}
	return d
}

// Allows reports whether another attempt may follow err for an operation
// of the given class. Local validation errors, 4xx responses and decode
// failures are never retried; an open circuit breaker stops the loop.
func (p RetryPolicy) Allows(class idempotencyClass, err error) bool {
	switch classify(err) {
	case failDial, failServerStatus:
		return true
	case failTransport:
		return class == classIdempotent
	default:
		return false
	}
}

func classify(err error) failureClass {
	var ge *Error
	if !errors.As(err, &ge) || ge.Kind != KindGatewayUnavailable {
		return failNone
	}
	if errors.Is(ge.cause, gobreaker.ErrOpenState) || errors.Is(ge.cause, gobreaker.ErrTooManyRequests) {
		return failNone
	}
	if ge.status >= 500 {
		return failServerStatus
	}
	if isDialFailure(ge.cause) {
		return failDial
	}
	return failTransport
}

// isDialFailure reports whether the request never left this process:
// refused connections, unreachable hosts and DNS failures. Anything else
// (reset mid-request, timeout awaiting response) is ambiguous.
func isDialFailure(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
