package domain

import (
	"context"
	"errors"
	"net"
)

// Domain errors represent pipeline failures the caller can act on.
// Adapters and use cases wrap these sentinels with fmt.Errorf("...: %w").
var (
	// ErrConfiguration indicates invalid chunking or retrieval
	// parameters. Fatal, surfaced immediately, never retried.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrInvalidArgument indicates a malformed call argument, such as
	// a non-positive result count.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRetrievalUnavailable indicates the index query failed after
	// exhausting retries. No verdict can be produced without context,
	// so the whole rule check fails.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrModelInvocation indicates the language-model call failed.
	// Not retried at the verdict layer.
	ErrModelInvocation = errors.New("model invocation failed")

	// ErrTransient marks a remote failure worth retrying: timeouts,
	// rate limits, 5xx-class responses. Adapters wrap errors with this
	// sentinel so retry loops can classify them.
	ErrTransient = errors.New("transient remote failure")
)

// IsTransient reports whether err is a retryable remote failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
