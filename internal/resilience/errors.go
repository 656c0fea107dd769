package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

// TransientError wraps a provider error that is safe to retry (e.g., 5xx,
// network timeout). StatusCode is zero for non-HTTP failures.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// IsTransient reports whether err (or any error in its chain) is a
// TransientError or looks like a network-level hiccup.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	return containsAny(strings.ToLower(err.Error()),
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	)
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// IsQuotaExhausted reports whether err's message carries a quota or
// rate-limit marker. Provider SDKs do not share a structured error type for
// this, so detection is by case-insensitive substring and depends on the
// provider's wording.
func IsQuotaExhausted(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "quota") && strings.Contains(msg, "exceed") {
		return true
	}
	return containsAny(msg,
		"insufficient_quota",
		"rate limit",
		"ratelimit",
		"429",
	)
}

// Class is a coarse failure category used for retry decisions and metrics.
type Class string

const (
	ClassNone      Class = ""
	ClassQuota     Class = "quota"
	ClassTimeout   Class = "timeout"
	ClassCanceled  Class = "canceled"
	ClassTransient Class = "transient"
	ClassOther     Class = "other"
)

// Classify buckets err. Quota markers win over everything else.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassNone
	case IsQuotaExhausted(err):
		return ClassQuota
	case errors.Is(err, context.DeadlineExceeded):
		return ClassTimeout
	case errors.Is(err, context.Canceled):
		return ClassCanceled
	case IsTransient(err):
		return ClassTransient
	default:
		return ClassOther
	}
}

func containsAny(s string, patterns ...string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
