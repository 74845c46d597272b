// Package apperrors defines the failure taxonomy shared by adapters and the aggregator.
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"
)

var (
	// ErrConfigMissing means a required credential or endpoint is absent.
	// The adapter self-disables; the pipeline continues with other sources.
	ErrConfigMissing = errors.New("config missing")

	// ErrTransient marks failures worth retrying: timeouts, 5xx, connection resets.
	ErrTransient = errors.New("transient failure")

	// ErrPermanent marks failures that must not be retried: 4xx, payload malformed beyond repair.
	ErrPermanent = errors.New("permanent failure")

	// ErrRecordInvalid marks a single event failing schema/invariant checks.
	// Skipped at debug level, never aborts the batch.
	ErrRecordInvalid = errors.New("record invalid")
)

// ConfigMissing wraps ErrConfigMissing with the missing setting's name.
func ConfigMissing(what string) error {
	return fmt.Errorf("%w: %s", ErrConfigMissing, what)
}

// Transient wraps an error as retryable.
func Transient(err error) error {
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

// Permanent wraps an error as non-retryable.
func Permanent(err error) error {
	return fmt.Errorf("%w: %v", ErrPermanent, err)
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// ClassifyStatus maps an HTTP status code to the taxonomy.
// 2xx returns nil, 5xx and 429 are transient, other 4xx permanent.
func ClassifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w: status %d", ErrTransient, status)
	default:
		return fmt.Errorf("%w: status %d", ErrPermanent, status)
	}
}

// ClassifyNetErr maps a transport-level error to the taxonomy.
// Timeouts and connection resets are transient; context cancellation
// passes through untouched so callers can distinguish shutdown.
func ClassifyNetErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Transient(err)
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, os.ErrDeadlineExceeded) {
		return Transient(err)
	}
	// Unknown transport errors (DNS flaps, proxy drops) are treated as transient.
	return Transient(err)
}
