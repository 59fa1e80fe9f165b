package fetch

import (
	"errors"
	"math"
	"net/http"
	"time"
)

// Policy decides how often and how patiently a request is retried. It is a
// plain value, every call works on its own copy and keeps its attempt count
// on its own stack.
type Policy struct {
	// Retries is the number of extra attempts after the first one.
	Retries int
	// Base is the exponent base of the backoff, the wait before retry n is
	// Unit * Base^n.
	Base float64
	// Unit scales the backoff, it is one second outside of tests.
	Unit time.Duration
	// Retryable reports whether a failed attempt is worth another try. When
	// nil, IsTransient is used.
	Retryable func(err error) bool
}

// DefaultPolicy waits 3s, 9s and 27s before the three retries.
func DefaultPolicy() Policy {
	return Policy{
		Retries: 3,
		Base:    3,
		Unit:    time.Second,
	}
}

func (p Policy) isZero() bool {
	return p.Retries == 0 && p.Base == 0 && p.Unit == 0 && p.Retryable == nil
}

// Delay returns the wait before the given retry, counted from 1.
func (p Policy) Delay(retry int) time.Duration {
	return time.Duration(float64(p.Unit) * math.Pow(p.Base, float64(retry)))
}

func (p Policy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return IsTransient(err)
}

// transient statuses are the ones worth retrying, 408 and every 5xx.
func transientStatus(status int) bool {
	return status == http.StatusRequestTimeout || status >= 500
}

// IsTransient reports whether err is a failure that is likely to go away on
// its own: transport errors, undecodable bodies, 408 and 5xx responses.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var nonTransient *NonTransientError
	return !errors.As(err, &nonTransient)
}
