package fetch

import (
	"fmt"
)

// TransientError is returned once every attempt at a request failed with a
// failure that could have gone away on retry.
type TransientError struct {
	URL      string
	Attempts int
	// Status is the last response status, 0 if no response was received.
	Status int
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: gave up after %d attempts (status %d): %v", e.URL, e.Attempts, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: gave up after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NonTransientError is a response that will not get better on retry, a 4xx
// other than 408. It is never retried.
type NonTransientError struct {
	URL    string
	Status int
}

func (e *NonTransientError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
}

// statusError is a single attempt that got a retryable status back.
type statusError struct {
	status int
}

func (e statusError) Error() string {
	return fmt.Sprintf("status %d", e.status)
}

// DecodeError is a single attempt whose body could not be decoded.
type DecodeError struct {
	Err error
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("decode body: %v", e.Err)
}

func (e DecodeError) Unwrap() error {
	return e.Err
}
