package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

type ErrorKind int

const (
	RateLimited ErrorKind = iota + 1
	ClientError
	ServerError
	NetworkError
)

func (k ErrorKind) String() string {
	switch k {
	case RateLimited:
		return "rate_limited"
	case ClientError:
		return "client_error"
	case ServerError:
		return "server_error"
	case NetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

type GenerationError struct {
	Kind       ErrorKind
	StatusCode int
	// RetryAfter is the provider's hint, zero when absent.
	RetryAfter time.Duration
	Err        error
}

func (e *GenerationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("generation %s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("generation %s: %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func (e *GenerationError) Retryable() bool {
	return e.Kind != ClientError
}

// FromStatus classifies an HTTP status code from a provider response.
func FromStatus(code int, retryAfter time.Duration, err error) *GenerationError {
	kind := ClientError
	switch {
	case code == http.StatusTooManyRequests:
		kind = RateLimited
	case code >= 500:
		kind = ServerError
	case code == http.StatusRequestTimeout:
		kind = NetworkError
	}
	return &GenerationError{Kind: kind, StatusCode: code, RetryAfter: retryAfter, Err: err}
}

// Classify wraps an error that carries no status code. Timeouts and
// transport failures count as network errors; anything else as a server
// error so it is retried.
func Classify(err error) *GenerationError {
	if err == nil {
		return nil
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return &GenerationError{Kind: NetworkError, Err: err}
	}
	return &GenerationError{Kind: ServerError, Err: err}
}

// ParseRetryAfter reads a Retry-After header value given as seconds or as an
// HTTP date. Unparseable or past values give zero.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
