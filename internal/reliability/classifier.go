package reliability

import (
	"context"
	"errors"
	"time"
)

// Outcome is the decision taken after one attempt against an upstream.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRetry
	OutcomeFail
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetry:
		return "retry"
	case OutcomeFail:
		return "fail"
	default:
		return "unknown"
	}
}

// ErrPermanent marks failures that must not be retried even though they
// carry no HTTP status (bad request payloads, application-level errors).
var ErrPermanent = errors.New("permanent upstream failure")

// StatusCoder is implemented by errors that carry an upstream HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

// IsRetryableHTTPStatus classifies retryable HTTP status codes.
func IsRetryableHTTPStatus(code int) bool {
	return code == 429 || (code >= 500 && code <= 599)
}

// Classify decides how to proceed after an attempt returned err. ctx is the
// caller's context: once it is done nothing is retried. Errors without a
// status are treated as network failures with no response.
func Classify(ctx context.Context, err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	if ctx != nil && ctx.Err() != nil {
		return OutcomeFail
	}
	if errors.Is(err, ErrPermanent) || errors.Is(err, context.Canceled) {
		return OutcomeFail
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		if IsRetryableHTTPStatus(sc.HTTPStatus()) {
			return OutcomeRetry
		}
		return OutcomeFail
	}
	return OutcomeRetry
}

// ExponentialBackoff computes a deterministic capped backoff duration.
func ExponentialBackoff(attempt int, base, cap time.Duration) time.Duration {
	if attempt <= 0 {
		return base
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if cap > 0 && d >= cap {
			return cap
		}
	}
	return d
}

// RetryDelay is the wait before the n-th retry (1-based): base, 2*base, 4*base...
func RetryDelay(retry int, base, cap time.Duration) time.Duration {
	return ExponentialBackoff(retry-1, base, cap)
}
