package probe

import (
	"context"

	"github.com/hamed0406/sitemonitor/internal/domain"
)

// Result is the outcome of a single probe plus a human reason that is
// logged but never persisted.
//
// Outcome.StatusCode is 0 and Outcome.LatencyMS is 0 for transport errors.
// NotSent marks a check abandoned before any request left, e.g. because the
// run was cancelled while waiting for the rate limiter; it is not an outcome.
type Result struct {
	Outcome domain.ProbeOutcome
	Reason  string
	NotSent bool
}

// Checker performs a single check for a given target URL. It never fails;
// every error is folded into the Result.
type Checker interface {
	Check(ctx context.Context, target string) Result
}
