package probe

import (
	"context"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultUserAgent looks like a desktop browser so storefronts don't serve
// bot challenges instead of the page.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0.0.0 Safari/537.36"

// maxDrain bounds how much of a body is read before the clock stops.
const maxDrain = 2 << 20

// HTTPChecker issues one GET per check. Timeout bounds the whole probe so a
// hanging target cannot stall a run; there is no retry.
type HTTPChecker struct {
	Client    *http.Client
	UserAgent string
	Timeout   time.Duration
	Limiter   *rate.Limiter // optional politeness limit shared by all probes
}

func NewHTTPChecker(timeout time.Duration, userAgent string) *HTTPChecker {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPChecker{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: userAgent,
		Timeout:   timeout,
	}
}

func (h *HTTPChecker) Check(ctx context.Context, target string) Result {
	start := time.Now().UTC()
	res := Result{}
	res.Outcome.Timestamp = start

	// The limiter waits on the caller's context so queuing never eats
	// into the probe's own timeout.
	if h.Limiter != nil {
		if err := h.Limiter.Wait(ctx); err != nil {
			res.NotSent = true
			res.Reason = "rate_wait: " + err.Error()
			return res
		}
	}

	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		res.Reason = err.Error()
		return res
	}
	req.Header.Set("User-Agent", h.UserAgent)

	t0 := time.Now()
	resp, err := h.Client.Do(req)
	if err != nil {
		res.Reason = err.Error()
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))

	res.Outcome.StatusCode = resp.StatusCode
	res.Outcome.LatencyMS = time.Since(t0).Milliseconds()
	res.Reason = resp.Status
	return res
}
