package github

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sunzhengang/github-topics-trending/pkg/logger"
)

const (
	HeaderRateLimit     = "X-RateLimit-Limit"
	HeaderRateRemaining = "X-RateLimit-Remaining"
	HeaderRateUsed      = "X-RateLimit-Used"
	HeaderRateReset     = "X-RateLimit-Reset"
	HeaderRateResource  = "X-RateLimit-Resource"
	HeaderRetryAfter    = "Retry-After"

	ResourceSearch = "search"
	ResourceCore   = "core"

	// * assumed quota until the first response says otherwise
	defaultQuota = 5000

	// * below this many remaining requests we wait for the reset before asking again
	lowWater = 10

	// * bounds one network attempt; rate-limit waits are not part of it
	attemptTimeout = 30 * time.Second
)

type RateLimiter struct {
	mu      sync.Mutex
	limits  map[string]RateLimit
	lowWarn int
	maxWait time.Duration
	timeout time.Duration
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewRateLimiter(maxWait time.Duration) *RateLimiter {
	return &RateLimiter{
		limits:  make(map[string]RateLimit),
		lowWarn: lowWater,
		maxWait: maxWait,
		timeout: attemptTimeout,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// * Snapshot returns the last known quota of resource. Reset is zero until a
// * response has carried rate-limit headers.
func (r *RateLimiter) Snapshot(resource string) RateLimit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(resource)
}

func (r *RateLimiter) snapshotLocked(resource string) RateLimit {
	if rl, ok := r.limits[resource]; ok {
		return rl
	}
	return RateLimit{Resource: resource, Limit: defaultQuota, Remaining: defaultQuota}
}

func (r *RateLimiter) store(rl RateLimit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limits[rl.Resource] = rl
}

func (r *RateLimiter) waitIfNeeded(ctx context.Context, resource string) error {
	rl := r.Snapshot(resource)

	if rl.Remaining >= r.lowWarn || rl.Reset.IsZero() {
		return nil
	}

	now := r.now()
	if !now.Before(rl.Reset) {
		return nil
	}

	// * one extra second since the reset header has second granularity
	waitTime := rl.Reset.Sub(now) + time.Second
	logger.Warn("[RateLimiter] %s quota low (%d remaining). Waiting %v until reset at %v", resource, rl.Remaining, waitTime, rl.Reset.Format(time.RFC1123))
	return r.sleep(ctx, waitTime)
}

func (r *RateLimiter) updateFromHeaders(resource string, headers http.Header) RateLimit {
	r.mu.Lock()
	defer r.mu.Unlock()

	rl := r.snapshotLocked(resource)

	if limit := headers.Get(HeaderRateLimit); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			rl.Limit = val
		}
	}

	if remaining := headers.Get(HeaderRateRemaining); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			rl.Remaining = val
		}
	}

	if used := headers.Get(HeaderRateUsed); used != "" {
		if val, err := strconv.Atoi(used); err == nil {
			rl.Used = val
		}
	}

	if reset := headers.Get(HeaderRateReset); reset != "" {
		if val, err := strconv.ParseInt(reset, 10, 64); err == nil {
			rl.Reset = time.Unix(val, 0)
		}
	}

	r.limits[resource] = rl

	if rl.Remaining < r.lowWarn {
		logger.Warn("[RateLimiter] Low %s rate limit: %d remaining. Resets at %s", resource, rl.Remaining, rl.Reset.Format(time.RFC1123))
	}
	return rl
}

// * retryDelay decides whether a response is a rate-limit rejection worth
// * waiting out. Only waits no longer than maxWait qualify.
func (r *RateLimiter) retryDelay(resp *http.Response, rl RateLimit) (time.Duration, bool) {
	limited := resp.StatusCode == http.StatusTooManyRequests ||
		(resp.StatusCode == http.StatusForbidden && (rl.Remaining == 0 || resp.Header.Get(HeaderRetryAfter) != ""))
	if !limited {
		return 0, false
	}

	var wait time.Duration
	switch {
	case resp.Header.Get(HeaderRetryAfter) != "":
		seconds, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get(HeaderRetryAfter)))
		if err != nil || seconds < 0 {
			return 0, false
		}
		wait = time.Duration(seconds) * time.Second
	case rl.Remaining == 0 && !rl.Reset.IsZero():
		wait = rl.Reset.Sub(r.now()) + time.Second
		if wait < 0 {
			wait = 0
		}
	default:
		return 0, false
	}

	if wait > r.maxWait {
		logger.Warn("[RateLimiter] Rate limited, reset in %v exceeds max wait %v. Giving up", wait, r.maxWait)
		return 0, false
	}
	return wait, true
}

// * Middleware blocks before a request while the quota is nearly spent,
// * records the quota of every response, and retries a rate-limited
// * request once after the advertised wait. Waits run on the caller's
// * context; only each network attempt is bounded by the attempt timeout.
func (r *RateLimiter) Middleware(next http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		resource := resourceFor(req)

		if err := r.waitIfNeeded(req.Context(), resource); err != nil {
			return nil, err
		}

		resp, err := r.attempt(next, req)
		if err != nil {
			return nil, err
		}

		rl := r.updateFromHeaders(resource, resp.Header)

		wait, retry := r.retryDelay(resp, rl)
		if !retry {
			return resp, nil
		}

		logger.Warn("[RateLimiter] Received %d. Retrying after %v...", resp.StatusCode, wait)
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if err := r.sleep(req.Context(), wait); err != nil {
			return nil, err
		}

		resp, err = r.attempt(next, req)
		if err != nil {
			return nil, err
		}
		r.updateFromHeaders(resource, resp.Header)
		return resp, nil
	})
}

// * attempt sends req once under its own timeout. The timeout stays armed
// * until the body is closed, so reading the payload counts as part of it.
func (r *RateLimiter) attempt(next http.RoundTripper, req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(req.Context(), r.timeout)

	resp, err := next.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		logger.Error("Network error in RoundTrip: %v", err)
		return nil, err
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func resourceFor(req *http.Request) string {
	if strings.Contains(req.URL.Path, "/search/") {
		return ResourceSearch
	}
	return ResourceCore
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
