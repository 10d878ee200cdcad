package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(maxWait time.Duration) (*RateLimiter, *sleepRecorder) {
	rec := &sleepRecorder{}
	rl := NewRateLimiter(maxWait)
	rl.now = func() time.Time { return fixedNow }
	rl.sleep = rec.sleep
	return rl, rec
}

func TestRateLimiter_SnapshotDefaults(t *testing.T) {
	rl := NewRateLimiter(time.Minute)

	snap := rl.Snapshot(ResourceSearch)
	assert.Equal(t, ResourceSearch, snap.Resource)
	assert.Equal(t, defaultQuota, snap.Remaining)
	assert.True(t, snap.Reset.IsZero())
}

func TestRateLimiter_UpdateFromHeaders(t *testing.T) {
	rl, _ := newTestLimiter(time.Minute)
	reset := fixedNow.Add(time.Minute).Unix()

	headers := http.Header{}
	headers.Set(HeaderRateLimit, "30")
	headers.Set(HeaderRateRemaining, "12")
	headers.Set(HeaderRateUsed, "18")
	headers.Set(HeaderRateReset, strconv.FormatInt(reset, 10))

	snap := rl.updateFromHeaders(ResourceSearch, headers)
	assert.Equal(t, RateLimit{Resource: ResourceSearch, Limit: 30, Remaining: 12, Used: 18, Reset: time.Unix(reset, 0)}, snap)

	// * junk values leave the previous state untouched
	bad := http.Header{}
	bad.Set(HeaderRateRemaining, "plenty")
	assert.Equal(t, 12, rl.updateFromHeaders(ResourceSearch, bad).Remaining)

	assert.Equal(t, defaultQuota, rl.Snapshot(ResourceCore).Remaining)
}

func TestRateLimiter_WaitIfNeeded(t *testing.T) {
	tests := []struct {
		name      string
		remaining string
		reset     time.Time
		wantSleep []time.Duration
	}{
		{name: "plenty left", remaining: "100", reset: fixedNow.Add(time.Minute)},
		{name: "low but reset unknown", remaining: "3"},
		{name: "low and reset passed", remaining: "3", reset: fixedNow.Add(-time.Minute)},
		{name: "low with reset ahead", remaining: "9", reset: fixedNow.Add(20 * time.Second), wantSleep: []time.Duration{21 * time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl, rec := newTestLimiter(time.Minute)

			headers := http.Header{}
			headers.Set(HeaderRateRemaining, tt.remaining)
			if !tt.reset.IsZero() {
				headers.Set(HeaderRateReset, strconv.FormatInt(tt.reset.Unix(), 10))
			}
			rl.updateFromHeaders(ResourceSearch, headers)

			require.NoError(t, rl.waitIfNeeded(context.Background(), ResourceSearch))
			if tt.wantSleep == nil {
				assert.Empty(t, rec.all())
				return
			}
			assert.Equal(t, tt.wantSleep, rec.all())
		})
	}
}

func TestRateLimiter_RetryDelay(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		headers   map[string]string
		wantWait  time.Duration
		wantRetry bool
	}{
		{name: "ok response", status: http.StatusOK},
		{name: "plain forbidden", status: http.StatusForbidden},
		{name: "429 with retry-after", status: http.StatusTooManyRequests, headers: map[string]string{HeaderRetryAfter: "5"}, wantWait: 5 * time.Second, wantRetry: true},
		{name: "403 secondary limit", status: http.StatusForbidden, headers: map[string]string{HeaderRetryAfter: "10"}, wantWait: 10 * time.Second, wantRetry: true},
		{
			name:   "403 quota spent, reset soon",
			status: http.StatusForbidden,
			headers: map[string]string{
				HeaderRateRemaining: "0",
				HeaderRateReset:     strconv.FormatInt(fixedNow.Add(15*time.Second).Unix(), 10),
			},
			wantWait:  16 * time.Second,
			wantRetry: true,
		},
		{
			name:   "403 quota spent, reset too far",
			status: http.StatusForbidden,
			headers: map[string]string{
				HeaderRateRemaining: "0",
				HeaderRateReset:     strconv.FormatInt(fixedNow.Add(time.Hour).Unix(), 10),
			},
		},
		{name: "429 without hints", status: http.StatusTooManyRequests},
		{name: "retry-after too long", status: http.StatusTooManyRequests, headers: map[string]string{HeaderRetryAfter: "3600"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl, _ := newTestLimiter(time.Minute)

			resp := &http.Response{StatusCode: tt.status, Header: http.Header{}}
			for k, v := range tt.headers {
				resp.Header.Set(k, v)
			}
			snap := rl.updateFromHeaders(ResourceCore, resp.Header)

			wait, retry := rl.retryDelay(resp, snap)
			assert.Equal(t, tt.wantRetry, retry)
			assert.Equal(t, tt.wantWait, wait)
		})
	}
}

func TestRateLimiter_MiddlewareTracksResources(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/search/repositories" {
			w.Header().Set(HeaderRateRemaining, "29")
		} else {
			w.Header().Set(HeaderRateRemaining, "4990")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	rl, _ := newTestLimiter(time.Minute)
	client := &http.Client{Transport: rl.Middleware(http.DefaultTransport)}

	for _, path := range []string{"/search/repositories", "/repos/octo/hello"} {
		resp, err := client.Get(server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, 29, rl.Snapshot(ResourceSearch).Remaining)
	assert.Equal(t, 4990, rl.Snapshot(ResourceCore).Remaining)
}

func TestRateLimiter_WaitHonoursCancellation(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	headers := http.Header{}
	headers.Set(HeaderRateRemaining, "0")
	headers.Set(HeaderRateReset, strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
	rl.updateFromHeaders(ResourceSearch, headers)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := rl.waitIfNeeded(ctx, ResourceSearch)
	assert.ErrorIs(t, err, context.Canceled)
}
