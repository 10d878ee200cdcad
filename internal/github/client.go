package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/sunzhengang/github-topics-trending/internal/config"
	"github.com/sunzhengang/github-topics-trending/pkg/errors"
)

const UserAgent = "GitHub-Topics-Trending/1.0"

type Fetcher struct {
	client   *gh.Client
	limiter  *RateLimiter
	topic    string
	perPage  int
	maxPages int
	sort     SortKey
	order    Order
	delay    time.Duration
	observer Observer
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

type options struct {
	transport http.RoundTripper
	observer  Observer
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

type Option func(*options)

func WithObserver(o Observer) Option {
	return func(opts *options) { opts.observer = o }
}

// * WithTransport replaces http.DefaultTransport underneath the rate limiter
func WithTransport(rt http.RoundTripper) Option {
	return func(opts *options) { opts.transport = rt }
}

func WithClock(now func() time.Time) Option {
	return func(opts *options) { opts.now = now }
}

// * WithSleeper replaces every wait the fetcher performs, both the
// * inter-page delay and rate-limit waits
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(opts *options) { opts.sleep = sleep }
}

func NewFetcher(cfg *config.Config, opts ...Option) (*Fetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{
		transport: http.DefaultTransport,
		observer:  LogObserver{},
		now:       time.Now,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(&o)
	}

	baseURL, err := url.Parse(strings.TrimSuffix(cfg.APIBase, "/") + "/")
	if err != nil {
		return nil, errors.New(
			errors.RefConfig,
			"Invalid GitHub API base URL",
			fmt.Sprintf("Could not parse %q", cfg.APIBase),
			err,
			errors.LevelFatal,
		)
	}

	rl := NewRateLimiter(cfg.MaxRateWait)
	rl.now = o.now
	rl.sleep = o.sleep

	var transport http.RoundTripper = rl.Middleware(o.transport)
	if cfg.GitHubToken != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GitHubToken}),
			Base:   transport,
		}
	}

	// * attempts are timed out by the limiter; a client Timeout would also bound its waits
	client := gh.NewClient(&http.Client{Transport: transport})
	client.BaseURL = baseURL
	client.UserAgent = UserAgent

	return &Fetcher{
		client:   client,
		limiter:  rl,
		topic:    cfg.Topic,
		perPage:  cfg.PerPage,
		maxPages: cfg.MaxPages,
		sort:     SortKey(cfg.SearchSort),
		order:    Order(cfg.SearchOrder),
		delay:    cfg.RequestDelay,
		observer: o.observer,
		now:      o.now,
		sleep:    o.sleep,
	}, nil
}

func (f *Fetcher) Topic() string {
	return f.topic
}

// * RateLimit returns the last known quota for ResourceSearch or ResourceCore
func (f *Fetcher) RateLimit(resource string) RateLimit {
	return f.limiter.Snapshot(resource)
}

// * RefreshRateLimits asks the rate_limit endpoint for the current quotas.
// * The call itself does not count against either resource.
func (f *Fetcher) RefreshRateLimits(ctx context.Context) error {
	limits, _, err := f.client.RateLimit.Get(withLimiterContext(ctx))
	if err != nil {
		_, _, appErr := classify(ctx, err, "rate limits")
		return appErr
	}

	for resource, rate := range map[string]*gh.Rate{
		ResourceSearch: limits.Search,
		ResourceCore:   limits.Core,
	} {
		if rate == nil {
			continue
		}
		f.limiter.store(RateLimit{
			Resource:  resource,
			Limit:     rate.Limit,
			Remaining: rate.Remaining,
			Used:      rate.Used,
			Reset:     rate.Reset.Time,
		})
	}
	return nil
}

// * go-github keeps its own view of the quota and would refuse requests
// * before they reach the transport. The limiter owns that decision here.
func withLimiterContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, gh.BypassRateLimitCheck, true)
}
