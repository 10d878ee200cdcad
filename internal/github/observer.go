package github

import (
	"context"
	"time"

	"github.com/sunzhengang/github-topics-trending/pkg/logger"
)

// PageEvent is emitted once per search page that yielded items.
type PageEvent struct {
	Query     string
	Page      int
	Items     int
	Total     int
	RateLimit RateLimit
}

// Summary is emitted once when a fetch run stops.
type Summary struct {
	Query    string
	Pages    int
	Count    int
	Reason   StopReason
	Err      error
	Duration time.Duration
}

// Observer receives progress events from the Fetcher. Implementations are
// called synchronously from the fetch loop and should return quickly.
type Observer interface {
	OnPage(ctx context.Context, ev PageEvent)
	OnDone(ctx context.Context, s Summary)
}

// NoopObserver discards every event.
type NoopObserver struct{}

func (NoopObserver) OnPage(context.Context, PageEvent) {}
func (NoopObserver) OnDone(context.Context, Summary)   {}

// LogObserver reports progress through the package logger. It is the
// Fetcher's default.
type LogObserver struct{}

func (LogObserver) OnPage(_ context.Context, ev PageEvent) {
	logger.Info("page %d: fetched %d repositories (total %d, %d %s requests left)",
		ev.Page, ev.Items, ev.Total, ev.RateLimit.Remaining, ev.RateLimit.Resource)
}

func (LogObserver) OnDone(_ context.Context, s Summary) {
	if s.Reason.Complete() {
		logger.Info("✅ fetched %d repositories for %q in %d pages (%s, %s)", s.Count, s.Query, s.Pages, s.Reason, s.Duration.Round(time.Millisecond))
		return
	}
	logger.Warn("⚠️ fetch for %q stopped early after %d repositories (%s): %v", s.Query, s.Count, s.Reason, s.Err)
}
