package worker

import (
	"context"
	"time"

	"github.com/sunzhengang/github-topics-trending/internal/github"
	"github.com/sunzhengang/github-topics-trending/internal/queue"
	"github.com/sunzhengang/github-topics-trending/pkg/logger"
)

type Collector interface {
	Collect(ctx context.Context, sort github.SortKey, limit int) (*queue.Batch, error)
}

// * CollectWorker publishes a fresh batch right away and then once per interval
type CollectWorker struct {
	collector Collector
	interval  time.Duration
	sort      github.SortKey
	limit     int
}

func NewCollectWorker(collector Collector, interval time.Duration, sort github.SortKey, limit int) *CollectWorker {
	return &CollectWorker{
		collector: collector,
		interval:  interval,
		sort:      sort,
		limit:     limit,
	}
}

func (w *CollectWorker) Run(ctx context.Context) {
	w.collect(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.collect(ctx)

		case <-ctx.Done():
			logger.Info("stopping collect worker")
			return
		}
	}
}

func (w *CollectWorker) collect(ctx context.Context) {
	batch, err := w.collector.Collect(ctx, w.sort, w.limit)
	if err != nil {
		logger.Error("collection failed: %v", err)
		return
	}
	logger.Info("successfully collected batch %s (%d repositories)", batch.ID, batch.Count)
}
