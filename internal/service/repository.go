package service

import (
	"context"
	"net/http"
	"time"

	gh "github.com/google/go-github/v80/github"
	"github.com/google/uuid"

	"github.com/sunzhengang/github-topics-trending/internal/github"
	"github.com/sunzhengang/github-topics-trending/internal/queue"
	"github.com/sunzhengang/github-topics-trending/pkg/errors"
	"github.com/sunzhengang/github-topics-trending/pkg/logger"
)

// * Fetcher is the part of github.Fetcher the service relies on
type Fetcher interface {
	Topic() string
	Fetch(ctx context.Context, sort github.SortKey, limit int) *github.Result
	FetchNewRepos(ctx context.Context, days int) *github.Result
	RepoDetails(ctx context.Context, owner, repo string) (*gh.Repository, error)
	RateLimit(resource string) github.RateLimit
}

type Publisher interface {
	Publish(ctx context.Context, batch queue.Batch) error
}

type RepositoryService struct {
	fetcher   Fetcher
	publisher Publisher
	now       func() time.Time
}

// * NewRepositoryService wires a fetcher and an optional publisher. Without a
// * publisher Collect refuses to run.
func NewRepositoryService(fetcher Fetcher, publisher Publisher) *RepositoryService {
	return &RepositoryService{
		fetcher:   fetcher,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *RepositoryService) Topic() string {
	return s.fetcher.Topic()
}

func (s *RepositoryService) ListRepositories(ctx context.Context, sort github.SortKey, limit int) *github.Result {
	return s.fetcher.Fetch(ctx, sort, limit)
}

func (s *RepositoryService) ListNewRepositories(ctx context.Context, days int) *github.Result {
	return s.fetcher.FetchNewRepos(ctx, days)
}

func (s *RepositoryService) GetRepository(ctx context.Context, owner, name string) (*gh.Repository, error) {
	return s.fetcher.RepoDetails(ctx, owner, name)
}

func (s *RepositoryService) RateLimits() map[string]github.RateLimit {
	return map[string]github.RateLimit{
		github.ResourceSearch: s.fetcher.RateLimit(github.ResourceSearch),
		github.ResourceCore:   s.fetcher.RateLimit(github.ResourceCore),
	}
}

// * Collect runs one fetch and publishes it as a batch. Partial results are
// * published flagged incomplete; a run that failed before gathering anything
// * publishes nothing and returns the fetch error.
func (s *RepositoryService) Collect(ctx context.Context, sort github.SortKey, limit int) (*queue.Batch, error) {
	if s.publisher == nil {
		return nil, errors.New(
			errors.RefQueue,
			"Publishing is disabled",
			"No message queue is configured, set RABBITMQ_URL to enable collection",
			nil,
			errors.LevelWarning,
		).WithStatus(http.StatusServiceUnavailable)
	}

	logger.Info("Collecting repositories for topic %s...", s.fetcher.Topic())
	res := s.fetcher.Fetch(ctx, sort, limit)
	if len(res.Repositories) == 0 && !res.Complete() {
		return nil, res.Err
	}

	batch := queue.Batch{
		ID:           uuid.NewString(),
		Topic:        s.fetcher.Topic(),
		Query:        res.Query,
		Sort:         string(res.Sort),
		FetchedAt:    s.now().UTC(),
		Complete:     res.Complete(),
		Reason:       string(res.Reason),
		Count:        len(res.Repositories),
		Repositories: res.Repositories,
	}

	if err := s.publisher.Publish(ctx, batch); err != nil {
		return nil, err
	}

	if !batch.Complete {
		logger.Warn("published partial batch %s (%s): %v", batch.ID, batch.Reason, res.Err)
	}
	return &batch, nil
}
