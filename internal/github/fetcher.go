package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/sunzhengang/github-topics-trending/internal/config"
	"github.com/sunzhengang/github-topics-trending/internal/models"
	"github.com/sunzhengang/github-topics-trending/pkg/errors"
	"github.com/sunzhengang/github-topics-trending/pkg/logger"
)

const (
	DefaultNewReposDays = 7

	// * defaults of the FetchRepos convenience entry point
	defaultFetchSort  = SortStars
	defaultFetchLimit = 100
)

type search struct {
	query string
	sort  SortKey
	order Order
	limit int
}

// * Fetch walks the topic's search pages ordered by sort until limit
// * repositories are gathered, max pages are used up, a short or empty page
// * signals the end, or a request fails. It never returns an error outright:
// * whatever was gathered is in the Result, with Reason and Err describing the stop.
func (f *Fetcher) Fetch(ctx context.Context, sort SortKey, limit int) *Result {
	if sort == "" {
		sort = f.sort
	} else if key, err := ParseSortKey(string(sort)); err != nil {
		logger.Warn("%v, falling back to %s", err, f.sort)
		sort = f.sort
	} else {
		sort = key
	}

	if limit <= 0 {
		limit = f.perPage * f.maxPages
	}

	logger.Info("📡 fetching repositories for topic '%s' (sort: %s, limit: %d)", f.topic, sort, limit)
	return f.paginate(ctx, search{
		query: "topic:" + f.topic,
		sort:  sort,
		order: f.order,
		limit: limit,
	})
}

// * FetchNewRepos gathers repositories of the topic created within the last
// * days days, most starred first
func (f *Fetcher) FetchNewRepos(ctx context.Context, days int) *Result {
	if days <= 0 {
		days = DefaultNewReposDays
	}

	logger.Info("📡 fetching repositories created in the last %d days for topic '%s'", days, f.topic)
	return f.paginate(ctx, search{
		query: NewReposQuery(f.topic, days, f.now().UTC()),
		sort:  SortStars,
		order: OrderDesc,
		limit: f.perPage * f.maxPages,
	})
}

// * NewReposQuery builds the search query for repositories created after
// * now minus days, using the calendar date of now
func NewReposQuery(topic string, days int, now time.Time) string {
	cutoff := now.AddDate(0, 0, -days).Format("2006-01-02")
	return fmt.Sprintf("topic:%s created:>%s", topic, cutoff)
}

func (f *Fetcher) paginate(ctx context.Context, s search) *Result {
	started := f.now()
	ctx = withLimiterContext(ctx)

	res := &Result{
		Query:        s.query,
		Sort:         s.sort,
		Repositories: make([]models.Repository, 0, min(s.limit, f.perPage*f.maxPages)),
	}

	for page := 1; ; page++ {
		if page > f.maxPages {
			res.Reason = StopMaxPages
			break
		}
		if len(res.Repositories) >= s.limit {
			res.Reason = StopLimitReached
			break
		}

		if page > 1 {
			if err := f.sleep(ctx, f.delay); err != nil {
				res.Reason, res.retryable, res.Err = classify(ctx, err, fmt.Sprintf("page %d", page))
				break
			}
		}

		result, _, err := f.client.Search.Repositories(ctx, s.query, &gh.SearchOptions{
			Sort:  string(s.sort),
			Order: string(s.order),
			ListOptions: gh.ListOptions{
				Page:    page,
				PerPage: f.perPage,
			},
		})
		if err != nil {
			res.Reason, res.retryable, res.Err = classify(ctx, err, fmt.Sprintf("page %d of %q", page, s.query))
			logger.Warn("request failed (page %d): %v", page, err)
			break
		}

		var items []*gh.Repository
		if result != nil {
			items = result.Repositories
		}
		if len(items) == 0 {
			res.Reason = StopEmptyPage
			break
		}

		res.Pages = page
		for _, item := range items {
			res.Repositories = append(res.Repositories, normalize(item, len(res.Repositories)+1))
			if len(res.Repositories) >= s.limit {
				break
			}
		}

		f.observer.OnPage(ctx, PageEvent{
			Query:     s.query,
			Page:      page,
			Items:     len(items),
			Total:     len(res.Repositories),
			RateLimit: f.limiter.Snapshot(ResourceSearch),
		})

		if len(items) < f.perPage {
			res.Reason = StopLastPage
			break
		}
	}

	res.RateLimit = f.limiter.Snapshot(ResourceSearch)
	f.observer.OnDone(ctx, Summary{
		Query:    s.query,
		Pages:    res.Pages,
		Count:    len(res.Repositories),
		Reason:   res.Reason,
		Err:      res.Err,
		Duration: f.now().Sub(started),
	})
	return res
}

// * FetchRepoDetails returns the full payload of owner/repo. The second value
// * is false when the repository could not be fetched for any reason.
func (f *Fetcher) FetchRepoDetails(ctx context.Context, owner, repo string) (*gh.Repository, bool) {
	details, err := f.RepoDetails(ctx, owner, repo)
	if err != nil {
		logger.Warn("⚠️ failed to fetch repository details %s/%s: %v", owner, repo, err)
		return nil, false
	}
	return details, true
}

// * RepoDetails is FetchRepoDetails for callers that need to tell a missing
// * repository apart from a transport failure
func (f *Fetcher) RepoDetails(ctx context.Context, owner, repo string) (*gh.Repository, error) {
	what := fmt.Sprintf("repository %s/%s", owner, repo)
	if owner == "" || repo == "" {
		return nil, errors.New(
			errors.RefInvalidRequest,
			"Invalid repository",
			"Owner and repository name must not be empty",
			nil,
			errors.LevelWarning,
		).WithStatus(http.StatusBadRequest)
	}

	details, _, err := f.client.Repositories.Get(withLimiterContext(ctx), owner, repo)
	if err != nil {
		_, _, appErr := classify(ctx, err, what)
		return nil, appErr
	}
	return details, nil
}

// * FetchRepos builds a fetcher from the environment's configuration and
// * runs one Fetch. Empty sort means stars, limit <= 0 means 100.
func FetchRepos(ctx context.Context, sort SortKey, limit int) []models.Repository {
	if sort == "" {
		sort = defaultFetchSort
	}
	if limit <= 0 {
		limit = defaultFetchLimit
	}

	cfg, err := config.LoadConfiguration()
	if err != nil {
		logger.Warn("invalid configuration, using defaults: %v", err)
		cfg = config.Default()
	}

	fetcher, err := NewFetcher(cfg)
	if err != nil {
		logger.Error("failed to create fetcher: %v", err)
		return nil
	}
	return fetcher.Fetch(ctx, sort, limit).Repositories
}
