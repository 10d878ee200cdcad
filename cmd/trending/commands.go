package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sunzhengang/github-topics-trending/internal/config"
	"github.com/sunzhengang/github-topics-trending/internal/github"
	"github.com/sunzhengang/github-topics-trending/internal/handler"
	"github.com/sunzhengang/github-topics-trending/internal/queue"
	"github.com/sunzhengang/github-topics-trending/pkg/logger"
)

// * printResult writes the result and fails only when nothing at all was gathered
func (a *app) printResult(f *github.Fetcher, res *github.Result) error {
	resp := handler.NewFetchResponse(f.Topic(), res)
	if err := a.print(resp); err != nil {
		return err
	}
	if !resp.Complete {
		logger.Warn("fetch stopped early (%s) after %d repositories", resp.Reason, resp.Count)
		if resp.Count == 0 && res.Err != nil {
			return res.Err
		}
	}
	return nil
}

func (a *app) fetchCommand() *cobra.Command {
	var sort string
	var limit int

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Search repositories of the topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var key github.SortKey
			if sort != "" {
				parsed, err := github.ParseSortKey(sort)
				if err != nil {
					return err
				}
				key = parsed
			}

			f, err := a.fetcher()
			if err != nil {
				return err
			}
			return a.printResult(f, f.Fetch(cmd.Context(), key, limit))
		},
	}

	cmd.Flags().StringVar(&sort, "sort", "", "sort key: stars, forks, updated or help-wanted-issues (defaults to GITHUB_SEARCH_SORT)")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of repositories")
	return cmd
}

func (a *app) newReposCommand() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Search repositories of the topic created recently, most starred first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.fetcher()
			if err != nil {
				return err
			}
			return a.printResult(f, f.FetchNewRepos(cmd.Context(), days))
		},
	}

	cmd.Flags().IntVar(&days, "days", github.DefaultNewReposDays, "lookback window in days")
	return cmd
}

func (a *app) detailsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "details OWNER REPO | OWNER/REPO",
		Short: "Print the full GitHub payload of one repository",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var owner, name string
			if len(args) == 2 {
				owner, name = args[0], args[1]
			} else {
				var err error
				if owner, name, err = config.ParseRepository(args[0]); err != nil {
					return err
				}
			}

			f, err := a.fetcher()
			if err != nil {
				return err
			}

			repo, ok := f.FetchRepoDetails(cmd.Context(), owner, name)
			if !ok {
				return fmt.Errorf("repository %s/%s could not be fetched", owner, name)
			}
			return a.print(repo)
		},
	}
}

func (a *app) rateLimitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rate-limit",
		Short: "Print the current search and core quotas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.fetcher()
			if err != nil {
				return err
			}
			if err := f.RefreshRateLimits(cmd.Context()); err != nil {
				return err
			}
			return a.print(map[string]github.RateLimit{
				github.ResourceSearch: f.RateLimit(github.ResourceSearch),
				github.ResourceCore:   f.RateLimit(github.ResourceCore),
			})
		},
	}
}

// * watchCommand is the downstream end of the collector: it prints every
// * batch published on the queue as one JSON line
func (a *app) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print repository batches as the collector publishes them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if cfg.RabbitMQURL == "" {
				return errors.New("RABBITMQ_URL is not set")
			}

			mq, err := queue.NewRabbitMQ(cfg.RabbitMQURL, cfg.RabbitMQQueue)
			if err != nil {
				return err
			}
			defer mq.Close()

			enc := json.NewEncoder(a.out)
			err = mq.Consume(cmd.Context(), func(batch queue.Batch) error {
				return enc.Encode(batch)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
