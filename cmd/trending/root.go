package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sunzhengang/github-topics-trending/internal/config"
	"github.com/sunzhengang/github-topics-trending/internal/github"
	"github.com/sunzhengang/github-topics-trending/pkg/logger"
)

// * app carries what every subcommand shares: where JSON goes and how the
// * configuration is obtained
type app struct {
	out        io.Writer
	loadConfig func() (*config.Config, error)
	options    []github.Option

	verbose bool
	topic   string
}

func newApp(out io.Writer) *app {
	return &app{
		out:        out,
		loadConfig: config.LoadConfiguration,
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "trending",
		Short:         "Fetch ranked repositories of a GitHub topic",
		Long:          `trending searches the GitHub API for repositories carrying a topic and prints them as JSON, ranked by the chosen sort key.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetOutput(os.Stderr)
			if a.verbose {
				logger.SetLevel(logger.LevelDebug)
			}
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&a.topic, "topic", "", "topic to search (defaults to GITHUB_TOPIC)")

	root.AddCommand(a.fetchCommand())
	root.AddCommand(a.newReposCommand())
	root.AddCommand(a.detailsCommand())
	root.AddCommand(a.rateLimitCommand())
	root.AddCommand(a.watchCommand())

	return root
}

func (a *app) config() (*config.Config, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	if a.topic != "" {
		cfg.Topic = a.topic
	}
	return cfg, nil
}

func (a *app) fetcher() (*github.Fetcher, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	return github.NewFetcher(cfg, a.options...)
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
