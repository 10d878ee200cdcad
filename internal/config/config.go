package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sunzhengang/github-topics-trending/pkg/errors"
	"github.com/sunzhengang/github-topics-trending/pkg/logger"
)

const (
	DefaultTopic        = "llm"
	DefaultAPIBase      = "https://api.github.com"
	DefaultPerPage      = 100
	DefaultMaxPages     = 10
	DefaultSort         = "stars"
	DefaultOrder        = "desc"
	DefaultRequestDelay = time.Second
	DefaultMaxWait      = time.Minute
	DefaultServerPort   = ":8081"
	DefaultCollectLimit = 100
	DefaultQueue        = "github_trending"

	// * the search API never returns more than 100 items per page
	maxPerPage = 100
)

// * SearchSorts are the sort keys the repository search API accepts
var SearchSorts = []string{"stars", "forks", "updated", "help-wanted-issues"}

type Config struct {
	GitHubToken  string
	Topic        string
	APIBase      string
	PerPage      int
	MaxPages     int
	SearchSort   string
	SearchOrder  string
	RequestDelay time.Duration
	MaxRateWait  time.Duration

	ServerPort      string
	CollectInterval time.Duration
	CollectLimit    int
	RabbitMQURL     string
	RabbitMQQueue   string
}

// * Default returns the configuration used when nothing is set in the environment
func Default() *Config {
	return &Config{
		Topic:         DefaultTopic,
		APIBase:       DefaultAPIBase,
		PerPage:       DefaultPerPage,
		MaxPages:      DefaultMaxPages,
		SearchSort:    DefaultSort,
		SearchOrder:   DefaultOrder,
		RequestDelay:  DefaultRequestDelay,
		MaxRateWait:   DefaultMaxWait,
		ServerPort:    DefaultServerPort,
		CollectLimit:  DefaultCollectLimit,
		RabbitMQQueue: DefaultQueue,
	}
}

// * LoadConfiguration reads the configuration from the .env file and the environment.
// * Every setting has a default, so an empty environment yields an unauthenticated fetcher.
func LoadConfiguration() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := Default()
	cfg.GitHubToken = os.Getenv("GITHUB_TOKEN")
	cfg.RabbitMQURL = os.Getenv("RABBITMQ_URL")

	setString(&cfg.Topic, "GITHUB_TOPIC")
	setString(&cfg.APIBase, "GITHUB_API_BASE")
	setString(&cfg.SearchSort, "GITHUB_SEARCH_SORT")
	setString(&cfg.SearchOrder, "GITHUB_SEARCH_ORDER")
	setString(&cfg.ServerPort, "SERVER_PORT")
	setString(&cfg.RabbitMQQueue, "RABBITMQ_QUEUE")

	var err error
	if cfg.PerPage, err = intEnv("GITHUB_PER_PAGE", cfg.PerPage); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = intEnv("GITHUB_MAX_PAGES", cfg.MaxPages); err != nil {
		return nil, err
	}
	if cfg.CollectLimit, err = intEnv("COLLECT_LIMIT", cfg.CollectLimit); err != nil {
		return nil, err
	}
	if cfg.RequestDelay, err = durationEnv("FETCH_REQUEST_DELAY", cfg.RequestDelay); err != nil {
		return nil, err
	}
	if cfg.MaxRateWait, err = durationEnv("RATE_LIMIT_MAX_WAIT", cfg.MaxRateWait); err != nil {
		return nil, err
	}
	if cfg.CollectInterval, err = durationEnv("COLLECT_INTERVAL", 0); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.GitHubToken == "" {
		logger.Warn("GITHUB_TOKEN not set, using unauthenticated requests (lower rate limit)")
	}

	logger.Debug("configuration loaded: topic=%s per_page=%d max_pages=%d sort=%s order=%s delay=%s",
		cfg.Topic, cfg.PerPage, cfg.MaxPages, cfg.SearchSort, cfg.SearchOrder, cfg.RequestDelay)
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Topic) == "":
		return invalid("GITHUB_TOPIC", "topic must not be empty")
	case c.APIBase == "":
		return invalid("GITHUB_API_BASE", "API base URL must not be empty")
	case c.PerPage < 1 || c.PerPage > maxPerPage:
		return invalid("GITHUB_PER_PAGE", fmt.Sprintf("page size must be between 1 and %d, got %d", maxPerPage, c.PerPage))
	case c.MaxPages < 1:
		return invalid("GITHUB_MAX_PAGES", fmt.Sprintf("max pages must be positive, got %d", c.MaxPages))
	case !IsSearchSort(c.SearchSort):
		return invalid("GITHUB_SEARCH_SORT", fmt.Sprintf("sort must be one of %s, got %q", strings.Join(SearchSorts, ", "), c.SearchSort))
	case c.SearchOrder != "asc" && c.SearchOrder != "desc":
		return invalid("GITHUB_SEARCH_ORDER", fmt.Sprintf("order must be asc or desc, got %q", c.SearchOrder))
	case c.RequestDelay < 0:
		return invalid("FETCH_REQUEST_DELAY", "delay must not be negative")
	case c.MaxRateWait < 0:
		return invalid("RATE_LIMIT_MAX_WAIT", "max wait must not be negative")
	case c.CollectLimit < 1:
		return invalid("COLLECT_LIMIT", fmt.Sprintf("collect limit must be positive, got %d", c.CollectLimit))
	}
	return nil
}

func IsSearchSort(sort string) bool {
	for _, s := range SearchSorts {
		if s == sort {
			return true
		}
	}
	return false
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func intEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalid(key, fmt.Sprintf("%q is not an integer", v))
	}
	return n, nil
}

// * durationEnv accepts Go durations ("1500ms", "2s") and bare numbers as seconds ("1.5")
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, invalid(key, fmt.Sprintf("%q is not a duration", v))
	}
	return d, nil
}

func invalid(key, detail string) error {
	return errors.New(
		errors.RefConfig,
		fmt.Sprintf("Invalid configuration value for %s", key),
		detail,
		nil,
		errors.LevelFatal,
	)
}

// * ParseRepository takes a string in the format owner/name and returns the
// * owner and name as two separate strings. If the string does not match
// * the expected format, an error is returned.
func ParseRepository(repo string) (owner, name string, err error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository should be in format owner/name")
	}
	return parts[0], parts[1], nil
}
