package github

import (
	"fmt"
	"strings"
	"time"

	"github.com/sunzhengang/github-topics-trending/internal/config"
	"github.com/sunzhengang/github-topics-trending/internal/models"
)

type SortKey string

const (
	SortStars            SortKey = "stars"
	SortForks            SortKey = "forks"
	SortUpdated          SortKey = "updated"
	SortHelpWantedIssues SortKey = "help-wanted-issues"
)

// * ParseSortKey accepts the search API's sort names, case-insensitively
func ParseSortKey(s string) (SortKey, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if !config.IsSearchSort(key) {
		return "", fmt.Errorf("unsupported sort %q (want one of %s)", s, strings.Join(config.SearchSorts, ", "))
	}
	return SortKey(key), nil
}

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// * StopReason says why a pagination run ended
type StopReason string

const (
	StopLimitReached     StopReason = "limit_reached"
	StopMaxPages         StopReason = "max_pages"
	StopLastPage         StopReason = "last_page"
	StopEmptyPage        StopReason = "empty_page"
	StopMalformedPayload StopReason = "malformed_payload"
	StopRateLimited      StopReason = "rate_limited"
	StopRequestFailed    StopReason = "request_failed"
	StopCancelled        StopReason = "cancelled"
)

// * Complete is true when the run ran out of data or hit its own bounds, as
// * opposed to being cut short by a failure
func (r StopReason) Complete() bool {
	switch r {
	case StopLimitReached, StopMaxPages, StopLastPage, StopEmptyPage:
		return true
	}
	return false
}

// * RateLimit is a point-in-time copy of one API resource's quota
type RateLimit struct {
	Resource  string    `json:"resource"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Used      int       `json:"used"`
	Reset     time.Time `json:"reset,omitempty"`
}

// * Result is what one fetch run produced. Repositories holds everything
// * gathered before the run stopped, even when Err is set.
type Result struct {
	Query        string              `json:"query"`
	Sort         SortKey             `json:"sort"`
	Repositories []models.Repository `json:"repositories"`
	Pages        int                 `json:"pages"`
	Reason       StopReason          `json:"reason"`
	Err          error               `json:"-"`
	RateLimit    RateLimit           `json:"rate_limit"`
	retryable    bool
}

func (r *Result) Complete() bool {
	return r.Reason.Complete()
}

// * Retryable is true when the same call is worth repeating later: rate
// * limiting, server errors and timeouts
func (r *Result) Retryable() bool {
	return r.retryable
}
