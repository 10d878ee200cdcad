package github

import (
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/sunzhengang/github-topics-trending/internal/models"
)

// * normalize flattens one search item. Every field is optional in the
// * payload; go-github getters already yield zero values for absent ones.
func normalize(item *gh.Repository, rank int) models.Repository {
	if item == nil {
		item = &gh.Repository{}
	}

	owner := item.GetOwner().GetLogin()
	name := item.GetName()

	topics := item.Topics
	if topics == nil {
		topics = []string{}
	}

	var description *string
	if item.Description != nil {
		d := *item.Description
		description = &d
	}

	return models.Repository{
		Rank:        rank,
		RepoName:    owner + "/" + name,
		Owner:       owner,
		Name:        name,
		Stars:       item.GetStargazersCount(),
		Forks:       item.GetForksCount(),
		Issues:      item.GetOpenIssuesCount(),
		Language:    item.GetLanguage(),
		URL:         item.GetHTMLURL(),
		Description: description,
		Topics:      topics,
		CreatedAt:   formatTimestamp(item.CreatedAt),
		UpdatedAt:   formatTimestamp(item.UpdatedAt),
		PushedAt:    formatTimestamp(item.PushedAt),
		Homepage:    item.GetHomepage(),
		Archived:    item.GetArchived(),
	}
}

func formatTimestamp(ts *gh.Timestamp) string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}
