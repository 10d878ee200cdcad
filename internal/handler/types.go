package handler

import (
	"github.com/sunzhengang/github-topics-trending/internal/github"
	"github.com/sunzhengang/github-topics-trending/internal/models"
)

type APIResponse struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type FetchResponse struct {
	Topic        string              `json:"topic"`
	Query        string              `json:"query"`
	Sort         string              `json:"sort"`
	Count        int                 `json:"count"`
	Pages        int                 `json:"pages"`
	Complete     bool                `json:"complete"`
	Reason       string              `json:"reason"`
	Retryable    bool                `json:"retryable"`
	Error        string              `json:"error,omitempty"`
	RateLimit    github.RateLimit    `json:"rate_limit"`
	Repositories []models.Repository `json:"repositories"`
}

// * NewFetchResponse flattens a fetch result, keeping partial results alongside the reason the run stopped
func NewFetchResponse(topic string, res *github.Result) FetchResponse {
	resp := FetchResponse{
		Topic:        topic,
		Query:        res.Query,
		Sort:         string(res.Sort),
		Count:        len(res.Repositories),
		Pages:        res.Pages,
		Complete:     res.Complete(),
		Reason:       string(res.Reason),
		Retryable:    res.Retryable(),
		RateLimit:    res.RateLimit,
		Repositories: res.Repositories,
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	return resp
}

type CollectResponse struct {
	BatchID  string `json:"batch_id"`
	Count    int    `json:"count"`
	Complete bool   `json:"complete"`
	Reason   string `json:"reason"`
}
