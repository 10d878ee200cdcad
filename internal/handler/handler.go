package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/sunzhengang/github-topics-trending/internal/github"
	"github.com/sunzhengang/github-topics-trending/internal/service"
	"github.com/sunzhengang/github-topics-trending/pkg/errors"
	"github.com/sunzhengang/github-topics-trending/pkg/logger"
)

const maxLimit = 1000

type RepositoryHandler struct {
	service *service.RepositoryService
}

func NewRepositoryHandler(service *service.RepositoryService) *RepositoryHandler {
	return &RepositoryHandler{
		service: service,
	}
}

func (h *RepositoryHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/repositories", h.listRepositories).Methods("GET")
	r.HandleFunc("/repositories/new", h.listNewRepositories).Methods("GET")
	r.HandleFunc("/repositories/{owner}/{repo}", h.getRepository).Methods("GET")
	r.HandleFunc("/rate-limit", h.getRateLimit).Methods("GET")
	r.HandleFunc("/collections", h.collect).Methods("POST")
}

func writeSuccess(w http.ResponseWriter, data interface{}, message ...string) {
	resp := APIResponse{
		Status: "success",
		Data:   data,
	}
	if len(message) > 0 {
		resp.Message = message[0]
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func badRequest(detail string) error {
	return errors.New(
		errors.RefInvalidRequest,
		"Invalid request",
		detail,
		nil,
		errors.LevelWarning,
	).WithStatus(http.StatusBadRequest)
}

func intParam(r *http.Request, name string, fallback, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > max {
		return 0, badRequest(fmt.Sprintf("%s must be an integer between 1 and %d", name, max))
	}
	return n, nil
}

func sortParam(r *http.Request) (github.SortKey, error) {
	raw := r.URL.Query().Get("sort")
	if raw == "" {
		return "", nil
	}
	sort, err := github.ParseSortKey(raw)
	if err != nil {
		return "", badRequest(err.Error())
	}
	return sort, nil
}

func (h *RepositoryHandler) writeResult(w http.ResponseWriter, res *github.Result) {
	resp := NewFetchResponse(h.service.Topic(), res)

	message := fmt.Sprintf("Fetched %d repositories", resp.Count)
	if !resp.Complete {
		message = fmt.Sprintf("Partial results, fetch stopped early (%s)", resp.Reason)
	}
	writeSuccess(w, resp, message)
}

// listRepositories godoc
// @Summary List Repositories
// @Description Search repositories of the configured topic, paginating the GitHub search API
// @Tags Repository
// @Produce json
// @Param sort query string false "Sort key (stars, forks, updated, help-wanted-issues)"
// @Param limit query int false "Maximum number of repositories" default(100)
// @Success 200 {object} FetchResponse
// @Failure 400 {object} errors.HTTPErrorResponse
// @Router /repositories [get]
func (h *RepositoryHandler) listRepositories(w http.ResponseWriter, r *http.Request) {
	sort, err := sortParam(r)
	if err != nil {
		errors.WriteHTTPError(w, err)
		return
	}

	limit, err := intParam(r, "limit", 0, maxLimit)
	if err != nil {
		errors.WriteHTTPError(w, err)
		return
	}

	res := h.service.ListRepositories(r.Context(), sort, limit)
	logger.Info("Fetched %d repositories (%s)", len(res.Repositories), res.Reason)
	h.writeResult(w, res)
}

// listNewRepositories godoc
// @Summary List New Repositories
// @Description Search repositories of the configured topic created in the last days, most starred first
// @Tags Repository
// @Produce json
// @Param days query int false "Lookback window in days" default(7)
// @Success 200 {object} FetchResponse
// @Failure 400 {object} errors.HTTPErrorResponse
// @Router /repositories/new [get]
func (h *RepositoryHandler) listNewRepositories(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", github.DefaultNewReposDays, 3650)
	if err != nil {
		errors.WriteHTTPError(w, err)
		return
	}

	res := h.service.ListNewRepositories(r.Context(), days)
	logger.Info("Fetched %d new repositories (%s)", len(res.Repositories), res.Reason)
	h.writeResult(w, res)
}

// getRepository godoc
// @Summary Get Repository
// @Description Fetch the full GitHub payload of one repository
// @Tags Repository
// @Produce json
// @Param owner path string true "Repository Owner"
// @Param repo path string true "Repository Name"
// @Success 200 {object} APIResponse
// @Failure 404 {object} errors.HTTPErrorResponse
// @Failure 502 {object} errors.HTTPErrorResponse
// @Router /repositories/{owner}/{repo} [get]
func (h *RepositoryHandler) getRepository(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	owner := vars["owner"]
	repoName := vars["repo"]

	repository, err := h.service.GetRepository(r.Context(), owner, repoName)
	if err != nil {
		errors.WriteHTTPError(w, err)
		return
	}

	logger.Info("Fetched repository %s/%s", owner, repoName)
	writeSuccess(w, repository, "Successfully fetched repository")
}

// getRateLimit godoc
// @Summary Get Rate Limit
// @Description Last known GitHub quota for the search and core resources
// @Tags RateLimit
// @Produce json
// @Success 200 {object} APIResponse
// @Router /rate-limit [get]
func (h *RepositoryHandler) getRateLimit(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, h.service.RateLimits())
}

// collect godoc
// @Summary Collect Repositories
// @Description Fetch repositories and publish them as one batch to the downstream queue
// @Tags Collection
// @Produce json
// @Param sort query string false "Sort key (stars, forks, updated, help-wanted-issues)"
// @Param limit query int false "Maximum number of repositories" default(100)
// @Success 201 {object} CollectResponse
// @Failure 400 {object} errors.HTTPErrorResponse
// @Failure 503 {object} errors.HTTPErrorResponse
// @Router /collections [post]
func (h *RepositoryHandler) collect(w http.ResponseWriter, r *http.Request) {
	sort, err := sortParam(r)
	if err != nil {
		errors.WriteHTTPError(w, err)
		return
	}

	limit, err := intParam(r, "limit", 0, maxLimit)
	if err != nil {
		errors.WriteHTTPError(w, err)
		return
	}

	batch, err := h.service.Collect(r.Context(), sort, limit)
	if err != nil {
		errors.WriteHTTPError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeSuccess(w, CollectResponse{
		BatchID:  batch.ID,
		Count:    batch.Count,
		Complete: batch.Complete,
		Reason:   batch.Reason,
	}, "Batch published")
}
