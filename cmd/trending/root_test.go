package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunzhengang/github-topics-trending/internal/config"
	"github.com/sunzhengang/github-topics-trending/internal/github"
)

func newTestApp(t *testing.T, handler http.HandlerFunc) (*app, *bytes.Buffer) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	out := &bytes.Buffer{}
	a := newApp(out)
	a.loadConfig = func() (*config.Config, error) {
		cfg := config.Default()
		cfg.APIBase = server.URL
		cfg.RequestDelay = 0
		return cfg, nil
	}
	a.options = []github.Option{github.WithObserver(github.NoopObserver{})}
	return a, out
}

func run(a *app, args ...string) error {
	root := a.rootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func searchPage(w http.ResponseWriter, names ...string) {
	items := make([]map[string]any, 0, len(names))
	for _, n := range names {
		items = append(items, map[string]any{
			"name":             n,
			"owner":            map[string]any{"login": "octo"},
			"stargazers_count": 10,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"total_count": len(names), "items": items})
}

func TestFetchCommand(t *testing.T) {
	var query, sort string
	a, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("q")
		sort = r.URL.Query().Get("sort")
		searchPage(w, "alpha", "beta")
	})

	require.NoError(t, run(a, "fetch", "--sort", "forks", "--limit", "5", "--topic", "rag"))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "topic:rag", query)
	assert.Equal(t, "forks", sort)
	assert.Equal(t, "rag", resp["topic"])
	assert.Equal(t, float64(2), resp["count"])
	assert.Equal(t, "last_page", resp["reason"])
	assert.Equal(t, true, resp["complete"])
}

func TestFetchCommand_InvalidSort(t *testing.T) {
	a, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	assert.Error(t, run(a, "fetch", "--sort", "popularity"))
}

func TestFetchCommand_NothingGathered(t *testing.T) {
	a, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Validation Failed"}`, http.StatusUnprocessableEntity)
	})

	err := run(a, "fetch")

	require.Error(t, err)
	assert.Contains(t, out.String(), `"reason": "request_failed"`)
}

func TestNewCommand(t *testing.T) {
	var query string
	a, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("q")
		searchPage(w, "fresh")
	})

	require.NoError(t, run(a, "new", "--days", "3"))

	assert.Contains(t, query, "topic:llm created:>")
	assert.Contains(t, out.String(), `"repo_name": "octo/fresh"`)
}

func TestDetailsCommand(t *testing.T) {
	a, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/octo/hello" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"full_name":"octo/hello","stargazers_count":42}`))
			return
		}
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})

	require.NoError(t, run(a, "details", "octo", "hello"))
	assert.Contains(t, out.String(), `"full_name": "octo/hello"`)

	out.Reset()
	require.NoError(t, run(a, "details", "octo/hello"))
	assert.Contains(t, out.String(), `"stargazers_count": 42`)

	assert.Error(t, run(a, "details", "octo", "missing"))
	assert.Error(t, run(a, "details", "not-a-repo"))
}

func TestRateLimitCommand(t *testing.T) {
	a, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"resources":{"core":{"limit":60,"remaining":59,"used":1,"reset":1791979200},"search":{"limit":10,"remaining":9,"used":1,"reset":1791979200}}}`))
	})

	require.NoError(t, run(a, "rate-limit"))

	var limits map[string]github.RateLimit
	require.NoError(t, json.Unmarshal(out.Bytes(), &limits))
	assert.Equal(t, 9, limits[github.ResourceSearch].Remaining)
	assert.Equal(t, 60, limits[github.ResourceCore].Limit)
}

func TestWatchCommand_RequiresQueue(t *testing.T) {
	a, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {})

	assert.EqualError(t, run(a, "watch"), "RABBITMQ_URL is not set")
}
