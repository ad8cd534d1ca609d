package e2e

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	actionsout "github.com/nathantilsley/state-dispatcher/internal/dispatch/adapters/actions_out"
	configfs "github.com/nathantilsley/state-dispatcher/internal/dispatch/adapters/config_fs"
	githubchecks "github.com/nathantilsley/state-dispatcher/internal/dispatch/adapters/github_checks"
	githubdispatch "github.com/nathantilsley/state-dispatcher/internal/dispatch/adapters/github_dispatch"
	githubreleases "github.com/nathantilsley/state-dispatcher/internal/dispatch/adapters/github_releases"
	"github.com/nathantilsley/state-dispatcher/internal/dispatch/adapters/manifest"
	"github.com/nathantilsley/state-dispatcher/internal/dispatch/app"
	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
	ghclient "github.com/nathantilsley/state-dispatcher/internal/platform/github"
	"github.com/nathantilsley/state-dispatcher/internal/platform/logger"
)

const (
	headSHA      = "a1b2c3d4e5f60718293a4b5c6d7e8f9012345678"
	checkRunName = "Build summary"
)

const dispatchesYAML = `deployments:
  - type: snapshots
    flavor: flavor1
    version: $latest_prerelease
    tenant: tenant1
    application: application1
    env: env1
    platform: cluster1
  - type: snapshots
    flavor: flavor1
    version: $branch_main
    tenant: tenant1
    application: application1
    env: env1
    platform: tfw1
    claim: claim-a
`

const buildSummaryMarkdown = "```yaml\n" + `images:
  - flavor: flavor1
    version: v1.1.0-pre
    image_type: snapshots
    repository: service/org/repo
    registry: registry1
    image_tag: v1.1.0-pre
` + "```"

const branchSummaryJSON = `[{"flavor": "flavor1", "version": "a1b2c3d", "image_type": "snapshots",
  "repository": "service/org/repo", "registry": "registry1", "image_tag": "a1b2c3d"}]`

type dispatchEvent struct {
	Repo    string
	Event   string                 `json:"event_type"`
	Payload githubdispatch.Payload `json:"client_payload"`
}

// fakeGitHub serves the subset of the REST API a dispatch run touches.
type fakeGitHub struct {
	mu     sync.Mutex
	events []dispatchEvent
}

func (f *fakeGitHub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	api := "/api/v3/repos/org/repo"

	mux.HandleFunc("GET "+api+"/contents/.github/make_dispatches.yaml", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, headSHA, r.URL.Query().Get("ref"))
		writeJSON(w, map[string]any{
			"type":     "file",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte(dispatchesYAML)),
		})
	})
	mux.HandleFunc("GET "+api+"/releases", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []map[string]any{
			{"tag_name": "v1.0.0", "created_at": "2024-01-01T00:00:00Z"},
			{"tag_name": "v1.1.0-pre", "prerelease": true, "created_at": "2024-02-01T00:00:00Z"},
		})
	})
	mux.HandleFunc("GET "+api+"/branches/main", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"name": "main", "commit": map[string]any{"sha": headSHA}})
	})
	mux.HandleFunc("GET "+api+"/commits/{ref}/check-runs", func(w http.ResponseWriter, r *http.Request) {
		summaries := map[string]string{"v1.1.0-pre": buildSummaryMarkdown, "a1b2c3d": branchSummaryJSON}
		summary, ok := summaries[r.PathValue("ref")]
		if !ok {
			writeJSON(w, map[string]any{"total_count": 0, "check_runs": []any{}})
			return
		}
		writeJSON(w, map[string]any{"total_count": 1, "check_runs": []map[string]any{{
			"id": 42, "name": checkRunName, "conclusion": "success",
			"output": map[string]any{"summary": summary},
		}}})
	})
	mux.HandleFunc("POST /api/v3/repos/org/{repo}/dispatches", func(w http.ResponseWriter, r *http.Request) {
		ev := dispatchEvent{Repo: "org/" + r.PathValue("repo")}
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.events = append(f.events, ev)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeConfig(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"apps/application1.yaml": "name: application1\nstate_repo: org/state-app-app1\nservices:\n" +
			"  - repo: org/repo\n    service_names: [service1]\n",
		"clusters/cluster1.yaml":    "name: cluster1\ntype: aks-cluster\ntenants: [tenant1]\nenvs: [env1]\n",
		"clusters/tfw1.yaml":        "name: tfw1\ntype: tfworkspaces\ntenants: [tenant1]\nenvs: [env1]\n",
		"registries/registry1.yaml": "name: registry1\nregistry: registry1\nbase_paths:\n  services: service\n",
	}
	for rel, content := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	}
	return root
}

func TestE2E_DispatchRun(t *testing.T) {
	fake := &fakeGitHub{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	ctx := context.Background()
	client, err := ghclient.NewTokenClient(ctx, "ghs_test", srv.URL)
	require.NoError(t, err)

	repo := domain.RepoRef{Owner: "org", Repo: "repo"}
	configRoot := writeConfig(t)
	summaryPath := filepath.Join(t.TempDir(), "step_summary.md")
	var out bytes.Buffer

	svc := app.NewDispatchService(
		manifest.NewGitHub(client.Client, repo),
		configfs.New(
			filepath.Join(configRoot, "apps"),
			filepath.Join(configRoot, "clusters"),
			filepath.Join(configRoot, "registries"),
		),
		githubreleases.New(client.Client, repo),
		githubchecks.New(client.Client, repo),
		githubdispatch.New(client.Client, repo.Owner),
		actionsout.New(&out, summaryPath),
		app.Options{},
		logger.New("error"),
		noopmetric.NewMeterProvider().Meter("e2e"),
		nooptrace.NewTracerProvider().Tracer("e2e"),
	)

	filters, err := domain.NewFilters("*", "*", "*", "*", "*")
	require.NoError(t, err)

	results, err := svc.Execute(ctx, domain.RunRequest{
		ManifestPath:      ".github/make_dispatches.yaml",
		Ref:               headSHA,
		SHA:               headSHA,
		Repository:        repo,
		Filters:           filters,
		Reviewers:         []string{"alice"},
		DefaultRegistries: domain.DefaultRegistries{domain.ImageTypeSnapshots: "registry1"},
		CheckRunName:      checkRunName,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Len(t, fake.events, 2)
	byEvent := map[string]dispatchEvent{}
	for _, ev := range fake.events {
		byEvent[ev.Event] = ev
	}

	aks := byEvent["dispatch-image-aks-cluster"]
	assert.Equal(t, "org/state-app-app1", aks.Repo)
	assert.Equal(t, 4, aks.Payload.Version)
	require.Len(t, aks.Payload.Images, 1)
	assert.Equal(t, "registry1/service/org/repo:v1.1.0-pre", aks.Payload.Images[0].Image)
	assert.Equal(t, []string{"alice"}, aks.Payload.Images[0].Reviewers)

	tfw := byEvent["dispatch-image-tfworkspaces"]
	require.Len(t, tfw.Payload.Images, 1)
	assert.Equal(t, "registry1/service/org/repo:a1b2c3d", tfw.Payload.Images[0].Image)
	assert.Equal(t, "a1b2c3d", tfw.Payload.Images[0].Version)
	assert.Equal(t, "claim-a", tfw.Payload.Images[0].Claim)

	assert.Contains(t, out.String(), fmt.Sprintf("::notice::Dispatching image %s", "registry1/service/org/repo:v1.1.0-pre"))

	md, err := os.ReadFile(summaryPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "## Dispatches summary")
	assert.Contains(t, string(md), domain.StatusDispatching)
}
