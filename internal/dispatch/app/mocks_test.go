package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
)

// Mock adapters for testing

type mockManifest struct {
	deployments []domain.Deployment
	err         error
	gotRef      string
}

func (m *mockManifest) GetDeployments(_ context.Context, _, ref string) ([]domain.Deployment, error) {
	m.gotRef = ref
	return m.deployments, m.err
}

type mockConfig struct {
	apps       domain.AppsConfig
	clusters   domain.ClustersConfig
	registries domain.RegistriesConfig
	appsErr    error
}

func (m *mockConfig) LoadApps(context.Context) (domain.AppsConfig, error) {
	return m.apps, m.appsErr
}

func (m *mockConfig) LoadClusters(context.Context) (domain.ClustersConfig, error) {
	return m.clusters, nil
}

func (m *mockConfig) LoadRegistries(context.Context, domain.DefaultRegistries) (domain.RegistriesConfig, error) {
	return m.registries, nil
}

type mockReleases struct {
	latest      string
	latestErr   error
	releases    []domain.Release
	listErr     error
	branches    map[string]string
	latestCalls int
	listCalls   int
}

func (m *mockReleases) LatestRelease(context.Context) (string, error) {
	m.latestCalls++
	return m.latest, m.latestErr
}

func (m *mockReleases) ListReleases(context.Context) ([]domain.Release, error) {
	m.listCalls++
	return m.releases, m.listErr
}

func (m *mockReleases) BranchHead(_ context.Context, branch string) (string, error) {
	sha, ok := m.branches[branch]
	if !ok {
		return "", fmt.Errorf("branch %s: %w", branch, domain.ErrNotFound)
	}
	return sha, nil
}

type mockCheckRuns struct {
	summaries map[string]string // ref -> summary
	err       error
	calls     int
}

func (m *mockCheckRuns) GetSummary(_ context.Context, ref, _ string) (domain.CheckRunSummary, bool, error) {
	m.calls++
	if m.err != nil {
		return domain.CheckRunSummary{}, false, m.err
	}
	s, ok := m.summaries[ref]
	if !ok {
		return domain.CheckRunSummary{}, false, nil
	}
	return domain.CheckRunSummary{ID: 1, Summary: s, Conclusion: "success"}, true, nil
}

type dispatchCall struct {
	stateRepo  string
	eventType  string
	candidates []domain.Candidate
}

type mockDispatcher struct {
	calls  []dispatchCall
	failOn string
}

func (m *mockDispatcher) Dispatch(
	_ context.Context,
	stateRepo, eventType string,
	candidates []domain.Candidate,
) (domain.DispatchResult, error) {
	if stateRepo == m.failOn {
		return domain.DispatchResult{}, errors.New("remote rejected dispatch")
	}
	m.calls = append(m.calls, dispatchCall{stateRepo: stateRepo, eventType: eventType, candidates: candidates})

	images := make([]string, 0, len(candidates))
	for _, c := range candidates {
		images = append(images, c.Image+" published")
	}
	return domain.DispatchResult{StateRepo: stateRepo, EventType: eventType, Images: images}, nil
}

type mockReporter struct {
	notices  []string
	errors   []string
	failures []string
	heading  string
	rows     []domain.SummaryRow
	summary  int
}

func (m *mockReporter) Notice(_ context.Context, msg string)  { m.notices = append(m.notices, msg) }
func (m *mockReporter) Error(_ context.Context, msg string)   { m.errors = append(m.errors, msg) }
func (m *mockReporter) Failure(_ context.Context, msg string) { m.failures = append(m.failures, msg) }

func (m *mockReporter) Summary(_ context.Context, heading string, rows []domain.SummaryRow) {
	m.summary++
	m.heading = heading
	m.rows = rows
}
