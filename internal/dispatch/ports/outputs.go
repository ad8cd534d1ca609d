package ports

import (
	"context"

	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
)

// ManifestPort abstracts reading the deployments manifest at a given ref.
type ManifestPort interface {
	GetDeployments(ctx context.Context, path, ref string) ([]domain.Deployment, error)
}

// ConfigPort abstracts loading the application, cluster and registry tables.
type ConfigPort interface {
	LoadApps(ctx context.Context) (domain.AppsConfig, error)
	LoadClusters(ctx context.Context) (domain.ClustersConfig, error)
	LoadRegistries(ctx context.Context, defaults domain.DefaultRegistries) (domain.RegistriesConfig, error)
}

// ReleasesPort abstracts release and branch metadata of the source repository.
type ReleasesPort interface {
	LatestRelease(ctx context.Context) (string, error)
	ListReleases(ctx context.Context) ([]domain.Release, error)
	// BranchHead returns the full commit SHA at the tip of branch.
	BranchHead(ctx context.Context, branch string) (string, error)
}

// CheckRunsPort abstracts reading a CI check run summary for a ref.
// found is false when no check run with that name exists.
type CheckRunsPort interface {
	GetSummary(ctx context.Context, ref, checkRunName string) (summary domain.CheckRunSummary, found bool, err error)
}

// DispatchPort abstracts sending one dispatch event to a state repository.
type DispatchPort interface {
	Dispatch(ctx context.Context, stateRepo, eventType string, candidates []domain.Candidate) (domain.DispatchResult, error)
}

// ReportingPort is the fire-and-forget sink for run notices and the final summary.
type ReportingPort interface {
	Notice(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
	Failure(ctx context.Context, msg string)
	Summary(ctx context.Context, heading string, rows []domain.SummaryRow)
}
