// Package githubchecks reads CI check run output through the GitHub Checks API.
package githubchecks

import (
	"context"
	"fmt"

	gogithub "github.com/google/go-github/v68/github"

	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
)

// Adapter implements ports.CheckRunsPort for one repository.
type Adapter struct {
	client *gogithub.Client
	repo   domain.RepoRef
}

// New creates a new check runs adapter.
func New(client *gogithub.Client, repo domain.RepoRef) *Adapter {
	return &Adapter{client: client, repo: repo}
}

// GetSummary returns the output summary of the newest check run named
// checkRunName on ref. found is false when the ref has no such check run.
func (a *Adapter) GetSummary(ctx context.Context, ref, checkRunName string) (domain.CheckRunSummary, bool, error) {
	opts := &gogithub.ListCheckRunsOptions{
		CheckName:   gogithub.Ptr(checkRunName),
		Filter:      gogithub.Ptr("latest"),
		ListOptions: gogithub.ListOptions{PerPage: 100},
	}

	for {
		res, resp, err := a.client.Checks.ListCheckRunsForRef(ctx, a.repo.Owner, a.repo.Repo, ref, opts)
		if err != nil {
			return domain.CheckRunSummary{}, false, fmt.Errorf("listing check runs of %s at %s: %w", a.repo.FullName(), ref, err)
		}

		for _, run := range res.CheckRuns {
			if run.GetName() != checkRunName {
				continue
			}
			return domain.CheckRunSummary{
				ID:         run.GetID(),
				Summary:    run.GetOutput().GetSummary(),
				Conclusion: run.GetConclusion(),
			}, true, nil
		}

		if resp.NextPage == 0 {
			return domain.CheckRunSummary{}, false, nil
		}
		opts.Page = resp.NextPage
	}
}
