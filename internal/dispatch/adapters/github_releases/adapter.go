// Package githubreleases reads release and branch metadata of the source
// repository through the GitHub API.
package githubreleases

import (
	"context"
	"fmt"
	"net/http"

	gogithub "github.com/google/go-github/v68/github"

	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
)

const perPage = 100

// Adapter implements ports.ReleasesPort for one repository.
type Adapter struct {
	client *gogithub.Client
	repo   domain.RepoRef
}

// New creates a new releases adapter for repo.
func New(client *gogithub.Client, repo domain.RepoRef) *Adapter {
	return &Adapter{client: client, repo: repo}
}

// LatestRelease returns the tag of the latest published, non-prerelease release.
func (a *Adapter) LatestRelease(ctx context.Context) (string, error) {
	release, resp, err := a.client.Repositories.GetLatestRelease(ctx, a.repo.Owner, a.repo.Repo)
	if err != nil {
		return "", a.wrap("getting latest release", resp, err)
	}
	return release.GetTagName(), nil
}

// ListReleases returns every published release. Drafts are skipped.
func (a *Adapter) ListReleases(ctx context.Context) ([]domain.Release, error) {
	var out []domain.Release
	opts := &gogithub.ListOptions{PerPage: perPage}

	for {
		page, resp, err := a.client.Repositories.ListReleases(ctx, a.repo.Owner, a.repo.Repo, opts)
		if err != nil {
			return nil, a.wrap("listing releases", resp, err)
		}
		for _, r := range page {
			if r.GetDraft() {
				continue
			}
			out = append(out, domain.Release{
				Tag:        r.GetTagName(),
				Prerelease: r.GetPrerelease(),
				CreatedAt:  r.GetCreatedAt().Time,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return out, nil
}

// BranchHead returns the full SHA of the latest commit on branch.
func (a *Adapter) BranchHead(ctx context.Context, branch string) (string, error) {
	b, resp, err := a.client.Repositories.GetBranch(ctx, a.repo.Owner, a.repo.Repo, branch, 1)
	if err != nil {
		return "", a.wrap("getting branch "+branch, resp, err)
	}
	sha := b.GetCommit().GetSHA()
	if sha == "" {
		return "", fmt.Errorf("branch %s of %s has no head commit: %w", branch, a.repo.FullName(), domain.ErrNotFound)
	}
	return sha, nil
}

func (a *Adapter) wrap(action string, resp *gogithub.Response, err error) error {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s of %s: %w", action, a.repo.FullName(), domain.ErrNotFound)
	}
	return fmt.Errorf("%s of %s: %w", action, a.repo.FullName(), err)
}
