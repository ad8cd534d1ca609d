package manifest

import (
	"context"
	"fmt"
	"net/http"

	gogithub "github.com/google/go-github/v68/github"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
)

const fetchErrPrefix = "Error getting make_dispatches.yaml file"

// GitHub implements ports.ManifestPort by reading the manifest through the
// contents API of the source repository.
type GitHub struct {
	client *gogithub.Client
	repo   domain.RepoRef
}

// NewGitHub creates a manifest adapter for repo.
func NewGitHub(client *gogithub.Client, repo domain.RepoRef) *GitHub {
	return &GitHub{client: client, repo: repo}
}

// GetDeployments fetches path at ref (the default branch when ref is empty)
// and decodes it.
func (g *GitHub) GetDeployments(ctx context.Context, path, ref string) ([]domain.Deployment, error) {
	slogcontext.FromCtx(ctx).Debug("fetching manifest", "repo", g.repo.FullName(), "path", path, "ref", ref)

	data, err := g.fetch(ctx, path, ref)
	if err != nil {
		return nil, fmt.Errorf("%s from ref %s: %w", fetchErrPrefix, ref, err)
	}

	deployments, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s at ref %s: %w", path, ref, err)
	}
	return deployments, nil
}

func (g *GitHub) fetch(ctx context.Context, path, ref string) ([]byte, error) {
	fileContent, _, resp, err := g.client.Repositories.GetContents(ctx, g.repo.Owner, g.repo.Repo, path,
		&gogithub.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s in %s: %w", path, g.repo.FullName(), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}
	if fileContent == nil {
		return nil, fmt.Errorf("the path %s is not a file", path)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decoding content of %s: %w", path, err)
	}
	return []byte(content), nil
}
