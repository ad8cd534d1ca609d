// Package gitrepo checks out a configuration repository for the duration of
// a run.
package gitrepo

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Options describe one checkout.
type Options struct {
	// URL of the repository to clone.
	URL string
	// Ref is a branch name or a full "refs/..." name. Empty means the
	// remote's default branch.
	Ref string
	// Token authenticates HTTPS clones as x-access-token. Empty means anonymous.
	Token string
	// Depth limits history; zero means 1.
	Depth int
}

// Checkout is a local clone in a temporary folder.
type Checkout struct {
	path string
	head string
}

// Path returns the clone's working tree.
func (c *Checkout) Path() string { return c.path }

// Head returns the checked out commit SHA.
func (c *Checkout) Head() string { return c.head }

// Remove deletes the working tree.
func (c *Checkout) Remove() error {
	return os.RemoveAll(c.path)
}

// Clone clones opts.URL into a fresh temporary folder.
func Clone(ctx context.Context, opts Options, logger *slog.Logger) (*Checkout, error) {
	dir, err := os.MkdirTemp("", "state-dispatcher-config-")
	if err != nil {
		return nil, fmt.Errorf("creating clone folder: %w", err)
	}

	cloneOpts := &git.CloneOptions{
		URL:          opts.URL,
		Depth:        opts.Depth,
		SingleBranch: true,
		Tags:         git.NoTags,
	}
	if cloneOpts.Depth == 0 {
		cloneOpts.Depth = 1
	}
	if opts.Ref != "" {
		cloneOpts.ReferenceName = referenceName(opts.Ref)
	}
	if opts.Token != "" {
		cloneOpts.Auth = &http.BasicAuth{Username: "x-access-token", Password: opts.Token}
	}

	logger.Info("cloning config repository", "url", opts.URL, "ref", opts.Ref)
	repo, err := git.PlainCloneContext(ctx, dir, false, cloneOpts)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("cloning %s: %w", opts.URL, err)
	}

	head, err := repo.Head()
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("reading HEAD of %s: %w", opts.URL, err)
	}

	logger.Debug("config repository cloned", "path", dir, "head", head.Hash().String())
	return &Checkout{path: dir, head: head.Hash().String()}, nil
}

func referenceName(ref string) plumbing.ReferenceName {
	if strings.HasPrefix(ref, "refs/") {
		return plumbing.ReferenceName(ref)
	}
	return plumbing.NewBranchReferenceName(ref)
}
