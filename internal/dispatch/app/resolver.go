package app

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
	"github.com/nathantilsley/state-dispatcher/internal/dispatch/ports"
)

const (
	resolverCacheSize = 256
	resolverCacheTTL  = 10 * time.Minute
)

type resolution struct {
	ref   string
	found bool
}

// VersionResolver turns version expressions into concrete refs. Successful
// resolutions are memoized by raw expression.
type VersionResolver struct {
	releases ports.ReleasesPort
	fullSHA  bool
	cache    *expirable.LRU[string, resolution]
}

// NewVersionResolver creates a resolver backed by releases. When fullSHA is
// false commit hashes are shortened to seven characters.
func NewVersionResolver(releases ports.ReleasesPort, fullSHA bool) *VersionResolver {
	return &VersionResolver{
		releases: releases,
		fullSHA:  fullSHA,
		cache:    expirable.NewLRU[string, resolution](resolverCacheSize, nil, resolverCacheTTL),
	}
}

// Resolve returns the concrete ref for expr. found is false, with a nil
// error, only when a prerelease expression has nothing to point at.
func (r *VersionResolver) Resolve(ctx context.Context, expr string) (ref string, found bool, err error) {
	if cached, ok := r.cache.Get(expr); ok {
		return cached.ref, cached.found, nil
	}

	ref, found, err = r.resolve(ctx, domain.ParseVersionRef(expr))
	if err != nil {
		return "", false, err
	}

	r.cache.Add(expr, resolution{ref: ref, found: found})
	return ref, found, nil
}

func (r *VersionResolver) resolve(ctx context.Context, v domain.VersionRef) (string, bool, error) {
	switch v.Kind {
	case domain.RefLatestRelease:
		tag, err := r.releases.LatestRelease(ctx)
		if err != nil {
			return "", false, fmt.Errorf("calculating last release: %w", err)
		}
		return tag, true, nil

	case domain.RefSemverRelease:
		releases, err := r.releases.ListReleases(ctx)
		if err != nil {
			return "", false, fmt.Errorf("calculating last release: %w", err)
		}
		tag, _, err := domain.HighestSemver(domain.Tags(releases, false), v.Arg, true)
		if err != nil {
			return "", false, fmt.Errorf("calculating highest release for filter %q: %w", v.Arg, err)
		}
		return tag, true, nil

	case domain.RefLatestPrerelease:
		releases, err := r.releases.ListReleases(ctx)
		if err != nil {
			return "", false, fmt.Errorf("calculating last pre-release: %w", err)
		}
		latest, ok := domain.LatestPrerelease(releases)
		return latest.Tag, ok, nil

	case domain.RefSemverPrerelease:
		releases, err := r.releases.ListReleases(ctx)
		if err != nil {
			return "", false, fmt.Errorf("calculating last pre-release: %w", err)
		}
		tag, found, err := domain.HighestSemver(domain.Tags(releases, true), v.Arg, false)
		if err != nil {
			return "", false, fmt.Errorf("calculating highest pre-release for filter %q: %w", v.Arg, err)
		}
		return tag, found, nil

	case domain.RefBranch:
		sha, err := r.releases.BranchHead(ctx, v.Arg)
		if err != nil {
			return "", false, fmt.Errorf("calculating last commit on branch %s: %w", v.Arg, err)
		}
		return r.shorten(sha), true, nil

	default:
		if domain.IsFullSHA(v.Arg) {
			return r.shorten(v.Arg), true, nil
		}
		return v.Arg, true, nil
	}
}

func (r *VersionResolver) shorten(sha string) string {
	if r.fullSHA {
		return sha
	}
	return domain.ShortSHA(sha)
}
