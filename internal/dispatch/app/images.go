package app

import (
	"context"
	"fmt"

	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
)

// ImageResolver fills in the concrete image of a candidate.
type ImageResolver struct {
	versions      *VersionResolver
	summaries     *BuildSummaryLookup
	registryMatch domain.RegistryMatch
}

// NewImageResolver creates an ImageResolver.
func NewImageResolver(versions *VersionResolver, summaries *BuildSummaryLookup, mode domain.RegistryMatch) *ImageResolver {
	return &ImageResolver{versions: versions, summaries: summaries, registryMatch: mode}
}

// Resolve returns c with Version, Image and Message set. ok is false when
// the version expression points at a prerelease that does not exist; the
// candidate is then left untouched and should be skipped.
func (r *ImageResolver) Resolve(ctx context.Context, c domain.Candidate) (domain.Candidate, bool, error) {
	ref, found, err := r.versions.Resolve(ctx, c.Version)
	if err != nil {
		return c, false, fmt.Errorf("resolving version %q for %s/%s: %w", c.Version, c.App, c.Flavor, err)
	}
	if !found {
		return c, false, nil
	}

	entries, err := r.summaries.Entries(ctx, ref)
	if err != nil {
		return c, false, err
	}

	entry, err := domain.FindImage(entries, domain.NewImageQuery(c, ref, r.registryMatch))
	if err != nil {
		return c, false, fmt.Errorf("resolving image for %s/%s: %w", c.App, c.Flavor, err)
	}

	c.Version = ref
	c.Image = entry.Image()
	c.Message = domain.StatusDispatching
	return c, true, nil
}
