package app

import (
	"context"
	"fmt"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
	"github.com/nathantilsley/state-dispatcher/internal/dispatch/ports"
)

const buildSummaryErrPrefix = "Error while getting the latest build summary"

// BuildSummaryLookup serves build summary entries for resolved versions,
// either from an explicit payload or from the version's check run.
type BuildSummaryLookup struct {
	checkRuns    ports.CheckRunsPort
	checkRunName string
	explicit     []domain.BuildSummaryEntry
	hasExplicit  bool
	cache        *expirable.LRU[string, []domain.BuildSummaryEntry]
}

// NewBuildSummaryLookup parses explicit once when it is non-empty; every
// version then shares those entries and check runs are never read.
func NewBuildSummaryLookup(checkRuns ports.CheckRunsPort, checkRunName, explicit string) (*BuildSummaryLookup, error) {
	l := &BuildSummaryLookup{
		checkRuns:    checkRuns,
		checkRunName: checkRunName,
		cache:        expirable.NewLRU[string, []domain.BuildSummaryEntry](resolverCacheSize, nil, resolverCacheTTL),
	}

	if explicit != "" {
		entries, err := domain.ParseBuildSummary(explicit)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", buildSummaryErrPrefix, err)
		}
		l.explicit = entries
		l.hasExplicit = true
	}
	return l, nil
}

// Entries returns the build summary for version.
func (l *BuildSummaryLookup) Entries(ctx context.Context, version string) ([]domain.BuildSummaryEntry, error) {
	if l.hasExplicit {
		return l.explicit, nil
	}
	if entries, ok := l.cache.Get(version); ok {
		return entries, nil
	}

	summary, found, err := l.checkRuns.GetSummary(ctx, version, l.checkRunName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", buildSummaryErrPrefix, err)
	}
	if !found || summary.Summary == "" {
		return nil, fmt.Errorf("%s: check run %q for ref %s: %w",
			buildSummaryErrPrefix, l.checkRunName, version, domain.ErrBuildSummaryNotFound)
	}

	entries, err := domain.ParseBuildSummary(summary.Summary)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", buildSummaryErrPrefix, err)
	}

	l.cache.Add(version, entries)
	return entries, nil
}
