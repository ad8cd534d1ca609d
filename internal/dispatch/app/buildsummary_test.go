package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
)

const summaryFixture = `[{"flavor": "flavor1", "version": "v1.1.0-pre", "image_type": "snapshots",
  "repository": "service/org/repo", "registry": "registry1", "image_tag": "v1.1.0-pre"}]`

func TestBuildSummaryLookup_Explicit(t *testing.T) {
	checkRuns := &mockCheckRuns{}
	l, err := NewBuildSummaryLookup(checkRuns, "build", summaryFixture)
	require.NoError(t, err)

	for _, version := range []string{"v1.1.0-pre", "anything"} {
		entries, err := l.Entries(context.Background(), version)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	}
	assert.Zero(t, checkRuns.calls)
}

func TestBuildSummaryLookup_InvalidExplicit(t *testing.T) {
	_, err := NewBuildSummaryLookup(&mockCheckRuns{}, "build", "{not: [valid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error while getting the latest build summary")
}

func TestBuildSummaryLookup_FromCheckRun(t *testing.T) {
	checkRuns := &mockCheckRuns{summaries: map[string]string{
		"v1.1.0-pre": "```yaml" + summaryFixture + "```",
	}}
	l, err := NewBuildSummaryLookup(checkRuns, "build", "")
	require.NoError(t, err)

	for range 2 {
		entries, err := l.Entries(context.Background(), "v1.1.0-pre")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "registry1", entries[0].Registry)
	}
	assert.Equal(t, 1, checkRuns.calls)
}

func TestBuildSummaryLookup_Missing(t *testing.T) {
	l, err := NewBuildSummaryLookup(&mockCheckRuns{}, "build", "")
	require.NoError(t, err)

	_, err = l.Entries(context.Background(), "v0.0.1")
	require.ErrorIs(t, err, domain.ErrBuildSummaryNotFound)
	assert.Contains(t, err.Error(), "Error while getting the latest build summary")
}

func TestBuildSummaryLookup_FetchFailure(t *testing.T) {
	boom := errors.New("api down")
	l, err := NewBuildSummaryLookup(&mockCheckRuns{err: boom}, "build", "")
	require.NoError(t, err)

	_, err = l.Entries(context.Background(), "v0.0.1")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "Error while getting the latest build summary: api down")
}
