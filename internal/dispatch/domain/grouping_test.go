package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupCandidates(t *testing.T) {
	candidates := []Candidate{
		{StateRepo: "org/state-a", DispatchEventType: "dispatch-image-aks", Image: "img1"},
		{StateRepo: "org/state-b", DispatchEventType: "dispatch-image-aks", Image: "img2"},
		{StateRepo: "org/state-a", DispatchEventType: "dispatch-image-aks", Image: "img3"},
		{StateRepo: "org/state-a", DispatchEventType: "dispatch-image-tfworkspaces", Image: "img4"},
	}

	groups := GroupCandidates(candidates)
	require.Len(t, groups, 3)

	assert.Equal(t, "org/state-a", groups[0].StateRepo)
	assert.Equal(t, "dispatch-image-aks", groups[0].EventType)
	assert.Equal(t, []string{"img1", "img3"}, groups[0].Images())

	assert.Equal(t, "org/state-a", groups[1].StateRepo)
	assert.Equal(t, "dispatch-image-tfworkspaces", groups[1].EventType)
	assert.Equal(t, []string{"img4"}, groups[1].Images())

	assert.Equal(t, "org/state-b", groups[2].StateRepo)
	assert.Equal(t, []string{"img2"}, groups[2].Images())
}

func TestGroupCandidates_Idempotent(t *testing.T) {
	candidates := []Candidate{
		{StateRepo: "r1", DispatchEventType: "e1", Image: "a"},
		{StateRepo: "r2", DispatchEventType: "e1", Image: "b"},
		{StateRepo: "r1", DispatchEventType: "e2", Image: "c"},
	}
	assert.Equal(t, GroupCandidates(candidates), GroupCandidates(candidates))
	assert.Empty(t, GroupCandidates(nil))
}
