package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeployment_Selector(t *testing.T) {
	sel, err := Deployment{}.Selector()
	require.NoError(t, err)
	assert.Equal(t, SelectorAll, sel.Kind)

	sel, err = Deployment{ServiceNames: []string{"svc"}}.Selector()
	require.NoError(t, err)
	assert.Equal(t, SelectorServiceNames, sel.Kind)

	sel, err = Deployment{ImageKeys: []string{"key"}}.Selector()
	require.NoError(t, err)
	assert.Equal(t, SelectorImageKeys, sel.Kind)

	_, err = Deployment{ServiceNames: []string{"svc"}, ImageKeys: []string{"key"}}.Selector()
	assert.ErrorIs(t, err, ErrConflictingServiceSelectors)
}

func TestServiceSelector_Selects(t *testing.T) {
	group := []string{"svc1", "svc2"}

	tests := []struct {
		name      string
		selector  ServiceSelector
		policy    SelectionPolicy
		wantNames []string
		wantOK    bool
	}{
		{"select all", ServiceSelector{Kind: SelectorAll}, SelectAny, group, true},
		{"image keys select every group", ServiceSelector{Kind: SelectorImageKeys, Values: []string{"k"}}, SelectAll, group, true},
		{"any overlap", ServiceSelector{Kind: SelectorServiceNames, Values: []string{"svc2", "other"}}, SelectAny, []string{"svc2"}, true},
		{"no overlap", ServiceSelector{Kind: SelectorServiceNames, Values: []string{"other"}}, SelectAny, nil, false},
		{"all required and present", ServiceSelector{Kind: SelectorServiceNames, Values: []string{"svc1", "svc2"}}, SelectAll, []string{"svc1", "svc2"}, true},
		{"all required but one missing", ServiceSelector{Kind: SelectorServiceNames, Values: []string{"svc1", "other"}}, SelectAll, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names, ok := tt.selector.Selects(group, tt.policy)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestOverrides_Apply(t *testing.T) {
	d := Deployment{Version: "v1", Tenant: "A", Env: "dev"}

	got := Overrides{Tenant: "B"}.Apply(d)
	assert.Equal(t, "B", got.Tenant)
	assert.Equal(t, "v1", got.Version)
	assert.Equal(t, "dev", got.Env)

	got = Overrides{}.Apply(d)
	assert.Equal(t, d, got)
}

func TestValidationError(t *testing.T) {
	d := Deployment{Application: "app1", Tenant: "t1", Flavor: "f1", Type: ImageTypeReleases, Env: "e1", Platform: "p1"}
	err := error(NewValidationError(d, ErrConflictingServiceSelectors))

	assert.ErrorIs(t, err, ErrConflictingServiceSelectors)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	for _, part := range []string{"app1", "t1", "f1", "releases", "e1"} {
		assert.Contains(t, err.Error(), part)
	}
}

func TestParseRepoRef(t *testing.T) {
	assert.Equal(t, RepoRef{Owner: "org", Repo: "state"}, ParseRepoRef("org/state", "fallback"))
	assert.Equal(t, RepoRef{Owner: "fallback", Repo: "state"}, ParseRepoRef("state", "fallback"))
	assert.Equal(t, "org/state", ParseRepoRef("org/state", "").FullName())
}
