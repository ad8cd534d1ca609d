package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
	"github.com/nathantilsley/state-dispatcher/internal/platform/logger"
)

func baseInput(deployments ...domain.Deployment) BuildInput {
	return BuildInput{
		DefaultImageRepository: "org/repo",
		RepositoryCaller:       "org/repo",
		Deployments:            deployments,
		Reviewers:              []string{"alice", "bob"},
		Apps: domain.AppsConfig{
			"application1": {
				Name:      "application1",
				StateRepo: "org/state-app-app1",
				Services: []domain.ServiceGroup{
					{Repo: "org/repo", ServiceNames: []string{"service1", "service2"}},
					{Repo: "org/other", ServiceNames: []string{"service9"}},
				},
			},
		},
		Clusters: domain.ClustersConfig{
			"cluster1": {Name: "cluster1", Type: "aks-cluster", Tenants: []string{"tenant1", "tenant2"}, Envs: []string{"env1"}},
			"tfw1":     {Name: "tfw1", Type: domain.TechnologyTFWorkspaces, Tenants: []string{"tenant1"}, Envs: []string{"env1"}},
		},
		Registries: domain.RegistriesConfig{
			domain.ImageTypeSnapshots: {Name: "registry1", Registry: "registry1", BasePaths: map[string]string{"services": "service"}},
		},
		DefaultRegistries: domain.DefaultRegistries{
			domain.ImageTypeSnapshots: "registry1",
			domain.ImageTypeReleases:  "releases-registry",
		},
		Policy: domain.SelectAny,
	}
}

func deployment() domain.Deployment {
	return domain.Deployment{
		Type:        domain.ImageTypeSnapshots,
		Flavor:      "flavor1",
		Version:     "$latest_prerelease",
		Tenant:      "tenant1",
		Application: "application1",
		Env:         "env1",
		Platform:    "cluster1",
	}
}

func TestBuildCandidates_ComputedFields(t *testing.T) {
	got, err := BuildCandidates(baseInput(deployment()), logger.New("error"))
	require.NoError(t, err)
	require.Len(t, got, 1)

	c := got[0]
	assert.Equal(t, "org/state-app-app1", c.StateRepo)
	assert.Equal(t, "service/org/repo", c.ImageRepo)
	assert.Equal(t, "dispatch-image-aks-cluster", c.DispatchEventType)
	assert.Equal(t, "aks-cluster/cluster1", c.BaseFolder)
	assert.Equal(t, "registry1", c.Registry)
	assert.False(t, c.RegistryOverridden)
	assert.Equal(t, "aks-cluster", c.Technology)
	assert.Equal(t, "org/repo", c.RepositoryCaller)
	assert.Equal(t, []string{"service1", "service2"}, c.ServiceNames)
	assert.Equal(t, []string{"alice", "bob"}, c.Reviewers)
	assert.Equal(t, "application1", c.App)
}

func TestBuildCandidates_ExplicitValues(t *testing.T) {
	d := deployment()
	d.Registry = "custom-registry"
	d.ImageRepository = "custom/path"
	d.DispatchEventType = "custom-event"
	d.StateRepo = "org/custom-state"

	got, err := BuildCandidates(baseInput(d), logger.New("error"))
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "custom-registry", got[0].Registry)
	assert.True(t, got[0].RegistryOverridden)
	assert.Equal(t, "custom/path", got[0].ImageRepo)
	assert.Equal(t, "custom-event", got[0].DispatchEventType)
	assert.Equal(t, "org/custom-state", got[0].StateRepo)
}

func TestBuildCandidates_RegistryFallsBackToDefaultInput(t *testing.T) {
	d := deployment()
	d.Type = domain.ImageTypeReleases

	got, err := BuildCandidates(baseInput(d), logger.New("error"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "releases-registry", got[0].Registry)
	assert.Equal(t, "org/repo", got[0].ImageRepo)
}

func TestBuildCandidates_Overrides(t *testing.T) {
	d := deployment()
	d.Tenant = "tenant1"

	in := baseInput(d)
	in.Overrides = domain.Overrides{Tenant: "tenant2", Version: "v9.9.9"}

	got, err := BuildCandidates(in, logger.New("error"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "tenant2", got[0].Tenant)
	assert.Equal(t, "v9.9.9", got[0].Version)
	assert.Equal(t, "env1", got[0].Env)

	in.Overrides = domain.Overrides{}
	got, err = BuildCandidates(in, logger.New("error"))
	require.NoError(t, err)
	assert.Equal(t, "tenant1", got[0].Tenant)
}

func TestBuildCandidates_ValidationOrder(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Deployment)
		wantErr error
	}{
		{"unknown platform", func(d *domain.Deployment) { d.Platform = "nope" }, domain.ErrClusterConfigMissing},
		{
			name: "tenant checked before env",
			mutate: func(d *domain.Deployment) {
				d.Tenant = "nope"
				d.Env = "nope"
			},
			wantErr: domain.ErrTenantNotAllowedOnCluster,
		},
		{"env not allowed", func(d *domain.Deployment) { d.Env = "env9" }, domain.ErrEnvNotAllowedOnCluster},
		{"tfworkspaces without claim", func(d *domain.Deployment) { d.Platform = "tfw1" }, domain.ErrClaimRequired},
		{
			name: "claim checked before application",
			mutate: func(d *domain.Deployment) {
				d.Platform = "tfw1"
				d.Application = "nope"
			},
			wantErr: domain.ErrClaimRequired,
		},
		{"unknown application", func(d *domain.Deployment) { d.Application = "nope" }, domain.ErrApplicationConfigMissing},
		{
			name: "conflicting selectors",
			mutate: func(d *domain.Deployment) {
				d.ServiceNames = []string{"service1"}
				d.ImageKeys = []string{"key1"}
			},
			wantErr: domain.ErrConflictingServiceSelectors,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := deployment()
			tt.mutate(&d)

			_, err := BuildCandidates(baseInput(d), logger.New("error"))
			require.ErrorIs(t, err, tt.wantErr)

			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve))
		})
	}
}

func TestBuildCandidates_FailFast(t *testing.T) {
	bad := deployment()
	bad.Platform = "nope"

	_, err := BuildCandidates(baseInput(deployment(), bad, deployment()), logger.New("error"))
	require.ErrorIs(t, err, domain.ErrClusterConfigMissing)
}

func TestBuildCandidates_ConflictingSelectorsNamesDeployment(t *testing.T) {
	d := deployment()
	d.ServiceNames = []string{"service1"}
	d.ImageKeys = []string{"key1"}

	_, err := BuildCandidates(baseInput(d), logger.New("error"))
	require.Error(t, err)
	for _, part := range []string{"application1", "tenant1", "flavor1", "snapshots", "env1"} {
		assert.Contains(t, err.Error(), part)
	}
}

func TestBuildCandidates_ClaimSatisfied(t *testing.T) {
	d := deployment()
	d.Platform = "tfw1"
	d.Claim = "claim-a"

	got, err := BuildCandidates(baseInput(d), logger.New("error"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "claim-a", got[0].Claim)
	assert.Equal(t, "dispatch-image-tfworkspaces", got[0].DispatchEventType)
	assert.Equal(t, "tfworkspaces/tfw1", got[0].BaseFolder)
}

func TestBuildCandidates_ServiceSelection(t *testing.T) {
	tests := []struct {
		name      string
		names     []string
		imageKeys []string
		policy    domain.SelectionPolicy
		wantCount int
		wantNames []string
	}{
		{"no names selects group", nil, nil, domain.SelectAny, 1, []string{"service1", "service2"}},
		{"one overlapping name", []string{"service2", "missing"}, nil, domain.SelectAny, 1, []string{"service2"}},
		{"no overlap emits nothing", []string{"missing"}, nil, domain.SelectAny, 0, nil},
		{"all policy rejects partial", []string{"service2", "missing"}, nil, domain.SelectAll, 0, nil},
		{"all policy accepts full", []string{"service1", "service2"}, nil, domain.SelectAll, 1, []string{"service1", "service2"}},
		{"group of another repo is ignored", []string{"service9"}, nil, domain.SelectAny, 0, nil},
		{"image keys", nil, []string{"key1"}, domain.SelectAny, 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := deployment()
			d.ServiceNames = tt.names
			d.ImageKeys = tt.imageKeys

			in := baseInput(d)
			in.Policy = tt.policy

			got, err := BuildCandidates(in, logger.New("error"))
			require.NoError(t, err)
			require.Len(t, got, tt.wantCount)
			if tt.wantCount == 0 {
				return
			}
			assert.Equal(t, tt.wantNames, got[0].ServiceNames)
			assert.Equal(t, tt.imageKeys, got[0].ImageKeys)
		})
	}
}

func TestBuildCandidates_Idempotent(t *testing.T) {
	in := baseInput(deployment(), deployment())

	first, err := BuildCandidates(in, logger.New("error"))
	require.NoError(t, err)
	second, err := BuildCandidates(in, logger.New("error"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, domain.GroupCandidates(first), domain.GroupCandidates(second))
}
