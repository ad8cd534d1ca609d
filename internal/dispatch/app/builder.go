package app

import (
	"log/slog"
	"path"
	"slices"

	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
)

const defaultEventTypePrefix = "dispatch-image-"

// BuildInput is everything the candidate builder cross-references.
type BuildInput struct {
	DefaultImageRepository string
	RepositoryCaller       string
	Deployments            []domain.Deployment
	Reviewers              []string
	Apps                   domain.AppsConfig
	Clusters               domain.ClustersConfig
	Registries             domain.RegistriesConfig
	DefaultRegistries      domain.DefaultRegistries
	Overrides              domain.Overrides
	Policy                 domain.SelectionPolicy
}

// BuildCandidates expands every deployment against the app, cluster and
// registry tables. The first inconsistent deployment aborts the build with a
// *domain.ValidationError. Deployments that select no service group produce
// no candidate and a warning.
func BuildCandidates(in BuildInput, logger *slog.Logger) ([]domain.Candidate, error) {
	var candidates []domain.Candidate

	for _, raw := range in.Deployments {
		d := in.Overrides.Apply(raw)

		cluster, app, selector, err := validateDeployment(d, in)
		if err != nil {
			return nil, domain.NewValidationError(d, err)
		}

		expanded := expandDeployment(d, cluster, app, selector, in)
		if len(expanded) == 0 {
			logger.Warn("no service group selected for deployment",
				"application", d.Application,
				"tenant", d.Tenant,
				"env", d.Env,
				"flavor", d.Flavor,
				"repository", in.DefaultImageRepository,
			)
			continue
		}
		candidates = append(candidates, expanded...)
	}

	return candidates, nil
}

// validateDeployment runs the consistency checks in their fixed order.
func validateDeployment(
	d domain.Deployment,
	in BuildInput,
) (domain.ClusterConfig, domain.AppConfig, domain.ServiceSelector, error) {
	cluster, ok := in.Clusters[d.Platform]
	if !ok {
		return domain.ClusterConfig{}, domain.AppConfig{}, domain.ServiceSelector{}, domain.ErrClusterConfigMissing
	}
	if !cluster.AllowsTenant(d.Tenant) {
		return cluster, domain.AppConfig{}, domain.ServiceSelector{}, domain.ErrTenantNotAllowedOnCluster
	}
	if !cluster.AllowsEnv(d.Env) {
		return cluster, domain.AppConfig{}, domain.ServiceSelector{}, domain.ErrEnvNotAllowedOnCluster
	}
	if cluster.Type == domain.TechnologyTFWorkspaces && d.Claim == "" {
		return cluster, domain.AppConfig{}, domain.ServiceSelector{}, domain.ErrClaimRequired
	}

	app, ok := in.Apps[d.Application]
	if !ok {
		return cluster, domain.AppConfig{}, domain.ServiceSelector{}, domain.ErrApplicationConfigMissing
	}

	selector, err := d.Selector()
	if err != nil {
		return cluster, app, domain.ServiceSelector{}, err
	}
	return cluster, app, selector, nil
}

func expandDeployment(
	d domain.Deployment,
	cluster domain.ClusterConfig,
	app domain.AppConfig,
	selector domain.ServiceSelector,
	in BuildInput,
) []domain.Candidate {
	var out []domain.Candidate

	for _, group := range app.Services {
		if group.Repo != in.DefaultImageRepository {
			continue
		}
		names, ok := selector.Selects(group.ServiceNames, in.Policy)
		if !ok {
			continue
		}

		registry, overridden := resolveRegistry(d, in)
		c := domain.Candidate{
			Type:               d.Type,
			Flavor:             d.Flavor,
			Version:            d.Version,
			Tenant:             d.Tenant,
			App:                d.Application,
			Env:                d.Env,
			StateRepo:          firstNonEmpty(d.StateRepo, app.StateRepo),
			Claim:              d.Claim,
			Registry:           registry,
			RegistryOverridden: overridden,
			ImageRepo:          resolveImageRepo(d, in),
			DispatchEventType:  firstNonEmpty(d.DispatchEventType, defaultEventTypePrefix+cluster.Type),
			Reviewers:          slices.Clone(in.Reviewers),
			RepositoryCaller:   in.RepositoryCaller,
			Technology:         cluster.Type,
			Platform:           d.Platform,
			BaseFolder:         path.Join(cluster.Type, d.Platform),
		}
		if selector.Kind == domain.SelectorImageKeys {
			c.ImageKeys = slices.Clone(selector.Values)
		} else {
			c.ServiceNames = slices.Clone(names)
		}
		out = append(out, c)
	}

	return out
}

// resolveRegistry returns the registry for d and whether d named it itself.
func resolveRegistry(d domain.Deployment, in BuildInput) (string, bool) {
	if d.Registry != "" {
		return d.Registry, true
	}
	if cfg, ok := in.Registries[d.Type]; ok && cfg.Registry != "" {
		return cfg.Registry, false
	}
	return in.DefaultRegistries[d.Type], false
}

func resolveImageRepo(d domain.Deployment, in BuildInput) string {
	if d.ImageRepository != "" {
		return d.ImageRepository
	}
	return path.Join(in.Registries[d.Type].ServicesBasePath(), in.DefaultImageRepository)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
