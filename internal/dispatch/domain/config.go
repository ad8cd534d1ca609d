package domain

import "slices"

// TechnologyTFWorkspaces is the platform type whose deployments must carry a claim.
const TechnologyTFWorkspaces = "tfworkspaces"

// ServiceGroup is a set of services built from one source repository.
type ServiceGroup struct {
	Repo         string
	ServiceNames []string
}

// AppConfig describes where an application's dispatches go.
type AppConfig struct {
	Name      string
	StateRepo string
	Services  []ServiceGroup
}

// ClusterConfig declares which tenants and envs a platform accepts.
type ClusterConfig struct {
	Name    string
	Type    string
	Tenants []string
	Envs    []string
}

// AllowsTenant reports whether tenant is declared for the platform.
func (c ClusterConfig) AllowsTenant(tenant string) bool {
	return slices.Contains(c.Tenants, tenant)
}

// AllowsEnv reports whether env is declared for the platform.
func (c ClusterConfig) AllowsEnv(env string) bool {
	return slices.Contains(c.Envs, env)
}

// RegistryConfig describes a container registry and its path layout.
type RegistryConfig struct {
	Name      string
	Registry  string
	BasePaths map[string]string
}

// ServicesBasePath is the path prefix for service images in the registry.
func (r RegistryConfig) ServicesBasePath() string {
	return r.BasePaths["services"]
}

// Config tables cross-referenced by the candidate builder.
type (
	AppsConfig       map[string]AppConfig
	ClustersConfig   map[string]ClusterConfig
	RegistriesConfig map[ImageType]RegistryConfig
)

// DefaultRegistries maps an image type to the registry used when a
// deployment does not name one.
type DefaultRegistries map[ImageType]string
