package api

// AppFile is one file of the applications config folder.
type AppFile struct {
	Name      string        `yaml:"name"`
	StateRepo string        `yaml:"state_repo"`
	Services  []ServiceFile `yaml:"services"`
}

// ServiceFile lists the services built from one source repository.
type ServiceFile struct {
	Repo         string   `yaml:"repo"`
	ServiceNames []string `yaml:"service_names"`
}

// ClusterFile is one file of the clusters config folder.
type ClusterFile struct {
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Tenants []string `yaml:"tenants"`
	Envs    []string `yaml:"envs"`
}

// RegistryFile is one file of the registries config folder.
type RegistryFile struct {
	Name      string            `yaml:"name"`
	Registry  string            `yaml:"registry"`
	BasePaths map[string]string `yaml:"base_paths"`
}
