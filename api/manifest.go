package api

// Manifest is the top-level schema of the make_dispatches.yaml file
// stored in source repositories.
type Manifest struct {
	Deployments []ManifestDeployment `yaml:"deployments"`
}

// ManifestDeployment is one application × env × tenant × platform × flavor
// combination to dispatch. ServiceNames and ImageKeys are mutually exclusive.
type ManifestDeployment struct {
	Type        string `yaml:"type"`
	Flavor      string `yaml:"flavor"`
	Version     string `yaml:"version"`
	Tenant      string `yaml:"tenant"`
	Application string `yaml:"application"`
	Env         string `yaml:"env"`
	Platform    string `yaml:"platform"`
	Claim       string `yaml:"claim,omitempty"`

	ServiceNames []string `yaml:"service_names,omitempty"`
	ImageKeys    []string `yaml:"image_keys,omitempty"`

	Registry          string `yaml:"registry,omitempty"`
	ImageRepository   string `yaml:"image_repository,omitempty"`
	DispatchEventType string `yaml:"dispatch_event_type,omitempty"`
	StateRepo         string `yaml:"state_repo,omitempty"`
}
