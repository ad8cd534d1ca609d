// Package config loads the action inputs and runner context.
//
// Inputs come from INPUT_<NAME> environment variables, the way the Actions
// runner exposes them, optionally merged with YAML or .env files. Runner
// context comes from the GITHUB_* variables.
package config

import (
	"cmp"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigdotenv"
	"github.com/cristalhq/aconfig/aconfigyaml"
)

// Defaults for inputs left empty.
const (
	DefaultDispatchesFile   = ".github/make_dispatches.yaml"
	DefaultAppsFolder       = "apps"
	DefaultClustersFolder   = "clusters"
	DefaultRegistriesFolder = "registries"
	DefaultCheckRunName     = "Build summary"
	DefaultImageType        = "*"
	DefaultServiceSelection = "any"
	DefaultRegistryMatch    = "always"
	DefaultLogLevel         = "info"
	DefaultAPIURL           = "https://api.github.com"
	DefaultServerURL        = "https://github.com"
)

// Inputs are the action inputs. Every field is a string because the runner
// sets declared-but-empty inputs to "".
type Inputs struct {
	DispatchesFile   string `env:"DISPATCHES_FILE" yaml:"dispatches_file"`
	DispatchesRef    string `env:"DISPATCHES_REF" yaml:"dispatches_ref"`
	AppsFolder       string `env:"APPS_FOLDER" yaml:"apps_folder"`
	ClustersFolder   string `env:"CLUSTERS_FOLDER" yaml:"clusters_folder"`
	RegistriesFolder string `env:"REGISTRIES_FOLDER" yaml:"registries_folder"`

	ImageType                string `env:"IMAGE_TYPE" yaml:"image_type"`
	DefaultReleasesRegistry  string `env:"DEFAULT_RELEASES_REGISTRY" yaml:"default_releases_registry"`
	DefaultSnapshotsRegistry string `env:"DEFAULT_SNAPSHOTS_REGISTRY" yaml:"default_snapshots_registry"`
	BuildSummary             string `env:"BUILD_SUMMARY" yaml:"build_summary"`
	CheckRunName             string `env:"CHECK_RUN_NAME" yaml:"check_run_name"`

	Flavors         string `env:"FLAVORS" yaml:"flavors"`
	FilterByEnv     string `env:"FILTER_BY_ENV" yaml:"filter_by_env"`
	FilterByTenant  string `env:"FILTER_BY_TENANT" yaml:"filter_by_tenant"`
	FilterByCluster string `env:"FILTER_BY_CLUSTER" yaml:"filter_by_cluster"`

	OverwriteVersion string `env:"OVERWRITE_VERSION" yaml:"overwrite_version"`
	OverwriteEnv     string `env:"OVERWRITE_ENV" yaml:"overwrite_env"`
	OverwriteTenant  string `env:"OVERWRITE_TENANT" yaml:"overwrite_tenant"`
	Reviewers        string `env:"REVIEWERS" yaml:"reviewers"`

	Token                string `env:"TOKEN" yaml:"token"`
	GitHubAppID          string `env:"GITHUB_APP_ID" yaml:"github_app_id"`
	GitHubInstallationID string `env:"GITHUB_INSTALLATION_ID" yaml:"github_installation_id"`
	GitHubPrivateKey     string `env:"GITHUB_PRIVATE_KEY" yaml:"github_private_key"`

	FullSHA          string `env:"FULL_SHA" yaml:"full_sha"`
	ServiceSelection string `env:"SERVICE_SELECTION" yaml:"service_selection"`
	RegistryMatch    string `env:"REGISTRY_MATCH" yaml:"registry_match"`

	ConfigRepo    string `env:"CONFIG_REPO" yaml:"config_repo"`
	ConfigRepoRef string `env:"CONFIG_REPO_REF" yaml:"config_repo_ref"`

	SlackWebhookURL string `env:"SLACK_WEBHOOK_URL" yaml:"slack_webhook_url"`
	LogLevel        string `env:"LOG_LEVEL" yaml:"log_level"`
	OTelEnabled     string `env:"OTEL_ENABLED" yaml:"otel_enabled"`
}

// Runner is the GITHUB_* context of the workflow run.
type Runner struct {
	Actions     string `env:"ACTIONS"`
	Repository  string `env:"REPOSITORY"`
	Ref         string `env:"REF"`
	SHA         string `env:"SHA"`
	Workspace   string `env:"WORKSPACE"`
	StepSummary string `env:"STEP_SUMMARY"`
	APIURL      string `env:"API_URL"`
	ServerURL   string `env:"SERVER_URL"`
}

// Config holds the loaded and validated configuration.
type Config struct {
	Inputs
	Runner Runner

	FullSHA              bool
	OTelEnabled          bool
	GitHubAppID          int64
	GitHubInstallationID int64
}

// Load reads inputs from the environment and the given files, applies
// defaults and validates them. Missing files are skipped.
func Load(files ...string) (Config, error) {
	var cfg Config

	inputs := aconfig.LoaderFor(&cfg.Inputs, aconfig.Config{
		SkipFlags:          true,
		EnvPrefix:          "INPUT",
		AllowUnknownEnvs:   true,
		AllowUnknownFields: true,
		Files:              files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".env":  aconfigdotenv.New(),
			".yaml": aconfigyaml.New(),
			".yml":  aconfigyaml.New(),
		},
		MergeFiles: true,
	})
	if err := inputs.Load(); err != nil {
		return Config{}, fmt.Errorf("loading inputs: %w", err)
	}

	runner := aconfig.LoaderFor(&cfg.Runner, aconfig.Config{
		SkipFlags:        true,
		SkipFiles:        true,
		EnvPrefix:        "GITHUB",
		AllowUnknownEnvs: true,
	})
	if err := runner.Load(); err != nil {
		return Config{}, fmt.Errorf("loading runner context: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.parse(); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.DispatchesFile = cmp.Or(c.DispatchesFile, DefaultDispatchesFile)
	c.DispatchesRef = cmp.Or(c.DispatchesRef, c.Runner.SHA, c.Runner.Ref)
	c.AppsFolder = cmp.Or(c.AppsFolder, DefaultAppsFolder)
	c.ClustersFolder = cmp.Or(c.ClustersFolder, DefaultClustersFolder)
	c.RegistriesFolder = cmp.Or(c.RegistriesFolder, DefaultRegistriesFolder)
	c.ImageType = cmp.Or(c.ImageType, DefaultImageType)
	c.CheckRunName = cmp.Or(c.CheckRunName, DefaultCheckRunName)
	c.ServiceSelection = cmp.Or(c.ServiceSelection, DefaultServiceSelection)
	c.RegistryMatch = cmp.Or(c.RegistryMatch, DefaultRegistryMatch)
	c.LogLevel = cmp.Or(c.LogLevel, DefaultLogLevel)
	c.Runner.Workspace = cmp.Or(c.Runner.Workspace, ".")
	c.Runner.APIURL = cmp.Or(c.Runner.APIURL, DefaultAPIURL)
	c.Runner.ServerURL = cmp.Or(c.Runner.ServerURL, DefaultServerURL)
}

func (c *Config) parse() error {
	var err error
	if c.FullSHA, err = parseBool("full_sha", c.Inputs.FullSHA); err != nil {
		return err
	}
	if c.OTelEnabled, err = parseBool("otel_enabled", c.Inputs.OTelEnabled); err != nil {
		return err
	}
	if c.GitHubAppID, err = parseInt64("github_app_id", c.Inputs.GitHubAppID); err != nil {
		return err
	}
	if c.GitHubInstallationID, err = parseInt64("github_installation_id", c.Inputs.GitHubInstallationID); err != nil {
		return err
	}
	return nil
}

func (c *Config) validate() error {
	if _, _, ok := strings.Cut(c.Runner.Repository, "/"); !ok {
		return fmt.Errorf("GITHUB_REPOSITORY %q is not in owner/repo form", c.Runner.Repository)
	}

	for _, t := range strings.Split(c.ImageType, ",") {
		switch strings.TrimSpace(t) {
		case "*", "releases", "snapshots":
		default:
			return fmt.Errorf("invalid image_type %q: want releases, snapshots or *", t)
		}
	}

	switch c.ServiceSelection {
	case "any", "all":
	default:
		return fmt.Errorf("invalid service_selection %q: want any or all", c.ServiceSelection)
	}

	switch c.RegistryMatch {
	case "always", "unless-overridden":
	default:
		return fmt.Errorf("invalid registry_match %q: want always or unless-overridden", c.RegistryMatch)
	}

	appFields := 0
	for _, set := range []bool{c.GitHubAppID != 0, c.GitHubInstallationID != 0, c.GitHubPrivateKey != ""} {
		if set {
			appFields++
		}
	}
	if appFields != 0 && appFields != 3 {
		return errors.New("github_app_id, github_installation_id and github_private_key must be set together")
	}
	if appFields == 3 && c.Token != "" {
		return errors.New("token and GitHub App credentials are mutually exclusive")
	}

	return nil
}

// ConfigRepoURL returns the clone URL of config_repo. An "owner/repo" value
// is resolved against the runner's server URL.
func (c Config) ConfigRepoURL() string {
	if c.ConfigRepo == "" || strings.Contains(c.ConfigRepo, "://") {
		return c.ConfigRepo
	}
	return strings.TrimSuffix(c.Runner.ServerURL, "/") + "/" + c.ConfigRepo + ".git"
}

// HasAuth reports whether GitHub credentials are configured.
func (c Config) HasAuth() bool {
	return c.Token != "" || c.UseGitHubApp()
}

// UseGitHubApp reports whether GitHub App credentials are configured.
func (c Config) UseGitHubApp() bool {
	return c.GitHubAppID != 0
}

// InActions reports whether the process runs on an Actions runner.
func (c Config) InActions() bool {
	return c.Runner.Actions == "true"
}

func parseBool(name, v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return b, nil
}

func parseInt64(name, v string) (int64, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return n, nil
}
