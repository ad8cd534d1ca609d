// Package main provides the make-dispatches command.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	actionsout "github.com/nathantilsley/state-dispatcher/internal/dispatch/adapters/actions_out"
	configfs "github.com/nathantilsley/state-dispatcher/internal/dispatch/adapters/config_fs"
	"github.com/nathantilsley/state-dispatcher/internal/dispatch/adapters/fanout"
	githubchecks "github.com/nathantilsley/state-dispatcher/internal/dispatch/adapters/github_checks"
	githubdispatch "github.com/nathantilsley/state-dispatcher/internal/dispatch/adapters/github_dispatch"
	githubreleases "github.com/nathantilsley/state-dispatcher/internal/dispatch/adapters/github_releases"
	"github.com/nathantilsley/state-dispatcher/internal/dispatch/adapters/manifest"
	slackout "github.com/nathantilsley/state-dispatcher/internal/dispatch/adapters/slack_out"
	"github.com/nathantilsley/state-dispatcher/internal/dispatch/app"
	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
	"github.com/nathantilsley/state-dispatcher/internal/dispatch/ports"
	"github.com/nathantilsley/state-dispatcher/internal/platform/config"
	ghclient "github.com/nathantilsley/state-dispatcher/internal/platform/github"
	"github.com/nathantilsley/state-dispatcher/internal/platform/gitrepo"
	"github.com/nathantilsley/state-dispatcher/internal/platform/telemetry"
)

type mode int

const (
	modeRun mode = iota
	modePlan
	modeValidate
)

var errNoAuth = errors.New("token or GitHub App credentials are required")

// Container holds all application dependencies for one command.
type Container struct {
	Config   config.Config
	Logger   *slog.Logger
	Service  *app.DispatchService
	Reporter ports.ReportingPort
	Request  domain.RunRequest

	checkout *gitrepo.Checkout
}

// NewContainer builds and wires all dependencies for m.
func NewContainer(ctx context.Context, cfg config.Config, m mode, log *slog.Logger, tel *telemetry.Telemetry) (*Container, error) {
	req, err := buildRequest(cfg)
	if err != nil {
		return nil, err
	}

	if m != modeValidate && !cfg.HasAuth() {
		return nil, errNoAuth
	}

	var client *ghclient.Client
	if cfg.HasAuth() {
		client, err = newGitHubClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("creating github client: %w", err)
		}
	}

	c := &Container{Config: cfg, Logger: log, Request: req}

	configRoot := "."
	if cfg.ConfigRepo != "" {
		opts := gitrepo.Options{URL: cfg.ConfigRepoURL(), Ref: cfg.ConfigRepoRef}
		if client != nil {
			if opts.Token, err = client.GitToken(ctx); err != nil {
				return nil, fmt.Errorf("getting token for config repository: %w", err)
			}
		}
		c.checkout, err = gitrepo.Clone(ctx, opts, log)
		if err != nil {
			return nil, fmt.Errorf("checking out config repository: %w", err)
		}
		configRoot = c.checkout.Path()
	}
	configs := configfs.New(
		filepath.Join(configRoot, cfg.AppsFolder),
		filepath.Join(configRoot, cfg.ClustersFolder),
		filepath.Join(configRoot, cfg.RegistriesFolder),
	)

	// Adapters
	var (
		manifests  ports.ManifestPort
		releases   ports.ReleasesPort
		checkRuns  ports.CheckRunsPort
		dispatcher ports.DispatchPort
	)
	if client != nil {
		manifests = manifest.NewGitHub(client.Client, req.Repository)
		releases = githubreleases.New(client.Client, req.Repository)
		checkRuns = githubchecks.New(client.Client, req.Repository)
	} else {
		log.Info("no github credentials, reading manifest from workspace", "workspace", cfg.Runner.Workspace)
		manifests = manifest.NewFilesystem(cfg.Runner.Workspace)
	}

	switch m {
	case modeRun:
		dispatcher = githubdispatch.New(client.Client, req.Repository.Owner)
	case modePlan, modeValidate:
		dispatcher = githubdispatch.NewDryRun(req.Repository.Owner)
	}

	reporters := []ports.ReportingPort{actionsout.New(os.Stdout, cfg.Runner.StepSummary)}
	if cfg.SlackWebhookURL != "" && m == modeRun {
		reporters = append(reporters, slackout.New(cfg.SlackWebhookURL, req.Repository.FullName()))
	}
	c.Reporter = fanout.New(reporters...)

	c.Service = app.NewDispatchService(
		manifests,
		configs,
		releases,
		checkRuns,
		dispatcher,
		c.Reporter,
		app.Options{
			SelectionPolicy: domain.SelectionPolicy(cfg.ServiceSelection),
			RegistryMatch:   domain.RegistryMatch(cfg.RegistryMatch),
			FullSHA:         cfg.FullSHA,
		},
		log,
		tel.Meter,
		tel.Tracer,
	)

	return c, nil
}

// Close removes the config repository checkout, if any.
func (c *Container) Close() {
	if c.checkout == nil {
		return
	}
	if err := c.checkout.Remove(); err != nil {
		c.Logger.Warn("removing config repository checkout", "path", c.checkout.Path(), "error", err)
	}
}

func newGitHubClient(ctx context.Context, cfg config.Config) (*ghclient.Client, error) {
	if cfg.UseGitHubApp() {
		return ghclient.NewAppClient(cfg.GitHubAppID, cfg.GitHubInstallationID, cfg.GitHubPrivateKey, cfg.Runner.APIURL)
	}
	return ghclient.NewTokenClient(ctx, cfg.Token, cfg.Runner.APIURL)
}

// buildRequest turns the loaded inputs into the run request.
func buildRequest(cfg config.Config) (domain.RunRequest, error) {
	filters, err := domain.NewFilters(cfg.ImageType, cfg.Flavors, cfg.FilterByEnv, cfg.FilterByTenant, cfg.FilterByCluster)
	if err != nil {
		return domain.RunRequest{}, fmt.Errorf("parsing filters: %w", err)
	}

	registries := domain.DefaultRegistries{}
	if cfg.DefaultReleasesRegistry != "" {
		registries[domain.ImageTypeReleases] = cfg.DefaultReleasesRegistry
	}
	if cfg.DefaultSnapshotsRegistry != "" {
		registries[domain.ImageTypeSnapshots] = cfg.DefaultSnapshotsRegistry
	}

	return domain.RunRequest{
		ManifestPath: cfg.DispatchesFile,
		Ref:          cfg.DispatchesRef,
		SHA:          cfg.Runner.SHA,
		Repository:   domain.ParseRepoRef(cfg.Runner.Repository, ""),
		Filters:      filters,
		Overrides: domain.Overrides{
			Version: cfg.OverwriteVersion,
			Tenant:  cfg.OverwriteTenant,
			Env:     cfg.OverwriteEnv,
		},
		Reviewers:         domain.SplitList(cfg.Reviewers),
		DefaultRegistries: registries,
		CheckRunName:      cfg.CheckRunName,
		BuildSummary:      cfg.BuildSummary,
	}, nil
}
