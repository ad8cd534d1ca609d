// Package configfs loads the application, cluster and registry tables from
// folders holding one YAML file per entity.
package configfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	slogcontext "github.com/veqryn/slog-context"
	"gopkg.in/yaml.v3"

	"github.com/nathantilsley/state-dispatcher/api"
	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
)

var configExtensions = []string{".yaml", ".yml", ".json"}

// Adapter implements ports.ConfigPort by scanning three config folders.
type Adapter struct {
	appsDir       string
	clustersDir   string
	registriesDir string
}

// New creates a new filesystem config adapter.
func New(appsDir, clustersDir, registriesDir string) *Adapter {
	return &Adapter{
		appsDir:       appsDir,
		clustersDir:   clustersDir,
		registriesDir: registriesDir,
	}
}

// LoadApps indexes every application file by name.
func (a *Adapter) LoadApps(ctx context.Context) (domain.AppsConfig, error) {
	files, err := loadFolder[api.AppFile](a.appsDir, api.KindApp)
	if err != nil {
		return nil, fmt.Errorf("getting app configs from folder %s: %w", a.appsDir, err)
	}

	apps := make(domain.AppsConfig, len(files))
	for _, f := range files {
		groups := make([]domain.ServiceGroup, 0, len(f.Services))
		for _, s := range f.Services {
			groups = append(groups, domain.ServiceGroup{Repo: s.Repo, ServiceNames: s.ServiceNames})
		}
		apps[f.Name] = domain.AppConfig{Name: f.Name, StateRepo: f.StateRepo, Services: groups}
	}

	slogcontext.FromCtx(ctx).Debug("loaded app configs", "folder", a.appsDir, "count", len(apps))
	return apps, nil
}

// LoadClusters indexes every cluster file by name.
func (a *Adapter) LoadClusters(ctx context.Context) (domain.ClustersConfig, error) {
	files, err := loadFolder[api.ClusterFile](a.clustersDir, api.KindCluster)
	if err != nil {
		return nil, fmt.Errorf("getting cluster configs from folder %s: %w", a.clustersDir, err)
	}

	clusters := make(domain.ClustersConfig, len(files))
	for _, f := range files {
		clusters[f.Name] = domain.ClusterConfig{Name: f.Name, Type: f.Type, Tenants: f.Tenants, Envs: f.Envs}
	}

	slogcontext.FromCtx(ctx).Debug("loaded cluster configs", "folder", a.clustersDir, "count", len(clusters))
	return clusters, nil
}

// LoadRegistries keeps only the registries named by defaults, tagged with
// the image type they serve. A default with no matching file is left out.
func (a *Adapter) LoadRegistries(ctx context.Context, defaults domain.DefaultRegistries) (domain.RegistriesConfig, error) {
	files, err := loadFolder[api.RegistryFile](a.registriesDir, api.KindRegistry)
	if err != nil {
		return nil, fmt.Errorf("getting registry configs from folder %s: %w", a.registriesDir, err)
	}

	registries := make(domain.RegistriesConfig, len(defaults))
	for _, imageType := range domain.ImageTypes {
		want, ok := defaults[imageType]
		if !ok || want == "" {
			continue
		}
		for _, f := range files {
			if f.Name == want || f.Registry == want {
				registries[imageType] = domain.RegistryConfig{Name: f.Name, Registry: f.Registry, BasePaths: f.BasePaths}
				break
			}
		}
		if _, found := registries[imageType]; !found {
			slogcontext.FromCtx(ctx).Warn("default registry has no config file",
				"type", imageType, "registry", want, "folder", a.registriesDir)
		}
	}
	return registries, nil
}

// loadFolder validates and decodes every config file in dir, in name order.
func loadFolder[T any](dir string, kind api.Kind) ([]T, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []T
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(configExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if err := api.Validate(kind, data); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}

		var v T
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", e.Name(), err)
		}
		out = append(out, v)
	}
	return out, nil
}
