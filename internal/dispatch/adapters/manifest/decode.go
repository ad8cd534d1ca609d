// Package manifest reads the deployments manifest from GitHub or the local
// filesystem and turns it into domain deployments.
package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/nathantilsley/state-dispatcher/api"
	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
)

// Decode validates a manifest document against its schema and converts it.
func Decode(data []byte) ([]domain.Deployment, error) {
	if err := api.Validate(api.KindManifest, data); err != nil {
		return nil, err
	}

	var m api.Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest YAML: %w", err)
	}

	deployments := make([]domain.Deployment, 0, len(m.Deployments))
	for _, d := range m.Deployments {
		deployments = append(deployments, domain.Deployment{
			Type:              domain.ImageType(d.Type),
			Flavor:            d.Flavor,
			Version:           d.Version,
			Tenant:            d.Tenant,
			Application:       d.Application,
			Env:               d.Env,
			Platform:          d.Platform,
			Claim:             d.Claim,
			ServiceNames:      d.ServiceNames,
			ImageKeys:         d.ImageKeys,
			Registry:          d.Registry,
			ImageRepository:   d.ImageRepository,
			DispatchEventType: d.DispatchEventType,
			StateRepo:         d.StateRepo,
		})
	}
	return deployments, nil
}
