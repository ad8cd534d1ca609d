package domain

import "slices"

// ImageType distinguishes release images from snapshot images.
type ImageType string

const (
	ImageTypeReleases  ImageType = "releases"
	ImageTypeSnapshots ImageType = "snapshots"
)

// ImageTypes lists every known image type in manifest order.
var ImageTypes = []ImageType{ImageTypeReleases, ImageTypeSnapshots}

// Valid reports whether t is a known image type.
func (t ImageType) Valid() bool {
	return slices.Contains(ImageTypes, t)
}

// Deployment is one entry of the deployments manifest.
type Deployment struct {
	Type        ImageType
	Flavor      string
	Version     string
	Tenant      string
	Application string
	Env         string
	Platform    string
	Claim       string

	ServiceNames []string
	ImageKeys    []string

	// Optional per-deployment overrides of computed values.
	Registry          string
	ImageRepository   string
	DispatchEventType string
	StateRepo         string
}

// SelectorKind tells how a deployment picks service groups.
type SelectorKind int

const (
	SelectorAll          SelectorKind = iota // No service_names: every group of the repo
	SelectorServiceNames                     // Explicit service_names
	SelectorImageKeys                        // Explicit image_keys, every group of the repo
)

// ServiceSelector is the validated form of a deployment's service_names /
// image_keys pair. At most one of the two lists is ever populated.
type ServiceSelector struct {
	Kind   SelectorKind
	Values []string
}

// Selector validates the mutual exclusivity of service_names and image_keys
// and returns the selector the deployment describes.
func (d Deployment) Selector() (ServiceSelector, error) {
	switch {
	case len(d.ServiceNames) > 0 && len(d.ImageKeys) > 0:
		return ServiceSelector{}, ErrConflictingServiceSelectors
	case len(d.ServiceNames) > 0:
		return ServiceSelector{Kind: SelectorServiceNames, Values: d.ServiceNames}, nil
	case len(d.ImageKeys) > 0:
		return ServiceSelector{Kind: SelectorImageKeys, Values: d.ImageKeys}, nil
	default:
		return ServiceSelector{Kind: SelectorAll}, nil
	}
}

// SelectionPolicy decides when a service_names selector picks a service group.
type SelectionPolicy string

const (
	// SelectAny picks a group when at least one requested name belongs to it.
	SelectAny SelectionPolicy = "any"
	// SelectAll picks a group only when every requested name belongs to it.
	SelectAll SelectionPolicy = "all"
)

// Selects reports whether the selector picks a group declaring groupNames,
// and returns the service names the resulting candidate carries.
func (s ServiceSelector) Selects(groupNames []string, policy SelectionPolicy) ([]string, bool) {
	if s.Kind != SelectorServiceNames {
		return groupNames, true
	}

	var overlap []string
	for _, name := range s.Values {
		if slices.Contains(groupNames, name) {
			overlap = append(overlap, name)
		}
	}

	if policy == SelectAll {
		if len(overlap) != len(s.Values) {
			return nil, false
		}
		return overlap, true
	}
	return overlap, len(overlap) > 0
}

// Overrides are run-level values that replace per-deployment ones when set.
type Overrides struct {
	Version string
	Tenant  string
	Env     string
}

// Apply returns d with every non-empty override applied.
func (o Overrides) Apply(d Deployment) Deployment {
	if o.Version != "" {
		d.Version = o.Version
	}
	if o.Tenant != "" {
		d.Tenant = o.Tenant
	}
	if o.Env != "" {
		d.Env = o.Env
	}
	return d
}
