package domain

import (
	"fmt"
	"regexp"
	"strings"

	"sigs.k8s.io/yaml"
)

// BuildSummaryEntry describes one image produced by a build.
type BuildSummaryEntry struct {
	Flavor     string `json:"flavor"`
	Version    string `json:"version"`
	ImageType  string `json:"image_type"`
	Repository string `json:"repository"`
	Registry   string `json:"registry"`
	ImageTag   string `json:"image_tag"`
}

// Image returns the full image reference "registry/repository:tag".
func (e BuildSummaryEntry) Image() string {
	return fmt.Sprintf("%s/%s:%s", e.Registry, e.Repository, e.ImageTag)
}

// CheckRunSummary is the output of a CI check run.
type CheckRunSummary struct {
	ID         int64
	Summary    string
	Conclusion string
}

// RegistryMatch controls whether the registry takes part in build summary matching.
type RegistryMatch string

const (
	// RegistryMatchAlways compares the registry for every candidate.
	RegistryMatchAlways RegistryMatch = "always"
	// RegistryMatchUnlessOverridden skips the registry when the deployment set its own.
	RegistryMatchUnlessOverridden RegistryMatch = "unless-overridden"
)

// ImageQuery is the set of dimensions a build summary entry must match.
type ImageQuery struct {
	Flavor        string
	Version       string
	ImageType     string
	Repository    string
	Registry      string
	MatchRegistry bool
}

func (q ImageQuery) String() string {
	registry := q.Registry
	if !q.MatchRegistry {
		registry = Wildcard
	}
	return fmt.Sprintf("flavor=%s version=%s image_type=%s repository=%s registry=%s",
		q.Flavor, q.Version, q.ImageType, q.Repository, registry)
}

// NewImageQuery builds the lookup for a candidate whose version resolved to ref.
func NewImageQuery(c Candidate, ref string, mode RegistryMatch) ImageQuery {
	return ImageQuery{
		Flavor:        c.Flavor,
		Version:       ref,
		ImageType:     string(c.Type),
		Repository:    c.ImageRepo,
		Registry:      c.Registry,
		MatchRegistry: mode != RegistryMatchUnlessOverridden || !c.RegistryOverridden,
	}
}

func (q ImageQuery) matches(e BuildSummaryEntry) bool {
	return e.Flavor == q.Flavor &&
		e.Version == q.Version &&
		e.ImageType == q.ImageType &&
		e.Repository == q.Repository &&
		(!q.MatchRegistry || e.Registry == q.Registry)
}

// FindImage returns the single entry matching q.
func FindImage(entries []BuildSummaryEntry, q ImageQuery) (BuildSummaryEntry, error) {
	var found []BuildSummaryEntry
	for _, e := range entries {
		if q.matches(e) {
			found = append(found, e)
		}
	}

	switch len(found) {
	case 0:
		return BuildSummaryEntry{}, fmt.Errorf("%w: %s", ErrImageNotInBuildSummary, q)
	case 1:
		return found[0], nil
	default:
		return BuildSummaryEntry{}, fmt.Errorf("%w (%d entries): %s", ErrAmbiguousBuildSummary, len(found), q)
	}
}

var codeFence = regexp.MustCompile("^```[A-Za-z0-9_-]*|```$")

// ParseBuildSummary decodes a build summary, either a bare list of entries
// or an object holding them under "images". Markdown code fences around
// the document are ignored.
func ParseBuildSummary(raw string) ([]BuildSummaryEntry, error) {
	doc := strings.TrimSpace(raw)
	doc = strings.TrimSpace(codeFence.ReplaceAllString(doc, ""))
	if doc == "" {
		return nil, fmt.Errorf("parsing build summary: %w", ErrBuildSummaryNotFound)
	}

	if strings.HasPrefix(doc, "[") || strings.HasPrefix(doc, "-") {
		var entries []BuildSummaryEntry
		if err := yaml.Unmarshal([]byte(doc), &entries); err != nil {
			return nil, fmt.Errorf("parsing build summary: %w", err)
		}
		return entries, nil
	}

	var wrapped struct {
		Images []BuildSummaryEntry `json:"images"`
	}
	if err := yaml.Unmarshal([]byte(doc), &wrapped); err != nil {
		return nil, fmt.Errorf("parsing build summary: %w", err)
	}
	return wrapped.Images, nil
}
