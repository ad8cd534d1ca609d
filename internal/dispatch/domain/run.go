package domain

import "fmt"

// RunRequest carries everything a single dispatch run needs from its caller.
type RunRequest struct {
	ManifestPath string
	Ref          string // ref the manifest is read from, empty for the default branch
	SHA          string

	// Repository is the repository the run was triggered from. Its full
	// name is the default image repository.
	Repository RepoRef

	Filters           Filters
	Overrides         Overrides
	Reviewers         []string
	DefaultRegistries DefaultRegistries

	CheckRunName string
	BuildSummary string // explicit build summary payload, bypasses check runs when set
}

// Source describes where the manifest came from, for log and failure messages.
func (r RunRequest) Source() string {
	ref := r.Ref
	if ref == "" {
		ref = "default branch"
	}
	if r.SHA == "" {
		return fmt.Sprintf("%s@%s", r.ManifestPath, ref)
	}
	return fmt.Sprintf("%s@%s (%s)", r.ManifestPath, ref, r.SHA)
}
