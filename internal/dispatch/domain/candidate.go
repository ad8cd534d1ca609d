package domain

import "strings"

// Status texts shown in the dispatch summary.
const (
	StatusDispatching = "✔ Dispatching"
	StatusSkipped     = "⚠ Skipped"
	StatusError       = "❌ Error"
)

// RepoRef identifies a GitHub repository.
type RepoRef struct {
	Owner string
	Repo  string
}

// FullName returns "owner/repo".
func (r RepoRef) FullName() string {
	return r.Owner + "/" + r.Repo
}

// ParseRepoRef splits "owner/repo". A bare name inherits defaultOwner.
func ParseRepoRef(name, defaultOwner string) RepoRef {
	if owner, repo, ok := strings.Cut(name, "/"); ok {
		return RepoRef{Owner: owner, Repo: repo}
	}
	return RepoRef{Owner: defaultOwner, Repo: name}
}

// Candidate is a deployment expanded against one service group. Its JSON
// form is the per-image payload sent to the state repository.
type Candidate struct {
	Type              ImageType `json:"type"`
	Flavor            string    `json:"flavor"`
	Version           string    `json:"version"`
	Tenant            string    `json:"tenant"`
	App               string    `json:"app"`
	Env               string    `json:"env"`
	StateRepo         string    `json:"state_repo"`
	ServiceNames      []string  `json:"service_name_list,omitempty"`
	ImageKeys         []string  `json:"image_keys,omitempty"`
	Claim             string    `json:"claim,omitempty"`
	Registry          string    `json:"registry"`
	ImageRepo         string    `json:"image_repo"`
	DispatchEventType string    `json:"dispatch_event_type"`
	Reviewers         []string  `json:"reviewers"`
	RepositoryCaller  string    `json:"repository_caller"`
	Technology        string    `json:"technology"`
	Platform          string    `json:"platform"`
	BaseFolder        string    `json:"base_folder"`
	Image             string    `json:"image,omitempty"`
	Message           string    `json:"message,omitempty"`

	// RegistryOverridden is set when the deployment named its own registry.
	RegistryOverridden bool `json:"-"`
}

// ServiceLabel is the human-readable service column for summaries.
func (c Candidate) ServiceLabel() string {
	if len(c.ImageKeys) > 0 {
		return strings.Join(c.ImageKeys, ", ")
	}
	return strings.Join(c.ServiceNames, ", ")
}

// DispatchResult is the outcome of one dispatch event.
type DispatchResult struct {
	StateRepo string
	EventType string
	Images    []string
}

// SummaryRow is one line of the dispatch summary table.
type SummaryRow struct {
	StateRepo   string
	Tenant      string
	Application string
	Env         string
	ServiceName string
	Image       string
	Reviewers   string
	BaseFolder  string
	Status      string
}

// SummaryHeader lists the summary table columns in display order.
var SummaryHeader = []string{
	"State repository", "Tenant", "Application", "Env", "Service Name",
	"Image", "Reviewers", "Base Folder", "Status",
}

// Cells returns the row values in SummaryHeader order.
func (r SummaryRow) Cells() []string {
	return []string{
		r.StateRepo, r.Tenant, r.Application, r.Env, r.ServiceName,
		r.Image, r.Reviewers, r.BaseFolder, r.Status,
	}
}

// NewSummaryRow describes c with the given status text.
func NewSummaryRow(c Candidate, status string) SummaryRow {
	return SummaryRow{
		StateRepo:   c.StateRepo,
		Tenant:      c.Tenant,
		Application: c.App,
		Env:         c.Env,
		ServiceName: c.ServiceLabel(),
		Image:       c.Image,
		Reviewers:   strings.Join(c.Reviewers, ", "),
		BaseFolder:  c.BaseFolder,
		Status:      status,
	}
}
