// Package githubdispatch sends repository_dispatch events to state
// repositories.
package githubdispatch

import (
	"context"
	"encoding/json"
	"fmt"

	gogithub "github.com/google/go-github/v68/github"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
)

const (
	// DefaultEventType is used when a group carries no event type.
	DefaultEventType = "dispatch-image"
	payloadVersion   = 4
)

// Payload is the client_payload of a dispatch event.
type Payload struct {
	Images  []domain.Candidate `json:"images"`
	Version int                `json:"version"`
}

// NewPayload builds the client payload for candidates.
func NewPayload(candidates []domain.Candidate) Payload {
	return Payload{Images: candidates, Version: payloadVersion}
}

// Adapter implements ports.DispatchPort through the GitHub API.
type Adapter struct {
	client       *gogithub.Client
	defaultOwner string
}

// New creates a dispatch adapter. A bare state repository name is resolved
// against defaultOwner.
func New(client *gogithub.Client, defaultOwner string) *Adapter {
	return &Adapter{client: client, defaultOwner: defaultOwner}
}

// Dispatch sends one event carrying every candidate to stateRepo.
func (a *Adapter) Dispatch(
	ctx context.Context,
	stateRepo, eventType string,
	candidates []domain.Candidate,
) (domain.DispatchResult, error) {
	repo, eventType, raw, err := prepare(stateRepo, eventType, a.defaultOwner, candidates)
	if err != nil {
		return domain.DispatchResult{}, err
	}

	_, _, err = a.client.Repositories.Dispatch(ctx, repo.Owner, repo.Repo, gogithub.DispatchRequestOptions{
		EventType:     eventType,
		ClientPayload: &raw,
	})
	if err != nil {
		return domain.DispatchResult{}, fmt.Errorf("sending %s event to %s: %w", eventType, repo.FullName(), err)
	}

	slogcontext.FromCtx(ctx).Info("dispatch event sent",
		"stateRepo", repo.FullName(), "eventType", eventType, "images", len(candidates))
	return result(repo, eventType, candidates), nil
}

// DryRun implements ports.DispatchPort by logging the event it would send.
type DryRun struct {
	defaultOwner string
}

// NewDryRun creates a dispatcher that sends nothing.
func NewDryRun(defaultOwner string) *DryRun {
	return &DryRun{defaultOwner: defaultOwner}
}

// Dispatch logs the event and payload without calling GitHub.
func (d *DryRun) Dispatch(
	ctx context.Context,
	stateRepo, eventType string,
	candidates []domain.Candidate,
) (domain.DispatchResult, error) {
	repo, eventType, raw, err := prepare(stateRepo, eventType, d.defaultOwner, candidates)
	if err != nil {
		return domain.DispatchResult{}, err
	}

	slogcontext.FromCtx(ctx).Info("dry run: dispatch event not sent",
		"stateRepo", repo.FullName(), "eventType", eventType, "payload", string(raw))
	return result(repo, eventType, candidates), nil
}

func prepare(
	stateRepo, eventType, defaultOwner string,
	candidates []domain.Candidate,
) (domain.RepoRef, string, json.RawMessage, error) {
	repo := domain.ParseRepoRef(stateRepo, defaultOwner)
	if repo.Owner == "" || repo.Repo == "" {
		return domain.RepoRef{}, "", nil, fmt.Errorf("invalid state repository %q", stateRepo)
	}
	if eventType == "" {
		eventType = DefaultEventType
	}

	raw, err := json.Marshal(NewPayload(candidates))
	if err != nil {
		return domain.RepoRef{}, "", nil, fmt.Errorf("encoding payload for %s: %w", repo.FullName(), err)
	}
	return repo, eventType, raw, nil
}

func result(repo domain.RepoRef, eventType string, candidates []domain.Candidate) domain.DispatchResult {
	images := make([]string, 0, len(candidates))
	for _, c := range candidates {
		images = append(images, c.Image)
	}
	return domain.DispatchResult{StateRepo: repo.FullName(), EventType: eventType, Images: images}
}
