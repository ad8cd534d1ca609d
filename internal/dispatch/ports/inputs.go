package ports

import (
	"context"

	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
)

// DispatchUseCase is the driving port for a dispatch run.
type DispatchUseCase interface {
	Execute(ctx context.Context, req domain.RunRequest) ([]domain.DispatchResult, error)
}

// ValidateUseCase is the driving port for checking a manifest against the
// configuration without resolving images or dispatching.
type ValidateUseCase interface {
	Validate(ctx context.Context, req domain.RunRequest) ([]domain.Candidate, error)
}
