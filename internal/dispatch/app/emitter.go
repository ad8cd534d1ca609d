package app

import (
	"context"
	"fmt"

	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
	"github.com/nathantilsley/state-dispatcher/internal/dispatch/ports"
)

// Emit sends one dispatch event per group, in group order, and stops at the
// first failure. Results of the events already sent are returned with the error.
func Emit(ctx context.Context, dispatcher ports.DispatchPort, groups []domain.DispatchGroup) ([]domain.DispatchResult, error) {
	results := make([]domain.DispatchResult, 0, len(groups))
	for _, g := range groups {
		res, err := dispatcher.Dispatch(ctx, g.StateRepo, g.EventType, g.Candidates)
		if err != nil {
			return results, fmt.Errorf("dispatching %d image(s) to %s with event %s: %w",
				len(g.Candidates), g.StateRepo, g.EventType, err)
		}
		results = append(results, res)
	}
	return results, nil
}
