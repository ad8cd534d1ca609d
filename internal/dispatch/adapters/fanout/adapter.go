// Package fanout combines several reporters into one.
package fanout

import (
	"context"

	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
	"github.com/nathantilsley/state-dispatcher/internal/dispatch/ports"
)

// Reporter forwards every call to each wrapped reporter, in order.
type Reporter struct {
	reporters []ports.ReportingPort
}

// New creates a fan-out reporter. Nil reporters are ignored.
func New(reporters ...ports.ReportingPort) *Reporter {
	r := &Reporter{}
	for _, rep := range reporters {
		if rep != nil {
			r.reporters = append(r.reporters, rep)
		}
	}
	return r
}

func (r *Reporter) Notice(ctx context.Context, msg string) {
	for _, rep := range r.reporters {
		rep.Notice(ctx, msg)
	}
}

func (r *Reporter) Error(ctx context.Context, msg string) {
	for _, rep := range r.reporters {
		rep.Error(ctx, msg)
	}
}

func (r *Reporter) Failure(ctx context.Context, msg string) {
	for _, rep := range r.reporters {
		rep.Failure(ctx, msg)
	}
}

func (r *Reporter) Summary(ctx context.Context, heading string, rows []domain.SummaryRow) {
	for _, rep := range r.reporters {
		rep.Summary(ctx, heading, rows)
	}
}
