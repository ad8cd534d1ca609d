// Package slackout posts run failures and dispatch digests to a Slack
// incoming webhook.
package slackout

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
)

const (
	darkRedColor   = "#8B0000"
	lightBlueColor = "#36a3eb"
)

// Adapter implements ports.ReportingPort. Notices and per-image errors stay
// on the runner; only run-level events are posted.
type Adapter struct {
	webhookURL string
	source     string
}

// New creates a Slack reporter. source names the repository in messages.
func New(webhookURL, source string) *Adapter {
	return &Adapter{webhookURL: webhookURL, source: source}
}

// Notice is not forwarded to Slack.
func (a *Adapter) Notice(context.Context, string) {}

// Error is not forwarded to Slack; the run failure that follows is.
func (a *Adapter) Error(context.Context, string) {}

// Failure posts the run failure.
func (a *Adapter) Failure(ctx context.Context, msg string) {
	a.post(ctx, &slack.WebhookMessage{
		Text: fmt.Sprintf("Dispatch run failed for %s", a.source),
		Attachments: []slack.Attachment{{
			Color: darkRedColor,
			Blocks: slack.Blocks{BlockSet: []slack.Block{
				slack.NewSectionBlock(
					slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("Error: %s", msg), false, false),
					nil, nil,
				),
			}},
		}},
	})
}

// Summary posts one line per row. Runs that touched no candidate are not posted.
func (a *Adapter) Summary(ctx context.Context, heading string, rows []domain.SummaryRow) {
	if len(rows) == 0 {
		return
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, heading, false, false)),
	}
	for _, r := range rows {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, formatRow(r), false, false),
			nil, nil,
		))
	}

	a.post(ctx, &slack.WebhookMessage{
		Text: fmt.Sprintf("%s for %s: %s", heading, a.source, digest(rows)),
		Attachments: []slack.Attachment{{
			Color:  lightBlueColor,
			Blocks: slack.Blocks{BlockSet: blocks},
		}},
	})
}

func (a *Adapter) post(ctx context.Context, msg *slack.WebhookMessage) {
	if err := slack.PostWebhookContext(ctx, a.webhookURL, msg); err != nil {
		slogcontext.FromCtx(ctx).Error("failed to post slack message", "error", err)
	}
}

func formatRow(r domain.SummaryRow) string {
	return fmt.Sprintf("*%s* `%s` → %s\n%s/%s on %s",
		r.Status, r.Image, r.StateRepo, r.Tenant, r.Env, r.ServiceName)
}

// digest counts rows per status, e.g. "2 dispatching, 1 skipped".
func digest(rows []domain.SummaryRow) string {
	var dispatching, skipped, failed int
	for _, r := range rows {
		switch {
		case strings.HasPrefix(r.Status, domain.StatusDispatching):
			dispatching++
		case strings.HasPrefix(r.Status, domain.StatusSkipped):
			skipped++
		case strings.HasPrefix(r.Status, domain.StatusError):
			failed++
		}
	}

	parts := []string{fmt.Sprintf("%d dispatching", dispatching)}
	if skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", skipped))
	}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", failed))
	}
	return strings.Join(parts, ", ")
}
