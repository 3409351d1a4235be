package reporter

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/slack-go/slack"

	"github.com/Eun/merge-approved/pkg/merge-approved/engine"
)

const (
	colorMerged  = "good"
	colorSkipped = "#aaaaaa"
	colorFailed  = "danger"
)

// SlackReporter posts events to a slack incoming webhook. Skips are only
// posted when ReportSkips is set.
type SlackReporter struct {
	WebhookURL  string
	HTTPClient  *http.Client
	Repository  string
	ReportSkips bool
}

func (r *SlackReporter) Report(ctx context.Context, event *engine.Event) error {
	if event.Kind == engine.SkipEvent && !r.ReportSkips {
		return nil
	}
	msg := r.message(event)
	if err := slack.PostWebhookCustomHTTPContext(ctx, r.WebhookURL, r.httpClient(), msg); err != nil {
		return errors.Wrap(err, "unable to post slack message")
	}
	return nil
}

func (r *SlackReporter) httpClient() *http.Client {
	if r.HTTPClient == nil {
		return http.DefaultClient
	}
	return r.HTTPClient
}

func (r *SlackReporter) message(event *engine.Event) *slack.WebhookMessage {
	pr := event.PullRequest
	title := fmt.Sprintf("%s#%d %s", r.Repository, pr.Number, pr.Title)

	attachment := slack.Attachment{
		Title:     title,
		TitleLink: pr.URL,
	}
	var text string
	switch event.Kind {
	case engine.MergedEvent:
		text = fmt.Sprintf("merged <%s|#%d>", pr.URL, pr.Number)
		attachment.Color = colorMerged
		attachment.Text = "squash merged"
	case engine.SkipEvent:
		text = fmt.Sprintf("skipped <%s|#%d>: %s", pr.URL, pr.Number, event.Reason)
		attachment.Color = colorSkipped
		attachment.Text = event.Summary
	case engine.ErrorEvent:
		text = fmt.Sprintf("unable to process <%s|#%d>", pr.URL, pr.Number)
		attachment.Color = colorFailed
		attachment.Text = event.Summary
	}
	attachment.Fallback = text
	return &slack.WebhookMessage{
		Text:        text,
		Attachments: []slack.Attachment{attachment},
	}
}
