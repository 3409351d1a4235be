package engine

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/Eun/merge-approved/pkg/merge-approved/common"
)

type EventKind string

const (
	SkipEvent   EventKind = "skip"
	MergedEvent EventKind = "merged"
	ErrorEvent  EventKind = "error"
)

// Event is what happened to a single pull request during a pass.
type Event struct {
	Kind        EventKind           `json:"kind"`
	PullRequest *common.PullRequest `json:"pull_request"`
	Reason      SkipReason          `json:"reason,omitempty"`
	Title       string              `json:"title,omitempty"`
	Summary     string              `json:"summary,omitempty"`
	Err         error               `json:"-"`
}

type Reporter interface {
	Report(ctx context.Context, event *Event) error
}

// Reporters reports to every reporter, even if one of them fails.
type Reporters []Reporter

func (r Reporters) Report(ctx context.Context, event *Event) error {
	var result *multierror.Error
	for _, reporter := range r {
		if err := reporter.Report(ctx, event); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

type LogReporter struct {
	Logger *zerolog.Logger
}

func (r *LogReporter) Report(_ context.Context, event *Event) error {
	logger := r.Logger.With().
		Int64("number", event.PullRequest.Number).
		Str("url", event.PullRequest.URL).
		Logger()
	switch event.Kind {
	case SkipEvent:
		logger.Info().Str("reason", string(event.Reason)).Str("summary", event.Summary).Msg(event.Title)
	case MergedEvent:
		logger.Info().Str("title", event.PullRequest.Title).Msg("merged pull request")
	case ErrorEvent:
		logger.Error().Err(event.Err).Msg("unable to process pull request")
	}
	return nil
}
