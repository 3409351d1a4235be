package worker

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Eun/merge-approved/pkg/merge-approved/common"
	"github.com/Eun/merge-approved/pkg/merge-approved/engine"
	"github.com/Eun/merge-approved/pkg/merge-approved/reporter"
)

// runLogic runs one pass over the open pull requests of the repository.
// Failures of single pull requests are reported but do not fail the
// message.
func (worker *Worker) runLogic(rootLogger *zerolog.Logger, msg *common.QueueRepositoryMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), worker.MaxDurationForRepositoryWorker)
	defer cancel()
	logger := rootLogger.With().
		Str("entry", "repository").
		Str("event", msg.Event).
		Str("repo", msg.Repository.FullName).
		Logger()

	sess, err := worker.getSession(ctx, &logger, &msg.BaseMessage)
	if err != nil {
		return errors.WithStack(err)
	}
	if sess == nil {
		return nil
	}

	orchestrator := engine.Orchestrator{
		Client:   sess.Client,
		Reporter: worker.reporters(&logger, sess.Repository),
		Logger:   &logger,
	}
	summary, err := orchestrator.Run(ctx, sess.Repository, sess.Config.Filter())
	if err != nil {
		return errors.Wrap(err, "unable to run pass")
	}

	logger.Info().
		Int("merged", summary.Count(engine.Merged)).
		Int("skipped", summary.Count(engine.Skipped)).
		Int("failed", summary.Count(engine.Failed)).
		Msg("pass finished")
	if err := summary.Err(); err != nil {
		logger.Warn().Err(err).Msg("some pull requests failed")
	}
	return nil
}

func (worker *Worker) reporters(logger *zerolog.Logger, repository *common.Repository) engine.Reporter {
	reporters := engine.Reporters{&engine.LogReporter{Logger: logger}}
	if worker.ReportSubject != "" && worker.JetStreamContext != nil {
		reporters = append(reporters, &reporter.JetStreamReporter{
			JetStreamContext: worker.JetStreamContext,
			Subject:          worker.ReportSubject,
			Repository:       repository.FullName,
		})
	}
	if worker.SlackWebhookURL != "" {
		reporters = append(reporters, &reporter.SlackReporter{
			WebhookURL:  worker.SlackWebhookURL,
			HTTPClient:  worker.HTTPClient,
			Repository:  repository.FullName,
			ReportSkips: worker.SlackReportSkips,
		})
	}
	return reporters
}
