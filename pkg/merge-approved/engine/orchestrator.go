package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sanity-io/litter"

	"github.com/Eun/merge-approved/pkg/merge-approved/common"
)

// Client is everything a pass needs from the hosting platform.
type Client interface {
	Approver
	ListOpenPullRequests(ctx context.Context, repository *common.Repository, filter common.PullRequestFilter) ([]common.PullRequest, error)
	GetStatusSnapshot(ctx context.Context, pr *common.PullRequest) (*common.StatusSnapshot, error)
	MergePullRequest(ctx context.Context, pr *common.PullRequest, opts common.MergeOptions) error
}

type State string

const (
	Fetched    State = "FETCHED"
	Evaluated  State = "EVALUATED"
	Escalating State = "ESCALATING"
	Skipped    State = "SKIPPED"
	Merged     State = "MERGED"
	Failed     State = "FAILED"
)

// Result is the final state of one pull request after a pass.
type Result struct {
	PullRequest common.PullRequest
	State       State
	Outcome     Outcome
	Err         error
}

type Summary struct {
	Repository string
	Results    []Result
}

func (s *Summary) Count(state State) int {
	n := 0
	for i := range s.Results {
		if s.Results[i].State == state {
			n++
		}
	}
	return n
}

// Err combines the errors of all failed pull requests.
func (s *Summary) Err() error {
	var result *multierror.Error
	for i := range s.Results {
		if s.Results[i].State == Failed {
			result = multierror.Append(result, errors.Wrapf(s.Results[i].Err, "#%d", s.Results[i].PullRequest.Number))
		}
	}
	return result.ErrorOrNil()
}

type Orchestrator struct {
	Client   Client
	Reporter Reporter
	Logger   *zerolog.Logger
}

// Run processes the open pull requests of the repository one after another
// in the order they were listed. Only a failure to list the pull requests
// is returned as error, failures of single pull requests end up in the
// Summary.
func (o *Orchestrator) Run(ctx context.Context, repository *common.Repository, filter common.PullRequestFilter) (*Summary, error) {
	logger := o.Logger.With().Str("repo", repository.FullName).Logger()

	pullRequests, err := o.Client.ListOpenPullRequests(ctx, repository, filter)
	if err != nil {
		return nil, newActionError(TransportError, 0, errors.Wrap(err, "unable to list open pull requests"))
	}
	logger.Debug().Int("count", len(pullRequests)).Str("author", filter.Author).Msg("listed open pull requests")

	summary := &Summary{
		Repository: repository.FullName,
		Results:    make([]Result, 0, len(pullRequests)),
	}
	for i := range pullRequests {
		result := o.process(ctx, &logger, &pullRequests[i])
		summary.Results = append(summary.Results, result)
	}
	return summary, nil
}

func (o *Orchestrator) process(ctx context.Context, rootLogger *zerolog.Logger, pr *common.PullRequest) Result {
	logger := rootLogger.With().Int64("number", pr.Number).Logger()
	result := Result{PullRequest: *pr}

	snapshot, err := o.Client.GetStatusSnapshot(ctx, pr)
	if err != nil {
		return o.fail(ctx, &logger, &result, newActionError(TransportError, pr.Number, err))
	}
	o.transition(&logger, &result, Fetched)
	if logger.GetLevel() == zerolog.TraceLevel {
		logger.Trace().Str("snapshot", litter.Sdump(snapshot)).Msg("status snapshot")
	}

	result.Outcome = Evaluate(snapshot)
	o.transition(&logger, &result, Evaluated)

	if result.Outcome.Action == NeedsApproval {
		o.transition(&logger, &result, Escalating)
		escalator := Escalator{Approver: o.Client}
		result.Outcome, err = escalator.Escalate(ctx, &logger, pr, snapshot)
		if err != nil {
			return o.fail(ctx, &logger, &result, err)
		}
	}

	if result.Outcome.Action != ProceedToMerge {
		o.transition(&logger, &result, Skipped)
		o.report(ctx, &logger, &Event{
			Kind:        SkipEvent,
			PullRequest: pr,
			Reason:      result.Outcome.Reason,
			Title:       result.Outcome.Title,
			Summary:     result.Outcome.Summary,
		})
		return result
	}

	logger.Info().Msg("merging pull request")
	err = o.Client.MergePullRequest(ctx, pr, common.MergeOptions{
		CommitTitle: pr.Title,
		Method:      common.SquashMergeMethod,
	})
	if err != nil {
		return o.fail(ctx, &logger, &result, newActionError(MergeActionFailed, pr.Number, err))
	}
	o.transition(&logger, &result, Merged)
	o.report(ctx, &logger, &Event{Kind: MergedEvent, PullRequest: pr})
	return result
}

func (o *Orchestrator) transition(logger *zerolog.Logger, result *Result, state State) {
	logger.Debug().Str("from", string(result.State)).Str("to", string(state)).Msg("state changed")
	result.State = state
}

func (o *Orchestrator) fail(ctx context.Context, logger *zerolog.Logger, result *Result, err error) Result {
	o.transition(logger, result, Failed)
	result.Err = err
	o.report(ctx, logger, &Event{
		Kind:        ErrorEvent,
		PullRequest: &result.PullRequest,
		Summary:     err.Error(),
		Err:         err,
	})
	return *result
}

func (o *Orchestrator) report(ctx context.Context, logger *zerolog.Logger, event *Event) {
	if o.Reporter == nil {
		return
	}
	if err := o.Reporter.Report(ctx, event); err != nil {
		logger.Warn().Err(err).Str("event", string(event.Kind)).Msg("unable to report")
	}
}

func (r *Result) String() string {
	name := fmt.Sprintf("#%d", r.PullRequest.Number)
	if r.PullRequest.Title != "" {
		name += " " + r.PullRequest.Title
	}
	switch r.State {
	case Skipped:
		return fmt.Sprintf("%s: skipped (%s)", name, r.Outcome.Reason)
	case Failed:
		return fmt.Sprintf("%s: failed: %s", name, r.Err)
	default:
		return fmt.Sprintf("%s: %s", name, strings.ToLower(string(r.State)))
	}
}
