package engine

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Eun/merge-approved/pkg/merge-approved/common"
)

type Approver interface {
	SubmitApproval(ctx context.Context, pr *common.PullRequest, commitID string) error
	GetReviewDecision(ctx context.Context, pr *common.PullRequest) (common.ReviewDecision, error)
}

// Escalator approves pull requests on behalf of the acting identity when
// the review gate is the only one left.
type Escalator struct {
	Approver Approver
}

// Escalate issues at most one approval and then re-reads the review
// decision. The snapshot is not consulted for the decision afterwards.
func (e *Escalator) Escalate(
	ctx context.Context,
	logger *zerolog.Logger,
	pr *common.PullRequest,
	snapshot *common.StatusSnapshot,
) (Outcome, error) {
	if snapshot.ViewerDidAuthor {
		return *skip(AwaitingApproval, "not merging: awaiting approval", "pull request was authored by the acting identity"), nil
	}
	if snapshot.ViewerDidApprove {
		return *skip(AwaitingApproval, "not merging: awaiting approval", "pull request was already approved by the acting identity"), nil
	}

	logger.Info().Str("commit", snapshot.LatestCommitID).Msg("approving pull request")
	if err := e.Approver.SubmitApproval(ctx, pr, snapshot.LatestCommitID); err != nil {
		return Outcome{}, newActionError(ApprovalActionFailed, pr.Number, err)
	}

	decision, err := e.Approver.GetReviewDecision(ctx, pr)
	if err != nil {
		return Outcome{}, newActionError(TransportError, pr.Number, err)
	}
	if decision != common.Approved {
		logger.Debug().Str("review_decision", string(decision)).Msg("pull request is still not approved")
		return *skip(AwaitingApproval, "not merging: awaiting approval", "review decision is `"+reviewDecisionString(decision)+"` after approving"), nil
	}
	return Outcome{Action: ProceedToMerge}, nil
}

func reviewDecisionString(decision common.ReviewDecision) string {
	if decision == "" {
		return "null"
	}
	return string(decision)
}
