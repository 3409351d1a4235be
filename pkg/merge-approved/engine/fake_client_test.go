package engine

import (
	"context"

	"github.com/Eun/merge-approved/pkg/merge-approved/common"
)

type mergeCall struct {
	Number int64
	Opts   common.MergeOptions
}

type approvalCall struct {
	Number   int64
	CommitID string
}

type fakeClient struct {
	PullRequests []common.PullRequest
	ListErr      error
	Snapshots    map[int64]*common.StatusSnapshot
	SnapshotErr  map[int64]error
	// Decisions is returned by GetReviewDecision after an approval.
	Decisions   map[int64]common.ReviewDecision
	DecisionErr error
	ApprovalErr map[int64]error
	MergeErr    map[int64]error

	Approvals []approvalCall
	Merges    []mergeCall
	Calls     []string
}

func (f *fakeClient) ListOpenPullRequests(_ context.Context, _ *common.Repository, filter common.PullRequestFilter) ([]common.PullRequest, error) {
	f.Calls = append(f.Calls, "list")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	var result []common.PullRequest
	for _, pr := range f.PullRequests {
		if filter.Author != "" && pr.Author != filter.Author {
			continue
		}
		result = append(result, pr)
	}
	return result, nil
}

func (f *fakeClient) GetStatusSnapshot(_ context.Context, pr *common.PullRequest) (*common.StatusSnapshot, error) {
	f.Calls = append(f.Calls, "snapshot")
	if err := f.SnapshotErr[pr.Number]; err != nil {
		return nil, err
	}
	return f.Snapshots[pr.Number], nil
}

func (f *fakeClient) GetReviewDecision(_ context.Context, pr *common.PullRequest) (common.ReviewDecision, error) {
	f.Calls = append(f.Calls, "review_decision")
	if f.DecisionErr != nil {
		return "", f.DecisionErr
	}
	return f.Decisions[pr.Number], nil
}

func (f *fakeClient) SubmitApproval(_ context.Context, pr *common.PullRequest, commitID string) error {
	f.Calls = append(f.Calls, "approve")
	f.Approvals = append(f.Approvals, approvalCall{Number: pr.Number, CommitID: commitID})
	return f.ApprovalErr[pr.Number]
}

func (f *fakeClient) MergePullRequest(_ context.Context, pr *common.PullRequest, opts common.MergeOptions) error {
	f.Calls = append(f.Calls, "merge")
	f.Merges = append(f.Merges, mergeCall{Number: pr.Number, Opts: opts})
	return f.MergeErr[pr.Number]
}

type recordingReporter struct {
	Events []Event
	Err    error
}

func (r *recordingReporter) Report(_ context.Context, event *Event) error {
	r.Events = append(r.Events, *event)
	return r.Err
}

// mergeableSnapshot passes every gate except the review gate.
func mergeableSnapshot() *common.StatusSnapshot {
	return &common.StatusSnapshot{
		Mergeable:       common.Mergeable,
		ReviewDecision:  common.ReviewRequired,
		ViewerCanUpdate: true,
		LatestCommitID:  "abc123",
		CheckRuns: []common.CheckRun{
			{Name: "ci", Conclusion: common.ConclusionSuccess},
			{Name: "lint", Conclusion: common.ConclusionNeutral},
		},
	}
}

func statePtr(state common.StatusState) *common.StatusState {
	return &state
}
