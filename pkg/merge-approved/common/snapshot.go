package common

type MergeableState string

const (
	Mergeable        MergeableState = "MERGEABLE"
	Conflicting      MergeableState = "CONFLICTING"
	UnknownMergeable MergeableState = "UNKNOWN"
)

// ReviewDecision is the aggregated reviewer verdict.
// An empty value means github did not report a decision (null).
type ReviewDecision string

const (
	Approved         ReviewDecision = "APPROVED"
	ChangesRequested ReviewDecision = "CHANGES_REQUESTED"
	ReviewRequired   ReviewDecision = "REVIEW_REQUIRED"
)

type CheckConclusion string

const (
	ConclusionSuccess        CheckConclusion = "SUCCESS"
	ConclusionNeutral        CheckConclusion = "NEUTRAL"
	ConclusionFailure        CheckConclusion = "FAILURE"
	ConclusionCancelled      CheckConclusion = "CANCELLED"
	ConclusionTimedOut       CheckConclusion = "TIMED_OUT"
	ConclusionActionRequired CheckConclusion = "ACTION_REQUIRED"
	ConclusionSkipped        CheckConclusion = "SKIPPED"
	ConclusionStale          CheckConclusion = "STALE"
	// ConclusionPending is used for check runs that have not finished yet.
	ConclusionPending CheckConclusion = ""
)

// StatusState is used for legacy commit status contexts and for the
// status check rollup.
type StatusState string

const (
	StateSuccess  StatusState = "SUCCESS"
	StatePending  StatusState = "PENDING"
	StateFailure  StatusState = "FAILURE"
	StateError    StatusState = "ERROR"
	StateExpected StatusState = "EXPECTED"
)

type CheckRun struct {
	Name       string
	Conclusion CheckConclusion
	Permalink  string
}

type StatusContext struct {
	Context     string
	State       StatusState
	TargetURL   string
	Description string
}

// StatusSnapshot is the state of one pull request at one point in time.
// It is used for a single decision and then discarded.
type StatusSnapshot struct {
	Mergeable        MergeableState
	ReviewDecision   ReviewDecision
	ViewerCanUpdate  bool
	ViewerDidAuthor  bool
	ViewerDidApprove bool
	LatestCommitID   string

	CheckRuns      []CheckRun
	StatusContexts []StatusContext

	// CombinedState is only set when the snapshot was fetched as a rollup.
	CombinedState *StatusState
}
