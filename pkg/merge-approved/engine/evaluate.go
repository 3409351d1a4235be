package engine

import (
	"fmt"

	"github.com/Eun/merge-approved/pkg/merge-approved/common"
)

// gate returns nil when the snapshot passes it.
type gate func(snapshot *common.StatusSnapshot) *Outcome

// Evaluate runs the gates in order and stops at the first one that is not
// passed. It never calls out and can be used with fabricated snapshots.
func Evaluate(snapshot *common.StatusSnapshot) Outcome {
	gates := []gate{
		permissionGate,
		ciGate(CIPredicateFor(snapshot)),
		mergeabilityGate,
		reviewGate,
	}
	for _, g := range gates {
		if outcome := g(snapshot); outcome != nil {
			if outcome.Title != "" {
				outcome.Title = "not merging: " + outcome.Title
			}
			return *outcome
		}
	}
	return Outcome{Action: ProceedToMerge}
}

func permissionGate(snapshot *common.StatusSnapshot) *Outcome {
	if snapshot.ViewerCanUpdate {
		return nil
	}
	return skip(NoWritePermission, "no write permission", "the acting user cannot update this pull request")
}

func ciGate(predicate CIPredicate) gate {
	return func(snapshot *common.StatusSnapshot) *Outcome {
		failing := predicate.FailingChecks(snapshot)
		if len(failing) == 0 {
			return nil
		}
		outcome := skip(ChecksNotSuccessful, "check(s) did not succeed", failingChecksSummary(failing))
		outcome.FailingChecks = failing
		return outcome
	}
}

func mergeabilityGate(snapshot *common.StatusSnapshot) *Outcome {
	if snapshot.Mergeable == common.Mergeable {
		return nil
	}
	state := snapshot.Mergeable
	if state == "" {
		state = common.UnknownMergeable
	}
	return skip(NotMergeable, "pull request is not mergeable", fmt.Sprintf("mergeable state is `%s`", state))
}

func reviewGate(snapshot *common.StatusSnapshot) *Outcome {
	if snapshot.ReviewDecision == common.Approved {
		return nil
	}
	return &Outcome{Action: NeedsApproval}
}
