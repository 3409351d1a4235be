package engine

import (
	"golang.org/x/exp/slices"

	"github.com/Eun/merge-approved/pkg/merge-approved/common"
)

// CIPredicate decides which ci signals of a snapshot are not successful.
type CIPredicate interface {
	FailingChecks(snapshot *common.StatusSnapshot) []FailingCheck
}

// CIPredicateFor uses the rollup when the snapshot carries one and the
// individual check runs and status contexts otherwise.
func CIPredicateFor(snapshot *common.StatusSnapshot) CIPredicate {
	if snapshot.CombinedState != nil {
		return RollupPredicate{}
	}
	return DetailedPredicate{}
}

// RollupPredicate requires the precomputed rollup state to be SUCCESS.
type RollupPredicate struct{}

func (RollupPredicate) FailingChecks(snapshot *common.StatusSnapshot) []FailingCheck {
	state := common.StatusState("")
	if snapshot.CombinedState != nil {
		state = *snapshot.CombinedState
	}
	if state == common.StateSuccess {
		return nil
	}
	return []FailingCheck{{Name: "status check rollup", State: string(state)}}
}

var conclusionsThatAreSuccess = []common.CheckConclusion{common.ConclusionSuccess, common.ConclusionNeutral}

// DetailedPredicate combines check run conclusions and legacy status
// contexts. Pending check runs count as not successful.
type DetailedPredicate struct{}

func (DetailedPredicate) FailingChecks(snapshot *common.StatusSnapshot) []FailingCheck {
	var failing []FailingCheck
	for _, run := range snapshot.CheckRuns {
		if slices.Contains(conclusionsThatAreSuccess, run.Conclusion) {
			continue
		}
		failing = append(failing, FailingCheck{
			Name:  run.Name,
			State: string(run.Conclusion),
			URL:   run.Permalink,
		})
	}
	for _, status := range snapshot.StatusContexts {
		if status.State == common.StateSuccess {
			continue
		}
		failing = append(failing, FailingCheck{
			Name:  status.Context,
			State: string(status.State),
			URL:   status.TargetURL,
		})
	}
	return failing
}
