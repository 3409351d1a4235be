package engine

import (
	"fmt"
	"strings"
)

type Action int

const (
	// Skip leaves the pull request alone for this pass.
	Skip Action = iota
	// ProceedToMerge means every gate passed.
	ProceedToMerge
	// NeedsApproval is returned by Evaluate when only the review gate is
	// unmet. The Escalator turns it into Skip or ProceedToMerge.
	NeedsApproval
)

func (a Action) String() string {
	switch a {
	case Skip:
		return "skip"
	case ProceedToMerge:
		return "proceed_to_merge"
	case NeedsApproval:
		return "needs_approval"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

type SkipReason string

const (
	NoWritePermission   SkipReason = "NO_WRITE_PERMISSION"
	ChecksNotSuccessful SkipReason = "CHECKS_NOT_SUCCESSFUL"
	NotMergeable        SkipReason = "NOT_MERGEABLE"
	AwaitingApproval    SkipReason = "AWAITING_APPROVAL"
)

// FailingCheck is a check run, status context or rollup that is not
// successful.
type FailingCheck struct {
	Name  string
	State string
	URL   string
}

type Outcome struct {
	Action  Action
	Reason  SkipReason
	Title   string
	Summary string

	FailingChecks []FailingCheck
}

func skip(reason SkipReason, title, summary string) *Outcome {
	return &Outcome{
		Action:  Skip,
		Reason:  reason,
		Title:   title,
		Summary: summary,
	}
}

func failingChecksSummary(checks []FailingCheck) string {
	lines := make([]string, len(checks))
	for i, check := range checks {
		state := check.State
		if state == "" {
			state = "PENDING"
		}
		lines[i] = fmt.Sprintf("check `%s` did not succeed (`%s`)", check.Name, state)
		if check.URL != "" {
			lines[i] += ": " + check.URL
		}
	}
	return strings.Join(lines, "\n")
}
