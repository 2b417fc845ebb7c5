package graph

import (
	"time"

	"github.com/campaignflow/engine/internal/domain"
)

// NextStepInfo is the denormalized successor plan a polling step carries in
// its raw_response, so a poll completion never needs to re-read the
// workflow JSON to decide its branch.
type NextStepInfo struct {
	NodeID          string                    `json:"nodeId"`
	EdgeID          string                    `json:"edgeId"`
	ConditionalType domain.ConditionalOutcome `json:"conditionalType,omitempty"`
	DelayMillis     int64                     `json:"delayMs"`
}

// PlannedStep is one successor the caller (the step executor) must persist
// as a new domain.WorkflowStep.
type PlannedStep struct {
	NodeID       string
	StepType     domain.StepType
	ExecuteAfter int64 // Unix seconds
	StepIndex    int
	Retries      int
	RawResponse  map[string]any
}

// PollOutcome is what the step executor observed when it ran a polling
// step, used to decide the branch.
type PollOutcome struct {
	ShouldContinuePolling bool
	HasTimedOut           bool
	IsConnected           bool
	HasReplied            bool
}

// nextStepInfosFor builds the raw_response.nextSteps payload for every
// outgoing edge of nodeID, for embedding in a newly-created polling step.
func nextStepInfosFor(idx *Index, nodeID string) []NextStepInfo {
	outs := idx.Outgoing(nodeID)
	infos := make([]NextStepInfo, 0, len(outs))
	for _, s := range outs {
		info := NextStepInfo{
			NodeID:      s.Edge.Target,
			EdgeID:      s.Edge.ID,
			DelayMillis: s.DelayMillis,
		}
		if s.IsConditional {
			info.ConditionalType = s.Conditional
		}
		infos = append(infos, info)
	}
	return infos
}

// PlanAfterRegular computes the successor(s) to a just-completed
// non-polling step. If the step set shouldPoll, exactly one polling step is
// scheduled at the same node; otherwise one PENDING successor per outgoing
// edge is scheduled (non-conditional fan-out, per spec.md §9's open
// question). An empty outgoing set terminates the lead.
func PlanAfterRegular(idx *Index, prev *domain.WorkflowStep, shouldPoll bool, pollType domain.StepType, providerID string, now time.Time) []PlannedStep {
	nextSteps := nextStepInfosFor(idx, prev.IDInWorkflow)
	if len(nextSteps) == 0 {
		return nil
	}

	if shouldPoll {
		raw := map[string]any{
			"providerId":       providerID,
			"pollingStartedAt": now.Unix(),
			"nextSteps":        nextSteps,
		}
		return []PlannedStep{{
			NodeID:       prev.IDInWorkflow,
			StepType:     pollType,
			ExecuteAfter: now.Add(time.Hour).Unix(),
			StepIndex:    prev.StepIndex + 1,
			Retries:      0,
			RawResponse:  raw,
		}}
	}

	outs := idx.Outgoing(prev.IDInWorkflow)
	planned := make([]PlannedStep, 0, len(outs))
	for _, s := range outs {
		planned = append(planned, PlannedStep{
			NodeID:       s.Edge.Target,
			StepType:     s.TargetNode.Data.Type,
			ExecuteAfter: now.Add(time.Duration(s.DelayMillis) * time.Millisecond).Unix(),
			StepIndex:    prev.StepIndex + 1,
			Retries:      0,
		})
	}
	return planned
}

// PlanAfterPolling computes the successor(s) to a just-completed polling
// step. A nil return means the lead's branch terminates cleanly: either the
// "reply terminates branch" rule applied or no conditional edge matches the
// outcome.
func PlanAfterPolling(idx *Index, prev *domain.WorkflowStep, outcome PollOutcome, now time.Time) []PlannedStep {
	if outcome.ShouldContinuePolling {
		raw := copyRawResponse(prev.RawResponse)
		return []PlannedStep{{
			NodeID:       prev.IDInWorkflow,
			StepType:     prev.StepType,
			ExecuteAfter: now.Add(time.Hour).Unix(),
			StepIndex:    prev.StepIndex, // same polling step, not a new hop
			Retries:      prev.Retries + 1,
			RawResponse:  raw,
		}}
	}

	if prev.StepType == domain.StepCheckMessageReply && outcome.HasReplied {
		return nil
	}

	outcomeKind := domain.OutcomeNotAccepted
	if outcome.IsConnected || outcome.HasReplied {
		outcomeKind = domain.OutcomeAccepted
	}

	target, ok := idx.MatchConditional(prev.IDInWorkflow, outcomeKind)
	if !ok {
		return nil
	}

	return []PlannedStep{{
		NodeID:       target.Edge.Target,
		StepType:     target.TargetNode.Data.Type,
		ExecuteAfter: now.Unix(),
		StepIndex:    prev.StepIndex + 1,
		Retries:      0,
	}}
}

func copyRawResponse(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
