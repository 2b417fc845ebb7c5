package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/campaignflow/engine/internal/application/graph"
	"github.com/campaignflow/engine/internal/application/observer"
	"github.com/campaignflow/engine/internal/domain"
)

// executePoll implements the check_connection_status / check_message_reply
// dispatch: read the denormalized graph-decision context out of the step's
// raw_response, observe the outcome, then hand off to the successor
// planner. raw_response round-trips through JSON storage, so every field is
// read tolerant of both native Go values (same-tick) and the generic
// map[string]any/[]any/float64 shapes json.Unmarshal produces.
func (e *Executor) executePoll(ctx context.Context, idx *graph.Index, step *domain.WorkflowStep, lead *domain.Lead, campaign *domain.Campaign, account *domain.ConnectedAccount, now time.Time) error {
	raw := step.RawResponse
	providerID := rawString(raw, "providerId")
	pollingStartedAt := rawInt64(raw, "pollingStartedAt")
	nextSteps := rawNextSteps(raw)

	timeoutMillis := int64(0)
	for _, ns := range nextSteps {
		if ns.ConditionalType == domain.OutcomeAccepted {
			timeoutMillis = ns.DelayMillis
			break
		}
	}
	elapsedMillis := (now.Unix() - pollingStartedAt) * 1000
	hasTimedOut := elapsedMillis > timeoutMillis

	var isConnected, hasReplied bool
	var pollErr error
	switch step.StepType {
	case domain.StepCheckConnectionStatus:
		isConnected, pollErr = e.deps.Provider.IsConnected(ctx, account.ID, providerID)
	case domain.StepCheckMessageReply:
		hasReplied = rawBool(raw, "hasReplied")
	default:
		pollErr = fmt.Errorf("unhandled polling step type %q", step.StepType)
	}
	if pollErr != nil {
		e.handleStepError(ctx, step, account, pollErr, now)
		return nil
	}

	var shouldContinuePolling bool
	switch step.StepType {
	case domain.StepCheckConnectionStatus:
		shouldContinuePolling = !isConnected && !hasTimedOut
	case domain.StepCheckMessageReply:
		shouldContinuePolling = !hasReplied && !hasTimedOut
	}

	result := map[string]any{
		"isConnected":           isConnected,
		"hasReplied":            hasReplied,
		"providerId":            providerID,
		"nextSteps":             nextSteps,
		"pollingStartedAt":      pollingStartedAt,
		"shouldContinuePolling": shouldContinuePolling,
		"hasTimedOut":           hasTimedOut,
	}
	step.MarkComplete(result, now)
	if err := e.deps.Steps.Update(ctx, step); err != nil {
		return fmt.Errorf("persist completed polling step %s: %w", step.ID, err)
	}
	e.notify(ctx, observer.Event{Type: observer.EventTypeStepCompleted, CampaignID: campaign.ID, LeadID: &lead.ID, StepID: &step.ID, Status: "complete"})

	planned := graph.PlanAfterPolling(idx, step, graph.PollOutcome{
		ShouldContinuePolling: shouldContinuePolling,
		HasTimedOut:           hasTimedOut,
		IsConnected:           isConnected,
		HasReplied:            hasReplied,
	}, now)
	return e.persistSuccessors(ctx, step, planned, now)
}

func rawString(raw map[string]any, key string) string {
	if raw == nil {
		return ""
	}
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

func rawBool(raw map[string]any, key string) bool {
	if raw == nil {
		return false
	}
	if v, ok := raw[key].(bool); ok {
		return v
	}
	return false
}

func rawInt64(raw map[string]any, key string) int64 {
	if raw == nil {
		return 0
	}
	switch v := raw[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// rawNextSteps tolerates both the native []graph.NextStepInfo written in the
// same tick the polling step was scheduled, and the []any of
// map[string]any a JSON storage round trip produces.
func rawNextSteps(raw map[string]any) []graph.NextStepInfo {
	if raw == nil {
		return nil
	}
	switch v := raw["nextSteps"].(type) {
	case []graph.NextStepInfo:
		return v
	case []any:
		out := make([]graph.NextStepInfo, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, graph.NextStepInfo{
				NodeID:          rawString(m, "nodeId"),
				EdgeID:          rawString(m, "edgeId"),
				ConditionalType: domain.ConditionalOutcome(rawString(m, "conditionalType")),
				DelayMillis:     rawInt64(m, "delayMs"),
			})
		}
		return out
	default:
		return nil
	}
}
