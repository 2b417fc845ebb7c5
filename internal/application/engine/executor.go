// Package engine implements the Step Executor: dispatch of a single pending
// workflow step by step kind, lead/campaign state updates, and the
// successor-planning handoff to the graph navigator.
package engine

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/campaignflow/engine/internal/application/graph"
	"github.com/campaignflow/engine/internal/application/observer"
	"github.com/campaignflow/engine/internal/application/provider"
	"github.com/campaignflow/engine/internal/application/ratelimit"
	"github.com/campaignflow/engine/internal/domain"
	"github.com/campaignflow/engine/internal/domain/repository"
	"github.com/campaignflow/engine/internal/infrastructure/logger"
)

const (
	defaultConnectionMessage = "Hi, I'd love to connect!"
	defaultFollowupMessage   = "Hi {{first_name}}, just following up on my previous message."
	defaultComment           = "Great post, {{first_name}}!"
	defaultRecentPostDays    = 7
	pollInterval             = time.Hour
	connectionCooldown       = 24 * time.Hour
)

// Dependencies are the collaborators the Step Executor needs; all are
// required except Observers, Composer, Logger and Now, which have usable
// defaults or are skipped when nil.
type Dependencies struct {
	Campaigns repository.CampaignRepository
	Leads     repository.LeadRepository
	Accounts  repository.AccountRepository
	Steps     repository.StepRepository
	Provider  provider.Client

	RateLimits ratelimit.Limits
	Observers  *observer.ObserverManager
	Composer   MessageComposer
	Logger     *logger.Logger
	Now        func() time.Time
}

// Executor dispatches and executes a single workflow step.
type Executor struct {
	deps Dependencies
}

// New builds an Executor, filling in defaults for optional dependencies.
func New(deps Dependencies) *Executor {
	if deps.Composer == nil {
		deps.Composer = StaticComposer{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Executor{deps: deps}
}

func (e *Executor) now() time.Time { return e.deps.Now() }

func (e *Executor) notify(ctx context.Context, evt observer.Event) {
	if e.deps.Observers == nil {
		return
	}
	evt.Timestamp = e.now()
	e.deps.Observers.Notify(ctx, evt)
}

// handleOutcome is what a per-kind dispatch handler returns.
type handleOutcome struct {
	result     map[string]any
	shouldPoll bool
	pollType   domain.StepType
	providerID string
}

// ExecuteStep runs one pending step to completion, failure, or deferral.
// It never returns an error for a step-local failure: those are recorded on
// the step itself so the tick can move on to the next one. It returns an
// error only when a row it needs cannot be loaded (step, lead, campaign,
// sender account, workflow) or when persisting the completed step or its
// successors fails.
func (e *Executor) ExecuteStep(ctx context.Context, stepID string) error {
	step, err := e.deps.Steps.FindByID(ctx, stepID)
	if err != nil {
		return fmt.Errorf("load step %s: %w", stepID, err)
	}

	lead, err := e.deps.Leads.FindByID(ctx, step.LeadID)
	if err != nil {
		return fmt.Errorf("load lead %s: %w", step.LeadID, err)
	}
	campaign, err := e.deps.Campaigns.FindByID(ctx, step.CampaignID)
	if err != nil {
		return fmt.Errorf("load campaign %s: %w", step.CampaignID, err)
	}

	// A paused campaign is the cancellation signal: return without
	// mutating the step so it stays PENDING and is retried later.
	if campaign.Status == domain.CampaignStatusPaused {
		return nil
	}

	account, err := e.deps.Accounts.FindByID(ctx, campaign.SenderAccountID)
	if err != nil {
		return fmt.Errorf("load sender account %s: %w", campaign.SenderAccountID, err)
	}

	workflow, err := e.deps.Campaigns.FindWorkflow(ctx, campaign.ID)
	if err != nil {
		return fmt.Errorf("load workflow for campaign %s: %w", campaign.ID, err)
	}
	idx := graph.BuildIndex(workflow)

	now := e.now()

	if step.StepType.IsPolling() {
		return e.executePoll(ctx, idx, step, lead, campaign, account, now)
	}

	node, ok := idx.Node(step.IDInWorkflow)
	if !ok {
		e.failStep(ctx, step, "Node not found in workflow", now)
		return nil
	}

	var out handleOutcome
	var deferred bool
	switch step.StepType {
	case domain.StepProfileVisit:
		out, err = e.handleProfileVisit(ctx, lead, account)
	case domain.StepSendConnectionRequest:
		out, deferred, err = e.handleSendConnectionRequest(ctx, step, lead, campaign, account, node, now)
	case domain.StepLikePost:
		out, err = e.handleLikePost(ctx, lead, account, node)
	case domain.StepCommentPost:
		out, err = e.handleCommentPost(ctx, lead, account, node)
	case domain.StepSendFollowup:
		out, err = e.handleSendFollowup(ctx, lead, account, node, now)
	case domain.StepWithdrawRequest:
		out, err = e.handleWithdrawRequest(ctx, lead, account)
	case domain.StepWebhook, domain.StepSendInmail:
		out = handleOutcome{result: map[string]any{}}
	default:
		err = fmt.Errorf("unhandled step type %q", step.StepType)
	}

	if deferred {
		return nil
	}

	if err != nil {
		e.handleStepError(ctx, step, account, err, now)
		return nil
	}

	step.MarkComplete(out.result, now)
	if err := e.deps.Steps.Update(ctx, step); err != nil {
		return fmt.Errorf("persist completed step %s: %w", step.ID, err)
	}
	e.notify(ctx, observer.Event{Type: observer.EventTypeStepCompleted, CampaignID: campaign.ID, LeadID: &lead.ID, StepID: &step.ID, Status: "complete"})

	planned := graph.PlanAfterRegular(idx, step, out.shouldPoll, out.pollType, out.providerID, now)
	return e.persistSuccessors(ctx, step, planned, now)
}

func (e *Executor) persistSuccessors(ctx context.Context, prev *domain.WorkflowStep, planned []graph.PlannedStep, now time.Time) error {
	if len(planned) == 0 {
		return nil
	}
	steps := make([]*domain.WorkflowStep, 0, len(planned))
	for _, p := range planned {
		steps = append(steps, &domain.WorkflowStep{
			OrganizationID: prev.OrganizationID,
			LeadID:         prev.LeadID,
			CampaignID:     prev.CampaignID,
			IDInWorkflow:   p.NodeID,
			StepIndex:      p.StepIndex,
			WorkflowType:   domain.CampaignWorkflow,
			StepType:       p.StepType,
			Status:         domain.StepPending,
			Retries:        p.Retries,
			ExecuteAfter:   p.ExecuteAfter,
			RawResponse:    p.RawResponse,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	if err := e.deps.Steps.CreateBatch(ctx, steps); err != nil {
		return fmt.Errorf("persist successor steps for lead %s: %w", prev.LeadID, err)
	}
	return nil
}

// handleStepError records a step failure and, for the one error code the
// engine reacts to specially, also applies the sender-wide cooldown.
func (e *Executor) handleStepError(ctx context.Context, step *domain.WorkflowStep, account *domain.ConnectedAccount, err error, now time.Time) {
	var provErr *domain.ProviderError
	if pe, ok := err.(*domain.ProviderError); ok {
		provErr = pe
	}

	if provErr != nil && provErr.Code == domain.ProviderErrCannotResendYet && step.StepType == domain.StepSendConnectionRequest {
		e.applyCooldown(ctx, account, now)
	}

	e.failStep(ctx, step, err.Error(), now)
}

func (e *Executor) failStep(ctx context.Context, step *domain.WorkflowStep, message string, now time.Time) {
	step.MarkFailed(message, now)
	if err := e.deps.Steps.Update(ctx, step); err != nil {
		if e.deps.Logger != nil {
			e.deps.Logger.Error("failed to persist failed step", "step_id", step.ID, "error", err)
		}
	}
	e.notify(ctx, observer.Event{Type: observer.EventTypeStepFailed, CampaignID: step.CampaignID, LeadID: &step.LeadID, StepID: &step.ID, Status: "failed", Error: fmt.Errorf("%s", message)})
}

// applyCooldown sets the sender-wide 24h block and defers every PENDING
// send_connection_request step for any lead on any campaign using this
// sender. Idempotent bulk operation.
func (e *Executor) applyCooldown(ctx context.Context, account *domain.ConnectedAccount, now time.Time) {
	blockedUntil := now.Add(connectionCooldown)
	blockedUntilMs := blockedUntil.UnixMilli()

	if err := e.deps.Accounts.ApplyConnectionRequestCooldown(ctx, account.ID, blockedUntilMs); err != nil {
		if e.deps.Logger != nil {
			e.deps.Logger.Error("failed to apply sender cooldown", "account_id", account.ID, "error", err)
		}
		return
	}
	if err := e.deps.Steps.DeferPendingConnectionRequests(ctx, account.ID, blockedUntilMs/1000); err != nil {
		if e.deps.Logger != nil {
			e.deps.Logger.Error("failed to defer pending connection requests", "account_id", account.ID, "error", err)
		}
	}
}

// pickRandomPost chooses uniformly at random among recent posts, or returns
// false if there are none.
func pickRandomPost(posts []provider.Post) (provider.Post, bool) {
	if len(posts) == 0 {
		return provider.Post{}, false
	}
	return posts[rand.Intn(len(posts))], true
}

func leadTemplateVars(lead *domain.Lead) map[string]string {
	return map[string]string{
		"first_name": lead.FirstName,
		"last_name":  lead.LastName,
		"company":    lead.Company,
	}
}
