package repository

import (
	"context"

	"github.com/campaignflow/engine/internal/domain"
)

// StepRepository persists WorkflowStep rows: the scheduler's ledger.
type StepRepository interface {
	Create(ctx context.Context, step *domain.WorkflowStep) error
	CreateBatch(ctx context.Context, steps []*domain.WorkflowStep) error
	Update(ctx context.Context, step *domain.WorkflowStep) error
	FindByID(ctx context.Context, id string) (*domain.WorkflowStep, error)

	// FindDue returns PENDING CAMPAIGN_WORKFLOW steps with execute_after
	// <= nowUnix, in store order (oldest first), for process-daily-leads.
	FindDue(ctx context.Context, nowUnix int64, limit int) ([]*domain.WorkflowStep, error)

	// FindLeadsWithSteps returns the set of lead ids that already have at
	// least one CAMPAIGN_WORKFLOW step, used by start-daily-leads to
	// compute the unstarted set.
	FindLeadsWithSteps(ctx context.Context, leadIDs []string) (map[string]bool, error)

	// FindFailedByCampaign returns FAILED CAMPAIGN_WORKFLOW steps for every
	// lead of the given campaign, for retry-failed-steps.
	FindFailedByCampaign(ctx context.Context, campaignID string) ([]*domain.WorkflowStep, error)

	// DeferPendingConnectionRequests pushes execute_after out to at least
	// minExecuteAfter for every PENDING send_connection_request step whose
	// lead's campaign uses the given sender account. Idempotent and bulk.
	DeferPendingConnectionRequests(ctx context.Context, accountID string, minExecuteAfter int64) error

	// MarkHasReplied sets raw_response.hasReplied = true on every PENDING
	// check_message_reply step belonging to one of the given lead ids.
	MarkHasReplied(ctx context.Context, leadIDs []string) (int, error)
}
