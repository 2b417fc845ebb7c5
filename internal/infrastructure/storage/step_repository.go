package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/campaignflow/engine/internal/domain"
	"github.com/campaignflow/engine/internal/domain/repository"
	"github.com/campaignflow/engine/internal/infrastructure/storage/models"
)

var _ repository.StepRepository = (*StepRepositoryImpl)(nil)

// StepRepositoryImpl is the bun-backed StepRepository.
type StepRepositoryImpl struct {
	db bun.IDB
}

// NewStepRepository builds a StepRepositoryImpl.
func NewStepRepository(db bun.IDB) *StepRepositoryImpl {
	return &StepRepositoryImpl{db: db}
}

// Create persists a single workflow step.
func (r *StepRepositoryImpl) Create(ctx context.Context, step *domain.WorkflowStep) error {
	m := models.FromStepDomain(step)
	if _, err := r.db.NewInsert().Model(m).Exec(ctx); err != nil {
		return err
	}
	step.ID = m.ID.String()
	step.CreatedAt = m.CreatedAt
	step.UpdatedAt = m.UpdatedAt
	return nil
}

// CreateBatch persists many steps in one insert — used both for admitting
// a lead's first step and for a step's successor set.
func (r *StepRepositoryImpl) CreateBatch(ctx context.Context, steps []*domain.WorkflowStep) error {
	if len(steps) == 0 {
		return nil
	}
	rows := make([]*models.WorkflowStepModel, len(steps))
	for i, s := range steps {
		rows[i] = models.FromStepDomain(s)
	}
	if _, err := r.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return err
	}
	for i, m := range rows {
		steps[i].ID = m.ID.String()
		steps[i].CreatedAt = m.CreatedAt
		steps[i].UpdatedAt = m.UpdatedAt
	}
	return nil
}

// Update persists the full mutable state of a step: status, retries,
// execute_after, last_try_at, raw_response.
func (r *StepRepositoryImpl) Update(ctx context.Context, step *domain.WorkflowStep) error {
	id, err := uuid.Parse(step.ID)
	if err != nil {
		return domain.ErrStepNotFound
	}
	raw := models.JSONBMap(step.RawResponse)

	_, err = r.db.NewUpdate().
		Model((*models.WorkflowStepModel)(nil)).
		Set("status = ?", string(step.Status)).
		Set("retries = ?", step.Retries).
		Set("execute_after = ?", step.ExecuteAfter).
		Set("last_try_at = ?", step.LastTryAt).
		Set("raw_response = ?", raw).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// FindByID loads a step by id.
func (r *StepRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.WorkflowStep, error) {
	stepID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrStepNotFound
	}

	m := new(models.WorkflowStepModel)
	if err := r.db.NewSelect().Model(m).Where("id = ?", stepID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrStepNotFound
		}
		return nil, err
	}
	return models.ToStepDomain(m), nil
}

// FindDue returns PENDING steps whose execute_after has arrived, oldest
// first, bounded by limit.
func (r *StepRepositoryImpl) FindDue(ctx context.Context, nowUnix int64, limit int) ([]*domain.WorkflowStep, error) {
	var rows []*models.WorkflowStepModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("workflow_type = ?", string(domain.CampaignWorkflow)).
		Where("status = ?", string(domain.StepPending)).
		Where("execute_after <= ?", nowUnix).
		Order("execute_after ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return toSteps(rows), nil
}

// FindLeadsWithSteps returns the subset of leadIDs that already have at
// least one CAMPAIGN_WORKFLOW step.
func (r *StepRepositoryImpl) FindLeadsWithSteps(ctx context.Context, leadIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(leadIDs))
	if len(leadIDs) == 0 {
		return out, nil
	}
	ids, err := parseUUIDs(leadIDs)
	if err != nil {
		return nil, err
	}

	var found []uuid.UUID
	err = r.db.NewSelect().
		Model((*models.WorkflowStepModel)(nil)).
		ColumnExpr("DISTINCT lead_id").
		Where("workflow_type = ?", string(domain.CampaignWorkflow)).
		Where("lead_id IN (?)", bun.In(ids)).
		Scan(ctx, &found)
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		out[id.String()] = true
	}
	return out, nil
}

// FindFailedByCampaign returns every FAILED CAMPAIGN_WORKFLOW step for a
// lead of the given campaign.
func (r *StepRepositoryImpl) FindFailedByCampaign(ctx context.Context, campaignID string) ([]*domain.WorkflowStep, error) {
	id, err := uuid.Parse(campaignID)
	if err != nil {
		return nil, domain.ErrCampaignNotFound
	}

	var rows []*models.WorkflowStepModel
	err = r.db.NewSelect().
		Model(&rows).
		Where("workflow_type = ?", string(domain.CampaignWorkflow)).
		Where("status = ?", string(domain.StepFailed)).
		Where("campaign_id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return toSteps(rows), nil
}

// DeferPendingConnectionRequests pushes execute_after out to at least
// minExecuteAfter for every PENDING send_connection_request step whose
// campaign uses accountID as its sender.
func (r *StepRepositoryImpl) DeferPendingConnectionRequests(ctx context.Context, accountID string, minExecuteAfter int64) error {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	_, err = r.db.NewUpdate().
		Model((*models.WorkflowStepModel)(nil)).
		Set("execute_after = GREATEST(execute_after, ?)", minExecuteAfter).
		Set("updated_at = ?", time.Now()).
		Where("status = ?", string(domain.StepPending)).
		Where("step_type = ?", string(domain.StepSendConnectionRequest)).
		Where("campaign_id IN (SELECT id FROM campaigns WHERE sender_account_id = ?)", id).
		Exec(ctx)
	return err
}

// MarkHasReplied sets raw_response.hasReplied = true on every PENDING
// check_message_reply step belonging to one of leadIDs, returning the
// number of steps updated.
func (r *StepRepositoryImpl) MarkHasReplied(ctx context.Context, leadIDs []string) (int, error) {
	if len(leadIDs) == 0 {
		return 0, nil
	}
	ids, err := parseUUIDs(leadIDs)
	if err != nil {
		return 0, err
	}

	res, err := r.db.NewUpdate().
		Model((*models.WorkflowStepModel)(nil)).
		Set("raw_response = jsonb_set(coalesce(raw_response, '{}'::jsonb), '{hasReplied}', 'true', true)").
		Set("updated_at = ?", time.Now()).
		Where("status = ?", string(domain.StepPending)).
		Where("step_type = ?", string(domain.StepCheckMessageReply)).
		Where("lead_id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func toSteps(rows []*models.WorkflowStepModel) []*domain.WorkflowStep {
	out := make([]*domain.WorkflowStep, len(rows))
	for i, m := range rows {
		out[i] = models.ToStepDomain(m)
	}
	return out
}

func parseUUIDs(ids []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, len(ids))
	for i, s := range ids {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}
