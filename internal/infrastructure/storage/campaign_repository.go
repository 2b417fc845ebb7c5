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

var _ repository.CampaignRepository = (*CampaignRepositoryImpl)(nil)

// CampaignRepositoryImpl is the bun-backed CampaignRepository.
type CampaignRepositoryImpl struct {
	db bun.IDB
}

// NewCampaignRepository builds a CampaignRepositoryImpl.
func NewCampaignRepository(db bun.IDB) *CampaignRepositoryImpl {
	return &CampaignRepositoryImpl{db: db}
}

// Create persists a new campaign together with its immutable workflow JSON
// in a single row insert.
func (r *CampaignRepositoryImpl) Create(ctx context.Context, campaign *domain.Campaign, workflow *domain.Workflow) error {
	campaignModel := models.FromCampaignDomain(campaign)
	workflowJSON, err := models.FromWorkflowDomain(workflow)
	if err != nil {
		return err
	}
	campaignModel.WorkflowJSON = workflowJSON

	if _, err := r.db.NewInsert().Model(campaignModel).Exec(ctx); err != nil {
		return err
	}

	campaign.ID = campaignModel.ID.String()
	campaign.CreatedAt = campaignModel.CreatedAt
	campaign.UpdatedAt = campaignModel.UpdatedAt
	campaign.LastDailyReset = campaignModel.LastDailyReset
	campaign.LastWeeklyReset = campaignModel.LastWeeklyReset
	return nil
}

// Update persists the mutable fields of a campaign (status, counters,
// cooldown bookkeeping). The workflow JSON is write-once and never updated.
func (r *CampaignRepositoryImpl) Update(ctx context.Context, campaign *domain.Campaign) error {
	id, err := uuid.Parse(campaign.ID)
	if err != nil {
		return domain.ErrCampaignNotFound
	}

	_, err = r.db.NewUpdate().
		Model((*models.CampaignModel)(nil)).
		Set("status = ?", string(campaign.Status)).
		Set("start_date = ?", campaign.StartDate).
		Set("leads_per_day = ?", campaign.LeadsPerDay).
		Set("requests_sent_today = ?", campaign.RequestsSentToday).
		Set("requests_sent_week = ?", campaign.RequestsSentWeek).
		Set("last_daily_reset = ?", campaign.LastDailyReset).
		Set("last_weekly_reset = ?", campaign.LastWeeklyReset).
		Set("is_deleted = ?", campaign.IsDeleted).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// FindByID loads a campaign by id.
func (r *CampaignRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.Campaign, error) {
	campaignID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrCampaignNotFound
	}

	m := new(models.CampaignModel)
	if err := r.db.NewSelect().Model(m).Where("id = ?", campaignID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCampaignNotFound
		}
		return nil, err
	}
	return models.ToCampaignDomain(m), nil
}

// FindWorkflow loads and decodes the campaign's immutable workflow JSON.
func (r *CampaignRepositoryImpl) FindWorkflow(ctx context.Context, campaignID string) (*domain.Workflow, error) {
	id, err := uuid.Parse(campaignID)
	if err != nil {
		return nil, domain.ErrCampaignNotFound
	}

	m := new(models.CampaignModel)
	if err := r.db.NewSelect().Model(m).Column("workflow_json").Where("id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCampaignNotFound
		}
		return nil, err
	}
	return models.ToWorkflowDomain(m)
}

// FindSchedulable returns every DRAFT/SCHEDULED, non-deleted campaign whose
// start_date has arrived, for the check-scheduled-campaigns tick.
func (r *CampaignRepositoryImpl) FindSchedulable(ctx context.Context, nowUnix int64) ([]*domain.Campaign, error) {
	var rows []*models.CampaignModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("is_deleted = false").
		Where("status IN (?)", bun.In([]string{string(domain.CampaignStatusDraft), string(domain.CampaignStatusScheduled)})).
		Where("start_date IS NOT NULL AND start_date <= ?", time.Unix(nowUnix, 0).UTC()).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return toCampaigns(rows), nil
}

// FindInProgress returns every IN_PROGRESS campaign, for the
// process-daily-leads and retry-failed-steps ticks.
func (r *CampaignRepositoryImpl) FindInProgress(ctx context.Context) ([]*domain.Campaign, error) {
	var rows []*models.CampaignModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("is_deleted = false").
		Where("status = ?", string(domain.CampaignStatusInProgress)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return toCampaigns(rows), nil
}

func toCampaigns(rows []*models.CampaignModel) []*domain.Campaign {
	out := make([]*domain.Campaign, len(rows))
	for i, m := range rows {
		out[i] = models.ToCampaignDomain(m)
	}
	return out
}
