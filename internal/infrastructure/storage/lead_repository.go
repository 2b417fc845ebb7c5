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

var _ repository.LeadRepository = (*LeadRepositoryImpl)(nil)

// LeadRepositoryImpl is the bun-backed LeadRepository.
type LeadRepositoryImpl struct {
	db bun.IDB
}

// NewLeadRepository builds a LeadRepositoryImpl.
func NewLeadRepository(db bun.IDB) *LeadRepositoryImpl {
	return &LeadRepositoryImpl{db: db}
}

// Create persists a single lead.
func (r *LeadRepositoryImpl) Create(ctx context.Context, lead *domain.Lead) error {
	m := models.FromLeadDomain(lead)
	if _, err := r.db.NewInsert().Model(m).Exec(ctx); err != nil {
		return err
	}
	lead.ID = m.ID.String()
	lead.CreatedAt = m.CreatedAt
	lead.UpdatedAt = m.UpdatedAt
	return nil
}

// CreateBatch persists many leads in a single insert, used by the
// chunk-of-5 bulk admission path.
func (r *LeadRepositoryImpl) CreateBatch(ctx context.Context, leads []*domain.Lead) error {
	if len(leads) == 0 {
		return nil
	}
	rows := make([]*models.LeadModel, len(leads))
	for i, l := range leads {
		rows[i] = models.FromLeadDomain(l)
	}
	if _, err := r.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return err
	}
	for i, m := range rows {
		leads[i].ID = m.ID.String()
		leads[i].CreatedAt = m.CreatedAt
		leads[i].UpdatedAt = m.UpdatedAt
	}
	return nil
}

// Update persists the mutable (enriched) fields of a lead.
func (r *LeadRepositoryImpl) Update(ctx context.Context, lead *domain.Lead) error {
	id, err := uuid.Parse(lead.ID)
	if err != nil {
		return domain.ErrLeadNotFound
	}

	_, err = r.db.NewUpdate().
		Model((*models.LeadModel)(nil)).
		Set("first_name = ?", lead.FirstName).
		Set("last_name = ?", lead.LastName).
		Set("title = ?", lead.Title).
		Set("company = ?", lead.Company).
		Set("email = ?", lead.Email).
		Set("phone = ?", lead.Phone).
		Set("location = ?", lead.Location).
		Set("linkedin_id = ?", lead.LinkedInID).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// FindByID loads a lead by id.
func (r *LeadRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.Lead, error) {
	leadID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrLeadNotFound
	}

	m := new(models.LeadModel)
	if err := r.db.NewSelect().Model(m).Where("id = ?", leadID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLeadNotFound
		}
		return nil, err
	}
	return models.ToLeadDomain(m), nil
}

// FindByCampaign returns every lead belonging to a campaign.
func (r *LeadRepositoryImpl) FindByCampaign(ctx context.Context, campaignID string) ([]*domain.Lead, error) {
	id, err := uuid.Parse(campaignID)
	if err != nil {
		return nil, domain.ErrCampaignNotFound
	}

	var rows []*models.LeadModel
	if err := r.db.NewSelect().Model(&rows).Where("campaign_id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}

	out := make([]*domain.Lead, len(rows))
	for i, m := range rows {
		out[i] = models.ToLeadDomain(m)
	}
	return out, nil
}

// FindByProviderIdentifiers matches leads by either linkedin_id (set once a
// profile_visit enriches the lead) or public_identifier (known from
// admission), since the reply webhook's attendee_provider_id may be either
// depending on how far the lead has progressed.
func (r *LeadRepositoryImpl) FindByProviderIdentifiers(ctx context.Context, providerIDs []string) ([]*domain.Lead, error) {
	if len(providerIDs) == 0 {
		return nil, nil
	}

	var rows []*models.LeadModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("linkedin_id IN (?)", bun.In(providerIDs)).
		WhereOr("public_identifier IN (?)", bun.In(providerIDs)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Lead, len(rows))
	for i, m := range rows {
		out[i] = models.ToLeadDomain(m)
	}
	return out, nil
}
