package repository

import (
	"context"

	"github.com/campaignflow/engine/internal/domain"
)

// LeadRepository persists Lead rows.
type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) error
	CreateBatch(ctx context.Context, leads []*domain.Lead) error
	Update(ctx context.Context, lead *domain.Lead) error
	FindByID(ctx context.Context, id string) (*domain.Lead, error)

	// FindByCampaign returns every lead belonging to the campaign.
	FindByCampaign(ctx context.Context, campaignID string) ([]*domain.Lead, error)

	// FindByProviderIdentifiers returns every lead whose linkedin_id or
	// public_identifier matches one of the given provider ids, used by the
	// reply webhook to map attendee_provider_id values onto leads.
	FindByProviderIdentifiers(ctx context.Context, providerIDs []string) ([]*domain.Lead, error)
}
