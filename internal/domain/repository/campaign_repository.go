// Package repository defines the persistence interfaces consumed by the
// application layer. Implementations live in internal/infrastructure/storage.
package repository

import (
	"context"

	"github.com/campaignflow/engine/internal/domain"
)

// CampaignRepository persists Campaign rows and their immutable workflow
// graph.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *domain.Campaign, workflow *domain.Workflow) error
	Update(ctx context.Context, campaign *domain.Campaign) error
	FindByID(ctx context.Context, id string) (*domain.Campaign, error)
	FindWorkflow(ctx context.Context, campaignID string) (*domain.Workflow, error)

	// FindSchedulable returns non-deleted campaigns in DRAFT or SCHEDULED
	// status whose start_date is non-null and has already passed.
	FindSchedulable(ctx context.Context, nowUnix int64) ([]*domain.Campaign, error)

	// FindInProgress returns every non-deleted IN_PROGRESS campaign.
	FindInProgress(ctx context.Context) ([]*domain.Campaign, error)
}
