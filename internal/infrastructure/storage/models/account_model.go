package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/campaignflow/engine/internal/domain"
)

// ConnectedAccountModel is the persistent row for a sender account.
type ConnectedAccountModel struct {
	bun.BaseModel `bun:"table:connected_accounts,alias:ca"`

	ID                uuid.UUID `bun:"id,pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	OrganizationID    uuid.UUID `bun:"organization_id,notnull,type:uuid" json:"organization_id"`
	Provider          string    `bun:"provider,notnull,default:'linkedin'" json:"provider"`
	ProviderAccountID string    `bun:"provider_account_id,notnull" json:"provider_account_id"`
	Status            string    `bun:"status,notnull,default:'active'" json:"status"`

	ConnectionRequestBlockedUntil *time.Time `bun:"connection_request_blocked_until" json:"connection_request_blocked_until,omitempty"`
	DailyUsage                    int        `bun:"daily_usage,notnull,default:0" json:"daily_usage"`
	UsageResetAt                  *time.Time `bun:"usage_reset_at" json:"usage_reset_at,omitempty"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// TableName returns the table name for ConnectedAccountModel.
func (ConnectedAccountModel) TableName() string { return "connected_accounts" }

// BeforeInsert sets defaults and timestamps.
func (a *ConnectedAccountModel) BeforeInsert(ctx context.Context) error {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Provider == "" {
		a.Provider = "linkedin"
	}
	if a.Status == "" {
		a.Status = string(domain.AccountStatusActive)
	}
	return nil
}

// BeforeUpdate refreshes the update timestamp.
func (a *ConnectedAccountModel) BeforeUpdate(ctx context.Context) error {
	a.UpdatedAt = time.Now()
	return nil
}

// ToAccountDomain converts a ConnectedAccountModel to the domain type.
func ToAccountDomain(m *ConnectedAccountModel) *domain.ConnectedAccount {
	if m == nil {
		return nil
	}
	return &domain.ConnectedAccount{
		ID:                            m.ID.String(),
		OrganizationID:                m.OrganizationID.String(),
		Provider:                      m.Provider,
		ProviderAccountID:             m.ProviderAccountID,
		Status:                        domain.AccountStatus(m.Status),
		ConnectionRequestBlockedUntil: m.ConnectionRequestBlockedUntil,
		DailyUsage:                    m.DailyUsage,
		UsageResetAt:                  m.UsageResetAt,
		CreatedAt:                     m.CreatedAt,
		UpdatedAt:                     m.UpdatedAt,
	}
}

// FromAccountDomain converts a domain ConnectedAccount to the storage model.
func FromAccountDomain(a *domain.ConnectedAccount) *ConnectedAccountModel {
	if a == nil {
		return nil
	}
	var id, orgID uuid.UUID
	if a.ID != "" {
		id = uuid.MustParse(a.ID)
	}
	if a.OrganizationID != "" {
		orgID = uuid.MustParse(a.OrganizationID)
	}
	return &ConnectedAccountModel{
		ID:                            id,
		OrganizationID:                orgID,
		Provider:                      a.Provider,
		ProviderAccountID:             a.ProviderAccountID,
		Status:                        string(a.Status),
		ConnectionRequestBlockedUntil: a.ConnectionRequestBlockedUntil,
		DailyUsage:                    a.DailyUsage,
		UsageResetAt:                  a.UsageResetAt,
		CreatedAt:                     a.CreatedAt,
		UpdatedAt:                     a.UpdatedAt,
	}
}
