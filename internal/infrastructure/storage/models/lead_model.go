package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/campaignflow/engine/internal/domain"
)

// LeadModel is the persistent row for a campaign prospect.
type LeadModel struct {
	bun.BaseModel `bun:"table:leads,alias:l"`

	ID               uuid.UUID `bun:"id,pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	OrganizationID   uuid.UUID `bun:"organization_id,notnull,type:uuid" json:"organization_id"`
	CampaignID       uuid.UUID `bun:"campaign_id,notnull,type:uuid" json:"campaign_id"`
	LinkedInURL      string    `bun:"linkedin_url,notnull" json:"linkedin_url"`
	PublicIdentifier string    `bun:"public_identifier,notnull" json:"public_identifier"`

	FirstName  string `bun:"first_name" json:"first_name,omitempty"`
	LastName   string `bun:"last_name" json:"last_name,omitempty"`
	Title      string `bun:"title" json:"title,omitempty"`
	Company    string `bun:"company" json:"company,omitempty"`
	Email      string `bun:"email" json:"email,omitempty"`
	Phone      string `bun:"phone" json:"phone,omitempty"`
	Location   string `bun:"location" json:"location,omitempty"`
	LinkedInID string `bun:"linkedin_id" json:"linkedin_id,omitempty"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`

	Campaign *CampaignModel `bun:"rel:belongs-to,join:campaign_id=id" json:"campaign,omitempty"`
}

// TableName returns the table name for LeadModel.
func (LeadModel) TableName() string { return "leads" }

// BeforeInsert sets defaults and timestamps.
func (l *LeadModel) BeforeInsert(ctx context.Context) error {
	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// BeforeUpdate refreshes the update timestamp.
func (l *LeadModel) BeforeUpdate(ctx context.Context) error {
	l.UpdatedAt = time.Now()
	return nil
}

// ToLeadDomain converts a LeadModel to the domain Lead.
func ToLeadDomain(m *LeadModel) *domain.Lead {
	if m == nil {
		return nil
	}
	return &domain.Lead{
		ID:               m.ID.String(),
		OrganizationID:   m.OrganizationID.String(),
		CampaignID:       m.CampaignID.String(),
		LinkedInURL:      m.LinkedInURL,
		PublicIdentifier: m.PublicIdentifier,
		FirstName:        m.FirstName,
		LastName:         m.LastName,
		Title:            m.Title,
		Company:          m.Company,
		Email:            m.Email,
		Phone:            m.Phone,
		Location:         m.Location,
		LinkedInID:       m.LinkedInID,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// FromLeadDomain converts a domain Lead to a LeadModel.
func FromLeadDomain(l *domain.Lead) *LeadModel {
	if l == nil {
		return nil
	}
	var id, orgID, campaignID uuid.UUID
	if l.ID != "" {
		id = uuid.MustParse(l.ID)
	}
	if l.OrganizationID != "" {
		orgID = uuid.MustParse(l.OrganizationID)
	}
	if l.CampaignID != "" {
		campaignID = uuid.MustParse(l.CampaignID)
	}
	return &LeadModel{
		ID:               id,
		OrganizationID:   orgID,
		CampaignID:       campaignID,
		LinkedInURL:      l.LinkedInURL,
		PublicIdentifier: l.PublicIdentifier,
		FirstName:        l.FirstName,
		LastName:         l.LastName,
		Title:            l.Title,
		Company:          l.Company,
		Email:            l.Email,
		Phone:            l.Phone,
		Location:         l.Location,
		LinkedInID:       l.LinkedInID,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}
