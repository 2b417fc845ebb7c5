package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/campaignflow/engine/internal/domain"
)

// CampaignModel is the persistent row for a campaign.
type CampaignModel struct {
	bun.BaseModel `bun:"table:campaigns,alias:c"`

	ID               uuid.UUID  `bun:"id,pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	OrganizationID   uuid.UUID  `bun:"organization_id,notnull,type:uuid" json:"organization_id"`
	SenderAccountID  uuid.UUID  `bun:"sender_account_id,notnull,type:uuid" json:"sender_account_id"`
	ProspectListID   string     `bun:"prospect_list_id,notnull" json:"prospect_list_id"`
	WorkflowLocation string     `bun:"workflow_location,notnull" json:"workflow_location"`
	Status           string     `bun:"status,notnull,default:'DRAFT'" json:"status"`
	StartDate        *time.Time `bun:"start_date" json:"start_date,omitempty"`
	LeadsPerDay      int        `bun:"leads_per_day,notnull,default:10" json:"leads_per_day"`

	RequestsSentToday int       `bun:"requests_sent_today,notnull,default:0" json:"requests_sent_today"`
	RequestsSentWeek  int       `bun:"requests_sent_week,notnull,default:0" json:"requests_sent_week"`
	LastDailyReset    time.Time `bun:"last_daily_reset,notnull,default:current_timestamp" json:"last_daily_reset"`
	LastWeeklyReset   time.Time `bun:"last_weekly_reset,notnull,default:current_timestamp" json:"last_weekly_reset"`

	// WorkflowJSON is the immutable, write-once-at-creation graph
	// definition; Nodes/Edges live in JSONB rather than their own tables
	// so a campaign's workflow is always read and written atomically.
	WorkflowJSON JSONBMap `bun:"workflow_json,type:jsonb,notnull,default:'{}'" json:"workflow_json"`

	IsDeleted bool      `bun:"is_deleted,notnull,default:false" json:"is_deleted"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// TableName returns the table name for CampaignModel.
func (CampaignModel) TableName() string { return "campaigns" }

// BeforeInsert sets defaults and timestamps.
func (c *CampaignModel) BeforeInsert(ctx context.Context) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = string(domain.CampaignStatusDraft)
	}
	if c.LeadsPerDay == 0 {
		c.LeadsPerDay = domain.DefaultLeadsPerDay
	}
	if c.LastDailyReset.IsZero() {
		c.LastDailyReset = now
	}
	if c.LastWeeklyReset.IsZero() {
		c.LastWeeklyReset = now
	}
	if c.WorkflowJSON == nil {
		c.WorkflowJSON = make(JSONBMap)
	}
	return nil
}

// BeforeUpdate refreshes the update timestamp.
func (c *CampaignModel) BeforeUpdate(ctx context.Context) error {
	c.UpdatedAt = time.Now()
	return nil
}

// ToCampaignDomain converts a CampaignModel to the domain Campaign.
func ToCampaignDomain(m *CampaignModel) *domain.Campaign {
	if m == nil {
		return nil
	}
	return &domain.Campaign{
		ID:                m.ID.String(),
		OrganizationID:    m.OrganizationID.String(),
		SenderAccountID:   m.SenderAccountID.String(),
		ProspectListID:    m.ProspectListID,
		WorkflowLocation:  m.WorkflowLocation,
		Status:            domain.CampaignStatus(m.Status),
		StartDate:         m.StartDate,
		LeadsPerDay:       m.LeadsPerDay,
		RequestsSentToday: m.RequestsSentToday,
		RequestsSentWeek:  m.RequestsSentWeek,
		LastDailyReset:    m.LastDailyReset,
		LastWeeklyReset:   m.LastWeeklyReset,
		IsDeleted:         m.IsDeleted,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// FromCampaignDomain converts a domain Campaign to a CampaignModel.
func FromCampaignDomain(c *domain.Campaign) *CampaignModel {
	if c == nil {
		return nil
	}
	var id, orgID, senderID uuid.UUID
	if c.ID != "" {
		id = uuid.MustParse(c.ID)
	}
	if c.OrganizationID != "" {
		orgID = uuid.MustParse(c.OrganizationID)
	}
	if c.SenderAccountID != "" {
		senderID = uuid.MustParse(c.SenderAccountID)
	}
	return &CampaignModel{
		ID:                id,
		OrganizationID:    orgID,
		SenderAccountID:   senderID,
		ProspectListID:    c.ProspectListID,
		WorkflowLocation:  c.WorkflowLocation,
		Status:            string(c.Status),
		StartDate:         c.StartDate,
		LeadsPerDay:       c.LeadsPerDay,
		RequestsSentToday: c.RequestsSentToday,
		RequestsSentWeek:  c.RequestsSentWeek,
		LastDailyReset:    c.LastDailyReset,
		LastWeeklyReset:   c.LastWeeklyReset,
		IsDeleted:         c.IsDeleted,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// ToWorkflowDomain decodes the campaign's workflow JSON into the domain
// graph shape.
func ToWorkflowDomain(m *CampaignModel) (*domain.Workflow, error) {
	if m == nil || m.WorkflowJSON == nil {
		return &domain.Workflow{}, nil
	}
	raw, err := json.Marshal(m.WorkflowJSON)
	if err != nil {
		return nil, err
	}
	var wf domain.Workflow
	if err := json.Unmarshal(raw, &wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

// FromWorkflowDomain encodes a domain graph into the JSONB shape a
// CampaignModel stores.
func FromWorkflowDomain(wf *domain.Workflow) (JSONBMap, error) {
	if wf == nil {
		return make(JSONBMap), nil
	}
	raw, err := json.Marshal(wf)
	if err != nil {
		return nil, err
	}
	var m JSONBMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
