package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/campaignflow/engine/internal/domain"
)

// WorkflowStepModel is the persistent row for one scheduled lead action —
// the scheduler's ledger.
type WorkflowStepModel struct {
	bun.BaseModel `bun:"table:workflow_steps,alias:ws"`

	ID             uuid.UUID `bun:"id,pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	OrganizationID uuid.UUID `bun:"organization_id,notnull,type:uuid" json:"organization_id"`
	LeadID         uuid.UUID `bun:"lead_id,notnull,type:uuid" json:"lead_id"`
	CampaignID     uuid.UUID `bun:"campaign_id,notnull,type:uuid" json:"campaign_id"`

	IDInWorkflow string `bun:"id_in_workflow,notnull" json:"id_in_workflow"`
	StepIndex    int    `bun:"step_index,notnull,default:0" json:"step_index"`
	WorkflowType string `bun:"workflow_type,notnull,default:'CAMPAIGN_WORKFLOW'" json:"workflow_type"`
	StepType     string `bun:"step_type,notnull" json:"step_type"`
	Status       string `bun:"status,notnull,default:'PENDING'" json:"status"`

	Retries      int        `bun:"retries,notnull,default:0" json:"retries"`
	ExecuteAfter int64      `bun:"execute_after,notnull" json:"execute_after"`
	LastTryAt    *time.Time `bun:"last_try_at" json:"last_try_at,omitempty"`

	RawResponse JSONBMap `bun:"raw_response,type:jsonb,default:'{}'" json:"raw_response,omitempty"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// TableName returns the table name for WorkflowStepModel.
func (WorkflowStepModel) TableName() string { return "workflow_steps" }

// BeforeInsert sets defaults and timestamps.
func (s *WorkflowStepModel) BeforeInsert(ctx context.Context) error {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.WorkflowType == "" {
		s.WorkflowType = string(domain.CampaignWorkflow)
	}
	if s.Status == "" {
		s.Status = string(domain.StepPending)
	}
	if s.RawResponse == nil {
		s.RawResponse = make(JSONBMap)
	}
	return nil
}

// BeforeUpdate refreshes the update timestamp.
func (s *WorkflowStepModel) BeforeUpdate(ctx context.Context) error {
	s.UpdatedAt = time.Now()
	return nil
}

// ToStepDomain converts a WorkflowStepModel to the domain WorkflowStep.
func ToStepDomain(m *WorkflowStepModel) *domain.WorkflowStep {
	if m == nil {
		return nil
	}
	var raw map[string]any
	if m.RawResponse != nil {
		raw = m.RawResponse
	}
	return &domain.WorkflowStep{
		ID:             m.ID.String(),
		OrganizationID: m.OrganizationID.String(),
		LeadID:         m.LeadID.String(),
		CampaignID:     m.CampaignID.String(),
		IDInWorkflow:   m.IDInWorkflow,
		StepIndex:      m.StepIndex,
		WorkflowType:   domain.WorkflowType(m.WorkflowType),
		StepType:       domain.StepType(m.StepType),
		Status:         domain.StepStatus(m.Status),
		Retries:        m.Retries,
		ExecuteAfter:   m.ExecuteAfter,
		LastTryAt:      m.LastTryAt,
		RawResponse:    raw,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromStepDomain converts a domain WorkflowStep to a WorkflowStepModel.
func FromStepDomain(s *domain.WorkflowStep) *WorkflowStepModel {
	if s == nil {
		return nil
	}
	var id, orgID, leadID, campaignID uuid.UUID
	if s.ID != "" {
		id = uuid.MustParse(s.ID)
	}
	if s.OrganizationID != "" {
		orgID = uuid.MustParse(s.OrganizationID)
	}
	if s.LeadID != "" {
		leadID = uuid.MustParse(s.LeadID)
	}
	if s.CampaignID != "" {
		campaignID = uuid.MustParse(s.CampaignID)
	}
	var raw JSONBMap
	if s.RawResponse != nil {
		raw = JSONBMap(s.RawResponse)
	}
	return &WorkflowStepModel{
		ID:             id,
		OrganizationID: orgID,
		LeadID:         leadID,
		CampaignID:     campaignID,
		IDInWorkflow:   s.IDInWorkflow,
		StepIndex:      s.StepIndex,
		WorkflowType:   string(s.WorkflowType),
		StepType:       string(s.StepType),
		Status:         string(s.Status),
		Retries:        s.Retries,
		ExecuteAfter:   s.ExecuteAfter,
		LastTryAt:      s.LastTryAt,
		RawResponse:    raw,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}
