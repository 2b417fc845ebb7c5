// Package orchestrator implements the campaign lifecycle operations:
// startCampaign, pauseCampaign, resumeCampaign, and getCampaignStatus. It
// also carries the lead-admission routine the Tick Driver invokes for
// start-daily-leads, since admission is campaign-lifecycle logic rather
// than scheduling logic.
package orchestrator

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campaignflow/engine/internal/application/graph"
	"github.com/campaignflow/engine/internal/application/observer"
	"github.com/campaignflow/engine/internal/domain"
	"github.com/campaignflow/engine/internal/domain/repository"
	"github.com/campaignflow/engine/internal/infrastructure/logger"
)

// AdmissionChunkSize is the batch size for parallel lead-row creation during
// startCampaign: chunks of 5, chunk-parallel, batch-sequential.
const AdmissionChunkSize = 5

// Dependencies are the collaborators the orchestrator needs.
type Dependencies struct {
	Campaigns repository.CampaignRepository
	Leads     repository.LeadRepository
	Steps     repository.StepRepository

	Observers *observer.ObserverManager
	Logger    *logger.Logger
	Now       func() time.Time

	// ProspectListLoader resolves a campaign's prospect list into the lead
	// rows to be created. It is pluggable because the prospect list's
	// origin (CSV import, CRM sync, search scrape) is outside this
	// engine's scope.
	ProspectListLoader ProspectListLoader
}

// ProspectListLoader loads the raw prospect rows for a campaign's
// prospect_list_id so startCampaign can turn them into domain.Lead rows.
type ProspectListLoader interface {
	Load(ctx context.Context, prospectListID string) ([]ProspectRow, error)
}

// ProspectRow is one entry of a prospect list prior to lead creation.
type ProspectRow struct {
	LinkedInURL      string
	PublicIdentifier string
}

// Orchestrator implements the campaign lifecycle.
type Orchestrator struct {
	deps Dependencies
}

// New builds an Orchestrator, filling defaults for optional dependencies.
func New(deps Dependencies) *Orchestrator {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Orchestrator{deps: deps}
}

func (o *Orchestrator) now() time.Time { return o.deps.Now() }

func (o *Orchestrator) notify(ctx context.Context, evt observer.Event) {
	if o.deps.Observers == nil {
		return
	}
	evt.Timestamp = o.now()
	o.deps.Observers.Notify(ctx, evt)
}

// StartCampaign transitions the campaign to IN_PROGRESS. When a
// ProspectListLoader is configured it first loads the prospect list and
// bulk-creates lead rows in chunks of 5 (chunk-parallel, batch-sequential);
// without one, no lead rows are created. Restarting a PAUSED or FAILED
// campaign is allowed.
func (o *Orchestrator) StartCampaign(ctx context.Context, campaignID string) error {
	campaign, err := o.deps.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return domain.NotFound("campaign not found", err)
	}
	if err := campaign.CanStart(); err != nil {
		return domain.Validation(err.Error(), err)
	}
	if campaign.SenderAccountID == "" {
		return domain.Validation("campaign has no sender account", domain.ErrSenderMissing)
	}
	if campaign.ProspectListID == "" {
		return domain.Validation("campaign has no prospect list", domain.ErrProspectListMissing)
	}

	if o.deps.ProspectListLoader != nil {
		rows, err := o.deps.ProspectListLoader.Load(ctx, campaign.ProspectListID)
		if err != nil {
			return fmt.Errorf("load prospect list %s: %w", campaign.ProspectListID, err)
		}
		if err := o.admitLeadRows(ctx, campaign, rows); err != nil {
			return fmt.Errorf("admit prospect rows: %w", err)
		}
	}

	campaign.Status = domain.CampaignStatusInProgress
	campaign.UpdatedAt = o.now()
	if err := o.deps.Campaigns.Update(ctx, campaign); err != nil {
		return fmt.Errorf("update campaign %s: %w", campaign.ID, err)
	}

	o.notify(ctx, observer.Event{
		Type:       observer.EventTypeCampaignStarted,
		CampaignID: campaign.ID,
	})
	return nil
}

// admitLeadRows converts prospect rows into lead rows and persists them in
// chunks of AdmissionChunkSize: a chunk's rows are built concurrently and
// inserted with one CreateBatch call, and the chunks run sequentially.
func (o *Orchestrator) admitLeadRows(ctx context.Context, campaign *domain.Campaign, rows []ProspectRow) error {
	now := o.now()
	for start := 0; start < len(rows); start += AdmissionChunkSize {
		end := start + AdmissionChunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		leads := make([]*domain.Lead, len(chunk))
		var wg sync.WaitGroup
		for i, row := range chunk {
			wg.Add(1)
			go func(i int, row ProspectRow) {
				defer wg.Done()
				leads[i] = &domain.Lead{
					ID:               uuid.NewString(),
					OrganizationID:   campaign.OrganizationID,
					CampaignID:       campaign.ID,
					LinkedInURL:      row.LinkedInURL,
					PublicIdentifier: row.PublicIdentifier,
					CreatedAt:        now,
					UpdatedAt:        now,
				}
			}(i, row)
		}
		wg.Wait()
		if err := o.deps.Leads.CreateBatch(ctx, leads); err != nil {
			return fmt.Errorf("create lead batch: %w", err)
		}
	}
	return nil
}

// PauseCampaign transitions an IN_PROGRESS campaign to PAUSED. Idempotent
// when the campaign is already PAUSED.
func (o *Orchestrator) PauseCampaign(ctx context.Context, campaignID string) error {
	campaign, err := o.deps.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return domain.NotFound("campaign not found", err)
	}
	if campaign.Status == domain.CampaignStatusPaused {
		return nil
	}
	if campaign.Status != domain.CampaignStatusInProgress {
		return domain.Validation("campaign is not in progress", domain.ErrCampaignNotRunning)
	}
	campaign.Status = domain.CampaignStatusPaused
	campaign.UpdatedAt = o.now()
	if err := o.deps.Campaigns.Update(ctx, campaign); err != nil {
		return fmt.Errorf("update campaign %s: %w", campaign.ID, err)
	}
	o.notify(ctx, observer.Event{Type: observer.EventTypeCampaignPaused, CampaignID: campaign.ID})
	return nil
}

// ResumeCampaign transitions a PAUSED campaign back to IN_PROGRESS.
func (o *Orchestrator) ResumeCampaign(ctx context.Context, campaignID string) error {
	campaign, err := o.deps.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return domain.NotFound("campaign not found", err)
	}
	if campaign.Status != domain.CampaignStatusPaused {
		return domain.Validation("campaign is not paused", domain.ErrCampaignNotPaused)
	}
	campaign.Status = domain.CampaignStatusInProgress
	campaign.UpdatedAt = o.now()
	if err := o.deps.Campaigns.Update(ctx, campaign); err != nil {
		return fmt.Errorf("update campaign %s: %w", campaign.ID, err)
	}
	o.notify(ctx, observer.Event{Type: observer.EventTypeCampaignResumed, CampaignID: campaign.ID})
	return nil
}

// Status is the lifecycle snapshot returned by GetCampaignStatus.
type Status struct {
	Status    domain.CampaignStatus
	IsRunning bool
	IsPaused  bool
}

// GetCampaignStatus reports the campaign's current lifecycle state.
func (o *Orchestrator) GetCampaignStatus(ctx context.Context, campaignID string) (*Status, error) {
	campaign, err := o.deps.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return nil, domain.NotFound("campaign not found", err)
	}
	return &Status{
		Status:    campaign.Status,
		IsRunning: campaign.Status == domain.CampaignStatusInProgress,
		IsPaused:  campaign.Status == domain.CampaignStatusPaused,
	}, nil
}

// AdmitDailyLeads runs the start-daily-leads admission routine for one
// IN_PROGRESS campaign: admit min(leads_per_day, |unstarted|) leads at
// random, scheduling one PENDING step at the workflow's entry node for
// each. A campaign with no unstarted leads left (including none at all) is
// marked COMPLETED.
func (o *Orchestrator) AdmitDailyLeads(ctx context.Context, campaign *domain.Campaign) error {
	leads, err := o.deps.Leads.FindByCampaign(ctx, campaign.ID)
	if err != nil {
		return fmt.Errorf("load leads for campaign %s: %w", campaign.ID, err)
	}
	if len(leads) == 0 {
		return o.completeCampaign(ctx, campaign)
	}

	leadIDs := make([]string, len(leads))
	for i, l := range leads {
		leadIDs[i] = l.ID
	}
	started, err := o.deps.Steps.FindLeadsWithSteps(ctx, leadIDs)
	if err != nil {
		return fmt.Errorf("find leads with steps: %w", err)
	}

	unstarted := make([]*domain.Lead, 0, len(leads))
	for _, l := range leads {
		if !started[l.ID] {
			unstarted = append(unstarted, l)
		}
	}
	if len(unstarted) == 0 {
		return o.completeCampaign(ctx, campaign)
	}

	rand.Shuffle(len(unstarted), func(i, j int) { unstarted[i], unstarted[j] = unstarted[j], unstarted[i] })

	perDay := campaign.LeadsPerDay
	if perDay <= 0 {
		perDay = domain.DefaultLeadsPerDay
	}
	admitCount := perDay
	if admitCount > len(unstarted) {
		admitCount = len(unstarted)
	}

	workflow, err := o.deps.Campaigns.FindWorkflow(ctx, campaign.ID)
	if err != nil {
		return fmt.Errorf("load workflow for campaign %s: %w", campaign.ID, err)
	}
	idx := graph.BuildIndex(workflow)
	entry, ok := idx.EntryNode()
	if !ok {
		return fmt.Errorf("campaign %s: workflow has no entry node", campaign.ID)
	}

	now := o.now()
	steps := make([]*domain.WorkflowStep, 0, admitCount)
	for _, lead := range unstarted[:admitCount] {
		steps = append(steps, &domain.WorkflowStep{
			ID:             uuid.NewString(),
			OrganizationID: lead.OrganizationID,
			LeadID:         lead.ID,
			CampaignID:     campaign.ID,
			IDInWorkflow:   entry.ID,
			StepIndex:      0,
			WorkflowType:   domain.CampaignWorkflow,
			StepType:       entry.Data.Type,
			Status:         domain.StepPending,
			ExecuteAfter:   now.Unix(),
			RawResponse:    map[string]any{},
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	if err := o.deps.Steps.CreateBatch(ctx, steps); err != nil {
		return fmt.Errorf("create admission steps: %w", err)
	}

	for _, lead := range unstarted[:admitCount] {
		o.notify(ctx, observer.Event{
			Type:       observer.EventTypeLeadAdmitted,
			CampaignID: campaign.ID,
			LeadID:     &lead.ID,
		})
	}
	return nil
}

func (o *Orchestrator) completeCampaign(ctx context.Context, campaign *domain.Campaign) error {
	campaign.Status = domain.CampaignStatusCompleted
	campaign.UpdatedAt = o.now()
	if err := o.deps.Campaigns.Update(ctx, campaign); err != nil {
		return fmt.Errorf("complete campaign %s: %w", campaign.ID, err)
	}
	o.notify(ctx, observer.Event{Type: observer.EventTypeCampaignCompleted, CampaignID: campaign.ID})
	return nil
}
