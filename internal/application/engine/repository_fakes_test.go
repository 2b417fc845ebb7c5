package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/campaignflow/engine/internal/domain"
)

// fakeCampaigns, fakeLeads, fakeSteps, and fakeAccounts are minimal
// in-memory repository.* implementations used only by executor tests; they
// keep every row in a map and never return errors unless the test asks them
// to via the *Err fields.
type fakeCampaigns struct {
	byID     map[string]*domain.Campaign
	workflow *domain.Workflow
	updates  []*domain.Campaign
}

func newFakeCampaigns(c *domain.Campaign, wf *domain.Workflow) *fakeCampaigns {
	return &fakeCampaigns{byID: map[string]*domain.Campaign{c.ID: c}, workflow: wf}
}

func (f *fakeCampaigns) Create(ctx context.Context, c *domain.Campaign, wf *domain.Workflow) error {
	f.byID[c.ID] = c
	f.workflow = wf
	return nil
}
func (f *fakeCampaigns) Update(ctx context.Context, c *domain.Campaign) error {
	f.byID[c.ID] = c
	f.updates = append(f.updates, c)
	return nil
}
func (f *fakeCampaigns) FindByID(ctx context.Context, id string) (*domain.Campaign, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrCampaignNotFound
	}
	return c, nil
}
func (f *fakeCampaigns) FindWorkflow(ctx context.Context, campaignID string) (*domain.Workflow, error) {
	return f.workflow, nil
}
func (f *fakeCampaigns) FindSchedulable(ctx context.Context, nowUnix int64) ([]*domain.Campaign, error) {
	var out []*domain.Campaign
	for _, c := range f.byID {
		if c.IsSchedulable() {
			out = append(out, c)
		}
	}
	return out, nil
}
func (f *fakeCampaigns) FindInProgress(ctx context.Context) ([]*domain.Campaign, error) {
	var out []*domain.Campaign
	for _, c := range f.byID {
		if c.Status == domain.CampaignStatusInProgress {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeLeads struct {
	byID    map[string]*domain.Lead
	updates []*domain.Lead
}

func newFakeLeads(leads ...*domain.Lead) *fakeLeads {
	f := &fakeLeads{byID: map[string]*domain.Lead{}}
	for _, l := range leads {
		f.byID[l.ID] = l
	}
	return f
}
func (f *fakeLeads) Create(ctx context.Context, l *domain.Lead) error {
	f.byID[l.ID] = l
	return nil
}
func (f *fakeLeads) CreateBatch(ctx context.Context, leads []*domain.Lead) error {
	for _, l := range leads {
		f.byID[l.ID] = l
	}
	return nil
}
func (f *fakeLeads) Update(ctx context.Context, l *domain.Lead) error {
	f.byID[l.ID] = l
	f.updates = append(f.updates, l)
	return nil
}
func (f *fakeLeads) FindByID(ctx context.Context, id string) (*domain.Lead, error) {
	l, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrLeadNotFound
	}
	return l, nil
}
func (f *fakeLeads) FindByCampaign(ctx context.Context, campaignID string) ([]*domain.Lead, error) {
	var out []*domain.Lead
	for _, l := range f.byID {
		if l.CampaignID == campaignID {
			out = append(out, l)
		}
	}
	return out, nil
}
func (f *fakeLeads) FindByProviderIdentifiers(ctx context.Context, providerIDs []string) ([]*domain.Lead, error) {
	want := map[string]bool{}
	for _, id := range providerIDs {
		want[id] = true
	}
	var out []*domain.Lead
	for _, l := range f.byID {
		if want[l.LinkedInID] || want[l.PublicIdentifier] {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeSteps struct {
	byID         map[string]*domain.WorkflowStep
	created      []*domain.WorkflowStep
	updates      []*domain.WorkflowStep
	repliedCalls [][]string
}

func newFakeSteps(steps ...*domain.WorkflowStep) *fakeSteps {
	f := &fakeSteps{byID: map[string]*domain.WorkflowStep{}}
	for _, s := range steps {
		f.byID[s.ID] = s
	}
	return f
}
func (f *fakeSteps) Create(ctx context.Context, s *domain.WorkflowStep) error {
	f.byID[s.ID] = s
	f.created = append(f.created, s)
	return nil
}
func (f *fakeSteps) CreateBatch(ctx context.Context, steps []*domain.WorkflowStep) error {
	for i, s := range steps {
		if s.ID == "" {
			s.ID = fmt.Sprintf("generated-%d-%d", len(f.byID), i)
		}
		f.byID[s.ID] = s
		f.created = append(f.created, s)
	}
	return nil
}
func (f *fakeSteps) Update(ctx context.Context, s *domain.WorkflowStep) error {
	f.byID[s.ID] = s
	f.updates = append(f.updates, s)
	return nil
}
func (f *fakeSteps) FindByID(ctx context.Context, id string) (*domain.WorkflowStep, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrStepNotFound
	}
	return s, nil
}
func (f *fakeSteps) FindDue(ctx context.Context, nowUnix int64, limit int) ([]*domain.WorkflowStep, error) {
	var out []*domain.WorkflowStep
	for _, s := range f.byID {
		if s.IsDue(nowUnix) {
			out = append(out, s)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
func (f *fakeSteps) FindLeadsWithSteps(ctx context.Context, leadIDs []string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, s := range f.byID {
		out[s.LeadID] = true
	}
	return out, nil
}
func (f *fakeSteps) FindFailedByCampaign(ctx context.Context, campaignID string) ([]*domain.WorkflowStep, error) {
	var out []*domain.WorkflowStep
	for _, s := range f.byID {
		if s.CampaignID == campaignID && s.Status == domain.StepFailed {
			out = append(out, s)
		}
	}
	return out, nil
}
func (f *fakeSteps) DeferPendingConnectionRequests(ctx context.Context, accountID string, minExecuteAfter int64) error {
	return nil
}
func (f *fakeSteps) MarkHasReplied(ctx context.Context, leadIDs []string) (int, error) {
	f.repliedCalls = append(f.repliedCalls, leadIDs)
	return len(leadIDs), nil
}

type fakeAccounts struct {
	byID    map[string]*domain.ConnectedAccount
	updates []*domain.ConnectedAccount
}

func newFakeAccounts(accounts ...*domain.ConnectedAccount) *fakeAccounts {
	f := &fakeAccounts{byID: map[string]*domain.ConnectedAccount{}}
	for _, a := range accounts {
		f.byID[a.ID] = a
	}
	return f
}
func (f *fakeAccounts) FindByID(ctx context.Context, id string) (*domain.ConnectedAccount, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return a, nil
}
func (f *fakeAccounts) Update(ctx context.Context, a *domain.ConnectedAccount) error {
	f.byID[a.ID] = a
	f.updates = append(f.updates, a)
	return nil
}
func (f *fakeAccounts) ApplyConnectionRequestCooldown(ctx context.Context, accountID string, blockedUntilUnixMs int64) error {
	a, ok := f.byID[accountID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	t := time.UnixMilli(blockedUntilUnixMs)
	a.ConnectionRequestBlockedUntil = &t
	return nil
}
