package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/campaignflow/engine/internal/domain"
)

// checkScheduledCampaigns starts every DRAFT/SCHEDULED campaign whose
// start_date is set and has passed. Starting bulk-creates the
// campaign's lead rows and transitions it to IN_PROGRESS.
func (d *Driver) checkScheduledCampaigns(ctx context.Context) error {
	campaigns, err := d.deps.Campaigns.FindSchedulable(ctx, d.now().Unix())
	if err != nil {
		return fmt.Errorf("find schedulable campaigns: %w", err)
	}
	for _, c := range campaigns {
		if err := d.deps.Orchestrator.StartCampaign(ctx, c.ID); err != nil {
			d.log().Error("start scheduled campaign failed", "campaign_id", c.ID, "error", err)
			continue
		}
	}
	return nil
}

// startDailyLeads admits today's lead batch for every IN_PROGRESS campaign.
func (d *Driver) startDailyLeads(ctx context.Context) error {
	campaigns, err := d.deps.Campaigns.FindInProgress(ctx)
	if err != nil {
		return fmt.Errorf("find in-progress campaigns: %w", err)
	}
	for _, c := range campaigns {
		if err := d.deps.Orchestrator.AdmitDailyLeads(ctx, c); err != nil {
			d.log().Error("admit daily leads failed", "campaign_id", c.ID, "error", err)
			continue
		}
	}
	return nil
}

// processDailyLeads executes due PENDING steps, at most dueStepBatchSize per
// tick, oldest execute_after first; due steps beyond that batch wait for a
// later tick. Steps run strictly one at a time: the rate-limit gate and sender cooldown are
// read-modify-write operations on shared campaign/sender rows, so
// concurrent execution within this task is unsafe.
func (d *Driver) processDailyLeads(ctx context.Context) error {
	steps, err := d.deps.Steps.FindDue(ctx, d.now().Unix(), dueStepBatchSize)
	if err != nil {
		return fmt.Errorf("find due steps: %w", err)
	}
	for _, step := range steps {
		if err := d.deps.Executor.ExecuteStep(ctx, step.ID); err != nil {
			d.log().Error("execute step failed", "step_id", step.ID, "error", err)
			continue
		}
	}
	return nil
}

// retryFailedSteps rearms every FAILED step of every IN_PROGRESS campaign
// and re-invokes the executor. A failure during retry is logged and the
// loop continues; it never cancels the remaining retries.
func (d *Driver) retryFailedSteps(ctx context.Context) error {
	campaigns, err := d.deps.Campaigns.FindInProgress(ctx)
	if err != nil {
		return fmt.Errorf("find in-progress campaigns: %w", err)
	}
	now := d.now()
	for _, c := range campaigns {
		failed, err := d.deps.Steps.FindFailedByCampaign(ctx, c.ID)
		if err != nil {
			d.log().Error("find failed steps failed", "campaign_id", c.ID, "error", err)
			continue
		}
		for _, step := range failed {
			d.rearmAndRetry(ctx, step, now)
		}
	}
	return nil
}

// rearmAndRetry resets one FAILED step to PENDING and re-invokes the
// executor immediately; a persist or execute failure is logged, never
// propagated, so sibling retries still run.
func (d *Driver) rearmAndRetry(ctx context.Context, step *domain.WorkflowStep, now time.Time) {
	step.Rearm(now)
	if err := d.deps.Steps.Update(ctx, step); err != nil {
		d.log().Error("rearm step failed", "step_id", step.ID, "error", err)
		return
	}
	if err := d.deps.Executor.ExecuteStep(ctx, step.ID); err != nil {
		d.log().Error("retry step failed", "step_id", step.ID, "error", err)
	}
}
