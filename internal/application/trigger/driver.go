// Package trigger implements the Tick Driver: the four fixed periodic
// tasks that advance every campaign without an external caller.
// Check-scheduled-campaigns and start-daily-leads drive lead admission;
// process-daily-leads drains the due-step queue; retry-failed-steps
// rearms failures. Each task runs on its own cron entry, gated by a
// cross-replica Redis lock so at most one instance is in flight at a time.
package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/campaignflow/engine/internal/application/engine"
	"github.com/campaignflow/engine/internal/application/observer"
	"github.com/campaignflow/engine/internal/application/orchestrator"
	"github.com/campaignflow/engine/internal/domain"
	"github.com/campaignflow/engine/internal/domain/repository"
	"github.com/campaignflow/engine/internal/infrastructure/logger"
)

// Cron schedules, expressed with seconds per cron.WithSeconds(). All times
// are UTC; Driver is constructed with cron.WithLocation(time.UTC).
const (
	scheduleCheckScheduledCampaigns = "0 0 * * * *" // hourly, on the hour
	scheduleStartDailyLeads         = "0 0 0 * * *" // daily at 00:00
	scheduleProcessDailyLeads       = "0 * * * * *" // every minute
	scheduleRetryFailedSteps        = "0 30 * * * *" // hourly, offset from check-scheduled-campaigns
)

// Lock TTLs bound how long a task may hold its cross-replica lock; a task
// that outlives its TTL risks a concurrent second firing, which is
// acceptable (the operations it drives are idempotent); an overrun is not
// detected or logged.
const (
	lockTTLCheckScheduledCampaigns = 5 * time.Minute
	lockTTLStartDailyLeads         = 10 * time.Minute
	lockTTLProcessDailyLeads       = 50 * time.Second
	lockTTLRetryFailedSteps        = 5 * time.Minute

	dueStepBatchSize = 100
)

// Locker is the cross-replica mutual-exclusion primitive the driver uses to
// guarantee at most one in-flight run per task across a fleet of replicas.
// Satisfied by *cache.RedisCache.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// Dependencies are the collaborators the Tick Driver needs.
type Dependencies struct {
	Campaigns repository.CampaignRepository
	Steps     repository.StepRepository

	Orchestrator *orchestrator.Orchestrator
	Executor     *engine.Executor
	Locker       Locker

	Observers *observer.ObserverManager
	Logger    *logger.Logger
	Now       func() time.Time
}

// Driver owns the cron schedule for the four fixed periodic tasks.
type Driver struct {
	deps Dependencies
	cron *cron.Cron
}

// New builds a Driver and registers all four tasks. Call Start to begin
// firing them.
func New(deps Dependencies) (*Driver, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	c := cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC))
	d := &Driver{deps: deps, cron: c}

	tasks := []struct {
		name     string
		schedule string
		ttl      time.Duration
		run      func(context.Context) error
	}{
		{"check-scheduled-campaigns", scheduleCheckScheduledCampaigns, lockTTLCheckScheduledCampaigns, d.checkScheduledCampaigns},
		{"start-daily-leads", scheduleStartDailyLeads, lockTTLStartDailyLeads, d.startDailyLeads},
		{"process-daily-leads", scheduleProcessDailyLeads, lockTTLProcessDailyLeads, d.processDailyLeads},
		{"retry-failed-steps", scheduleRetryFailedSteps, lockTTLRetryFailedSteps, d.retryFailedSteps},
	}
	for _, t := range tasks {
		t := t
		_, err := c.AddFunc(t.schedule, func() { d.runLocked(context.Background(), t.name, t.ttl, t.run) })
		if err != nil {
			return nil, fmt.Errorf("register task %s: %w", t.name, err)
		}
	}
	return d, nil
}

// Start begins firing scheduled tasks. Non-blocking; cron runs its own
// goroutine.
func (d *Driver) Start() { d.cron.Start() }

// Stop halts the cron scheduler and blocks until any in-flight task
// invocation returns or the context is done.
func (d *Driver) Stop(ctx context.Context) error {
	stopCtx := d.cron.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Driver) now() time.Time { return d.deps.Now() }

func (d *Driver) notify(ctx context.Context, evt observer.Event) {
	if d.deps.Observers == nil {
		return
	}
	evt.Timestamp = d.now()
	d.deps.Observers.Notify(ctx, evt)
}

// runLocked acquires the task's cross-replica lock, skipping the tick
// entirely if another replica already holds it, then runs and releases.
func (d *Driver) runLocked(ctx context.Context, name string, ttl time.Duration, run func(context.Context) error) {
	ctx = logger.ContextWithTickID(ctx, uuid.NewString())
	log := d.log()

	lockKey := "tick:" + name
	acquired, err := d.deps.Locker.TryLock(ctx, lockKey, ttl)
	if err != nil {
		log.ErrorContext(ctx, "tick lock error", "task", name, "error", err)
		return
	}
	if !acquired {
		d.notify(ctx, observer.Event{Type: observer.EventTypeTickSkipped, Message: ptrString(name)})
		return
	}
	defer func() {
		if err := d.deps.Locker.Unlock(ctx, lockKey); err != nil {
			log.WarnContext(ctx, "tick unlock error", "task", name, "error", err)
		}
	}()

	start := d.now()
	runErr := run(ctx)

	state, loadErr := loadTaskState(ctx, d.deps.Locker, name)
	if loadErr != nil {
		log.WarnContext(ctx, "load task state failed", "task", name, "error", loadErr)
		state = &TaskState{Task: name}
	}
	state.MarkExecuted(start, runErr)
	if err := saveTaskState(ctx, d.deps.Locker, name, state); err != nil {
		log.WarnContext(ctx, "save task state failed", "task", name, "error", err)
	}

	if runErr != nil {
		log.ErrorContext(ctx, "tick failed", "task", name, "error", runErr)
		d.notify(ctx, observer.Event{Type: observer.EventTypeTickFailed, Error: runErr, Message: ptrString(name)})
		return
	}
	log.InfoContext(ctx, "tick completed", "task", name, "duration_ms", time.Since(start).Milliseconds())
}

// log returns the driver's logger, tagged as the "trigger" component and
// falling back to the process default when none was configured.
func (d *Driver) log() *logger.Logger {
	base := d.deps.Logger
	if base == nil {
		base = logger.Default()
	}
	return base.Named("trigger")
}

func ptrString(s string) *string { return &s }
