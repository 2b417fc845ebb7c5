package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// TaskState is the last-run bookkeeping for one of the four fixed periodic
// tasks, persisted to Redis so a status endpoint can report "when did
// process-daily-leads last run" without needing in-process memory that a
// restart would lose.
type TaskState struct {
	Task           string    `json:"task"`
	LastExecuted   time.Time `json:"last_executed"`
	LastError      string    `json:"last_error,omitempty"`
	ExecutionCount int64     `json:"execution_count"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MarkExecuted records one completed run, successful or not.
func (ts *TaskState) MarkExecuted(at time.Time, runErr error) {
	ts.LastExecuted = at
	ts.ExecutionCount++
	ts.UpdatedAt = at
	if runErr != nil {
		ts.LastError = runErr.Error()
	} else {
		ts.LastError = ""
	}
}

// saveTaskState persists the task's state to Redis with no expiration: it
// survives until overwritten by the next run.
func saveTaskState(ctx context.Context, locker Locker, task string, state *TaskState) error {
	setter, ok := locker.(taskStateStore)
	if !ok {
		return nil
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal task state for %s: %w", task, err)
	}
	if err := setter.Set(ctx, taskStateKey(task), string(data), 0); err != nil {
		return fmt.Errorf("save task state for %s: %w", task, err)
	}
	return nil
}

// loadTaskState reads back the last persisted state for a task, returning a
// zero-value state (not an error) when none has been recorded yet.
func loadTaskState(ctx context.Context, locker Locker, task string) (*TaskState, error) {
	getter, ok := locker.(taskStateStore)
	if !ok {
		return &TaskState{Task: task}, nil
	}
	raw, err := getter.Get(ctx, taskStateKey(task))
	if err != nil {
		return &TaskState{Task: task}, nil
	}
	var state TaskState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("unmarshal task state for %s: %w", task, err)
	}
	return &state, nil
}

// taskStateStore is the subset of *cache.RedisCache the Tick Driver needs
// beyond locking, to persist TaskState. Satisfied by *cache.RedisCache;
// kept as an optional interface assertion on Locker so a minimal Locker
// implementation (tests) need not provide it.
type taskStateStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

func taskStateKey(task string) string {
	return fmt.Sprintf("trigger:%s:state", task)
}
