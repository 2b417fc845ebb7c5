package domain

import "time"

// WorkflowType is always CAMPAIGN_WORKFLOW for steps produced by this
// engine; the field exists so the step store's query shape matches the
// source system, which multiplexes other workflow kinds over the same table.
type WorkflowType string

// CampaignWorkflow is the only WorkflowType this engine ever writes or reads.
const CampaignWorkflow WorkflowType = "CAMPAIGN_WORKFLOW"

// StepType enumerates both the externally visible node kinds (EAction /
// EWorkflowNodeType in the workflow JSON) and the two internal polling kinds
// the executor schedules on their behalf.
type StepType string

const (
	StepProfileVisit          StepType = "profile_visit"
	StepSendConnectionRequest StepType = "send_connection_request"
	StepSendFollowup          StepType = "send_followup"
	StepLikePost              StepType = "like_post"
	StepCommentPost           StepType = "comment_post"
	StepWithdrawRequest       StepType = "withdraw_request"
	StepWebhook               StepType = "webhook"
	StepSendInmail            StepType = "send_inmail"

	StepCheckConnectionStatus StepType = "check_connection_status"
	StepCheckMessageReply     StepType = "check_message_reply"
)

// IsPolling returns true for the two internal kinds the successor
// planner and step executor must treat as polls rather than graph nodes.
func (t StepType) IsPolling() bool {
	return t == StepCheckConnectionStatus || t == StepCheckMessageReply
}

// StepStatus is the workflow step lifecycle state.
type StepStatus string

const (
	StepPending  StepStatus = "PENDING"
	StepComplete StepStatus = "COMPLETE"
	StepFailed   StepStatus = "FAILED"
)

// WorkflowStep is one scheduled action for one lead at one node of the
// campaign graph. execute_after is a Unix-seconds integer; every other
// timestamp is wall-clock.
type WorkflowStep struct {
	ID             string
	OrganizationID string
	LeadID         string
	CampaignID     string

	IDInWorkflow string // the workflow JSON node id
	StepIndex    int    // monotonic per lead along any realized path
	WorkflowType WorkflowType
	StepType     StepType
	Status       StepStatus

	Retries      int
	ExecuteAfter int64 // Unix seconds
	LastTryAt    *time.Time

	// RawResponse carries the executor's output on success, the error
	// message on failure, and (for polling steps) the pre-computed
	// successor plan produced when the poll was first scheduled.
	RawResponse map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsDue reports whether a PENDING step is eligible for execution at now.
func (s *WorkflowStep) IsDue(nowUnix int64) bool {
	return s.Status == StepPending && s.ExecuteAfter <= nowUnix
}

// MarkComplete transitions the step to COMPLETE with the given result.
func (s *WorkflowStep) MarkComplete(result map[string]any, now time.Time) {
	s.Status = StepComplete
	s.RawResponse = result
	s.UpdatedAt = now
}

// MarkFailed transitions the step to FAILED, recording the error message
// and incrementing the retry counter.
func (s *WorkflowStep) MarkFailed(message string, now time.Time) {
	s.Retries++
	s.LastTryAt = &now
	s.Status = StepFailed
	s.RawResponse = map[string]any{"error": message}
	s.UpdatedAt = now
}

// Defer pushes the step's due time out without changing its status; used by
// the sender-cooldown gate and the rate-limit gate.
func (s *WorkflowStep) Defer(executeAfter int64, now time.Time) {
	s.ExecuteAfter = executeAfter
	s.UpdatedAt = now
}

// Rearm resets a FAILED step back to PENDING for immediate retry.
func (s *WorkflowStep) Rearm(now time.Time) {
	s.Status = StepPending
	s.ExecuteAfter = now.Unix()
	s.UpdatedAt = now
}
