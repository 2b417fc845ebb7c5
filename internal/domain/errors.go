// Package domain holds the campaign workflow engine's persistent entities,
// the workflow graph schema, and the typed error taxonomy shared by every
// application-layer component.
package domain

import "errors"

// Sentinel errors returned by stores and orchestration operations.
var (
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrLeadNotFound     = errors.New("lead not found")
	ErrAccountNotFound  = errors.New("connected account not found")
	ErrStepNotFound     = errors.New("workflow step not found")

	ErrSenderMissing        = errors.New("campaign has no sender account")
	ErrProspectListMissing  = errors.New("campaign has no prospect list")
	ErrCampaignDeleted      = errors.New("campaign is deleted")
	ErrCampaignAlreadyLive  = errors.New("campaign is already in progress")
	ErrCampaignCompleted    = errors.New("campaign is already completed")
	ErrCampaignNotPaused    = errors.New("campaign is not paused")
	ErrCampaignNotRunning   = errors.New("campaign is not in progress")
)

// Kind classifies an engine error for callers that branch on error shape
// rather than on a specific sentinel.
type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindValidation Kind = "validation"
	KindForbidden  Kind = "forbidden"
	KindConflict   Kind = "conflict"
	KindRateLimited Kind = "rate_limited"
	KindProvider   Kind = "provider_error"
	KindTransient  Kind = "transient"
)

// Error is the engine's structured error type. Callers of the orchestrator
// and webhook surface can type-assert to *Error and branch on Kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound builds a KindNotFound error.
func NotFound(message string, err error) *Error {
	return &Error{Kind: KindNotFound, Message: message, Err: err}
}

// Validation builds a KindValidation error.
func Validation(message string, err error) *Error {
	return &Error{Kind: KindValidation, Message: message, Err: err}
}

// Forbidden builds a KindForbidden error.
func Forbidden(message string, err error) *Error {
	return &Error{Kind: KindForbidden, Message: message, Err: err}
}

// Conflict builds a KindConflict error.
func Conflict(message string, err error) *Error {
	return &Error{Kind: KindConflict, Message: message, Err: err}
}

// Transient builds a KindTransient error for a failure that callers may retry.
func Transient(message string, err error) *Error {
	return &Error{Kind: KindTransient, Message: message, Err: err}
}

// ProviderErrorCode enumerates the provider error codes the engine reacts
// to specifically; any other code is treated as an opaque provider failure.
type ProviderErrorCode string

const (
	ProviderErrCannotResendYet     ProviderErrorCode = "cannot_resend_yet"
	ProviderErrDisconnectedAccount ProviderErrorCode = "disconnected_account"
	ProviderErrNotConfigured      ProviderErrorCode = "not_configured"
)

// ProviderError wraps a failure returned by the outbound social-provider API.
type ProviderError struct {
	Code   ProviderErrorCode
	Detail string
}

func (e *ProviderError) Error() string {
	if e.Detail == "" {
		return "provider error: " + string(e.Code)
	}
	return "provider error: " + string(e.Code) + ": " + e.Detail
}

// Is allows errors.Is(err, &ProviderError{Code: ...}) to match on code alone.
func (e *ProviderError) Is(target error) bool {
	t, ok := target.(*ProviderError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}
