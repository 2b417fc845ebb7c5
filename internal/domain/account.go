package domain

import "time"

// AccountStatus is the connected account's operational state.
type AccountStatus string

const (
	AccountStatusActive      AccountStatus = "active"
	AccountStatusDisconnected AccountStatus = "disconnected"
	AccountStatusSuspended   AccountStatus = "suspended"
)

// ConnectedAccount is the sender account the provider client acts on
// behalf of when executing outreach steps.
type ConnectedAccount struct {
	ID                string
	OrganizationID    string
	Provider          string
	ProviderAccountID string
	Status            AccountStatus

	// ConnectionRequestBlockedUntil is nil unless a provider-side
	// "cannot_resend_yet" signal has put this sender on cooldown.
	ConnectionRequestBlockedUntil *time.Time
	DailyUsage                    int
	UsageResetAt                  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsBlockedAt reports whether, as of now, send_connection_request steps
// for this sender must stay deferred.
func (a *ConnectedAccount) IsBlockedAt(now time.Time) bool {
	return a.ConnectionRequestBlockedUntil != nil && now.Before(*a.ConnectionRequestBlockedUntil)
}
