package repository

import (
	"context"

	"github.com/campaignflow/engine/internal/domain"
)

// AccountRepository persists ConnectedAccount (sender) rows.
type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*domain.ConnectedAccount, error)
	Update(ctx context.Context, account *domain.ConnectedAccount) error

	// ApplyConnectionRequestCooldown sets blocked_until on the sender. The
	// executor follows it with StepRepository.DeferPendingConnectionRequests
	// for the same sender as a separate call; the two are not wrapped in a
	// transaction.
	ApplyConnectionRequestCooldown(ctx context.Context, accountID string, blockedUntilUnixMs int64) error
}
