package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/campaignflow/engine/internal/domain"
	"github.com/campaignflow/engine/internal/domain/repository"
	"github.com/campaignflow/engine/internal/infrastructure/storage/models"
)

var _ repository.AccountRepository = (*AccountRepositoryImpl)(nil)

// AccountRepositoryImpl is the bun-backed AccountRepository.
type AccountRepositoryImpl struct {
	db bun.IDB
}

// NewAccountRepository builds an AccountRepositoryImpl.
func NewAccountRepository(db bun.IDB) *AccountRepositoryImpl {
	return &AccountRepositoryImpl{db: db}
}

// FindByID loads a connected account by id.
func (r *AccountRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.ConnectedAccount, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}

	m := new(models.ConnectedAccountModel)
	if err := r.db.NewSelect().Model(m).Where("id = ?", accountID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return models.ToAccountDomain(m), nil
}

// Update persists the mutable fields of a connected account.
func (r *AccountRepositoryImpl) Update(ctx context.Context, account *domain.ConnectedAccount) error {
	id, err := uuid.Parse(account.ID)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	_, err = r.db.NewUpdate().
		Model((*models.ConnectedAccountModel)(nil)).
		Set("status = ?", string(account.Status)).
		Set("connection_request_blocked_until = ?", account.ConnectionRequestBlockedUntil).
		Set("daily_usage = ?", account.DailyUsage).
		Set("usage_reset_at = ?", account.UsageResetAt).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// ApplyConnectionRequestCooldown sets the sender-wide 24h block.
func (r *AccountRepositoryImpl) ApplyConnectionRequestCooldown(ctx context.Context, accountID string, blockedUntilUnixMs int64) error {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	blockedUntil := time.UnixMilli(blockedUntilUnixMs).UTC()
	_, err = r.db.NewUpdate().
		Model((*models.ConnectedAccountModel)(nil)).
		Set("connection_request_blocked_until = ?", blockedUntil).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
