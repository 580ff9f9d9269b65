package repository

import (
	"context"
	"time"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/ledger"
	"github.com/amirasaad/corebank/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository bound to db.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

// Get implements repository.AccountRepository.
func (r *accountRepository) Get(ctx context.Context, accountNumber string) (*ledger.Account, error) {
	var m Account
	if err := r.db.WithContext(ctx).First(&m, "account_number = ?", accountNumber).Error; err != nil {
		return nil, notFoundAs(err, domain.ErrAccountNotFound.WithDetail("account %s not found", accountNumber))
	}
	return mapAccountToDomain(&m), nil
}

// GetForUpdate implements repository.AccountRepository.
func (r *accountRepository) GetForUpdate(ctx context.Context, accountNumber string) (*ledger.Account, error) {
	var m Account
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "account_number = ?", accountNumber).Error
	if err != nil {
		return nil, notFoundAs(err, domain.ErrAccountNotFound.WithDetail("account %s not found", accountNumber))
	}
	return mapAccountToDomain(&m), nil
}

// Create implements repository.AccountRepository.
func (r *accountRepository) Create(ctx context.Context, account *ledger.Account) error {
	m := mapAccountToModel(account)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return MapGormErrorToDomain(err)
	}
	account.CreatedAt = m.CreatedAt
	account.UpdatedAt = m.UpdatedAt
	return nil
}

// UpdateBalances implements repository.AccountRepository.
func (r *accountRepository) UpdateBalances(ctx context.Context, account *ledger.Account) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&Account{}).
		Where("account_number = ?", account.AccountNumber).
		Updates(map[string]any{
			"balance":     account.Balance,
			"hold_amount": account.HoldAmount,
			"updated_at":  now,
		})
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrAccountNotFound.WithDetail("account %s not found", account.AccountNumber)
	}
	account.UpdatedAt = now
	return nil
}

// UpdateStatus implements repository.AccountRepository.
func (r *accountRepository) UpdateStatus(ctx context.Context, accountNumber string, status ledger.Status) error {
	res := r.db.WithContext(ctx).
		Model(&Account{}).
		Where("account_number = ?", accountNumber).
		Updates(map[string]any{
			"status":     string(status),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrAccountNotFound.WithDetail("account %s not found", accountNumber)
	}
	return nil
}
