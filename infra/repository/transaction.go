package repository

import (
	"context"
	"time"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/ledger"
	"github.com/amirasaad/corebank/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transfer record repository bound to db.
func NewTransactionRepository(db *gorm.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

// Get implements repository.TransactionRepository.
func (r *transactionRepository) Get(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	var m Transaction
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, domain.ErrTransactionNotFound.WithDetail("transaction %s not found", id))
	}
	return mapTransactionToDomain(&m), nil
}

// GetByTraceID implements repository.TransactionRepository.
func (r *transactionRepository) GetByTraceID(ctx context.Context, traceID string) (*ledger.Transaction, error) {
	var m Transaction
	if err := r.db.WithContext(ctx).First(&m, "trace_id = ?", traceID).Error; err != nil {
		return nil, notFoundAs(err, domain.ErrTransactionNotFound.WithDetail("transaction %s not found", traceID))
	}
	return mapTransactionToDomain(&m), nil
}

// GetByTraceIDForUpdate implements repository.TransactionRepository.
func (r *transactionRepository) GetByTraceIDForUpdate(ctx context.Context, traceID string) (*ledger.Transaction, error) {
	var m Transaction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "trace_id = ?", traceID).Error
	if err != nil {
		return nil, notFoundAs(err, domain.ErrTransactionNotFound.WithDetail("transaction %s not found", traceID))
	}
	return mapTransactionToDomain(&m), nil
}

// Create implements repository.TransactionRepository.
func (r *transactionRepository) Create(ctx context.Context, tx *ledger.Transaction) error {
	m := mapTransactionToModel(tx)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return MapGormErrorToDomain(err)
	}
	tx.CreatedAt = m.CreatedAt
	tx.UpdatedAt = m.UpdatedAt
	return nil
}

// Update implements repository.TransactionRepository. It writes every mutable column.
func (r *transactionRepository) Update(ctx context.Context, tx *ledger.Transaction) error {
	tx.UpdatedAt = time.Now().UTC()
	m := mapTransactionToModel(tx)
	res := r.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("id = ?", tx.ID).
		Select(
			"status", "currency", "source_balance_before", "source_balance_after",
			"dest_balance_before", "dest_balance_after", "fee_account",
			"failure_code", "failure_reason", "reversal_of", "reversed_by",
			"compensation_reference", "completed_at", "updated_at",
		).
		Updates(m)
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrTransactionNotFound.WithDetail("transaction %s not found", tx.TraceID)
	}
	return nil
}
