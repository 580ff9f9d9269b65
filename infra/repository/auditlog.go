package repository

import (
	"context"
	"time"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/ledger"
	"github.com/amirasaad/corebank/pkg/repository"
	"gorm.io/gorm"
)

type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new audit log repository bound to db.
// The log is append-only: there is no update or delete.
func NewAuditLogRepository(db *gorm.DB) repository.AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Append(ctx context.Context, entry *ledger.AuditEntry) error {
	m := mapAuditToModel(entry)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return MapGormErrorToDomain(err)
	}
	entry.ID = m.ID
	return nil
}

func (r *auditLogRepository) FindByReference(
	ctx context.Context,
	reference string,
	op ledger.OperationType,
	accountNumber string,
) (*ledger.AuditEntry, error) {
	var m BalanceAuditLog
	err := r.db.WithContext(ctx).
		Where("transaction_reference = ? AND operation_type = ? AND account_number = ?", reference, string(op), accountNumber).
		First(&m).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapAuditToDomain(&m), nil
}

func (r *auditLogRepository) ListByReference(ctx context.Context, reference string) ([]*ledger.AuditEntry, error) {
	var ms []BalanceAuditLog
	err := r.db.WithContext(ctx).
		Where("transaction_reference = ?", reference).
		Order("id ASC").
		Find(&ms).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return toAuditEntries(ms), nil
}

func (r *auditLogRepository) ListByAccount(ctx context.Context, accountNumber string, from, to time.Time) ([]*ledger.AuditEntry, error) {
	var ms []BalanceAuditLog
	q := r.db.WithContext(ctx).Where("account_number = ?", accountNumber)
	if !from.IsZero() {
		q = q.Where("operation_time >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("operation_time <= ?", to)
	}
	if err := q.Order("operation_time ASC, id ASC").Find(&ms).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return toAuditEntries(ms), nil
}

func (r *auditLogRepository) LatestBalanceEntry(ctx context.Context, accountNumber string) (*ledger.AuditEntry, error) {
	var m BalanceAuditLog
	err := r.db.WithContext(ctx).
		Where("account_number = ? AND operation_type IN ?", accountNumber,
			[]string{string(ledger.OpDebit), string(ledger.OpCredit)}).
		Order("id DESC").
		First(&m).Error
	if err != nil {
		return nil, notFoundAs(err, domain.ErrNotFound.WithDetail("no balance entries for account %s", accountNumber))
	}
	return mapAuditToDomain(&m), nil
}

func toAuditEntries(ms []BalanceAuditLog) []*ledger.AuditEntry {
	out := make([]*ledger.AuditEntry, 0, len(ms))
	for i := range ms {
		out = append(out, mapAuditToDomain(&ms[i]))
	}
	return out
}
