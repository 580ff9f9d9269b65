package repository

import (
	"context"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/ledger"
	"github.com/amirasaad/corebank/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type fundLockRepository struct {
	db *gorm.DB
}

// NewFundLockRepository creates a new fund lock repository bound to db.
func NewFundLockRepository(db *gorm.DB) repository.FundLockRepository {
	return &fundLockRepository{db: db}
}

// Get implements repository.FundLockRepository.
func (r *fundLockRepository) Get(ctx context.Context, lockID uuid.UUID) (*ledger.FundLock, error) {
	var m FundLock
	if err := r.db.WithContext(ctx).First(&m, "lock_id = ?", lockID).Error; err != nil {
		return nil, notFoundAs(err, domain.ErrLockNotFound.WithDetail("lock %s not found", lockID))
	}
	return mapLockToDomain(&m), nil
}

// GetForUpdate implements repository.FundLockRepository.
func (r *fundLockRepository) GetForUpdate(ctx context.Context, lockID uuid.UUID) (*ledger.FundLock, error) {
	var m FundLock
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "lock_id = ?", lockID).Error
	if err != nil {
		return nil, notFoundAs(err, domain.ErrLockNotFound.WithDetail("lock %s not found", lockID))
	}
	return mapLockToDomain(&m), nil
}

// FindByReference implements repository.FundLockRepository.
func (r *fundLockRepository) FindByReference(
	ctx context.Context,
	referenceID string,
	lockType ledger.LockType,
	status ledger.LockStatus,
) (*ledger.FundLock, error) {
	var m FundLock
	err := r.db.WithContext(ctx).
		Where("reference_id = ? AND lock_type = ? AND status = ?", referenceID, string(lockType), string(status)).
		Order("locked_at DESC").
		First(&m).Error
	if err != nil {
		return nil, notFoundAs(err, domain.ErrLockNotFound.WithDetail("no %s %s lock for reference %s", status, lockType, referenceID))
	}
	return mapLockToDomain(&m), nil
}

// ListByAccount implements repository.FundLockRepository. An empty status lists every lock.
func (r *fundLockRepository) ListByAccount(ctx context.Context, accountNumber string, status ledger.LockStatus) ([]*ledger.FundLock, error) {
	var ms []FundLock
	q := r.db.WithContext(ctx).Where("account_number = ?", accountNumber)
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	if err := q.Order("locked_at ASC").Find(&ms).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*ledger.FundLock, 0, len(ms))
	for i := range ms {
		out = append(out, mapLockToDomain(&ms[i]))
	}
	return out, nil
}

// Create implements repository.FundLockRepository.
func (r *fundLockRepository) Create(ctx context.Context, lock *ledger.FundLock) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(mapLockToModel(lock)).Error
	})
}

// Update implements repository.FundLockRepository.
func (r *fundLockRepository) Update(ctx context.Context, lock *ledger.FundLock) error {
	res := r.db.WithContext(ctx).
		Model(&FundLock{}).
		Where("lock_id = ?", lock.LockID).
		Updates(map[string]any{
			"status":         string(lock.Status),
			"released_at":    lock.ReleasedAt,
			"release_reason": lock.ReleaseReason,
		})
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrLockNotFound.WithDetail("lock %s not found", lock.LockID)
	}
	return nil
}
